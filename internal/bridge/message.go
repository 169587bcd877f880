// Package bridge carries typed request/response messages between the page
// context and the background context.
package bridge

import (
	"errors"

	"github.com/raysh454/phishguard/internal/model"
)

// Action names a background operation.
type Action string

const (
	ActionAnalyzeURL     Action = "analyzeUrl"
	ActionReportPhishing Action = "reportPhishing"
	ActionGetStats       Action = "getStats"
)

var (
	// ErrUnavailable means the background context cannot be reached.
	ErrUnavailable = errors.New("bridge: background unavailable")
	// ErrTimeout means no response arrived before the call deadline.
	ErrTimeout = errors.New("bridge: call timed out")
	// ErrUnknownAction is reported for actions with no registered handler.
	ErrUnknownAction = errors.New("bridge: unknown action")
)

// Request is sent from a page to the background.
type Request struct {
	ID     string `json:"id"`
	Action Action `json:"action"`
	URL    string `json:"url,omitempty"`
	Reason string `json:"reason,omitempty"`
	TabID  string `json:"tab_id,omitempty"`
}

// Response answers exactly one Request, matched by ID.
type Response struct {
	ID     string                `json:"id"`
	OK     bool                  `json:"ok"`
	Error  string                `json:"error,omitempty"`
	Result *model.AnalysisResult `json:"result,omitempty"`
	Ack    *model.ReportAck      `json:"ack,omitempty"`
	Stats  *model.Stats          `json:"stats,omitempty"`
}

// Failure builds an error response.
func Failure(id string, err error) Response {
	return Response{ID: id, OK: false, Error: err.Error()}
}
