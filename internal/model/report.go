package model

// ReportRequest is the body of a phishing report.
type ReportRequest struct {
	URL        string `json:"url"`
	Reason     string `json:"reason"`
	ReportedBy string `json:"reported_by"`
}

// ReportAck is the backend's acknowledgement of a report. On failure the
// gateway returns an ack with Error set instead of an error value.
type ReportAck struct {
	Message string `json:"message"`
	URL     string `json:"url,omitempty"`
	Error   bool   `json:"error,omitempty"`
}

// ReportFailedMessage is the message of a degraded report ack.
const ReportFailedMessage = "Failed to submit report"

// ReportedByExtension identifies reports submitted from the navigation guard.
const ReportedByExtension = "extension_user"
