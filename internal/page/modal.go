package page

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/raysh454/phishguard/internal/bridge"
	"github.com/raysh454/phishguard/internal/logging"
	"github.com/raysh454/phishguard/internal/model"
)

// State is the overlay lifecycle state.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateResult
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateResult:
		return "result"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// ErrInvalidTransition is returned when an action is not allowed in the
// current state.
var ErrInvalidTransition = errors.New("invalid overlay transition")

// Messages shown in the Error state.
const (
	MsgTimeout     = "Analysis timed out. The PhishGuard service did not answer in time."
	MsgUnavailable = "Could not reach the PhishGuard background service."
	MsgNoResult    = "The PhishGuard service returned no result."
)

// Navigator performs the navigation the user chose.
type Navigator interface {
	SetLocation(url string)
}

// Renderer shows and hides the overlay.
type Renderer interface {
	Mount(v View)
	Unmount()
}

// Snapshot is a copy of the controller state.
type Snapshot struct {
	State   State
	URL     string
	Result  model.AnalysisResult
	Message string
}

// Controller drives the overlay for intercepted links. At most one overlay
// exists at a time; responses from an earlier overlay are ignored.
type Controller struct {
	caller   bridge.Caller
	nav      Navigator
	renderer Renderer
	logger   logging.Logger
	timeout  time.Duration
	tabID    string

	mu        sync.Mutex
	state     State
	url       string
	result    model.AnalysisResult
	message   string
	lifecycle uint64
	cancel    context.CancelFunc
	mounted   bool
}

func NewController(cfg Config, caller bridge.Caller, nav Navigator, renderer Renderer, logger logging.Logger) *Controller {
	if cfg.LoadingTimeout <= 0 {
		cfg.LoadingTimeout = DefaultConfig().LoadingTimeout
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &Controller{
		caller:   caller,
		nav:      nav,
		renderer: renderer,
		logger:   logger.With(logging.Field{Key: "component", Value: "modal"}),
		timeout:  cfg.LoadingTimeout,
	}
}

// SetTabID tags analyze requests with the page's tab id.
func (c *Controller) SetTabID(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tabID = id
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	return Snapshot{State: c.state, URL: c.url, Result: c.result.Clone(), Message: c.message}
}

// Open starts analysis of url and shows the busy overlay. Exactly one
// analyzeUrl call is issued per Open.
func (c *Controller) Open(url string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateIdle {
		return fmt.Errorf("%w: open while %s", ErrInvalidTransition, c.state)
	}

	c.lifecycle++
	id := c.lifecycle
	c.url = url
	c.result = model.AnalysisResult{}
	c.message = ""
	c.transitionLocked(StateLoading)

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	c.cancel = cancel
	req := bridge.Request{Action: bridge.ActionAnalyzeURL, URL: url, TabID: c.tabID}

	// The timer enforces the Loading timeout even if the caller ignores ctx.
	timer := time.AfterFunc(c.timeout, func() {
		c.complete(id, bridge.Response{}, bridge.ErrTimeout)
	})
	go func() {
		resp, err := c.call(ctx, req)
		timer.Stop()
		c.complete(id, resp, err)
	}()
	return nil
}

func (c *Controller) call(ctx context.Context, req bridge.Request) (bridge.Response, error) {
	if c.caller == nil {
		return bridge.Response{}, bridge.ErrUnavailable
	}
	return c.caller.Call(ctx, req)
}

// complete applies an analyze outcome if it belongs to the current overlay.
func (c *Controller) complete(id uint64, resp bridge.Response, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if id != c.lifecycle || c.state != StateLoading {
		c.logger.Debug("discarding stale analysis response", logging.Field{Key: "url", Value: c.url})
		return
	}
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}

	switch {
	case errors.Is(err, bridge.ErrTimeout):
		c.failLocked(MsgTimeout)
	case err != nil:
		c.logger.Warn("analysis call failed", logging.Field{Key: "url", Value: c.url}, logging.Err(err))
		c.failLocked(MsgUnavailable)
	case !resp.OK:
		c.failLocked(resp.Error)
	case resp.Result == nil:
		c.failLocked(MsgNoResult)
	case resp.Result.Error:
		msg := resp.Result.Message
		if msg == "" {
			msg = model.DegradedMessage
		}
		c.failLocked(msg)
	default:
		c.result = resp.Result.Clone()
		c.transitionLocked(StateResult)
	}
}

func (c *Controller) failLocked(msg string) {
	c.message = msg
	c.transitionLocked(StateError)
}

// Proceed navigates to the analysed URL and closes the overlay.
func (c *Controller) Proceed() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateResult && c.state != StateError {
		return fmt.Errorf("%w: proceed while %s", ErrInvalidTransition, c.state)
	}
	if c.nav != nil {
		c.nav.SetLocation(c.url)
	}
	c.transitionLocked(StateIdle)
	return nil
}

// Dismiss closes the overlay without navigating.
func (c *Controller) Dismiss() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateResult && c.state != StateError {
		return fmt.Errorf("%w: dismiss while %s", ErrInvalidTransition, c.state)
	}
	c.transitionLocked(StateIdle)
	return nil
}

// Report submits a phishing report for the analysed URL and closes the
// overlay whatever the outcome. An empty reason does nothing.
func (c *Controller) Report(ctx context.Context, reason string) (model.ReportAck, error) {
	reason = strings.TrimSpace(reason)

	c.mu.Lock()
	if c.state != StateResult {
		state := c.state
		c.mu.Unlock()
		return model.ReportAck{}, fmt.Errorf("%w: report while %s", ErrInvalidTransition, state)
	}
	if reason == "" {
		c.mu.Unlock()
		return model.ReportAck{}, nil
	}
	id := c.lifecycle
	url := c.url
	c.mu.Unlock()

	ack := model.ReportAck{Error: true, Message: model.ReportFailedMessage, URL: url}
	resp, err := c.call(ctx, bridge.Request{Action: bridge.ActionReportPhishing, URL: url, Reason: reason})
	switch {
	case err != nil:
		c.logger.Warn("report call failed", logging.Field{Key: "url", Value: url}, logging.Err(err))
	case resp.Ack != nil:
		ack = *resp.Ack
	}

	c.mu.Lock()
	if id == c.lifecycle && c.state == StateResult {
		c.transitionLocked(StateIdle)
	}
	c.mu.Unlock()
	return ack, err
}

// Close tears the overlay down, abandoning any analysis in flight.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateIdle {
		return
	}
	c.lifecycle++
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.transitionLocked(StateIdle)
}

// transitionLocked unmounts the current overlay before mounting the next.
func (c *Controller) transitionLocked(next State) {
	from := c.state
	if c.mounted && c.renderer != nil {
		c.renderer.Unmount()
	}
	c.mounted = false
	c.state = next

	if next == StateIdle {
		if c.cancel != nil {
			c.cancel()
			c.cancel = nil
		}
		c.url = ""
		c.result = model.AnalysisResult{}
		c.message = ""
	} else if c.renderer != nil {
		c.renderer.Mount(Render(c.snapshotLocked()))
		c.mounted = true
	}
	c.logger.Debug("overlay transition",
		logging.Field{Key: "from", Value: from.String()},
		logging.Field{Key: "to", Value: next.String()})
}
