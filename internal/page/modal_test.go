package page_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/raysh454/phishguard/internal/bridge"
	"github.com/raysh454/phishguard/internal/model"
	"github.com/raysh454/phishguard/internal/page"
	"github.com/raysh454/phishguard/internal/testutil"
)

// scriptedCaller answers analyze calls from a channel so tests control timing.
type scriptedCaller struct {
	mu       sync.Mutex
	requests []bridge.Request
	replies  chan reply
	report   bridge.Response
}

type reply struct {
	resp bridge.Response
	err  error
}

func newScriptedCaller() *scriptedCaller {
	return &scriptedCaller{replies: make(chan reply, 4)}
}

func (c *scriptedCaller) Call(ctx context.Context, req bridge.Request) (bridge.Response, error) {
	c.mu.Lock()
	c.requests = append(c.requests, req)
	c.mu.Unlock()

	if req.Action == bridge.ActionReportPhishing {
		return c.report, nil
	}
	if ctx.Err() != nil {
		return bridge.Response{}, bridge.ErrTimeout
	}
	select {
	case r := <-c.replies:
		return r.resp, r.err
	case <-ctx.Done():
		return bridge.Response{}, bridge.ErrTimeout
	}
}

func (c *scriptedCaller) Requests() []bridge.Request {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]bridge.Request(nil), c.requests...)
}

// recordingRenderer tracks mounts and checks at most one overlay is mounted.
type recordingRenderer struct {
	mu       sync.Mutex
	mounted  int
	maxSeen  int
	views    []page.View
	unmounts int
}

func (r *recordingRenderer) Mount(v page.View) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mounted++
	if r.mounted > r.maxSeen {
		r.maxSeen = r.mounted
	}
	r.views = append(r.views, v)
}

func (r *recordingRenderer) Unmount() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.mounted > 0 {
		r.mounted--
	}
	r.unmounts++
}

func (r *recordingRenderer) Last() page.View {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.views) == 0 {
		return page.View{}
	}
	return r.views[len(r.views)-1]
}

func (r *recordingRenderer) MaxMounted() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.maxSeen
}

func newController(t *testing.T, timeout time.Duration) (*page.Controller, *scriptedCaller, *testutil.DummyNavigator, *recordingRenderer) {
	t.Helper()
	caller := newScriptedCaller()
	nav := &testutil.DummyNavigator{}
	rend := &recordingRenderer{}
	cfg := page.DefaultConfig()
	cfg.LoadingTimeout = timeout
	c := page.NewController(cfg, caller, nav, rend, &testutil.DummyLogger{})
	return c, caller, nav, rend
}

func waitState(t *testing.T, c *page.Controller, want page.State) {
	t.Helper()
	require.Eventually(t, func() bool { return c.Snapshot().State == want },
		2*time.Second, 5*time.Millisecond, "state never became %s (is %s)", want, c.Snapshot().State)
}

func dangerous() *model.AnalysisResult {
	return &model.AnalysisResult{
		RiskLevel: model.RiskDangerous, RiskScore: 0.91, Confidence: 0.8,
		Recommendations: []string{"Do not enter your password"},
	}
}

func TestController_ResultThenProceed(t *testing.T) {
	t.Parallel()
	c, caller, nav, rend := newController(t, time.Second)

	require.NoError(t, c.Open("http://phish.test/"))
	require.Equal(t, page.StateLoading, c.Snapshot().State)
	require.Equal(t, page.StateLoading, rend.Last().State)

	caller.replies <- reply{resp: bridge.Response{OK: true, Result: dangerous()}}
	waitState(t, c, page.StateResult)

	v := rend.Last()
	require.Equal(t, page.StateResult, v.State)
	require.True(t, v.HasButton(page.ButtonReport))

	require.NoError(t, c.Proceed())
	require.Equal(t, []string{"http://phish.test/"}, nav.Visited())
	require.Equal(t, page.StateIdle, c.Snapshot().State)
	require.Equal(t, 1, rend.MaxMounted())

	reqs := caller.Requests()
	require.Len(t, reqs, 1)
	require.Equal(t, bridge.ActionAnalyzeURL, reqs[0].Action)
}

func TestController_DegradedResultGoesToError(t *testing.T) {
	t.Parallel()
	c, caller, nav, rend := newController(t, time.Second)

	require.NoError(t, c.Open("http://x.test/"))
	degraded := model.DegradedResult("http://x.test/")
	caller.replies <- reply{resp: bridge.Response{OK: true, Result: &degraded}}
	waitState(t, c, page.StateError)

	require.Equal(t, model.DegradedMessage, c.Snapshot().Message)
	v := rend.Last()
	require.True(t, v.HasButton(page.ButtonProceed))
	require.True(t, v.HasButton(page.ButtonDismiss))
	require.False(t, v.HasButton(page.ButtonReport))

	require.NoError(t, c.Dismiss())
	require.Empty(t, nav.Visited())
	require.Equal(t, page.StateIdle, c.Snapshot().State)
}

func TestController_BridgeUnavailableGoesToError(t *testing.T) {
	t.Parallel()
	c, caller, _, _ := newController(t, time.Second)

	require.NoError(t, c.Open("http://x.test/"))
	caller.replies <- reply{err: bridge.ErrUnavailable}
	waitState(t, c, page.StateError)
	require.Equal(t, page.MsgUnavailable, c.Snapshot().Message)
}

func TestController_LoadingTimeout(t *testing.T) {
	t.Parallel()
	c, _, _, _ := newController(t, 30*time.Millisecond)

	require.NoError(t, c.Open("http://never.test/"))
	waitState(t, c, page.StateError)
	require.Equal(t, page.MsgTimeout, c.Snapshot().Message)
}

func TestController_OneOverlayAtATime(t *testing.T) {
	t.Parallel()
	c, _, _, _ := newController(t, time.Second)

	require.NoError(t, c.Open("http://a.test/"))
	err := c.Open("http://b.test/")
	require.ErrorIs(t, err, page.ErrInvalidTransition)
	require.Equal(t, "http://a.test/", c.Snapshot().URL)
}

func TestController_InvalidTransitions(t *testing.T) {
	t.Parallel()
	c, _, _, _ := newController(t, time.Second)

	require.ErrorIs(t, c.Proceed(), page.ErrInvalidTransition)
	require.ErrorIs(t, c.Dismiss(), page.ErrInvalidTransition)

	require.NoError(t, c.Open("http://a.test/"))
	require.ErrorIs(t, c.Proceed(), page.ErrInvalidTransition)
	require.ErrorIs(t, c.Dismiss(), page.ErrInvalidTransition)
	_, err := c.Report(context.Background(), "phish")
	require.ErrorIs(t, err, page.ErrInvalidTransition)
}

func TestController_StaleResponseIsDiscarded(t *testing.T) {
	t.Parallel()
	c, caller, _, _ := newController(t, time.Second)

	require.NoError(t, c.Open("http://first.test/"))
	c.Close()
	require.Equal(t, page.StateIdle, c.Snapshot().State)

	require.NoError(t, c.Open("http://second.test/"))
	// The first call was cancelled by Close; this reply answers the second.
	caller.replies <- reply{resp: bridge.Response{OK: true, Result: &model.AnalysisResult{RiskLevel: model.RiskSafe, AllowAccess: true}}}
	waitState(t, c, page.StateResult)
	require.Equal(t, "http://second.test/", c.Snapshot().URL)
}

func TestController_Report(t *testing.T) {
	t.Parallel()
	c, caller, nav, _ := newController(t, time.Second)
	caller.report = bridge.Response{OK: true, Ack: &model.ReportAck{Message: "Thanks", URL: "http://phish.test/"}}

	require.NoError(t, c.Open("http://phish.test/"))
	caller.replies <- reply{resp: bridge.Response{OK: true, Result: dangerous()}}
	waitState(t, c, page.StateResult)

	// Empty reason is a no-op.
	ack, err := c.Report(context.Background(), "   ")
	require.NoError(t, err)
	require.Equal(t, model.ReportAck{}, ack)
	require.Equal(t, page.StateResult, c.Snapshot().State)

	ack, err = c.Report(context.Background(), "asks for my bank password")
	require.NoError(t, err)
	require.Equal(t, "Thanks", ack.Message)
	require.Equal(t, page.StateIdle, c.Snapshot().State)
	require.Empty(t, nav.Visited())

	reqs := caller.Requests()
	require.Len(t, reqs, 2)
	require.Equal(t, bridge.ActionReportPhishing, reqs[1].Action)
	require.Equal(t, "asks for my bank password", reqs[1].Reason)
}

type failingReportCaller struct{ *scriptedCaller }

func (c failingReportCaller) Call(ctx context.Context, req bridge.Request) (bridge.Response, error) {
	if req.Action == bridge.ActionReportPhishing {
		return bridge.Response{}, errors.New("connection reset")
	}
	return c.scriptedCaller.Call(ctx, req)
}

func TestController_ReportFailureStillCloses(t *testing.T) {
	t.Parallel()
	inner := newScriptedCaller()
	c := page.NewController(page.DefaultConfig(), failingReportCaller{inner}, nil, nil, nil)

	require.NoError(t, c.Open("http://phish.test/"))
	inner.replies <- reply{resp: bridge.Response{OK: true, Result: dangerous()}}
	waitState(t, c, page.StateResult)

	ack, err := c.Report(context.Background(), "fake bank")
	require.Error(t, err)
	require.True(t, ack.Error)
	require.Equal(t, page.StateIdle, c.Snapshot().State)
}

func TestController_MountsIntoDocument(t *testing.T) {
	t.Parallel()
	doc := loadMail(t)
	caller := newScriptedCaller()
	c := page.NewController(page.DefaultConfig(), caller, nil, page.NewHTMLRenderer(doc), nil)

	require.NoError(t, c.Open("http://phish.test/<script>"))
	require.Equal(t, 1, doc.Overlays())
	require.Contains(t, doc.OverlayText(), "Analyzing Link...")

	caller.replies <- reply{resp: bridge.Response{OK: true, Result: dangerous()}}
	waitState(t, c, page.StateResult)
	require.Equal(t, 1, doc.Overlays())
	require.True(t, strings.Contains(doc.OverlayText(), "DANGEROUS - Risk Score: 91%"))

	require.NoError(t, c.Dismiss())
	require.Equal(t, 0, doc.Overlays())
}
