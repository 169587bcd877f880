package server_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/raysh454/phishguard/internal/bridge"
	"github.com/raysh454/phishguard/internal/model"
	"github.com/raysh454/phishguard/internal/presenter"
	"github.com/raysh454/phishguard/internal/server"
	"github.com/raysh454/phishguard/internal/store"
	"github.com/raysh454/phishguard/internal/testutil"
)

type fakeStats struct{}

func (fakeStats) GetStats(context.Context) model.Stats {
	return model.Stats{RemoteStats: model.RemoteStats{TotalScans: 4}, LocalScans: 2, LocalBlocked: 1}
}

type fakeActivity struct{ scans []model.ScanLogRecord }

func (f fakeActivity) Scans(context.Context) ([]model.ScanLogRecord, error) { return f.scans, nil }

func (fakeActivity) TabAnalysis(_ context.Context, tabID string) (model.AnalysisResult, error) {
	if tabID != "tab-1" {
		return model.AnalysisResult{}, store.ErrNotFound
	}
	return model.AnalysisResult{URL: "http://x.test", RiskLevel: model.RiskSuspicious}, nil
}

type fakeHistory struct {
	gotLimit int
	err      error
}

func (f *fakeHistory) History(_ context.Context, limit int) ([]model.HistoryEntry, error) {
	f.gotLimit = limit
	if f.err != nil {
		return nil, f.err
	}
	return []model.HistoryEntry{{ID: 1, URL: "http://a.test"}}, nil
}

func newTestServer(t *testing.T, hist *fakeHistory) *server.Server {
	t.Helper()
	badge := &presenter.BadgeState{}
	badge.SetBadge(presenter.Badge{Color: presenter.ColorDangerous, Text: "!"})

	d := bridge.NewDispatcher(nil)
	d.Register(bridge.ActionGetStats, func(ctx context.Context, _ bridge.Request) bridge.Response {
		st := fakeStats{}.GetStats(ctx)
		return bridge.Response{OK: true, Stats: &st}
	})

	return server.NewServer(server.Config{Logger: &testutil.DummyLogger{}}, server.Deps{
		Stats:     fakeStats{},
		Activity:  fakeActivity{scans: []model.ScanLogRecord{{ID: 2, URL: "http://b.test"}, {ID: 1, URL: "http://a.test"}}},
		History:   hist,
		Badge:     badge,
		Bridge:    bridge.NewHandler(d, nil),
		CacheSize: func() int { return 7 },
	})
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode JSON response: %v (body: %s)", err, rec.Body.String())
	}
}

// ─── CORS ──────────────────────────────────────────────────────────────

func TestServer_CORS_HeaderPresent(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, &fakeHistory{})
	rec := get(t, s, "/api/stats")
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("Access-Control-Allow-Origin = %q", got)
	}
}

func TestServer_OptionsPreflight(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, &fakeHistory{})
	req := httptest.NewRequest(http.MethodOptions, "/api/scans", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent || rec.Header().Get("Access-Control-Allow-Methods") != "GET" {
		t.Fatalf("preflight: code=%d methods=%q", rec.Code, rec.Header().Get("Access-Control-Allow-Methods"))
	}
}

// ─── Read API ──────────────────────────────────────────────────────────

func TestServer_Health(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, &fakeHistory{})
	var body server.HealthResponse
	decodeJSON(t, get(t, s, "/healthz"), &body)
	if body.Status != "ok" || body.CacheEntries != 7 {
		t.Fatalf("unexpected health %+v", body)
	}
}

func TestServer_Stats(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, &fakeHistory{})
	rec := get(t, s, "/api/stats")
	if !strings.Contains(rec.Body.String(), `"localScans":2`) {
		t.Fatalf("localScans missing: %s", rec.Body.String())
	}
	var st model.Stats
	decodeJSON(t, rec, &st)
	if st.TotalScans != 4 || st.LocalBlocked != 1 {
		t.Fatalf("unexpected stats %+v", st)
	}
}

func TestServer_ScansAndBadge(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, &fakeHistory{})

	var scans []model.ScanLogRecord
	decodeJSON(t, get(t, s, "/api/scans"), &scans)
	if len(scans) != 2 || scans[0].ID != 2 {
		t.Fatalf("unexpected scans %+v", scans)
	}

	var b presenter.Badge
	decodeJSON(t, get(t, s, "/api/badge"), &b)
	if b.Color != presenter.ColorDangerous || b.Text != "!" {
		t.Fatalf("unexpected badge %+v", b)
	}
}

func TestServer_History(t *testing.T) {
	t.Parallel()
	hist := &fakeHistory{}
	s := newTestServer(t, hist)

	rec := get(t, s, "/api/history")
	if rec.Code != http.StatusOK || hist.gotLimit != 20 {
		t.Fatalf("default limit: code=%d limit=%d", rec.Code, hist.gotLimit)
	}
	get(t, s, "/api/history?limit=5")
	if hist.gotLimit != 5 {
		t.Fatalf("limit not forwarded: %d", hist.gotLimit)
	}
	if rec := get(t, s, "/api/history?limit=abc"); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad limit: code=%d", rec.Code)
	}
}

func TestServer_HistoryBackendDown(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, &fakeHistory{err: errors.New("connection refused")})
	var e server.ErrorResponse
	rec := get(t, s, "/api/history")
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("code = %d", rec.Code)
	}
	decodeJSON(t, rec, &e)
	if e.Error == "" {
		t.Fatal("missing error message")
	}
}

func TestServer_TabAnalysis(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, &fakeHistory{})

	var res model.AnalysisResult
	decodeJSON(t, get(t, s, "/api/tabs/tab-1/analysis"), &res)
	if res.RiskLevel != model.RiskSuspicious {
		t.Fatalf("unexpected analysis %+v", res)
	}
	if rec := get(t, s, "/api/tabs/tab-2/analysis"); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown tab: code=%d", rec.Code)
	}
}

func TestServer_SwaggerDoc(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, &fakeHistory{})
	rec := get(t, s, "/swagger/doc.json")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "PhishGuard API") {
		t.Fatalf("swagger doc: code=%d body=%.200s", rec.Code, rec.Body.String())
	}
}

// ─── Bridge ────────────────────────────────────────────────────────────

func TestServer_BridgeOverWebsocket(t *testing.T) {
	t.Parallel()
	ts := httptest.NewServer(newTestServer(t, &fakeHistory{}))
	defer ts.Close()

	c, err := bridge.Dial(context.Background(), "ws"+strings.TrimPrefix(ts.URL, "http")+"/ws/bridge", time.Second, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer c.Close()

	resp, err := c.Call(context.Background(), bridge.Request{Action: bridge.ActionGetStats})
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if !resp.OK || resp.Stats == nil || resp.Stats.LocalScans != 2 {
		t.Fatalf("unexpected response %+v", resp)
	}
}
