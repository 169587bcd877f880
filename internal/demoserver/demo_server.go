// Package demoserver serves a small webmail inbox and a canned risk
// backend so the whole flow can be tried locally without the real analysis
// service.
package demoserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/raysh454/phishguard/internal/logging"
	"github.com/raysh454/phishguard/internal/model"
)

// isoFormat matches the backend's naive timestamp layout.
const isoFormat = "2006-01-02T15:04:05.000000"

var controlTmpl = template.Must(template.New("control").Parse(controlPanelHTML))

// DemoServer holds the switchable verdicts and what the fake backend has
// seen so far.
type DemoServer struct {
	cfg    Config
	logger logging.Logger

	mu       sync.RWMutex
	verdicts map[string]Verdict
	order    []string
	history  []model.HistoryEntry
	stats    model.RemoteStats
	reports  []model.ReportRequest
}

// NewDemoServer creates a new demo server instance.
func NewDemoServer(cfg Config, logger logging.Logger) *DemoServer {
	if cfg.HistoryCap <= 0 {
		cfg.HistoryCap = DefaultConfig().HistoryCap
	}
	if logger == nil {
		logger = logging.Nop()
	}
	s := &DemoServer{
		cfg:    cfg,
		logger: logger.With(logging.Field{Key: "component", Value: "demoserver"}),
	}
	s.reset()
	return s
}

func (s *DemoServer) reset() {
	s.verdicts = make(map[string]Verdict)
	s.order = s.order[:0]
	for _, v := range DefaultVerdicts() {
		s.verdicts[v.Host] = v
		s.order = append(s.order, v.Host)
	}
	s.history = nil
	s.stats = model.RemoteStats{}
	s.reports = nil
}

// Handler returns the demo routes: the inbox under /mail, the fake backend
// under /api plus /health, and the control panel under /demo.
func (s *DemoServer) Handler() http.Handler {
	r := chi.NewRouter()

	r.Get("/mail/{folder}", s.inboxHandler)
	r.Get("/health", s.healthHandler)

	r.Route("/api", func(r chi.Router) {
		r.Post("/analyze", s.analyzeHandler)
		r.Post("/report", s.reportHandler)
		r.Get("/stats", s.statsHandler)
		r.Get("/history", s.historyHandler)
	})

	r.Get("/demo/control", s.controlPanelHandler)
	r.Get("/demo/get-verdicts", s.getVerdictsHandler)
	r.Post("/demo/set-verdict", s.setVerdictHandler)
	r.Post("/demo/reset", s.resetHandler)
	return r
}

// Start listens on cfg.Port until ctx is cancelled.
func (s *DemoServer) Start(ctx context.Context) error {
	addr := fmt.Sprintf("127.0.0.1:%d", s.cfg.Port)
	srv := &http.Server{Addr: addr, Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info("demo server starting",
		logging.Field{Key: "inbox", Value: "http://" + addr + "/mail/inbox"},
		logging.Field{Key: "backend", Value: "http://" + addr + "/api"},
		logging.Field{Key: "control", Value: "http://" + addr + "/demo/control"})
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("demo server: %w", err)
	}
	return nil
}

func (s *DemoServer) inboxHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(inboxHTML))
}

func (s *DemoServer) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(isoFormat),
	})
}

func (s *DemoServer) analyzeHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req model.AnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.URL) == "" {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": "url is required"})
		return
	}

	result := s.classify(req.URL)
	result.ScanTime = time.Since(start).Seconds()

	s.mu.Lock()
	s.stats.TotalScans++
	switch result.RiskLevel {
	case model.RiskDangerous:
		s.stats.PhishingDetected++
	case model.RiskSafe:
		s.stats.SafeURLs++
	case model.RiskSuspicious:
		s.stats.SuspiciousURLs++
	}
	entry := model.HistoryEntry{
		ID:         s.stats.TotalScans,
		URL:        req.URL,
		RiskLevel:  result.RiskLevel,
		RiskScore:  result.RiskScore,
		Confidence: result.Confidence,
		Timestamp:  time.Now().Format(isoFormat),
		ScanTime:   result.ScanTime,
	}
	s.history = append([]model.HistoryEntry{entry}, s.history...)
	if len(s.history) > s.cfg.HistoryCap {
		s.history = s.history[:s.cfg.HistoryCap]
	}
	s.mu.Unlock()

	s.logger.Info("analyzed",
		logging.Field{Key: "url", Value: req.URL},
		logging.Field{Key: "risk_level", Value: result.RiskLevel})
	writeJSON(w, http.StatusOK, result)
}

// classify uses the canned verdict for known hosts and a keyword heuristic
// for everything else.
func (s *DemoServer) classify(rawURL string) model.AnalysisResult {
	host := ""
	u, err := url.Parse(rawURL)
	if err == nil {
		host = strings.ToLower(u.Hostname())
	}

	s.mu.RLock()
	v, known := s.verdicts[host]
	s.mu.RUnlock()

	var (
		level      model.RiskLevel
		score      float64
		confidence float64
	)
	if known {
		level = v.Level
		confidence = 0.95
		switch level {
		case model.RiskDangerous:
			score = 0.92
		case model.RiskSuspicious:
			score = 0.55
		default:
			score = 0.05
		}
	} else {
		score = heuristicScore(rawURL, u)
		confidence = 0.6
		switch {
		case score < 0.3:
			level = model.RiskSafe
		case score < 0.7:
			level = model.RiskSuspicious
		default:
			level = model.RiskDangerous
		}
	}

	return model.AnalysisResult{
		URL:             rawURL,
		RiskScore:       score,
		RiskLevel:       level,
		Confidence:      confidence,
		Recommendations: append([]string(nil), recommendations[level]...),
		AllowAccess:     level == model.RiskSafe,
		Features: map[string]any{
			"known_host":          known,
			"suspicious_keywords": countKeywords(rawURL),
		},
	}
}

func heuristicScore(rawURL string, u *url.URL) float64 {
	score := 0.1 + 0.15*float64(countKeywords(rawURL))
	if u == nil || u.Scheme != "https" {
		score += 0.2
	}
	if u != nil && net.ParseIP(u.Hostname()) != nil {
		score += 0.3
	}
	if score > 0.99 {
		score = 0.99
	}
	return score
}

func countKeywords(rawURL string) int {
	lower := strings.ToLower(rawURL)
	n := 0
	for _, kw := range suspiciousKeywords {
		if strings.Contains(lower, kw) {
			n++
		}
	}
	return n
}

func (s *DemoServer) reportHandler(w http.ResponseWriter, r *http.Request) {
	var req model.ReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.URL) == "" {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": "url is required"})
		return
	}
	s.mu.Lock()
	s.reports = append(s.reports, req)
	s.mu.Unlock()

	s.logger.Info("phishing report",
		logging.Field{Key: "url", Value: req.URL},
		logging.Field{Key: "reason", Value: req.Reason},
		logging.Field{Key: "reported_by", Value: req.ReportedBy})
	writeJSON(w, http.StatusOK, model.ReportAck{Message: "Report received", URL: req.URL})
}

func (s *DemoServer) statsHandler(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	st := s.stats
	s.mu.RUnlock()
	writeJSON(w, http.StatusOK, st)
}

func (s *DemoServer) historyHandler(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": "invalid limit"})
			return
		}
		limit = n
	}

	s.mu.RLock()
	if limit > len(s.history) {
		limit = len(s.history)
	}
	out := append([]model.HistoryEntry{}, s.history[:limit]...)
	s.mu.RUnlock()
	writeJSON(w, http.StatusOK, out)
}

// Reports returns the reports received so far.
func (s *DemoServer) Reports() []model.ReportRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.ReportRequest(nil), s.reports...)
}

func (s *DemoServer) verdictList() []Verdict {
	out := make([]Verdict, 0, len(s.order))
	for _, h := range s.order {
		out = append(out, s.verdicts[h])
	}
	return out
}

func (s *DemoServer) controlPanelHandler(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	data := struct {
		Verdicts []Verdict
		Levels   []model.RiskLevel
		Stats    model.RemoteStats
		Reports  int
	}{
		Verdicts: s.verdictList(),
		Levels:   []model.RiskLevel{model.RiskSafe, model.RiskSuspicious, model.RiskDangerous},
		Stats:    s.stats,
		Reports:  len(s.reports),
	}
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := controlTmpl.Execute(w, data); err != nil {
		s.logger.Warn("rendering control panel", logging.Err(err))
	}
}

func (s *DemoServer) getVerdictsHandler(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	out := s.verdictList()
	s.mu.RUnlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *DemoServer) setVerdictHandler(w http.ResponseWriter, r *http.Request) {
	host := strings.ToLower(strings.TrimSpace(r.FormValue("host")))
	level := model.RiskLevel(r.FormValue("level"))
	if host == "" || level.Normalize() == model.RiskUnknown {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": "host and a known level are required"})
		return
	}

	s.mu.Lock()
	v, ok := s.verdicts[host]
	if !ok {
		v = Verdict{Host: host, Description: "Added from control panel"}
		s.order = append(s.order, host)
	}
	v.Level = level.Normalize()
	s.verdicts[host] = v
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "host": host, "level": v.Level})
}

func (s *DemoServer) resetHandler(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.reset()
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Verdicts and counters reset"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
