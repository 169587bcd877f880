package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/raysh454/phishguard/internal/logging"
	"github.com/raysh454/phishguard/internal/model"
	"github.com/raysh454/phishguard/internal/presenter"
	"github.com/raysh454/phishguard/internal/store"

	_ "github.com/raysh454/phishguard/internal/server/docs" // registers the swagger spec
)

// StatsSource serves merged statistics.
type StatsSource interface {
	GetStats(ctx context.Context) model.Stats
}

// ActivitySource serves the local scan log and per-tab analyses.
type ActivitySource interface {
	Scans(ctx context.Context) ([]model.ScanLogRecord, error)
	TabAnalysis(ctx context.Context, tabID string) (model.AnalysisResult, error)
}

// HistorySource serves the backend's scan history.
type HistorySource interface {
	History(ctx context.Context, limit int) ([]model.HistoryEntry, error)
}

// BadgeSource exposes the current badge.
type BadgeSource interface {
	Current() presenter.Badge
}

// Deps are the background components the server exposes. Bridge is the
// websocket handler mounted at /ws/bridge.
type Deps struct {
	Stats     StatsSource
	Activity  ActivitySource
	History   HistorySource
	Badge     BadgeSource
	Bridge    http.Handler
	CacheSize func() int
}

// Server is the HTTP + WebSocket surface of the background context.
type Server struct {
	cfg    Config
	deps   Deps
	router chi.Router
	logger logging.Logger
}

func NewServer(cfg Config, deps Deps) *Server {
	def := DefaultConfig()
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = def.ListenAddr
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = def.HistoryLimit
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewStdoutLogger("server")
	}

	s := &Server{
		cfg:    cfg,
		deps:   deps,
		router: chi.NewRouter(),
		logger: logger,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router

	r.Use(s.corsMiddleware)

	r.Options("/api/*", s.optionsHandler("GET"))

	r.Get("/healthz", s.handleHealth)

	r.Get("/api/stats", s.handleStats)
	r.Get("/api/scans", s.handleScans)
	r.Get("/api/badge", s.handleBadge)
	r.Get("/api/history", s.handleHistory)
	r.Get("/api/tabs/{tabID}/analysis", s.handleTabAnalysis)

	if s.deps.Bridge != nil {
		r.Get("/ws/bridge", s.deps.Bridge.ServeHTTP)
	}

	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "86400")

		next.ServeHTTP(w, r)
	})
}

func (s *Server) optionsHandler(methods string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Methods", methods)
		w.WriteHeader(http.StatusNoContent)
	}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	fields := []logging.Field{
		{Key: "method", Value: r.Method},
		{Key: "path", Value: r.URL.Path},
	}

	if q := r.URL.Query(); len(q) > 0 {
		fields = append(fields, logging.Field{Key: "query", Value: q})
	}

	if r.Body != nil && (r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch) {
		if bodyBytes, err := io.ReadAll(r.Body); err == nil {
			fields = append(fields, logging.Field{Key: "body", Value: string(bodyBytes)})
			r.Body = io.NopCloser(bytes.NewReader(bodyBytes))
		}
	}

	s.logger.Debug("http_request", fields...)

	s.router.ServeHTTP(w, r)
}

// HTTPServer creates an *http.Server ready to ListenAndServe.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:              s.cfg.ListenAddr,
		Handler:           s,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      0, // websocket bridge is long-lived
	}
}

// --- JSON helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// --- HTTP handlers ---

// handleHealth godoc
// @Summary Liveness probe
// @Tags system
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /healthz [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok"}
	if s.deps.CacheSize != nil {
		resp.CacheEntries = s.deps.CacheSize()
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleStats godoc
// @Summary Merged remote and local statistics
// @Tags activity
// @Produce json
// @Success 200 {object} model.Stats
// @Router /api/stats [get]
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if s.deps.Stats == nil {
		writeError(w, http.StatusServiceUnavailable, "stats unavailable")
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Stats.GetStats(r.Context()))
}

// handleScans godoc
// @Summary Local scan log, newest first
// @Tags activity
// @Produce json
// @Success 200 {array} model.ScanLogRecord
// @Failure 500 {object} ErrorResponse
// @Router /api/scans [get]
func (s *Server) handleScans(w http.ResponseWriter, r *http.Request) {
	if s.deps.Activity == nil {
		writeError(w, http.StatusServiceUnavailable, "activity log unavailable")
		return
	}
	scans, err := s.deps.Activity.Scans(r.Context())
	if err != nil {
		s.logger.Warn("listing scans", logging.Err(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if scans == nil {
		scans = []model.ScanLogRecord{}
	}
	writeJSON(w, http.StatusOK, scans)
}

// handleBadge godoc
// @Summary Current badge
// @Tags activity
// @Produce json
// @Success 200 {object} presenter.Badge
// @Router /api/badge [get]
func (s *Server) handleBadge(w http.ResponseWriter, r *http.Request) {
	if s.deps.Badge == nil {
		writeJSON(w, http.StatusOK, presenter.Badge{})
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Badge.Current())
}

// handleHistory godoc
// @Summary Backend scan history
// @Tags activity
// @Produce json
// @Param limit query int false "maximum entries"
// @Success 200 {array} model.HistoryEntry
// @Failure 400 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /api/history [get]
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.deps.History == nil {
		writeError(w, http.StatusServiceUnavailable, "history unavailable")
		return
	}
	limit := s.cfg.HistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	entries, err := s.deps.History.History(r.Context(), limit)
	if err != nil {
		s.logger.Warn("fetching backend history", logging.Err(err))
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	if entries == nil {
		entries = []model.HistoryEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// handleTabAnalysis godoc
// @Summary Quick-view analysis saved for a tab
// @Tags activity
// @Produce json
// @Param tabID path string true "tab id"
// @Success 200 {object} model.AnalysisResult
// @Failure 404 {object} ErrorResponse
// @Router /api/tabs/{tabID}/analysis [get]
func (s *Server) handleTabAnalysis(w http.ResponseWriter, r *http.Request) {
	if s.deps.Activity == nil {
		writeError(w, http.StatusServiceUnavailable, "activity log unavailable")
		return
	}
	tabID := chi.URLParam(r, "tabID")
	res, err := s.deps.Activity.TabAnalysis(r.Context(), tabID)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "no analysis for tab")
		return
	}
	if err != nil {
		s.logger.Warn("reading tab analysis", logging.Field{Key: "tab_id", Value: tabID}, logging.Err(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}
