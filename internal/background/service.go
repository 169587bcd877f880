// Package background is the trusted side of the guard: it owns the analysis
// cache, talks to the risk gateway and records activity.
package background

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/raysh454/phishguard/internal/bridge"
	"github.com/raysh454/phishguard/internal/cache"
	"github.com/raysh454/phishguard/internal/logging"
	"github.com/raysh454/phishguard/internal/model"
)

// Gateway is the subset of the risk gateway client the service needs.
type Gateway interface {
	Analyze(ctx context.Context, req model.AnalysisRequest) model.AnalysisResult
	Report(ctx context.Context, url, reason string) model.ReportAck
}

// Presenter shows a fresh analysis to the user.
type Presenter interface {
	Present(ctx context.Context, url string, result model.AnalysisResult)
}

// Activity persists analyses and serves statistics.
type Activity interface {
	Record(ctx context.Context, url string, result model.AnalysisResult) error
	SaveTabAnalysis(ctx context.Context, tabID string, result model.AnalysisResult) (bool, error)
	Stats(ctx context.Context) model.Stats
}

var errMissingURL = errors.New("url is required")

// recordTimeout bounds the bookkeeping done after a fresh analysis.
const recordTimeout = 5 * time.Second

// Service implements the three bridge actions.
type Service struct {
	cache     *cache.Cache
	gateway   Gateway
	presenter Presenter
	activity  Activity
	logger    logging.Logger
}

func NewService(c *cache.Cache, gw Gateway, p Presenter, a Activity, logger logging.Logger) *Service {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Service{
		cache:     c,
		gateway:   gw,
		presenter: p,
		activity:  a,
		logger:    logger.With(logging.Field{Key: "component", Value: "background"}),
	}
}

// AnalyzeURL returns the risk assessment for url. A fresh cache entry is
// returned as is. Otherwise the gateway is asked; a successful answer is
// cached, presented and logged, while a degraded one is only returned.
// Storage failures are logged and never change the result.
func (s *Service) AnalyzeURL(ctx context.Context, url, tabID string) model.AnalysisResult {
	if cached, ok := s.cache.Lookup(url); ok {
		s.logger.Debug("returning cached result", logging.Field{Key: "url", Value: url})
		return cached
	}

	result := s.gateway.Analyze(ctx, model.AnalysisRequest{URL: url})
	if result.IsDegraded() {
		return result
	}

	// Cache hits are never logged, so bookkeeping outlives the caller.
	s.cache.Store(url, result)
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()

	if s.presenter != nil {
		s.presenter.Present(rctx, url, result)
	}
	if s.activity == nil {
		return result
	}
	if err := s.activity.Record(rctx, url, result); err != nil {
		s.logger.Warn("recording scan", logging.Field{Key: "url", Value: url}, logging.Err(err))
	}
	if tabID != "" {
		if _, err := s.activity.SaveTabAnalysis(rctx, tabID, result); err != nil {
			s.logger.Warn("saving tab analysis", logging.Field{Key: "tab_id", Value: tabID}, logging.Err(err))
		}
	}
	return result
}

// ReportPhishing forwards a user report to the gateway.
func (s *Service) ReportPhishing(ctx context.Context, url, reason string) model.ReportAck {
	ack := s.gateway.Report(ctx, url, reason)
	if ack.Error {
		s.logger.Warn("report was not accepted", logging.Field{Key: "url", Value: url})
	} else {
		s.logger.Info("reported phishing", logging.Field{Key: "url", Value: url})
	}
	return ack
}

// GetStats merges remote and local statistics.
func (s *Service) GetStats(ctx context.Context) model.Stats {
	if s.activity == nil {
		return model.Stats{Error: true}
	}
	return s.activity.Stats(ctx)
}

// RegisterHandlers installs the service's actions on d.
func (s *Service) RegisterHandlers(d *bridge.Dispatcher) {
	d.Register(bridge.ActionAnalyzeURL, s.handleAnalyze)
	d.Register(bridge.ActionReportPhishing, s.handleReport)
	d.Register(bridge.ActionGetStats, s.handleStats)
}

func (s *Service) handleAnalyze(ctx context.Context, req bridge.Request) bridge.Response {
	if strings.TrimSpace(req.URL) == "" {
		return bridge.Failure(req.ID, errMissingURL)
	}
	result := s.AnalyzeURL(ctx, req.URL, req.TabID)
	return bridge.Response{OK: true, Result: &result}
}

func (s *Service) handleReport(ctx context.Context, req bridge.Request) bridge.Response {
	if strings.TrimSpace(req.URL) == "" {
		return bridge.Failure(req.ID, errMissingURL)
	}
	ack := s.ReportPhishing(ctx, req.URL, req.Reason)
	return bridge.Response{OK: true, Ack: &ack}
}

func (s *Service) handleStats(ctx context.Context, _ bridge.Request) bridge.Response {
	stats := s.GetStats(ctx)
	return bridge.Response{OK: true, Stats: &stats}
}
