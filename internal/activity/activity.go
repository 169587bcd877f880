// Package activity keeps the bounded local scan history, the blocked-site
// counter and the per-tab quick-view analyses in durable storage.
package activity

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/raysh454/phishguard/internal/logging"
	"github.com/raysh454/phishguard/internal/model"
	"github.com/raysh454/phishguard/internal/store"
)

// StatsSource supplies the remote aggregate counters.
type StatsSource interface {
	Stats(ctx context.Context) (model.RemoteStats, error)
}

// Logger records completed analyses.
type Logger struct {
	store  store.Store
	remote StatsSource
	logger logging.Logger
	now    func() time.Time

	// mu serialises the scans+blocked read-modify-write.
	mu sync.Mutex
}

// Option customises a Logger.
type Option func(*Logger)

// WithNow overrides the timestamp source.
func WithNow(now func() time.Time) Option {
	return func(l *Logger) { l.now = now }
}

// New creates an activity Logger. remote may be nil, in which case Stats
// reports local counts only and flags the remote leg as failed.
func New(st store.Store, remote StatsSource, logger logging.Logger, opts ...Option) *Logger {
	if logger == nil {
		logger = logging.Nop()
	}
	l := &Logger{
		store:  st,
		remote: remote,
		logger: logger.With(logging.Field{Key: "component", Value: "activity"}),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Record prepends a scan record, keeps the newest model.MaxScanLog entries and
// bumps the blocked counter for dangerous results. Both keys are written in
// one transaction.
func (l *Logger) Record(ctx context.Context, url string, result model.AnalysisResult) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	err := l.store.Update(ctx, func(tx store.Tx) error {
		var scans []model.ScanLogRecord
		if err := tx.Get(store.KeyScans, &scans); err != nil && !errors.Is(err, store.ErrNotFound) {
			return err
		}
		var blocked int64
		if err := tx.Get(store.KeyBlocked, &blocked); err != nil && !errors.Is(err, store.ErrNotFound) {
			return err
		}

		var nextID int64 = 1
		if len(scans) > 0 {
			nextID = scans[0].ID + 1
		}
		rec := model.ScanLogRecord{
			ID:        nextID,
			URL:       url,
			RiskLevel: result.RiskLevel,
			RiskScore: result.RiskScore,
			Timestamp: l.now().UTC(),
		}

		updated := make([]model.ScanLogRecord, 0, model.MaxScanLog)
		updated = append(updated, rec)
		updated = append(updated, scans...)
		if len(updated) > model.MaxScanLog {
			updated = updated[:model.MaxScanLog]
		}
		if result.RiskLevel == model.RiskDangerous {
			blocked++
		}

		if err := tx.Set(store.KeyScans, updated); err != nil {
			return err
		}
		return tx.Set(store.KeyBlocked, blocked)
	})
	if err != nil {
		return fmt.Errorf("activity: record scan: %w", err)
	}
	return nil
}

// Scans returns the stored history, newest first.
func (l *Logger) Scans(ctx context.Context) ([]model.ScanLogRecord, error) {
	var scans []model.ScanLogRecord
	if err := l.store.Get(ctx, store.KeyScans, &scans); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return []model.ScanLogRecord{}, nil
		}
		return nil, fmt.Errorf("activity: read scans: %w", err)
	}
	return scans, nil
}

// Blocked returns the number of dangerous classifications recorded.
func (l *Logger) Blocked(ctx context.Context) (int64, error) {
	var blocked int64
	if err := l.store.Get(ctx, store.KeyBlocked, &blocked); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("activity: read blocked: %w", err)
	}
	return blocked, nil
}

// Stats merges the backend aggregates with the local scan and blocked
// counts. The two legs run concurrently. A failed remote leg is reported
// through the Error flag rather than an error value.
func (l *Logger) Stats(ctx context.Context) model.Stats {
	var (
		out       model.Stats
		remoteErr error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if l.remote == nil {
			remoteErr = errors.New("no remote stats source")
			return nil
		}
		rs, err := l.remote.Stats(gctx)
		if err != nil {
			remoteErr = err
			return nil
		}
		out.RemoteStats = rs
		return nil
	})
	g.Go(func() error {
		scans, err := l.Scans(gctx)
		if err != nil {
			l.logger.Warn("reading local scans for stats", logging.Err(err))
		}
		blocked, err := l.Blocked(gctx)
		if err != nil {
			l.logger.Warn("reading blocked counter for stats", logging.Err(err))
		}
		out.LocalScans = len(scans)
		out.LocalBlocked = blocked
		return nil
	})
	_ = g.Wait()

	if remoteErr != nil {
		l.logger.Warn("remote stats unavailable", logging.Err(remoteErr))
		out.RemoteStats = model.RemoteStats{}
		out.Error = true
		out.Message = "Failed to load remote statistics"
	}
	return out
}

// SaveTabAnalysis stores the first analysis seen for a tab. Later calls for
// the same tab leave the stored value untouched.
func (l *Logger) SaveTabAnalysis(ctx context.Context, tabID string, result model.AnalysisResult) (bool, error) {
	if tabID == "" {
		return false, nil
	}
	wrote, err := l.store.SetIfAbsent(ctx, store.TabAnalysisKey(tabID), result)
	if err != nil {
		return false, fmt.Errorf("activity: save tab analysis: %w", err)
	}
	return wrote, nil
}

// TabAnalysis returns the stored analysis for a tab, or store.ErrNotFound.
func (l *Logger) TabAnalysis(ctx context.Context, tabID string) (model.AnalysisResult, error) {
	var out model.AnalysisResult
	if err := l.store.Get(ctx, store.TabAnalysisKey(tabID), &out); err != nil {
		return model.AnalysisResult{}, err
	}
	return out, nil
}
