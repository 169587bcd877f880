package activity_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/raysh454/phishguard/internal/activity"
	"github.com/raysh454/phishguard/internal/model"
	"github.com/raysh454/phishguard/internal/store"
	"github.com/raysh454/phishguard/internal/testutil"
)

type stubStats struct {
	stats model.RemoteStats
	err   error
}

func (s stubStats) Stats(context.Context) (model.RemoteStats, error) { return s.stats, s.err }

func newLogger(t *testing.T, remote activity.StatsSource) *activity.Logger {
	t.Helper()
	st, err := store.OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	clock := testutil.NewFakeClock(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
	return activity.New(st, remote, &testutil.DummyLogger{}, activity.WithNow(clock.Now))
}

func res(level model.RiskLevel, score float64) model.AnalysisResult {
	return model.AnalysisResult{RiskLevel: level, RiskScore: score}
}

func TestRecord_KeepsNewestFifty(t *testing.T) {
	l := newLogger(t, nil)
	ctx := context.Background()

	for i := 1; i <= 60; i++ {
		if err := l.Record(ctx, fmt.Sprintf("http://site%d.test", i), res(model.RiskSafe, 0.1)); err != nil {
			t.Fatalf("Record %d: %v", i, err)
		}
	}

	scans, err := l.Scans(ctx)
	if err != nil {
		t.Fatalf("Scans: %v", err)
	}
	if len(scans) != model.MaxScanLog {
		t.Fatalf("expected %d scans, got %d", model.MaxScanLog, len(scans))
	}
	if scans[0].URL != "http://site60.test" || scans[49].URL != "http://site11.test" {
		t.Fatalf("unexpected window: first=%s last=%s", scans[0].URL, scans[49].URL)
	}
	for i := 1; i < len(scans); i++ {
		if scans[i-1].ID <= scans[i].ID {
			t.Fatalf("ids not strictly decreasing at %d: %d then %d", i, scans[i-1].ID, scans[i].ID)
		}
	}
}

func TestRecord_BlockedCountsDangerousOnly(t *testing.T) {
	l := newLogger(t, nil)
	ctx := context.Background()

	levels := []model.RiskLevel{
		model.RiskDangerous, model.RiskSafe, model.RiskSuspicious,
		model.RiskDangerous, model.RiskUnknown, model.RiskDangerous,
	}
	for i, lvl := range levels {
		if err := l.Record(ctx, fmt.Sprintf("http://%d.test", i), res(lvl, 0.5)); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	blocked, err := l.Blocked(ctx)
	if err != nil {
		t.Fatalf("Blocked: %v", err)
	}
	if blocked != 3 {
		t.Fatalf("expected 3 blocked, got %d", blocked)
	}
}

func TestRecord_ConcurrentWritersDoNotLoseUpdates(t *testing.T) {
	l := newLogger(t, nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if err := l.Record(ctx, fmt.Sprintf("http://%d.test", i), res(model.RiskDangerous, 0.9)); err != nil {
				t.Errorf("Record: %v", err)
			}
		}(i)
	}
	wg.Wait()

	blocked, _ := l.Blocked(ctx)
	scans, _ := l.Scans(ctx)
	if blocked != 20 || len(scans) != 20 {
		t.Fatalf("lost updates: blocked=%d scans=%d", blocked, len(scans))
	}
}

func TestStats_MergesRemoteAndLocal(t *testing.T) {
	remote := stubStats{stats: model.RemoteStats{TotalScans: 100, PhishingDetected: 9, SafeURLs: 80, SuspiciousURLs: 11}}
	l := newLogger(t, remote)
	ctx := context.Background()
	_ = l.Record(ctx, "http://a.test", res(model.RiskDangerous, 0.9))
	_ = l.Record(ctx, "http://b.test", res(model.RiskSafe, 0.1))

	st := l.Stats(ctx)
	if st.Error {
		t.Fatalf("unexpected error flag: %+v", st)
	}
	if st.TotalScans != 100 || st.PhishingDetected != 9 || st.LocalScans != 2 || st.LocalBlocked != 1 {
		t.Fatalf("unexpected stats: %+v", st)
	}
}

func TestStats_RemoteFailureIsFlagged(t *testing.T) {
	l := newLogger(t, stubStats{err: errors.New("connection refused")})
	ctx := context.Background()
	_ = l.Record(ctx, "http://a.test", res(model.RiskSafe, 0.1))

	st := l.Stats(ctx)
	if !st.Error || st.TotalScans != 0 {
		t.Fatalf("expected flagged stats, got %+v", st)
	}
	if st.LocalScans != 1 {
		t.Fatalf("local leg should still be reported, got %+v", st)
	}
}

func TestTabAnalysis_WriteOnce(t *testing.T) {
	l := newLogger(t, nil)
	ctx := context.Background()

	wrote, err := l.SaveTabAnalysis(ctx, "7", res(model.RiskSuspicious, 0.5))
	if err != nil || !wrote {
		t.Fatalf("first save: wrote=%v err=%v", wrote, err)
	}
	wrote, err = l.SaveTabAnalysis(ctx, "7", res(model.RiskSafe, 0.1))
	if err != nil || wrote {
		t.Fatalf("second save: wrote=%v err=%v", wrote, err)
	}

	got, err := l.TabAnalysis(ctx, "7")
	if err != nil {
		t.Fatalf("TabAnalysis: %v", err)
	}
	if got.RiskLevel != model.RiskSuspicious {
		t.Fatalf("tab analysis was refreshed: %+v", got)
	}

	if _, err := l.TabAnalysis(ctx, "8"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
