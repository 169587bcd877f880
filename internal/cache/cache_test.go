package cache_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/raysh454/phishguard/internal/cache"
	"github.com/raysh454/phishguard/internal/model"
	"github.com/raysh454/phishguard/internal/testutil"
)

var epoch = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

func newCache(clock *testutil.FakeClock) *cache.Cache {
	return cache.New(cache.DefaultConfig(), clock, &testutil.DummyLogger{})
}

func result(level model.RiskLevel) model.AnalysisResult {
	return model.AnalysisResult{URL: "http://x.test", RiskLevel: level, Recommendations: []string{"r"}}
}

func TestCache_LookupMiss(t *testing.T) {
	t.Parallel()
	c := newCache(testutil.NewFakeClock(epoch))
	_, ok := c.Lookup("http://nope.test")
	require.False(t, ok)
}

func TestCache_HitUntilTTLBoundary(t *testing.T) {
	t.Parallel()
	clock := testutil.NewFakeClock(epoch)
	c := newCache(clock)
	c.Store("http://a.test", result(model.RiskSafe))

	clock.Advance(time.Hour - time.Millisecond)
	got, ok := c.Lookup("http://a.test")
	require.True(t, ok, "entry one millisecond before TTL must hit")
	require.Equal(t, model.RiskSafe, got.RiskLevel)

	clock.Advance(time.Millisecond)
	_, ok = c.Lookup("http://a.test")
	require.False(t, ok, "entry exactly at TTL must miss")

	// expired entries stay until swept
	require.Equal(t, 1, c.Len())
}

func TestCache_StoreOverwritesAndRefreshes(t *testing.T) {
	t.Parallel()
	clock := testutil.NewFakeClock(epoch)
	c := newCache(clock)
	c.Store("http://a.test", result(model.RiskSafe))

	clock.Advance(50 * time.Minute)
	c.Store("http://a.test", result(model.RiskDangerous))

	clock.Advance(30 * time.Minute)
	got, ok := c.Lookup("http://a.test")
	require.True(t, ok)
	require.Equal(t, model.RiskDangerous, got.RiskLevel)
}

func TestCache_SweepRemovesOnlyExpired(t *testing.T) {
	t.Parallel()
	clock := testutil.NewFakeClock(epoch)
	c := newCache(clock)

	for i := 0; i < 5; i++ {
		c.Store(fmt.Sprintf("http://old%d.test", i), result(model.RiskSafe))
	}
	clock.Advance(30 * time.Minute)
	for i := 0; i < 3; i++ {
		c.Store(fmt.Sprintf("http://new%d.test", i), result(model.RiskSafe))
	}
	clock.Advance(30 * time.Minute) // old entries now exactly at TTL

	removed := c.Sweep()
	require.Equal(t, 5, removed)
	require.Equal(t, 3, c.Len())
	for i := 0; i < 3; i++ {
		_, ok := c.Lookup(fmt.Sprintf("http://new%d.test", i))
		require.True(t, ok)
	}
	require.Zero(t, c.Sweep())
}

func TestCache_ReturnedResultIsIsolated(t *testing.T) {
	t.Parallel()
	c := newCache(testutil.NewFakeClock(epoch))
	c.Store("http://a.test", result(model.RiskSafe))

	got, _ := c.Lookup("http://a.test")
	got.Recommendations[0] = "mutated"

	again, _ := c.Lookup("http://a.test")
	require.Equal(t, "r", again.Recommendations[0])
}

func TestCache_RunSweepsUntilCancelled(t *testing.T) {
	t.Parallel()
	clock := testutil.NewFakeClock(epoch)
	c := cache.New(cache.Config{TTL: time.Hour, SweepInterval: 5 * time.Millisecond}, clock, nil)
	c.Store("http://a.test", result(model.RiskSafe))
	clock.Advance(2 * time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return c.Len() == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestCache_ConcurrentAccess(t *testing.T) {
	t.Parallel()
	clock := testutil.NewFakeClock(epoch)
	c := newCache(clock)

	done := make(chan struct{})
	for g := 0; g < 8; g++ {
		go func(g int) {
			defer func() { done <- struct{}{} }()
			for i := 0; i < 200; i++ {
				url := fmt.Sprintf("http://%d-%d.test", g, i%10)
				c.Store(url, result(model.RiskSafe))
				c.Lookup(url)
				if i%50 == 0 {
					c.Sweep()
				}
			}
		}(g)
	}
	for g := 0; g < 8; g++ {
		<-done
	}
	require.Equal(t, 80, c.Len())
}
