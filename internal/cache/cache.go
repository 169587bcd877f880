package cache

import (
	"context"
	"sync"
	"time"

	"github.com/raysh454/phishguard/internal/logging"
	"github.com/raysh454/phishguard/internal/model"
)

// Clock supplies the current time. Tests inject a fake one.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

type entry struct {
	result    model.AnalysisResult
	fetchedAt time.Time
}

// Cache maps URLs to analysis results for a fixed TTL. It is memory only and
// starts empty every time the background context starts.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry

	ttl      time.Duration
	interval time.Duration
	clock    Clock
	logger   logging.Logger
}

// New creates a Cache. Zero config fields take their defaults and a nil
// clock means the system clock.
func New(cfg Config, clock Clock, logger logging.Logger) *Cache {
	def := DefaultConfig()
	if cfg.TTL <= 0 {
		cfg.TTL = def.TTL
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = def.SweepInterval
	}
	if clock == nil {
		clock = SystemClock{}
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &Cache{
		entries:  make(map[string]entry),
		ttl:      cfg.TTL,
		interval: cfg.SweepInterval,
		clock:    clock,
		logger:   logger.With(logging.Field{Key: "component", Value: "cache"}),
	}
}

// TTL returns the configured entry lifetime.
func (c *Cache) TTL() time.Duration { return c.ttl }

// Lookup returns the cached result for url when it is younger than the TTL.
// Expired entries are reported as a miss but left for Sweep to remove.
func (c *Cache) Lookup(url string) (model.AnalysisResult, bool) {
	c.mu.RLock()
	e, ok := c.entries[url]
	c.mu.RUnlock()
	if !ok {
		return model.AnalysisResult{}, false
	}
	if !c.valid(e, c.clock.Now()) {
		return model.AnalysisResult{}, false
	}
	return e.result.Clone(), true
}

// Store overwrites any entry for url and stamps it with the current time.
func (c *Cache) Store(url string, result model.AnalysisResult) {
	e := entry{result: result.Clone(), fetchedAt: c.clock.Now()}
	c.mu.Lock()
	c.entries[url] = e
	c.mu.Unlock()
}

// Len returns the number of entries, expired ones included.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Sweep deletes every entry whose age has reached the TTL and returns how
// many were removed. Candidates are collected under the read lock so lookups
// are not held up by the scan.
func (c *Cache) Sweep() int {
	now := c.clock.Now()

	c.mu.RLock()
	var expired []string
	for url, e := range c.entries {
		if !c.valid(e, now) {
			expired = append(expired, url)
		}
	}
	c.mu.RUnlock()

	if len(expired) == 0 {
		return 0
	}

	removed := 0
	c.mu.Lock()
	for _, url := range expired {
		// re-check: a Store may have refreshed the entry since the scan
		if e, ok := c.entries[url]; ok && !c.valid(e, now) {
			delete(c.entries, url)
			removed++
		}
	}
	c.mu.Unlock()
	return removed
}

// Run sweeps on every interval tick until ctx is done.
func (c *Cache) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.logger.Info("cache sweeper started",
		logging.Field{Key: "ttl", Value: c.ttl.String()},
		logging.Field{Key: "interval", Value: c.interval.String()})

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("cache sweeper stopped")
			return
		case <-ticker.C:
			if n := c.Sweep(); n > 0 {
				c.logger.Debug("swept expired entries", logging.Field{Key: "removed", Value: n})
			}
		}
	}
}

func (c *Cache) valid(e entry, now time.Time) bool {
	return now.Sub(e.fetchedAt) < c.ttl
}
