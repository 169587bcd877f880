// Package presenter turns completed analyses into a persistent badge and,
// for dangerous results, an OS-level alert.
package presenter

import (
	"context"
	"sync"
	"time"

	"github.com/raysh454/phishguard/internal/logging"
	"github.com/raysh454/phishguard/internal/model"
)

const (
	// BadgeText is shown on the badge after every analysis.
	BadgeText = "!"

	// AlertTitle is the title of the dangerous-site alert.
	AlertTitle = "⚠️ Phishing Warning"

	// alertURLMax is how much of the URL the alert shows.
	alertURLMax = 50
)

// Badge is the indicator state after the last analysis.
type Badge struct {
	Color     string          `json:"color"`
	Text      string          `json:"text"`
	Level     model.RiskLevel `json:"risk_level"`
	URL       string          `json:"url,omitempty"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// BadgeSink receives badge updates.
type BadgeSink interface {
	SetBadge(b Badge)
}

// BadgeState keeps the current badge in memory.
type BadgeState struct {
	mu  sync.RWMutex
	cur Badge
}

func (s *BadgeState) SetBadge(b Badge) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cur = b
}

// Current returns the last badge set, or the zero Badge.
func (s *BadgeState) Current() Badge {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur
}

// Presenter updates the badge and raises alerts. Nothing it does can fail
// the calling flow.
type Presenter struct {
	badge    BadgeSink
	notifier Notifier
	logger   logging.Logger
	timeout  time.Duration
	now      func() time.Time

	wg sync.WaitGroup
}

// New creates a Presenter. A nil notifier disables alerts.
func New(badge BadgeSink, notifier Notifier, logger logging.Logger) *Presenter {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Presenter{
		badge:    badge,
		notifier: notifier,
		logger:   logger.With(logging.Field{Key: "component", Value: "presenter"}),
		timeout:  5 * time.Second,
		now:      time.Now,
	}
}

// Present sets the badge for result and, when it is dangerous, raises an
// alert in the background.
func (p *Presenter) Present(ctx context.Context, url string, result model.AnalysisResult) {
	if p.badge != nil {
		p.badge.SetBadge(Badge{
			Color:     ColorFor(result.RiskLevel),
			Text:      BadgeText,
			Level:     result.RiskLevel,
			URL:       url,
			UpdatedAt: p.now().UTC(),
		})
	}

	if result.RiskLevel != model.RiskDangerous || p.notifier == nil {
		return
	}

	msg := AlertMessage(url)
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
		defer cancel()
		if err := p.notifier.Notify(nctx, AlertTitle, msg); err != nil {
			p.logger.Warn("raising dangerous-site alert", logging.Field{Key: "url", Value: url}, logging.Err(err))
		}
	}()
}

// Wait blocks until in-flight alerts have been delivered or failed.
func (p *Presenter) Wait() {
	p.wg.Wait()
}

// AlertMessage is the body of the dangerous-site alert.
func AlertMessage(url string) string {
	return "Dangerous site detected: " + model.Truncate(url, alertURLMax) + "..."
}
