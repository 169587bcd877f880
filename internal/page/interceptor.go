// Package page is the untrusted side of the guard: it intercepts link
// clicks on a page and walks the user through the verdict overlay.
package page

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/idna"

	"github.com/raysh454/phishguard/internal/logging"
)

// Decision is the interceptor's verdict for one link.
type Decision int

const (
	DecisionInternal Decision = iota
	DecisionAllowListed
	DecisionIntercept
)

func (d Decision) String() string {
	switch d {
	case DecisionInternal:
		return "internal"
	case DecisionAllowListed:
		return "allow-listed"
	case DecisionIntercept:
		return "intercept"
	default:
		return "unknown"
	}
}

// ClickEvent is a click delivered to the page-level listener.
type ClickEvent struct {
	// Target is the node that was clicked, possibly nested inside a link.
	Target *html.Node

	defaultPrevented   bool
	propagationStopped bool
}

func (e *ClickEvent) PreventDefault()          { e.defaultPrevented = true }
func (e *ClickEvent) StopPropagation()         { e.propagationStopped = true }
func (e *ClickEvent) DefaultPrevented() bool   { return e.defaultPrevented }
func (e *ClickEvent) PropagationStopped() bool { return e.propagationStopped }

// Opener receives intercepted URLs. The modal Controller implements it.
type Opener interface {
	Open(url string) error
}

// Interceptor classifies clicked links and hands external ones to an Opener.
type Interceptor struct {
	cfg    Config
	opener Opener
	logger logging.Logger

	page     *url.URL
	pageHost string
}

func NewInterceptor(cfg Config, opener Opener, logger logging.Logger) *Interceptor {
	if cfg.Policy == "" {
		cfg.Policy = FailOpen
	}
	if cfg.AllowList == nil {
		cfg.AllowList = DefaultAllowList
	}
	if cfg.EmailDomains == nil {
		cfg.EmailDomains = DefaultEmailDomains
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &Interceptor{
		cfg:    cfg,
		opener: opener,
		logger: logger.With(logging.Field{Key: "component", Value: "interceptor"}),
	}
}

// IsMonitoredPage reports whether pageURL is one of the webmail pages.
func (i *Interceptor) IsMonitoredPage(pageURL string) bool {
	host := hostname(pageURL)
	if host == "" {
		return false
	}
	for _, d := range i.cfg.EmailDomains {
		if d != "" && strings.Contains(host, strings.ToLower(d)) {
			return true
		}
	}
	return false
}

// Install attaches the interceptor to the page at pageURL. It reports false
// and stays detached on pages that are not monitored.
func (i *Interceptor) Install(pageURL string) bool {
	if !i.cfg.MonitorAllPages && !i.IsMonitoredPage(pageURL) {
		i.logger.Debug("page not monitored", logging.Field{Key: "page", Value: pageURL})
		return false
	}
	u, err := url.Parse(pageURL)
	if err != nil {
		return false
	}
	i.page = u
	i.pageHost = hostname(pageURL)
	i.logger.Info("monitoring links", logging.Field{Key: "page", Value: pageURL})
	return true
}

// Installed reports whether Install attached the interceptor.
func (i *Interceptor) Installed() bool {
	return i.page != nil
}

// Classify decides what to do with a click on target while on pageURL.
// Hostless targets such as data: or javascript: links never match the page
// host and are intercepted.
func (i *Interceptor) Classify(target, pageURL string) Decision {
	u, err := url.Parse(target)
	if err != nil {
		if i.cfg.Policy == FailClosed {
			return DecisionIntercept
		}
		return DecisionInternal
	}

	host := normalizeHost(u.Hostname())
	if host == hostname(pageURL) {
		return DecisionInternal
	}
	for _, entry := range i.cfg.AllowList {
		if entry != "" && strings.Contains(host, strings.ToLower(entry)) {
			return DecisionAllowListed
		}
	}
	return DecisionIntercept
}

// HandleClick is the page-level click listener. It looks up the closest link
// around the clicked node at click time, so links added after Install are
// covered. Intercepted clicks are cancelled and handed to the Opener.
func (i *Interceptor) HandleClick(ev *ClickEvent) Decision {
	if ev == nil || ev.Target == nil || !i.Installed() {
		return DecisionInternal
	}

	link := goquery.NewDocumentFromNode(ev.Target).Closest("a[href]")
	href, ok := link.Attr("href")
	if !ok || strings.TrimSpace(href) == "" {
		return DecisionInternal
	}

	target := i.resolve(href)
	d := i.Classify(target, i.page.String())
	if d != DecisionIntercept {
		return d
	}

	ev.PreventDefault()
	ev.StopPropagation()
	i.logger.Info("intercepted link", logging.Field{Key: "url", Value: target})
	if i.opener != nil {
		if err := i.opener.Open(target); err != nil {
			// The click stays cancelled: following it would skip the check.
			i.logger.Warn("link blocked but no overlay opened", logging.Field{Key: "url", Value: target}, logging.Err(err))
		}
	}
	return d
}

// resolve turns href into an absolute URL against the page, as a browser
// does for link.href. Unparseable hrefs are returned unchanged.
func (i *Interceptor) resolve(href string) string {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return href
	}
	return i.page.ResolveReference(ref).String()
}

// hostname extracts the normalised hostname of raw, or "" if there is none.
func hostname(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return normalizeHost(u.Hostname())
}

func normalizeHost(host string) string {
	host = strings.TrimSuffix(strings.ToLower(host), ".")
	if ascii, err := idna.Lookup.ToASCII(host); err == nil {
		return ascii
	}
	return host
}
