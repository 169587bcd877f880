package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/raysh454/phishguard/internal/logging"
	"github.com/raysh454/phishguard/internal/model"
)

// maxBodyBytes caps how much of a backend response is read.
const maxBodyBytes = 4 << 20

// StatusError is returned when the backend answers with a non-2xx status.
type StatusError struct {
	Method string
	Path   string
	Code   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.Path, e.Code)
}

// Client talks to the remote risk-analysis backend. Analyze and Report never
// return errors: failures are folded into degraded values so callers can keep
// going.
type Client struct {
	base       *url.URL
	http       *http.Client
	limiter    *rate.Limiter
	reportedBy string
	logger     logging.Logger
}

// NewClient builds a Client. httpClient is optional; nil gets a client with
// cfg.Timeout.
func NewClient(cfg Config, logger logging.Logger, httpClient *http.Client) (*Client, error) {
	def := DefaultConfig()
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.ReportedBy == "" {
		cfg.ReportedBy = def.ReportedBy
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("gateway: parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("gateway: base url %q must be absolute", cfg.BaseURL)
	}
	if logger == nil {
		logger = logging.Nop()
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	c := &Client{
		base:       base,
		http:       httpClient,
		reportedBy: cfg.ReportedBy,
		logger:     logger.With(logging.Field{Key: "component", Value: "gateway"}),
	}
	if cfg.MaxRPS > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.MaxRPS), 1)
	}

	c.logger.Info("created gateway client",
		logging.Field{Key: "base_url", Value: base.String()},
		logging.Field{Key: "timeout", Value: httpClient.Timeout.String()})
	return c, nil
}

// Analyze classifies req.URL. On any transport failure, non-success status
// or undecodable body it returns model.DegradedResult.
func (c *Client) Analyze(ctx context.Context, req model.AnalysisRequest) model.AnalysisResult {
	start := time.Now()
	var out model.AnalysisResult
	if err := c.do(ctx, http.MethodPost, "/analyze", nil, req, &out); err != nil {
		c.logger.Warn("analysis request failed, returning degraded result",
			logging.Field{Key: "url", Value: req.URL},
			logging.Err(err))
		return model.DegradedResult(req.URL)
	}
	c.logger.Debug("analysis complete",
		logging.Field{Key: "url", Value: req.URL},
		logging.Field{Key: "risk_level", Value: out.RiskLevel},
		logging.Field{Key: "elapsed", Value: time.Since(start).String()})
	return out
}

// Report submits a phishing report. Failures yield an ack with Error set.
func (c *Client) Report(ctx context.Context, rawURL, reason string) model.ReportAck {
	body := model.ReportRequest{URL: rawURL, Reason: reason, ReportedBy: c.reportedBy}
	var ack model.ReportAck
	if err := c.do(ctx, http.MethodPost, "/report", nil, body, &ack); err != nil {
		c.logger.Warn("report request failed",
			logging.Field{Key: "url", Value: rawURL},
			logging.Err(err))
		return model.ReportAck{Error: true, Message: model.ReportFailedMessage, URL: rawURL}
	}
	return ack
}

// Stats fetches the backend's aggregate counters.
func (c *Client) Stats(ctx context.Context) (model.RemoteStats, error) {
	var out model.RemoteStats
	if err := c.do(ctx, http.MethodGet, "/stats", nil, nil, &out); err != nil {
		return model.RemoteStats{}, fmt.Errorf("gateway stats: %w", err)
	}
	return out, nil
}

// History returns up to limit recent backend scans, newest first.
func (c *Client) History(ctx context.Context, limit int) ([]model.HistoryEntry, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var out []model.HistoryEntry
	if err := c.do(ctx, http.MethodGet, "/history", q, nil, &out); err != nil {
		return nil, fmt.Errorf("gateway history: %w", err)
	}
	return out, nil
}

// Health probes the backend's /health endpoint, which lives at the server
// root rather than under the API prefix.
func (c *Client) Health(ctx context.Context) error {
	u := *c.base
	u.Path = "/health"
	u.RawQuery = ""
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("gateway health: create request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("gateway health: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Method: http.MethodGet, Path: "/health", Code: resp.StatusCode}
	}
	return nil
}

func (c *Client) endpoint(path string, q url.Values) string {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + path
	if len(q) > 0 {
		u.RawQuery = q.Encode()
	}
	return u.String()
}

func (c *Client) do(ctx context.Context, method, path string, q url.Values, in, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit: %w", err)
		}
	}

	var bodyReader io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode body: %w", err)
		}
		bodyReader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, q), bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("http do: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Method: method, Path: path, Code: resp.StatusCode}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == code
}
