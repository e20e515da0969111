// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides the resilient fetcher shared by every source adapter.
package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/citation-engine/internal/metrics"
	"github.com/pdiddy/citation-engine/pkg/types"
)

// Backoff durations. Tests override these to avoid real sleeps.
var (
	// RateLimitBackoff is multiplied by the 1-based attempt number after a 429.
	RateLimitBackoff = 5 * time.Second

	// RetryDelay follows any other non-terminal status or transport error.
	RetryDelay = 1 * time.Second

	// TimeoutRetryDelay follows a request timeout.
	TimeoutRetryDelay = 2 * time.Second
)

const (
	defaultMaxAttempts = 3
	maxBodyBytes       = 64 << 20
)

// Outcome is the terminal state of one fetch.
type Outcome int

const (
	// OutcomeSuccess means an HTTP 200 whose body decoded.
	OutcomeSuccess Outcome = iota
	// OutcomeNotFound means an HTTP 404. It is not retried.
	OutcomeNotFound
	// OutcomeExhausted means every attempt failed without a 200 or 404.
	OutcomeExhausted
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeNotFound:
		return "not_found"
	default:
		return "exhausted"
	}
}

// OK reports whether the outcome carries a decoded payload.
func (o Outcome) OK() bool { return o == OutcomeSuccess }

// Fetcher performs GET requests with a bounded retry loop. It does not pace
// calls; callers apply their own inter-request delay.
type Fetcher struct {
	client      *http.Client
	userAgent   string
	maxAttempts int
	logger      *zap.Logger
	metrics     *metrics.Collector
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient replaces the default client (tests pass httptest clients).
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) { f.client = c }
}

// WithLogger sets the diagnostic logger.
func WithLogger(l *zap.Logger) Option {
	return func(f *Fetcher) {
		if l != nil {
			f.logger = l
		}
	}
}

// WithMetrics sets the collector that receives per-response counts.
func WithMetrics(m *metrics.Collector) Option {
	return func(f *Fetcher) { f.metrics = m }
}

// NewFetcher builds a Fetcher from cfg. userAgent overrides cfg.UserAgent
// when non-empty so the caller can append a contact address.
func NewFetcher(cfg types.HTTPConfig, userAgent string, opts ...Option) *Fetcher {
	if userAgent == "" {
		userAgent = cfg.UserAgent
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	f := &Fetcher{
		client:      &http.Client{Timeout: timeout},
		userAgent:   userAgent,
		maxAttempts: cfg.MaxAttempts,
		logger:      zap.NewNop(),
	}
	if f.maxAttempts <= 0 {
		f.maxAttempts = defaultMaxAttempts
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// With returns a copy of f with opts applied. The HTTP client is shared.
func (f *Fetcher) With(opts ...Option) *Fetcher {
	c := *f
	for _, opt := range opts {
		opt(&c)
	}
	return &c
}

// GetJSON fetches rawURL with params and decodes a 200 body into v.
// A body that fails to decode counts as a failed attempt. The returned
// error is non-nil only when ctx is cancelled.
func (f *Fetcher) GetJSON(ctx context.Context, rawURL string, params url.Values, v any) (Outcome, error) {
	return f.fetch(ctx, rawURL, params, "application/json", func(body []byte) error {
		return json.Unmarshal(body, v)
	})
}

// GetText fetches rawURL with params and returns a 200 body as text.
// The returned error is non-nil only when ctx is cancelled.
func (f *Fetcher) GetText(ctx context.Context, rawURL string, params url.Values) (string, Outcome, error) {
	var text string
	outcome, err := f.fetch(ctx, rawURL, params, "text/plain", func(body []byte) error {
		text = string(body)
		return nil
	})
	return text, outcome, err
}

func (f *Fetcher) fetch(ctx context.Context, rawURL string, params url.Values, accept string, decode func([]byte) error) (Outcome, error) {
	reqURL := rawURL
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		f.logger.Warn("invalid request URL", zap.String("url", reqURL), zap.Error(err))
		f.metrics.ObserveOutcome(OutcomeExhausted.String())
		return OutcomeExhausted, nil
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", accept)
	host := req.URL.Host

	for attempt := 1; attempt <= f.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return OutcomeExhausted, err
		}

		var delay time.Duration
		status, body, err := f.roundTrip(req.Clone(ctx))
		switch {
		case err != nil:
			if ctxErr := ctx.Err(); ctxErr != nil {
				return OutcomeExhausted, ctxErr
			}
			f.metrics.ObserveTransportError(host)
			delay = RetryDelay
			if isTimeout(err) {
				delay = TimeoutRetryDelay
			}
			f.logger.Warn("request failed",
				zap.String("url", reqURL),
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", f.maxAttempts),
				zap.Error(err),
			)

		case status == http.StatusOK:
			f.metrics.ObserveResponse(host, status)
			if decodeErr := decode(body); decodeErr != nil {
				f.logger.Warn("undecodable response body",
					zap.String("url", reqURL),
					zap.Int("attempt", attempt),
					zap.Error(decodeErr),
				)
				delay = RetryDelay
				break
			}
			f.metrics.ObserveOutcome(OutcomeSuccess.String())
			return OutcomeSuccess, nil

		case status == http.StatusNotFound:
			f.metrics.ObserveResponse(host, status)
			f.metrics.ObserveOutcome(OutcomeNotFound.String())
			return OutcomeNotFound, nil

		case status == http.StatusTooManyRequests:
			f.metrics.ObserveResponse(host, status)
			delay = time.Duration(attempt) * RateLimitBackoff
			f.logger.Warn("rate limited",
				zap.String("url", reqURL),
				zap.Int("attempt", attempt),
				zap.Duration("backoff", delay),
			)

		default:
			f.metrics.ObserveResponse(host, status)
			delay = RetryDelay
			f.logger.Debug("unexpected status",
				zap.String("url", reqURL),
				zap.Int("status", status),
				zap.Int("attempt", attempt),
			)
		}

		if attempt == f.maxAttempts {
			break
		}
		if err := sleep(ctx, delay); err != nil {
			return OutcomeExhausted, err
		}
	}

	f.logger.Warn("retries exhausted", zap.String("url", reqURL), zap.Int("attempts", f.maxAttempts))
	f.metrics.ObserveOutcome(OutcomeExhausted.String())
	return OutcomeExhausted, nil
}

// roundTrip performs one request and reads the whole body.
func (f *Fetcher) roundTrip(req *http.Request) (int, []byte, error) {
	resp, err := f.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return 0, nil, fmt.Errorf("reading response body: %w", err)
	}
	return resp.StatusCode, body, nil
}

func isTimeout(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
