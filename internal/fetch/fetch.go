// Package fetch issues HTTP requests and browser navigations through a
// retryable, backoff-driven transport. Request identities (user agent,
// headers) are supplied by the caller per request; the package itself holds
// no evasion state.
package fetch

import (
	"context"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/jobscout/internal/evasion"
)

// Transport defaults.
const (
	DefaultTimeout    = 30 * time.Second
	DefaultMaxRetries = 3
	DefaultRetryBase  = 2 * time.Second
)

// Options configures the fetch client.
type Options struct {
	Timeout    time.Duration
	MaxRetries int
	// RetryBase is the first backoff delay; it doubles on each retry with
	// ±20% jitter.
	RetryBase time.Duration
	// Transport overrides the underlying round tripper, for tests.
	Transport http.RoundTripper
}

// DefaultOptions returns sensible transport defaults.
func DefaultOptions() *Options {
	return &Options{
		Timeout:    DefaultTimeout,
		MaxRetries: DefaultMaxRetries,
		RetryBase:  DefaultRetryBase,
	}
}

// Result holds a fetched page. SawRateLimit reports whether any attempt got
// a 429, so the caller can penalize subsequent pacing even after a
// successful retry.
type Result struct {
	URL          string
	HTML         string
	StatusCode   int
	Attempts     int
	SawRateLimit bool
}

// Client is a retrying HTTP fetcher.
type Client struct {
	http   *http.Client
	opts   *Options
	rng    *rand.Rand
	logger *zap.Logger
}

// NewClient builds a client from options. A nil opts uses defaults.
func NewClient(opts *Options, logger *zap.Logger) *Client {
	if opts == nil {
		opts = DefaultOptions()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = DefaultMaxRetries
	}
	if opts.RetryBase <= 0 {
		opts.RetryBase = DefaultRetryBase
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		http:   &http.Client{Timeout: opts.Timeout, Transport: opts.Transport},
		opts:   opts,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		logger: logger,
	}
}

// Get fetches a URL presenting the given identity. Transient failures
// (timeouts, connection errors, 5xx, 429) are retried with exponential
// backoff up to MaxRetries; other failures surface immediately. The error
// on exhaustion carries the URL and total attempt count, never partial
// content.
func (c *Client) Get(ctx context.Context, urlStr string, id evasion.RequestIdentity) (*Result, error) {
	parsed, err := url.Parse(urlStr)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, &Error{URL: urlStr, Attempts: 0, Message: "invalid URL", Cause: err}
	}

	maxAttempts := c.opts.MaxRetries + 1
	sawRateLimit := false
	var lastErr error
	lastStatus := 0

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			if err := c.backoff(ctx, attempt-2); err != nil {
				return nil, err
			}
		}

		result, retryable, err := c.do(ctx, urlStr, id)
		if err == nil {
			result.Attempts = attempt
			result.SawRateLimit = sawRateLimit
			return result, nil
		}

		if result != nil {
			lastStatus = result.StatusCode
			if result.StatusCode == http.StatusTooManyRequests {
				sawRateLimit = true
			}
		}
		lastErr = err

		if !retryable {
			return nil, &Error{URL: urlStr, Attempts: attempt, Message: "request rejected", Cause: err}
		}

		c.logger.Warn("transient fetch failure",
			zap.String("url", urlStr),
			zap.Int("attempt", attempt),
			zap.Int("status", lastStatus),
			zap.Error(err))
	}

	if lastStatus == http.StatusTooManyRequests {
		return nil, &RateLimitedError{URL: urlStr, Attempts: maxAttempts}
	}
	return nil, &Error{URL: urlStr, Attempts: maxAttempts, Message: "retries exhausted", Cause: lastErr}
}

// do performs one attempt. The second return value reports retryability.
func (c *Client) do(ctx context.Context, urlStr string, id evasion.RequestIdentity) (*Result, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, false, err
	}

	req.Header.Set("User-Agent", id.UserAgent)
	for key, value := range id.Headers {
		req.Header.Set(key, value)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		// Timeouts and connection resets are transient unless the context
		// itself is done.
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		return nil, true, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, err
	}

	result := &Result{URL: urlStr, HTML: string(body), StatusCode: resp.StatusCode}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return result, false, nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return result, true, &Error{URL: urlStr, Message: "HTTP 429", Retryable: true}
	case resp.StatusCode >= 500:
		return result, true, &Error{URL: urlStr, Message: http.StatusText(resp.StatusCode), Retryable: true}
	default:
		return result, false, &Error{URL: urlStr, Message: http.StatusText(resp.StatusCode)}
	}
}

func (c *Client) backoff(ctx context.Context, retry int) error {
	delay := c.opts.RetryBase << retry
	// ±20% jitter keeps concurrent searches from retrying in lockstep.
	delay = time.Duration(float64(delay) * (0.8 + c.rng.Float64()*0.4))

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
