// Package download fetches image bytes over HTTP. It supports conditional
// requests built from cached validators, retries transient failures with
// exponential backoff, and throttles outbound requests through a shared
// rate limiter.
package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
	"golang.org/x/time/rate"

	apperrors "github.com/uaremad/imgcache/internal/errors"
	"github.com/uaremad/imgcache/logging"
)

const (
	defaultTimeout       = 30 * time.Second
	defaultRetryInterval = 500 * time.Millisecond
	defaultMaxTries      = 4
)

// Conditional carries the validators for a conditional request. Zero values
// mean the corresponding header is not sent.
type Conditional struct {
	// ETag populates If-None-Match.
	ETag string
	// LastModified populates If-Modified-Since.
	LastModified string
}

// Result is the outcome of a fetch.
type Result struct {
	// Body is the downloaded payload; nil when NotModified is set.
	Body []byte
	// ETag is the validator returned by the origin, if any.
	ETag string
	// LastModified is the Last-Modified header returned by the origin, if any.
	LastModified string
	// ContentType is the MIME type reported by the origin.
	ContentType string
	// NotModified reports a 304 response to a conditional request.
	NotModified bool
}

// Client downloads images. The zero value is not usable; construct with
// NewClient.
type Client struct {
	http          *http.Client
	limiter       *rate.Limiter
	retryInterval time.Duration
	maxTries      uint
}

// Option configures a Client during construction.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithRateLimit throttles outbound requests to n per second with burst b.
func WithRateLimit(n float64, b int) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(rate.Limit(n), b) }
}

// WithRetryInterval sets the initial backoff interval for transient
// failures.
func WithRetryInterval(d time.Duration) Option {
	return func(c *Client) { c.retryInterval = d }
}

// WithMaxTries caps the number of attempts per fetch.
func WithMaxTries(n uint) Option {
	return func(c *Client) { c.maxTries = n }
}

// NewClient creates a downloader with sane defaults: a 30s request timeout,
// no rate limit, and up to four attempts with exponential backoff.
func NewClient(opts ...Option) *Client {
	c := &Client{
		http:          &http.Client{Timeout: defaultTimeout},
		retryInterval: defaultRetryInterval,
		maxTries:      defaultMaxTries,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch downloads url, sending conditional headers when cond carries
// validators. Transient failures (network errors, 5xx) are retried with
// exponential backoff until the attempt budget is exhausted; other non-2xx
// statuses fail immediately with a DownloadError.
func (c *Client) Fetch(ctx context.Context, url string, cond Conditional) (*Result, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.retryInterval

	attempt := 0
	operation := func() (*Result, error) {
		attempt++
		res, err := c.fetchOnce(ctx, url, cond)
		if err == nil {
			return res, nil
		}
		if retryable(err) {
			logging.Trace(func() string {
				return fmt.Sprintf("retrying %s after attempt %d: %v", url, attempt, err)
			})
			return nil, err
		}
		return nil, backoff.Permanent(err)
	}

	res, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(c.maxTries),
	)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// fetchOnce performs a single HTTP exchange.
func (c *Client) fetchOnce(ctx context.Context, url string, cond Conditional) (*Result, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, apperrors.WrapError(err, "building request for %s", url)
	}
	if cond.ETag != "" {
		req.Header.Set("If-None-Match", cond.ETag)
	}
	if cond.LastModified != "" {
		req.Header.Set("If-Modified-Since", cond.LastModified)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apperrors.DownloadError{URL: url, Cause: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotModified:
		return &Result{
			NotModified:  true,
			ETag:         resp.Header.Get("ETag"),
			LastModified: resp.Header.Get("Last-Modified"),
		}, nil
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, apperrors.DownloadError{URL: url, Cause: err}
		}
		return &Result{
			Body:         body,
			ETag:         resp.Header.Get("ETag"),
			LastModified: resp.Header.Get("Last-Modified"),
			ContentType:  resp.Header.Get("Content-Type"),
		}, nil
	default:
		return nil, apperrors.DownloadError{URL: url, StatusCode: resp.StatusCode}
	}
}

// retryable reports whether a fetch failure is worth another attempt:
// transport errors and server-side (5xx) statuses are, client errors are not.
func retryable(err error) bool {
	var dlErr apperrors.DownloadError
	if !errors.As(err, &dlErr) {
		return false
	}
	if dlErr.StatusCode == 0 {
		// Transport failure. Context cancellation is terminal.
		return !apperrors.IsContextError(dlErr.Cause)
	}
	return dlErr.StatusCode >= 500
}
