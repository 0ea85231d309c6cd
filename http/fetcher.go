// Package http provides a docnav.Fetcher that reads documentation data
// files from a web server.
package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fwojciec/docnav"
	"golang.org/x/time/rate"
)

// DefaultFetchTimeout is the default timeout for HTTP requests.
const DefaultFetchTimeout = 10 * time.Second

// DefaultMaxBodySize caps the size of a fetched file.
const DefaultMaxBodySize = 64 << 20

// Ensure Fetcher implements docnav.Fetcher at compile time.
var _ docnav.Fetcher = (*Fetcher)(nil)

// Fetcher retrieves files relative to a base URL.
type Fetcher struct {
	base        *url.URL
	client      *http.Client
	timeout     time.Duration
	limiter     *rate.Limiter
	retryDelays []time.Duration
	maxBodySize int64
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout sets the timeout for HTTP requests.
// Defaults to DefaultFetchTimeout (10s) if not specified.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithRateLimit limits requests to rps per second. Zero disables limiting.
func WithRateLimit(rps float64) Option {
	return func(f *Fetcher) {
		if rps <= 0 {
			f.limiter = nil
			return
		}
		f.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// WithRetryDelays sets the backoff between attempts for transient
// failures, e.g. DefaultRetryDelays(). Fetches are not retried unless set.
func WithRetryDelays(delays ...time.Duration) Option {
	return func(f *Fetcher) {
		f.retryDelays = delays
	}
}

// WithHTTPClient replaces the underlying client. The timeout option is
// ignored when a client is supplied.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) {
		f.client = c
	}
}

// NewFetcher creates a Fetcher for files below baseURL.
// Returns EINVALID if baseURL is not an absolute http(s) URL.
func NewFetcher(baseURL string, opts ...Option) (*Fetcher, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, docnav.WrapError(docnav.EINVALID, err, "invalid base URL %q", baseURL)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, docnav.Errorf(docnav.EINVALID, "base URL %q must be absolute http(s)", baseURL)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}

	f := &Fetcher{
		base:        u,
		timeout:     DefaultFetchTimeout,
		maxBodySize: DefaultMaxBodySize,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.client == nil {
		f.client = &http.Client{
			Timeout: f.timeout,
		}
	}
	return f, nil
}

// Fetch retrieves the file name relative to the base URL.
// Returns ENOTFOUND for 404 and 410 responses and EFETCH for every other
// failure. Server errors and network failures are retried only when
// WithRetryDelays is set.
func (f *Fetcher) Fetch(ctx context.Context, name string) ([]byte, error) {
	ref, err := url.Parse(docnav.CleanLocation(name))
	if err != nil || ref.IsAbs() || ref.Host != "" {
		return nil, docnav.Errorf(docnav.EINVALID, "invalid file name %q", name)
	}
	target := f.base.ResolveReference(ref).String()

	return withRetry(ctx, f.retryDelays, func(ctx context.Context) ([]byte, error) {
		return f.get(ctx, target)
	})
}

func (f *Fetcher) get(ctx context.Context, target string) ([]byte, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, docnav.WrapError(docnav.EFETCH, err, "create request for %s", target)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &transientError{docnav.WrapError(docnav.EFETCH, err, "fetch %s", target)}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return nil, docnav.Errorf(docnav.ENOTFOUND, "%s not found", target)
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return nil, &transientError{docnav.Errorf(docnav.EFETCH, "HTTP %d for %s", resp.StatusCode, target)}
	default:
		return nil, docnav.Errorf(docnav.EFETCH, "HTTP %d for %s", resp.StatusCode, target)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize+1))
	if err != nil {
		return nil, &transientError{docnav.WrapError(docnav.EFETCH, err, "read %s", target)}
	}
	if int64(len(body)) > f.maxBodySize {
		return nil, docnav.Errorf(docnav.EFETCH, "%s exceeds %d bytes", target, f.maxBodySize)
	}
	return body, nil
}

// transientError marks a failure worth retrying.
type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

func isTransient(err error) bool {
	var t *transientError
	return errors.As(err, &t)
}

// Close releases resources. For HTTP fetcher this is a no-op since
// http.Client doesn't require explicit cleanup.
func (f *Fetcher) Close() error {
	return nil
}

// String returns the base URL.
func (f *Fetcher) String() string {
	return f.base.String()
}
