// Package github fetches files from a repository at a given commit via the raw
// content host.
package github

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
)

const (
	// DefaultRawBaseURL is the public raw content host.
	DefaultRawBaseURL = "https://raw.githubusercontent.com"

	defaultTimeout     = 30 * time.Second
	defaultMaxAttempts = 3
	maxFileSize        = 4 << 20
)

// ErrFileTooLarge is returned for files above the 4 MiB read limit.
var ErrFileTooLarge = errors.New("file too large")

// HTTPError is returned for non-2xx responses.
type HTTPError struct {
	StatusCode int
	URL        string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d for URL %s", e.StatusCode, e.URL)
}

// NotFound reports whether the file or commit does not exist.
func (e *HTTPError) NotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// Client reads files of a single repository.
type Client struct {
	baseURL       string
	repo          string
	userAgent     string
	httpClient    *http.Client
	maxAttempts   uint
	retryInterval time.Duration
}

// Option configures a Client
type Option func(*Client)

// WithBaseURL overrides the raw content host.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient = &http.Client{Timeout: d}
		}
	}
}

// WithMaxAttempts bounds how often a transient failure is retried.
func WithMaxAttempts(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxAttempts = uint(n)
		}
	}
}

// WithRetryInterval sets the initial backoff between attempts.
func WithRetryInterval(d time.Duration) Option {
	return func(c *Client) {
		c.retryInterval = d
	}
}

// New creates a client for repo ("owner/name").
func New(repo string, opts ...Option) *Client {
	c := &Client{
		baseURL:       DefaultRawBaseURL,
		repo:          strings.Trim(repo, "/"),
		userAgent:     repo,
		httpClient:    &http.Client{Timeout: defaultTimeout},
		maxAttempts:   defaultMaxAttempts,
		retryInterval: 500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FileURL returns the raw URL of path at commit.
func (c *Client) FileURL(commit, path string) string {
	return fmt.Sprintf("%s/%s/%s/%s", c.baseURL, c.repo, url.PathEscape(commit), strings.TrimLeft(path, "/"))
}

// Fetch returns the content of path at commit. Server errors and rate limiting
// are retried with exponential backoff; 4xx responses fail immediately.
func (c *Client) Fetch(ctx context.Context, commit, path string) ([]byte, error) {
	fileURL := c.FileURL(commit, path)

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.retryInterval

	body, err := backoff.Retry(ctx, func() ([]byte, error) {
		return c.get(ctx, fileURL)
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(c.maxAttempts),
	)
	if err != nil {
		return nil, fmt.Errorf("fetching %s at %s: %w", path, commit, err)
	}
	return body, nil
}

func (c *Client) get(ctx context.Context, fileURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, backoff.Permanent(err)
		}
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		httpErr := &HTTPError{StatusCode: resp.StatusCode, URL: fileURL}
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return nil, httpErr
		}
		return nil, backoff.Permanent(httpErr)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if len(body) > maxFileSize {
		return nil, backoff.Permanent(fmt.Errorf("%w: %s exceeds %d bytes", ErrFileTooLarge, fileURL, maxFileSize))
	}
	return body, nil
}
