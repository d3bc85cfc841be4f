// Package client provides a Go client for the push-release relay.
package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is a push-release relay client
type Client struct {
	baseURL    string
	secret     string
	httpClient *http.Client
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(c *http.Client) Option {
	return func(client *Client) {
		client.httpClient = c
	}
}

// New creates a new relay client authenticating with secret.
func New(baseURL, secret string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		secret:  secret,
		httpClient: &http.Client{
			// Registrations wait for the node to accept up to two transactions.
			Timeout: 2 * time.Minute,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Build describes a compiled binary to register.
type Build struct {
	Commit   string
	Filename string
	SHA3     string
}

// Result is the relay's answer to an accepted or declined push.
type Result struct {
	StatusCode int
	Message    string
}

// Declined reports whether the relay skipped the push without error.
func (r *Result) Declined() bool {
	return r.StatusCode == http.StatusAccepted
}

// APIError is returned for 4xx and 5xx responses.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// PushRelease announces a tagged release at commit.
func (c *Client) PushRelease(ctx context.Context, tag, commit string) (*Result, error) {
	path := fmt.Sprintf("/push-release/%s/%s", url.PathEscape(tag), url.PathEscape(commit))
	return c.post(ctx, path, url.Values{"secret": {c.secret}})
}

// PushBuild registers a platform binary of tag.
func (c *Client) PushBuild(ctx context.Context, tag, platform string, b Build) (*Result, error) {
	path := fmt.Sprintf("/push-build/%s/%s", url.PathEscape(tag), url.PathEscape(platform))
	return c.post(ctx, path, url.Values{
		"secret":   {c.secret},
		"commit":   {b.Commit},
		"filename": {b.Filename},
		"sha3":     {b.SHA3},
	})
}

// Health checks that the relay is up.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	_, err = c.do(req)
	return err
}

func (c *Client) post(ctx context.Context, path string, form url.Values) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return c.do(req)
}

func (c *Client) do(req *http.Request) (*Result, error) {
	req.Header.Set("Accept", "text/plain")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	msg := strings.TrimSpace(string(body))

	if resp.StatusCode >= 400 {
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	return &Result{StatusCode: resp.StatusCode, Message: msg}, nil
}
