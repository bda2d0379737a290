//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultTimeout bounds a call when no timeout option is given.
const DefaultTimeout = 10 * time.Second

// defaultMaxBodyBytes caps index pages and manifests read into memory.
const defaultMaxBodyBytes = 8 << 20

// ErrBadHTTPStatus is wrapped by StatusError.
var ErrBadHTTPStatus = errors.New("unexpected http status")

// StatusError reports a response whose status is not 2xx.
type StatusError struct {
	// URL is the requested address.
	URL string
	// Code is the HTTP status code.
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %d %s", e.URL, e.Code, http.StatusText(e.Code))
}

func (e *StatusError) Unwrap() error {
	return ErrBadHTTPStatus
}

// Doer is the subset of *http.Client used by Client.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client performs single-attempt HTTP calls bounded by a timeout.
type Client struct {
	// http sends the requests.
	http Doer
	// callTimeout is the deadline applied to each call.
	callTimeout time.Duration
	// userAgent is sent with every request when set.
	userAgent string
	// maxBodyBytes limits how much of a body Get reads.
	maxBodyBytes int64
}

// Option configures client behaviour.
type Option func(*Client)

// WithCallTimeout sets the timeout applied to every call.
func WithCallTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.callTimeout = timeout
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(doer Doer) Option {
	return func(c *Client) {
		if doer != nil {
			c.http = doer
		}
	}
}

// NewClient creates a client using http.DefaultClient unless overridden.
func NewClient(opts ...Option) *Client {
	client := &Client{
		http:         http.DefaultClient,
		callTimeout:  DefaultTimeout,
		maxBodyBytes: defaultMaxBodyBytes,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// Get fetches url and returns its body. A non-2xx status is a *StatusError.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	response, err := c.do(callCtx, http.MethodGet, url)
	if err != nil {
		return nil, err
	}

	defer func() {
		_ = response.Body.Close()
	}()

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		return nil, &StatusError{URL: url, Code: response.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(response.Body, c.maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}

	return body, nil
}

// Head probes url and returns the status code.
func (c *Client) Head(ctx context.Context, url string) (int, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	response, err := c.do(callCtx, http.MethodHead, url)
	if err != nil {
		return 0, err
	}

	_ = response.Body.Close()

	return response.StatusCode, nil
}

func (c *Client) do(ctx context.Context, method, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", method, err)
	}

	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	response, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, url, err)
	}

	return response, nil
}

// callContext returns a context with the client's call timeout if configured,
// otherwise a cancellable child context without a deadline.
func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, c.callTimeout)
}
