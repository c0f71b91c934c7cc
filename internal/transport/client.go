// Package transport is the HTTP layer shared by the primary and recorder clients.
package transport

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/MimeLyc/dvr-mirror/pkg/log"
)

const (
	DefaultTimeout     = 5 * time.Second
	DefaultMaxAttempts = 5

	// MaxResponseSize caps how much of a response body is read.
	MaxResponseSize = 10 * 1024 * 1024

	UserAgent = "dvr-mirror/1.0"
)

// Client is the HTTP client shared by the primary and recorder clients.
type Client struct {
	httpClient     *http.Client
	maxAttempts    int
	initialBackoff time.Duration
	maxBackoff     time.Duration
}

type Option func(*Client)

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// WithInsecureTLS disables certificate verification, for appliances with
// self-signed certificates.
func WithInsecureTLS(insecure bool) Option {
	return func(c *Client) {
		if !insecure {
			return
		}
		tr := http.DefaultTransport.(*http.Transport).Clone()
		tr.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
		c.httpClient.Transport = tr
	}
}

// WithMaxAttempts bounds how many times a retryable GET is tried. 1 disables retry.
func WithMaxAttempts(n int) Option {
	return func(c *Client) {
		if n >= 1 {
			c.maxAttempts = n
		}
	}
}

// WithBackoff sets the first and the largest wait between retries.
func WithBackoff(initial, max time.Duration) Option {
	return func(c *Client) {
		c.initialBackoff = initial
		c.maxBackoff = max
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// New returns a client with DefaultTimeout and DefaultMaxAttempts unless overridden.
func New(opts ...Option) *Client {
	c := &Client{
		httpClient:     &http.Client{Timeout: DefaultTimeout},
		maxAttempts:    DefaultMaxAttempts,
		initialBackoff: time.Second,
		maxBackoff:     16 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get performs a GET, retrying gateway errors with exponential backoff.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	operation := func() ([]byte, error) {
		body, err := c.do(ctx, http.MethodGet, url, nil)
		if err != nil && !IsRetryable(err) {
			return nil, backoff.Permanent(err)
		}
		return body, err
	}

	return backoff.Retry(ctx, operation,
		backoff.WithBackOff(c.newBackOff()),
		backoff.WithMaxTries(uint(c.maxAttempts)),
		backoff.WithNotify(func(err error, next time.Duration) {
			log.Warn("GET %s failed, retrying in %s: %v", url, next, err)
		}),
	)
}

// GetJSON performs Get and decodes the body into out.
func (c *Client) GetJSON(ctx context.Context, url string, out any) error {
	body, err := c.Get(ctx, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &Error{Kind: ErrDecode, Op: http.MethodGet, URL: url, Cause: err}
	}
	return nil
}

// PutJSON sends payload as a JSON body. PUTs are never retried.
func (c *Client) PutJSON(ctx context.Context, url string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return &Error{Kind: ErrRequest, Op: http.MethodPut, URL: url, Cause: err}
	}
	_, err = c.do(ctx, http.MethodPut, url, data)
	return err
}

func (c *Client) newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.initialBackoff
	b.MaxInterval = c.maxBackoff
	b.Multiplier = 2
	return b
}

func (c *Client) do(ctx context.Context, method, url string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, &Error{Kind: ErrRequest, Op: method, URL: url, Cause: err}
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &Error{Kind: ErrNetwork, Op: method, URL: url, Cause: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize+1))
	if err != nil {
		return nil, &Error{Kind: ErrNetwork, Op: method, URL: url, Status: resp.StatusCode, Cause: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &Error{Kind: ErrHTTPStatus, Op: method, URL: url, Status: resp.StatusCode,
			Cause: fmt.Errorf("%s", resp.Status)}
	}
	if len(data) > MaxResponseSize {
		return nil, &Error{Kind: ErrDecode, Op: method, URL: url, Status: resp.StatusCode,
			Cause: fmt.Errorf("response exceeds %d bytes", MaxResponseSize)}
	}
	return data, nil
}
