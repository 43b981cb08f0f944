// Package fetch retrieves remote documents over HTTP with a bounded timeout.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

// ReasonTimeout is the FetchError reason for requests that ran out of time
const ReasonTimeout = "timeout"

// FetchError reports a failed fetch. Status holds the HTTP status when the
// server answered, Reason a short description ("timeout" on deadline).
type FetchError struct {
	URL    string
	Status int
	Reason string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %s", e.URL, e.Reason)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// IsTimeout reports whether the fetch failed on its deadline
func (e *FetchError) IsTimeout() bool {
	return e.Reason == ReasonTimeout
}

// Config configures a Client
type Config struct {
	Timeout   time.Duration // Default: 30s
	MaxBytes  int64         // Default: 64 MiB
	UserAgent string
}

func (c *Config) defaults() {
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.MaxBytes <= 0 {
		c.MaxBytes = 64 << 20
	}
	if c.UserAgent == "" {
		c.UserAgent = "eshop-feedsync/1.0"
	}
}

// Client performs GET requests
type Client struct {
	http   *http.Client
	config Config
}

// New creates a Client
func New(cfg Config) *Client {
	cfg.defaults()
	return &Client{
		http: &http.Client{
			Timeout: cfg.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 5 {
					return fmt.Errorf("too many redirects (%d)", len(via))
				}
				return nil
			},
		},
		config: cfg,
	}
}

// Timeout returns the request timeout of the client
func (c *Client) Timeout() time.Duration {
	return c.config.Timeout
}

// Fetch returns the body of url. Any non-2xx status, timeout or transport
// failure is returned as a *FetchError.
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{URL: url, Reason: "invalid request: " + err.Error(), Err: err}
	}
	req.Header.Set("User-Agent", c.config.UserAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, c.transportError(url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// drain so the connection can be reused
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return nil, &FetchError{
			URL:    url,
			Status: resp.StatusCode,
			Reason: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.config.MaxBytes+1))
	if err != nil {
		return nil, c.transportError(url, err)
	}
	if int64(len(body)) > c.config.MaxBytes {
		return nil, &FetchError{
			URL:    url,
			Status: resp.StatusCode,
			Reason: fmt.Sprintf("response exceeds %d bytes", c.config.MaxBytes),
		}
	}
	return body, nil
}

func (c *Client) transportError(url string, err error) *FetchError {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &FetchError{URL: url, Reason: ReasonTimeout, Err: err}
	}
	return &FetchError{URL: url, Reason: err.Error(), Err: err}
}
