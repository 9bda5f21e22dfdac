// Package httpclient provides the JSON-over-HTTP client shared by the
// thirdbrain provider adapters.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// research reports with embedded reasoning run to several megabytes
const maxResponseBodySize = 32 << 20 // 32MB

// connection pooling limits; each tool talks to a single host
const (
	defaultMaxIdleConns        = 10
	defaultMaxIdleConnsPerHost = 4
	defaultIdleConnTimeout     = 60 * time.Second
	defaultTimeout             = 60 * time.Second
)

// ErrResponseTooLarge is returned when a response body exceeds the size limit.
var ErrResponseTooLarge = errors.New("response body too large")

// HTTPError is returned for responses with a non-2xx status code.
type HTTPError struct {
	// StatusCode is the HTTP status code of the response.
	StatusCode int

	// Body is the response body, used as the error detail.
	Body string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

// Transient reports whether retrying the same request may succeed:
// timeouts, rate limiting and server errors.
func (e *HTTPError) Transient() bool {
	return e.StatusCode == http.StatusRequestTimeout ||
		e.StatusCode == http.StatusTooManyRequests ||
		e.StatusCode >= 500
}

// IsTransient reports whether err is worth retrying. Transport errors are
// transient; HTTP errors are transient according to [HTTPError.Transient].
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Transient()
	}
	return !errors.Is(err, ErrResponseTooLarge)
}

// Response holds the result of an HTTP request made by [Client].
type Response struct {
	// Body contains the HTTP response body, limited to 32MB.
	Body []byte

	// StatusCode is the HTTP status code (e.g., 200, 404, 500).
	StatusCode int

	// Latency is the total time taken for the request.
	Latency time.Duration
}

// Client is an HTTP client wrapper for a single third-party JSON API.
//
// Client uses per-request timeouts via context rather than a global timeout.
// The timeout of each call is independent of any polling session deadline.
type Client struct {
	httpClient *http.Client
	headers    map[string]string
	timeout    time.Duration
}

// New creates a [Client] that sends headers with every request and applies
// timeout to each call. A zero timeout means 60 seconds.
func New(timeout time.Duration, headers map[string]string) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	h := make(map[string]string, len(headers))
	for k, v := range headers {
		h[k] = v
	}
	return &Client{
		httpClient: &http.Client{
			// no default timeout - we use per-request timeouts via context
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        defaultMaxIdleConns,
				MaxIdleConnsPerHost: defaultMaxIdleConnsPerHost,
				IdleConnTimeout:     defaultIdleConnTimeout,
			},
		},
		headers: h,
		timeout: timeout,
	}
}

// Timeout returns the per-request timeout.
func (c *Client) Timeout() time.Duration {
	return c.timeout
}

// Do performs a request and returns the raw [Response].
//
// If body is non-nil it is JSON-encoded and sent with a JSON content type.
// Non-2xx responses are returned as *[HTTPError].
func (c *Client) Do(ctx context.Context, method, url string, body any) (Response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()

	if method == "" {
		method = http.MethodGet
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return Response{}, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return Response{}, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return Response{Latency: time.Since(start)},
				fmt.Errorf("request to %s timed out after %s: %w", url, c.timeout, err)
		}
		return Response{Latency: time.Since(start)}, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	// read one byte past the limit to detect truncation
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize+1))
	out := Response{
		StatusCode: resp.StatusCode,
		Latency:    time.Since(start),
	}
	if err != nil {
		return out, fmt.Errorf("failed to read response body: %w", err)
	}
	if len(data) > maxResponseBodySize {
		return out, ErrResponseTooLarge
	}
	out.Body = data

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return out, &HTTPError{StatusCode: resp.StatusCode, Body: string(data)}
	}
	return out, nil
}

// GetJSON performs a GET and decodes the JSON response into a generic map.
func (c *Client) GetJSON(ctx context.Context, url string) (map[string]any, error) {
	return c.doJSON(ctx, http.MethodGet, url, nil)
}

// PostJSON performs a POST with a JSON body and decodes the JSON response
// into a generic map.
func (c *Client) PostJSON(ctx context.Context, url string, body any) (map[string]any, error) {
	return c.doJSON(ctx, http.MethodPost, url, body)
}

func (c *Client) doJSON(ctx context.Context, method, url string, body any) (map[string]any, error) {
	resp, err := c.Do(ctx, method, url, body)
	if err != nil {
		return nil, err
	}

	var out map[string]any
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return nil, fmt.Errorf("failed to decode response from %s: %w", url, err)
	}
	return out, nil
}

// Download streams the body at url into path, creating parent directories.
// The configured headers are not sent; download URLs are pre-signed.
// The client timeout bounds the whole transfer.
func (c *Client) Download(ctx context.Context, url, path string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("download failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &HTTPError{StatusCode: resp.StatusCode, Body: string(snippet)}
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

// Close closes all idle connections in the client's connection pool.
//
// Safe to call multiple times and on a nil client. After Close, the client
// remains usable but new connections will be established as needed.
func (c *Client) Close() {
	if c == nil || c.httpClient == nil {
		return
	}
	if transport, ok := c.httpClient.Transport.(*http.Transport); ok {
		transport.CloseIdleConnections()
	}
}
