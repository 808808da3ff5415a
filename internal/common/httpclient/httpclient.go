package httpclient

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HTTPError represents an error response from the server with HTTP status code and message.
type HTTPError struct {
	StatusCode int    // HTTP status code of the error
	Message    string // Error message or response body
}

// Error implements the error interface for HTTPError.
func (e *HTTPError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("http status %d", e.StatusCode)
	}
	return fmt.Sprintf("http status %d: %s", e.StatusCode, e.Message)
}

// HTTPClient posts requests over a single reusable net/http client.
type HTTPClient struct {
	httpClient *http.Client
	userAgent  string
}

// ClientOptions contains options for configuring the HTTP client.
type ClientOptions struct {
	Timeout               time.Duration // zero means no client-side timeout
	DisableCertValidation bool          // If true, skips SSL certificate validation
	UserAgent             string
}

const defaultUserAgent = "dahuarpc/0.1"

// NewClient creates a new HTTP client. Only the first options value is used.
func NewClient(opts ...ClientOptions) *HTTPClient {
	clientOpts := ClientOptions{}
	if len(opts) > 0 {
		clientOpts = opts[0]
	}
	return NewClientWithOptions(clientOpts)
}

// NewClientWithOptions creates a new HTTP client using the provided options.
func NewClientWithOptions(opts ClientOptions) *HTTPClient {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if opts.DisableCertValidation {
		transport.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: true,
		}
	}
	ua := opts.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}

	return &HTTPClient{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   opts.Timeout,
		},
		userAgent: ua,
	}
}

// DoRequest makes an HTTP request with the given options.
// Transport failures are returned wrapped with %w so callers can still match
// them with errors.As; non-2xx responses become *HTTPError.
func (c *HTTPClient) DoRequest(ctx context.Context, opts RequestOptions) ([]byte, error) {
	req, err := newRequest(ctx, opts, c.userAgent)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if err := checkStatus(resp.StatusCode, body); err != nil {
		return nil, err
	}
	return body, nil
}

// CloseIdleConnections releases idle keep-alive connections.
func (c *HTTPClient) CloseIdleConnections() {
	c.httpClient.CloseIdleConnections()
}

func newRequest(ctx context.Context, opts RequestOptions, userAgent string) (*http.Request, error) {
	if opts.URL == "" {
		return nil, fmt.Errorf("request URL is required")
	}
	method := opts.Method
	if method == "" {
		method = http.MethodPost
	}

	req, err := http.NewRequestWithContext(ctx, method, opts.URL, bytes.NewReader(opts.Body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}
	return req, nil
}

func checkStatus(code int, body []byte) error {
	if code >= 200 && code < 300 {
		return nil
	}
	msg := strings.TrimSpace(string(body))
	if code == http.StatusNotFound && msg == "" {
		msg = "device doesn't implement this endpoint"
	}
	return &HTTPError{
		StatusCode: code,
		Message:    msg,
	}
}
