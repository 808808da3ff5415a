package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
)

// RecordedRequest is a request captured by TestHTTPClient.
type RecordedRequest struct {
	Method string
	URL    string
	Path   string
	Body   []byte
}

// TestHTTPClient serves requests directly from an http.Handler.
// It uses httptest.NewRecorder to capture responses without making network calls,
// and keeps every request it handled for later inspection.
type TestHTTPClient struct {
	handler http.Handler

	mu       sync.Mutex
	requests []RecordedRequest
}

// NewTestClient creates a test client that dispatches to handler.
func NewTestClient(handler http.Handler) *TestHTTPClient {
	return &TestHTTPClient{handler: handler}
}

// DoRequest makes an HTTP request with the given options directly to the handler.
func (c *TestHTTPClient) DoRequest(ctx context.Context, opts RequestOptions) ([]byte, error) {
	req, err := newRequest(ctx, opts, defaultUserAgent)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.requests = append(c.requests, RecordedRequest{
		Method: req.Method,
		URL:    opts.URL,
		Path:   req.URL.Path,
		Body:   append([]byte(nil), opts.Body...),
	})
	c.mu.Unlock()

	rr := httptest.NewRecorder()
	c.handler.ServeHTTP(rr, req)
	body := rr.Body.Bytes()

	if err := checkStatus(rr.Code, body); err != nil {
		return nil, err
	}
	return body, nil
}

// CloseIdleConnections is a no-op; no connections are held.
func (c *TestHTTPClient) CloseIdleConnections() {}

// Requests returns a copy of every request handled so far.
func (c *TestHTTPClient) Requests() []RecordedRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]RecordedRequest(nil), c.requests...)
}

// LastRequest returns the most recent request, or false if none was made.
func (c *TestHTTPClient) LastRequest() (RecordedRequest, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.requests) == 0 {
		return RecordedRequest{}, false
	}
	return c.requests[len(c.requests)-1], true
}
