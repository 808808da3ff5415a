// Package httpclient provides the HTTP transport used to talk to devices.
// It posts JSON bodies, returns raw response bodies, and reports non-2xx
// statuses as *HTTPError. It does not interpret the payload.
package httpclient

import "context"

// HTTPClientInterface defines the interface for HTTP client implementations.
type HTTPClientInterface interface {
	// DoRequest makes an HTTP request with the given options.
	// Returns the response body and any error that occurred.
	DoRequest(ctx context.Context, opts RequestOptions) ([]byte, error)

	// CloseIdleConnections releases pooled connections held by the client.
	CloseIdleConnections()
}

// RequestOptions contains options for making HTTP requests.
// URL is required. Method defaults to POST.
type RequestOptions struct {
	Method  string            // HTTP method
	URL     string            // absolute request URL
	Headers map[string]string // optional extra headers
	Body    []byte            // optional request body
}

// Verify that the HTTPClient and TestHTTPClient implement the HTTPClientInterface.
var _ HTTPClientInterface = &HTTPClient{}
var _ HTTPClientInterface = &TestHTTPClient{}
