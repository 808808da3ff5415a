package logtrace

import (
	"context"
	"os"
)

type requestIdContextKey string

const requestIdKey = requestIdContextKey("requestId")

var envTrace = os.Getenv("DAHUARPC_TRACE") != ""

// WithRequestId returns a copy of ctx carrying id.
func WithRequestId(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIdKey, id)
}

// RequestIdFromContext extracts the request ID from the context.
// Returns an empty string if the context is nil or if no request ID is found.
func RequestIdFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	r, ok := ctx.Value(requestIdKey).(string)
	if !ok {
		return ""
	}
	return r
}

// IsTraceEnabled reports whether route tracing was requested through
// DAHUARPC_TRACE.
func IsTraceEnabled() bool {
	return envTrace
}
