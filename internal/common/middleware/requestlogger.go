// Package middleware wraps the simulated device's RPC endpoints with request
// ids, access logging, panic recovery and a per-request deadline.
package middleware

import (
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tansive/dahuarpc/internal/common/httpx"
	"github.com/tansive/dahuarpc/internal/common/logtrace"
	"github.com/tansive/dahuarpc/internal/common/uuid"
)

const RequestIDHeader = "X-Request-ID"

// RequestLogger tags each request with an id, taken from the X-Request-ID
// header when the client sent one, and logs it once it completes.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx := logtrace.WithRequestId(r.Context(), requestID)
		ctx = log.With().Str("request_id", requestID).Logger().WithContext(ctx)

		w.Header().Set(RequestIDHeader, requestID)
		rw := httpx.NewResponseWriter(w)

		defer func() {
			log.Ctx(ctx).Debug().
				Str("path", r.URL.Path).
				Str("remote", r.RemoteAddr).
				Int("status", rw.Status()).
				Int("bytes", rw.BytesWritten()).
				Dur("elapsed", time.Since(start)).
				Msg("rpc request")
		}()

		next.ServeHTTP(rw, r.WithContext(ctx))
	})
}
