package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/rs/zerolog/log"

	"github.com/tansive/dahuarpc/internal/common/httpx"
)

// Recoverer turns a handler panic into an internal error envelope. Nothing is
// sent if the handler already started its response.
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rw := httpx.NewResponseWriter(w)
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			log.Ctx(r.Context()).Error().
				Str("panic", fmt.Sprint(rec)).
				Str("stack", string(debug.Stack())).
				Msg("rpc handler panicked")
			if !rw.Written() {
				httpx.ErrInternal("").Send(rw)
			}
		}()
		next.ServeHTTP(rw, r)
	})
}
