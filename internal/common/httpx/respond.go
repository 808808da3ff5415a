package httpx

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/tansive/dahuarpc/internal/common/logtrace"
)

// SendJSON marshals v and writes it with statusCode. Marshal failures turn
// into an internal error carrying the request id.
func SendJSON(ctx context.Context, w http.ResponseWriter, statusCode int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("unable to marshal rpc response")
		ErrInternal("request " + logtrace.RequestIdFromContext(ctx)).Send(w)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_, _ = w.Write(body)
}
