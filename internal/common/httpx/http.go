// Package httpx is the response plumbing of the simulated device: RPC2
// failure envelopes, JSON bodies and a status-tracking writer.
package httpx

import (
	"io"
	"net/http"

	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// MaxRequestBodySize bounds the request bodies DecodeRequest will read.
const MaxRequestBodySize = 1 << 20

// DecodeRequest reads the JSON-RPC request in r's body into v. Firmware only
// accepts POST on the RPC endpoints, so other methods fail the same way.
func DecodeRequest(r *http.Request, v any) *Error {
	if r.Method != http.MethodPost {
		return ErrMethodNotAllowed()
	}
	if r.Body == nil {
		return ErrInvalidRequest("empty body")
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, MaxRequestBodySize+1))
	if err != nil {
		return ErrInvalidRequest(err.Error())
	}
	switch {
	case len(body) == 0:
		return ErrInvalidRequest("empty body")
	case len(body) > MaxRequestBodySize:
		return ErrInvalidRequest("body too large")
	}
	if err := json.Unmarshal(body, v); err != nil {
		log.Ctx(r.Context()).Debug().Err(err).Msg("malformed rpc request")
		return ErrInvalidRequest("malformed json")
	}
	return nil
}
