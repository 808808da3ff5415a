package dahua

import (
	"context"

	"github.com/tansive/dahuarpc/internal/common/httpclient"
	"github.com/tansive/dahuarpc/internal/common/jsonrpc"
)

// Call describes one RPC invocation.
type Call struct {
	// Method is the RPC method name, e.g. "global.getCurrentTime".
	Method string
	// Params is sent as "params" unless nil. An empty string or empty map is
	// still sent; some methods expect exactly that.
	Params any
	// Object is an instance handle from a factory call. Falsy handles are not sent.
	Object jsonrpc.Handle
	// Extra fields are merged into the top level of the envelope.
	Extra map[string]any
	// URL overrides the default RPC endpoint.
	URL string
}

// Invoke sends one request and returns the parsed response without looking
// at its result. The request id is incremented before anything else, so ids
// are never reused even when the call fails. Transport and decoding errors
// are returned as they are; there are no retries.
func (s *Session) Invoke(ctx context.Context, call Call) (*jsonrpc.Response, error) {
	s.requestID++
	id := s.requestID

	params, err := jsonrpc.EncodeParams(call.Params)
	if err != nil {
		return nil, ErrInvalidArgument.MsgErr("invalid params for "+call.Method, err)
	}
	body, err := jsonrpc.ConstructRequest(jsonrpc.Request{
		Method:  call.Method,
		ID:      id,
		Params:  params,
		Object:  call.Object,
		Session: s.token,
	}, call.Extra)
	if err != nil {
		return nil, ErrInvalidArgument.MsgErr("unable to build request for "+call.Method, err)
	}

	url := call.URL
	if url == "" {
		url = s.URL(RPCPath)
	}

	s.logger.Debug().
		Str("method", call.Method).
		Int64("id", id).
		Bool("object", !call.Object.IsZero()).
		Msg("rpc request")

	raw, err := s.client.DoRequest(ctx, httpclient.RequestOptions{
		URL:  url,
		Body: body,
	})
	if err != nil {
		return nil, err
	}

	resp, err := jsonrpc.ParseResponse(raw)
	if err != nil {
		return nil, err
	}

	s.logger.Debug().
		Str("method", call.Method).
		Int64("id", id).
		RawJSON("result", resultForLog(resp)).
		Msg("rpc response")
	return resp, nil
}

func resultForLog(resp *jsonrpc.Response) []byte {
	if raw := resp.Result.Raw(); raw != nil {
		return raw
	}
	return []byte("null")
}

// call invokes a method whose only failure signal is result == false.
func (s *Session) call(ctx context.Context, c Call) (*jsonrpc.Response, error) {
	resp, err := s.Invoke(ctx, c)
	if err != nil {
		return nil, err
	}
	if resp.IsFalse() {
		return nil, requestFailure(c.Method, resp)
	}
	return resp, nil
}
