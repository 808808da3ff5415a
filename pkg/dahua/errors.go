package dahua

import (
	"github.com/tansive/dahuarpc/internal/common/apperrors"
	"github.com/tansive/dahuarpc/internal/common/jsonrpc"
)

// Error kinds. Match them with errors.Is. Failures caused by a device
// response carry that response; retrieve it with ResponseFromError.
// Transport failures are not wrapped in any of these.
var (
	// ErrLoginFailed reports a rejected login handshake.
	ErrLoginFailed = apperrors.New("login failed")
	// ErrRequestFailed reports an operation whose success check failed.
	ErrRequestFailed = apperrors.New("request failed")
	// ErrInvalidArgument reports bad caller input; nothing was sent.
	ErrInvalidArgument = apperrors.New("invalid argument")
)

func loginFailure(reason string, resp *jsonrpc.Response) error {
	return ErrLoginFailed.New(reason).
		Prefix("global.login").
		Suffix(describe(resp)).
		SetPayload(resp)
}

func requestFailure(method string, resp *jsonrpc.Response) error {
	return ErrRequestFailed.New("request failed").
		Prefix(method).
		Suffix(describe(resp)).
		SetPayload(resp)
}

func unexpectedResponse(method, what string, resp *jsonrpc.Response) error {
	return ErrRequestFailed.New("unexpected response: " + what).
		Prefix(method).
		Suffix(describe(resp)).
		SetPayload(resp)
}

func describe(resp *jsonrpc.Response) string {
	if resp == nil {
		return ""
	}
	return resp.String()
}

// ResponseFromError returns the device response behind a login or request
// failure.
func ResponseFromError(err error) (*jsonrpc.Response, bool) {
	p, ok := apperrors.PayloadOf(err)
	if !ok {
		return nil, false
	}
	resp, ok := p.(*jsonrpc.Response)
	return resp, ok
}
