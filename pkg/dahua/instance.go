package dahua

import (
	"context"

	"github.com/tansive/dahuarpc/internal/common/jsonrpc"
)

// invokeOnInstance creates a fresh server-side object with factory (a
// "<namespace>.factory.instance" method) and then runs call against it.
// Handles are never cached. The factory's result is used as the handle
// without checking it; a failed factory leaves the handle falsy and the
// operation itself reports the failure.
func (s *Session) invokeOnInstance(ctx context.Context, factory string, factoryParams any, call Call) (*jsonrpc.Response, error) {
	resp, err := s.Invoke(ctx, Call{Method: factory, Params: factoryParams})
	if err != nil {
		return nil, err
	}
	call.Object = resp.ResultHandle()
	return s.Invoke(ctx, call)
}

// callOnInstance is invokeOnInstance followed by the result == false check.
func (s *Session) callOnInstance(ctx context.Context, factory string, factoryParams any, call Call) (*jsonrpc.Response, error) {
	resp, err := s.invokeOnInstance(ctx, factory, factoryParams, call)
	if err != nil {
		return nil, err
	}
	if resp.IsFalse() {
		return nil, requestFailure(call.Method, resp)
	}
	return resp, nil
}
