package dahua

import (
	"context"
	"time"

	"github.com/mitchellh/mapstructure"

	"github.com/tansive/dahuarpc/internal/common/jsonrpc"
)

// TrafficSnapFinder is the record finder holding traffic snapshot events
// (plate recognitions) on ITC cameras.
const TrafficSnapFinder = "TrafficSnapEventInfo"

// Condition is a RecordFinder search condition, e.g. {"Time": ["<>", a, b]}.
type Condition map[string]any

// TimeCondition matches records whose Time lies between start and end.
func TimeCondition(start, end time.Time) Condition {
	return Condition{"Time": []any{"<>", start.Unix(), end.Unix()}}
}

// FindResult is one page returned by DoFind.
type FindResult struct {
	Found   int
	Records []map[string]any
	// Response is the full device response the page was decoded from.
	Response *jsonrpc.Response
}

type findPage struct {
	Found int              `mapstructure:"found"`
	Infos []map[string]any `mapstructure:"infos"`
}

// CreateFinder creates a RecordFinder object for the named record table and
// returns its handle. Creation succeeds when result is present at all.
func (s *Session) CreateFinder(ctx context.Context, name string) (jsonrpc.Handle, error) {
	const method = "RecordFinder.factory.create"
	if name == "" {
		return nil, ErrInvalidArgument.New("finder name is required")
	}
	resp, err := s.Invoke(ctx, Call{
		Method: method,
		Params: map[string]any{"name": name},
	})
	if err != nil {
		return nil, err
	}
	if !resp.HasResult() {
		return nil, requestFailure(method, resp)
	}
	return resp.ResultHandle(), nil
}

// StartFind starts a search on finder.
func (s *Session) StartFind(ctx context.Context, finder jsonrpc.Handle, condition any) error {
	if finder.IsZero() {
		return ErrInvalidArgument.New("finder handle is required")
	}
	_, err := s.call(ctx, Call{
		Method: "RecordFinder.startFind",
		Params: map[string]any{"condition": condition},
		Object: finder,
	})
	return err
}

// DoFind fetches up to count records from a started search. It fetches once;
// callers wanting every record repeat the call until Found is zero.
func (s *Session) DoFind(ctx context.Context, finder jsonrpc.Handle, count int) (*FindResult, error) {
	const method = "RecordFinder.doFind"
	if finder.IsZero() {
		return nil, ErrInvalidArgument.New("finder handle is required")
	}
	if count <= 0 {
		return nil, ErrInvalidArgument.New("count must be positive")
	}
	resp, err := s.call(ctx, Call{
		Method: method,
		Params: map[string]any{"count": count},
		Object: finder,
	})
	if err != nil {
		return nil, err
	}

	// An exhausted search may answer without params.
	if resp.Params.IsNil() {
		return &FindResult{Response: resp}, nil
	}
	var params map[string]any
	if err := resp.Params.GetAs(&params); err != nil {
		return nil, unexpectedResponse(method, "params are not an object", resp)
	}
	var page findPage
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &page,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(params); err != nil {
		return nil, unexpectedResponse(method, err.Error(), resp)
	}
	return &FindResult{Found: page.Found, Records: page.Infos, Response: resp}, nil
}

// FindTrafficSnapshots runs a complete search over the traffic snapshot
// table between start and end and returns the first page of up to count
// records.
func (s *Session) FindTrafficSnapshots(ctx context.Context, start, end time.Time, count int) (*FindResult, error) {
	if end.Before(start) {
		return nil, ErrInvalidArgument.New("end precedes start")
	}
	finder, err := s.CreateFinder(ctx, TrafficSnapFinder)
	if err != nil {
		return nil, err
	}
	if err := s.StartFind(ctx, finder, TimeCondition(start, end)); err != nil {
		return nil, err
	}
	return s.DoFind(ctx, finder, count)
}
