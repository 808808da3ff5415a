// Package jsonrpc provides the request and response envelopes of the Dahua
// RPC2 protocol. The protocol resembles JSON-RPC but has no version field,
// carries a session token and an optional object handle at the top level,
// and signals most failures through a boolean result.
package jsonrpc

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	jsoniter "github.com/json-iterator/go"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/tansive/dahuarpc/pkg/types"
)

var codec = jsoniter.ConfigCompatibleWithStandardLibrary

// Request is the envelope posted to the device. Params and Object are omitted
// from the wire when empty. Session is written after any extra fields so that
// an extra field can never replace the token.
type Request struct {
	Method  string          `json:"method"`
	ID      int64           `json:"id"`
	Params  json.RawMessage `json:"params,omitempty"`
	Object  Handle          `json:"object,omitempty"`
	Session Handle          `json:"-"`
}

// Response is the envelope returned by the device. Result is usually a boolean
// but some methods return their payload (for example an object handle) in it.
type Response struct {
	ID      int64             `json:"id"`
	Result  types.NullableAny `json:"result"`
	Params  types.NullableAny `json:"params"`
	Session Handle            `json:"session,omitempty"`
	Error   *ErrorObject      `json:"error,omitempty"`

	raw []byte
}

// ErrorObject is the optional error detail the device attaches to a failed call.
type ErrorObject struct {
	Code    int64  `json:"code"`
	Message string `json:"message"`
}

func (e *ErrorObject) String() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("code %d: %s", e.Code, e.Message)
}

// EncodeParams converts caller parameters to raw JSON. A nil interface means
// "no params" and yields nil; any other value, including "" or an empty map,
// is encoded and sent.
func EncodeParams(params any) (json.RawMessage, error) {
	if params == nil {
		return nil, nil
	}
	if raw, ok := params.(json.RawMessage); ok {
		if !json.Valid(raw) {
			return nil, errors.New("params are not valid JSON")
		}
		return raw, nil
	}
	b, err := codec.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("encoding params: %w", err)
	}
	return b, nil
}

// ConstructRequest serializes req, merges extra top-level fields into it and
// finally sets the session token when one is present.
func ConstructRequest(req Request, extra map[string]any) ([]byte, error) {
	if req.Method == "" {
		return nil, errors.New("method is required")
	}
	if req.Object.IsZero() {
		req.Object = nil
	}
	body, err := codec.Marshal(req)
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		body, err = sjson.SetBytes(body, escapeKey(k), extra[k])
		if err != nil {
			return nil, fmt.Errorf("merging field %q: %w", k, err)
		}
	}

	if !req.Session.IsZero() {
		body, err = sjson.SetRawBytes(body, "session", req.Session)
		if err != nil {
			return nil, fmt.Errorf("setting session: %w", err)
		}
	}
	return body, nil
}

// ParseResponse unmarshals a device response. The body must be a JSON object.
func ParseResponse(data []byte) (*Response, error) {
	if !gjson.ValidBytes(data) || !gjson.ParseBytes(data).IsObject() {
		return nil, errors.New("invalid RPC response: body is not a JSON object")
	}
	var resp Response
	if err := codec.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("invalid RPC response: %w", err)
	}
	resp.raw = append([]byte(nil), data...)
	return &resp, nil
}

// Raw returns the body the response was parsed from.
func (r *Response) Raw() []byte {
	return r.raw
}

// IsFalse reports whether result is exactly boolean false.
func (r *Response) IsFalse() bool {
	return r.Result.IsFalse()
}

// IsTrue reports whether result is exactly boolean true.
func (r *Response) IsTrue() bool {
	return r.Result.IsTrue()
}

// HasResult reports whether result is present and not null.
func (r *Response) HasResult() bool {
	return !r.Result.IsNil()
}

// Param looks up a gjson path inside params.
func (r *Response) Param(path string) gjson.Result {
	if r.Params.IsNil() {
		return gjson.Result{}
	}
	return gjson.GetBytes(r.Params.Raw(), path)
}

// ResultHandle returns result as an opaque handle.
func (r *Response) ResultHandle() Handle {
	return Handle(r.Result.Raw())
}

func (r *Response) String() string {
	if len(r.raw) > 0 {
		return string(r.raw)
	}
	b, _ := codec.Marshal(r)
	return string(b)
}

// escapeKey protects sjson path characters so extra keys are set literally.
func escapeKey(k string) string {
	out := make([]byte, 0, len(k))
	for i := 0; i < len(k); i++ {
		switch k[i] {
		case '.', '*', '?', '|', '#', '@', '\\', ':':
			out = append(out, '\\')
		}
		out = append(out, k[i])
	}
	return string(out)
}
