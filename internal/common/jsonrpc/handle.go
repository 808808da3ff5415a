package jsonrpc

import (
	"bytes"
	"encoding/json"

	"github.com/tidwall/gjson"
)

// Handle is an opaque value issued by the device: an object handle returned
// from a factory call, or a session token returned from login. The client
// never interprets it; it is echoed back verbatim.
type Handle json.RawMessage

// HandleFrom wraps a value as a handle. Intended for tests and for callers
// that persisted a handle themselves.
func HandleFrom(v any) Handle {
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return Handle(b)
}

// IsZero reports whether the handle is falsy: absent, null, false, 0 or "".
// A falsy handle is never put on the wire.
func (h Handle) IsZero() bool {
	if len(bytes.TrimSpace(h)) == 0 {
		return true
	}
	v := gjson.ParseBytes(h)
	switch v.Type {
	case gjson.Null, gjson.False:
		return true
	case gjson.Number:
		return v.Float() == 0
	case gjson.String:
		return v.Str == ""
	case gjson.JSON:
		if v.IsArray() {
			return len(v.Array()) == 0
		}
		return len(v.Map()) == 0
	}
	return false
}

// String returns the handle's textual form: the unquoted value for strings,
// the raw JSON otherwise.
func (h Handle) String() string {
	if len(h) == 0 {
		return ""
	}
	v := gjson.ParseBytes(h)
	if v.Type == gjson.String {
		return v.Str
	}
	return v.Raw
}

func (h Handle) MarshalJSON() ([]byte, error) {
	if len(h) == 0 {
		return []byte("null"), nil
	}
	return h, nil
}

func (h *Handle) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*h = nil
		return nil
	}
	*h = append((*h)[0:0], data...)
	return nil
}

var _ json.Marshaler = Handle{}
var _ json.Unmarshaler = &Handle{}
