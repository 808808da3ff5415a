// Package types holds JSON value wrappers shared by the RPC envelope types.
package types

import (
	"bytes"
	"encoding/json"
	"errors"
)

// Nullable is implemented by values that distinguish JSON null from a zero
// value.
type Nullable interface {
	IsNil() bool
}

// NullableAny holds an arbitrary JSON value and remembers whether it was set.
// An absent key and an explicit null both decode to the nil state.
type NullableAny struct {
	value json.RawMessage
	valid bool // Valid is true if Value is not nil
}

var (
	jsonTrue  = []byte("true")
	jsonFalse = []byte("false")
)

func (na NullableAny) IsNil() bool {
	return !na.valid
}

// Set stores value, marshaling it unless it already is valid raw JSON.
func (na *NullableAny) Set(value any) error {
	var raw json.RawMessage

	switch v := value.(type) {
	case json.RawMessage:
		if !json.Valid(v) {
			na.value, na.valid = nil, false
			return errors.New("value is not valid JSON")
		}
		raw = v
	default:
		b, err := json.Marshal(value)
		if err != nil {
			na.value, na.valid = nil, false
			return err
		}
		raw = b
	}

	if bytes.Equal(raw, []byte("null")) {
		na.value, na.valid = nil, false
		return nil
	}
	na.value = raw
	na.valid = true
	return nil
}

// Get decodes the value into a generic Go value. Returns nil when unset.
func (na NullableAny) Get() any {
	if !na.valid {
		return nil
	}
	var v any
	if err := json.Unmarshal(na.value, &v); err != nil {
		return nil
	}
	return v
}

// GetAs decodes the value into v.
func (na NullableAny) GetAs(v any) error {
	if na.valid {
		return json.Unmarshal(na.value, v)
	}
	return errors.New("value is not set")
}

// Raw returns the undecoded JSON, or nil when unset.
func (na NullableAny) Raw() json.RawMessage {
	if !na.valid {
		return nil
	}
	return na.value
}

// IsTrue reports whether the value is exactly the JSON literal true.
func (na NullableAny) IsTrue() bool {
	return na.valid && bytes.Equal(bytes.TrimSpace(na.value), jsonTrue)
}

// IsFalse reports whether the value is exactly the JSON literal false.
// Zero, empty strings and null are not false.
func (na NullableAny) IsFalse() bool {
	return na.valid && bytes.Equal(bytes.TrimSpace(na.value), jsonFalse)
}

func (na NullableAny) Equals(other NullableAny) bool {
	if na.valid && other.valid {
		return bytes.Equal(na.value, other.value)
	}
	return na.valid == other.valid
}

// implement json.Marshaler interface
func (na NullableAny) MarshalJSON() ([]byte, error) {
	if na.valid {
		return na.value, nil
	}
	return []byte("null"), nil
}

func (na *NullableAny) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		na.value, na.valid = nil, false
		return nil
	}
	if !json.Valid(data) {
		na.value, na.valid = nil, false
		return errors.New("invalid JSON")
	}
	na.value = append(json.RawMessage(nil), data...)
	na.valid = true
	return nil
}

func NullableAnyFrom(value any) (NullableAny, error) {
	var na NullableAny
	if err := na.Set(value); err != nil {
		return NullableAny{}, err
	}
	return na, nil
}

func NilAny() NullableAny {
	return NullableAny{}
}

var _ json.Marshaler = NullableAny{}
var _ json.Unmarshaler = &NullableAny{}
var _ Nullable = NullableAny{}
