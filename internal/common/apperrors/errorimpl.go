package apperrors

import (
	"errors"
	"strings"
)

// appError is the concrete Error. Values are never mutated after creation;
// every modifier returns a copy.
type appError struct {
	msg     string
	base    error // kind this error was derived from
	causes  []error
	payload any
	prefix  string
	suffix  string
}

// Error returns the formatted error message without mutating state.
func (e *appError) Error() string {
	msg := e.msg
	if e.prefix != "" {
		msg = e.prefix + ": " + msg
	}
	if e.suffix != "" {
		msg = msg + ": " + e.suffix
	}
	return msg
}

// ErrorAll returns the message followed by every cause.
func (e *appError) ErrorAll() string {
	var b strings.Builder
	b.WriteString(e.Error())
	for _, err := range e.causes {
		b.WriteString("; ")
		b.WriteString(err.Error())
	}
	return b.String()
}

// Unwrap returns the kind this error was derived from.
func (e *appError) Unwrap() error {
	return e.base
}

// New creates a fresh error using the current error as its kind.
func (e *appError) New(msg string) Error {
	return &appError{
		msg:  msg,
		base: e,
	}
}

// MsgErr creates a new error with a message and wraps additional errors.
func (e *appError) MsgErr(msg string, errs ...error) Error {
	return &appError{
		msg:     msg,
		base:    e,
		causes:  errs,
		payload: e.payload,
	}
}

// SetPayload returns a shallow copy carrying p.
func (e *appError) SetPayload(p any) Error {
	cp := *e
	cp.payload = p
	return &cp
}

func (e *appError) Payload() any {
	return e.payload
}

// Prefix returns a shallow copy with an updated prefix.
func (e *appError) Prefix(p string) Error {
	cp := *e
	cp.prefix = p
	return &cp
}

// Suffix returns a shallow copy with an updated suffix.
func (e *appError) Suffix(s string) Error {
	cp := *e
	cp.suffix = s
	return &cp
}

// New creates a root-level error kind with the given message.
func New(msg string) Error {
	return &appError{
		msg: msg,
	}
}

// Is checks the kind and every wrapped error.
func (e *appError) Is(target error) bool {
	if target == nil {
		return false
	}
	if t, ok := target.(*appError); ok && t == e {
		return true
	}
	if e.base != nil && errors.Is(e.base, target) {
		return true
	}
	for _, err := range e.causes {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// PayloadOf returns the first payload found along err's chain.
func PayloadOf(err error) (any, bool) {
	for err != nil {
		var ae Error
		if !errors.As(err, &ae) {
			return nil, false
		}
		if p := ae.Payload(); p != nil {
			return p, true
		}
		err = ae.Unwrap()
	}
	return nil, false
}
