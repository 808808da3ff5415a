// Package apperrors provides error kinds for the client library. An error
// created from a kind matches it with errors.Is, may wrap underlying causes
// and may carry the raw device response that triggered it.
package apperrors

// Error is an error kind or an error derived from one. Modifiers never
// change the receiver; they return a copy.
type Error interface {
	error
	Unwrap() error

	New(msg string) Error                     // derives an error of this kind
	MsgErr(msg string, causes ...error) Error // derives an error wrapping causes
	SetPayload(any) Error                     // attaches diagnostic data
	Payload() any
	Prefix(string) Error
	Suffix(string) Error
	ErrorAll() string // message followed by every wrapped cause
}
