package httpx

import (
	"net/http"
)

// Codes for failures detected before a request reaches a method handler.
const (
	CodeInvalidRequest = 268894209
	CodeInternalError  = 268894212
)

// Error is a transport-level failure. It is sent in the same envelope the
// device uses for failed calls so clients parse it the same way.
type Error struct {
	StatusCode int
	Code       int64
	Message    string
}

type errorDetail struct {
	Code    int64  `json:"code"`
	Message string `json:"message"`
}

type errorEnvelope struct {
	Result bool        `json:"result"`
	Error  errorDetail `json:"error"`
}

func (e *Error) Error() string {
	return e.Message
}

// Send writes the failure envelope. A nil writer is ignored.
func (e *Error) Send(w http.ResponseWriter) {
	if w == nil {
		return
	}
	body, err := json.Marshal(errorEnvelope{Error: errorDetail{Code: e.Code, Message: e.Message}})
	if err != nil {
		http.Error(w, e.Message, e.StatusCode)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.StatusCode)
	_, _ = w.Write(body)
}

func ErrInvalidRequest(detail string) *Error {
	msg := "Invalid request!"
	if detail != "" {
		msg = "Invalid request: " + detail
	}
	return &Error{StatusCode: http.StatusBadRequest, Code: CodeInvalidRequest, Message: msg}
}

func ErrMethodNotAllowed() *Error {
	return &Error{StatusCode: http.StatusMethodNotAllowed, Code: CodeInvalidRequest, Message: "Only POST is supported!"}
}

func ErrInternal(detail string) *Error {
	msg := "Internal error!"
	if detail != "" {
		msg = "Internal error: " + detail
	}
	return &Error{StatusCode: http.StatusInternalServerError, Code: CodeInternalError, Message: msg}
}

// ErrBusy is returned when a request outlives the handler deadline.
func ErrBusy() *Error {
	return &Error{StatusCode: http.StatusServiceUnavailable, Code: CodeInternalError, Message: "Device busy!"}
}
