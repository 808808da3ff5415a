package devicesim

import (
	"encoding/json"
	"time"
)

// Error codes reported in the "error" member of failed responses. The values
// match what firmware in the field returns for the same conditions.
const (
	ErrCodeLoginChallenge = 268632079
	ErrCodeBadCredentials = 268632085
	ErrCodeInvalidSession = 287637505
	ErrCodeMethodNotFound = 268894210
	ErrCodeInvalidObject  = 268894211
	ErrCodeInvalidParams  = 268959743
)

// DefaultRealm is used when Options.Realm is empty.
const DefaultRealm = "Login to SIM0000000000"

// TrafficSnapFinder is the finder name the simulator knows records for.
const TrafficSnapFinder = "TrafficSnapEventInfo"

// TimeLayout is the device's wall clock format.
const TimeLayout = "2006-01-02 15:04:05"

// Options configure a simulated device.
type Options struct {
	Username string
	Password string
	Realm    string
	// Random overrides the login nonce generator; used to pin golden values.
	Random func() string
	// Now overrides the device clock.
	Now func() time.Time
	// Records are the traffic snapshot events RecordFinder searches. Each
	// record needs a numeric "Time" member (Unix seconds).
	Records []Record
	// Delay holds every response back, simulating a slow device.
	Delay time.Duration
	// HandlerTimeout bounds how long a request may wait for its response.
	// Requests still delayed past it are answered with a busy error.
	HandlerTimeout time.Duration
}

// Record is one stored event.
type Record map[string]any

// Call is a request the simulator received, kept for test assertions.
type Call struct {
	Path    string
	Method  string
	ID      int64
	Session string
	Object  int64
	Params  json.RawMessage
}

type rpcRequest struct {
	Method  string          `json:"method"`
	ID      int64           `json:"id"`
	Params  json.RawMessage `json:"params"`
	Object  json.RawMessage `json:"object"`
	Session json.RawMessage `json:"session"`
}

type rpcError struct {
	Code    int64  `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	ID      int64     `json:"id"`
	Result  any       `json:"result"`
	Params  any       `json:"params,omitempty"`
	Session string    `json:"session,omitempty"`
	Error   *rpcError `json:"error,omitempty"`
}

type loginState struct {
	user          string
	random        string
	authenticated bool
}

type object struct {
	namespace string
	finder    *finder
}

type finder struct {
	name    string
	started bool
	matches []Record
	cursor  int
}

func success(params any) rpcResponse {
	return rpcResponse{Result: true, Params: params}
}

func failure(code int64, msg string) rpcResponse {
	return rpcResponse{Result: false, Error: &rpcError{Code: code, Message: msg}}
}
