// Package dahua provides a client for the RPC2 control protocol spoken by
// Dahua cameras, NVRs and display controllers.
//
// A Session owns one HTTP transport and talks to one device. Call Login once,
// then use Invoke for arbitrary methods or the named operations for the
// common ones. A Session is not safe for concurrent use: the request id
// counter and the stored token are plain fields. Use one Session per
// goroutine, or synchronize externally.
package dahua

import (
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tansive/dahuarpc/internal/common/httpclient"
	"github.com/tansive/dahuarpc/internal/common/jsonrpc"
)

const (
	// LoginPath is the endpoint both login steps are posted to.
	LoginPath = "/RPC2_Login"
	// RPCPath is the endpoint for every authenticated call.
	RPCPath = "/RPC2"
	// ClientType is the client identifier the device's web UI sends at login.
	ClientType = "Dahua3.0-Web3.0"
)

// Session is an authenticated channel to a single device.
type Session struct {
	host     string
	scheme   string
	username string
	password string

	requestID     int64
	token         jsonrpc.Handle
	authenticated bool

	client httpclient.HTTPClientInterface
	logger zerolog.Logger
}

// Option is a function type for configuring session behavior.
type Option func(*sessionConfig)

type sessionConfig struct {
	client   httpclient.HTTPClientInterface
	timeout  time.Duration
	insecure bool
	scheme   string
	logger   *zerolog.Logger
}

// WithHTTPClient replaces the transport. The session takes ownership of it.
func WithHTTPClient(c httpclient.HTTPClientInterface) Option {
	return func(cfg *sessionConfig) {
		cfg.client = c
	}
}

// WithTimeout sets a per-request timeout on the default transport.
// It has no effect together with WithHTTPClient.
func WithTimeout(d time.Duration) Option {
	return func(cfg *sessionConfig) {
		cfg.timeout = d
	}
}

// WithInsecureTLS disables certificate validation on the default transport.
// Devices ship self-signed certificates.
func WithInsecureTLS() Option {
	return func(cfg *sessionConfig) {
		cfg.insecure = true
	}
}

// WithScheme selects "http" (the default) or "https".
func WithScheme(scheme string) Option {
	return func(cfg *sessionConfig) {
		cfg.scheme = scheme
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l zerolog.Logger) Option {
	return func(cfg *sessionConfig) {
		cfg.logger = &l
	}
}

// New creates an unauthenticated session for host, which is an address with
// an optional port and an optional http:// or https:// prefix.
func New(host, username, password string, opts ...Option) (*Session, error) {
	cfg := sessionConfig{scheme: "http"}
	for _, opt := range opts {
		opt(&cfg)
	}

	scheme, host := splitScheme(host, cfg.scheme)
	if host == "" {
		return nil, ErrInvalidArgument.New("host is required")
	}
	if username == "" {
		return nil, ErrInvalidArgument.New("username is required")
	}
	if scheme != "http" && scheme != "https" {
		return nil, ErrInvalidArgument.New("unsupported scheme " + scheme)
	}

	client := cfg.client
	if client == nil {
		client = httpclient.NewClient(httpclient.ClientOptions{
			Timeout:               cfg.timeout,
			DisableCertValidation: cfg.insecure,
		})
	}
	logger := log.Logger
	if cfg.logger != nil {
		logger = *cfg.logger
	}

	return &Session{
		host:     host,
		scheme:   scheme,
		username: username,
		password: password,
		client:   client,
		logger:   logger.With().Str("device", host).Logger(),
	}, nil
}

// splitScheme strips an explicit scheme prefix and trailing slashes from host.
func splitScheme(host, fallback string) (string, string) {
	host = strings.TrimSpace(host)
	scheme := fallback
	for _, s := range []string{"http", "https"} {
		if strings.HasPrefix(strings.ToLower(host), s+"://") {
			scheme = s
			host = host[len(s)+3:]
		}
	}
	return scheme, strings.TrimRight(host, "/")
}

// Host returns the device address.
func (s *Session) Host() string {
	return s.host
}

// Username returns the login name.
func (s *Session) Username() string {
	return s.username
}

// RequestID returns the id used by the most recent request; zero before any.
func (s *Session) RequestID() int64 {
	return s.requestID
}

// Token returns the session token, or "" before login.
func (s *Session) Token() string {
	return s.token.String()
}

// IsAuthenticated reports whether the second login step succeeded.
func (s *Session) IsAuthenticated() bool {
	return s.authenticated
}

// URL returns the absolute URL of an endpoint path on the device.
func (s *Session) URL(path string) string {
	return s.scheme + "://" + s.host + path
}

// Close releases the transport's idle connections. The session must not be
// used afterwards.
func (s *Session) Close() error {
	s.client.CloseIdleConnections()
	return nil
}
