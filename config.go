package wsclient

import "time"

// Config holds the tunables for a Conn. Zero-value fields are replaced by
// DefaultConfig's values at Connect time, so a caller may populate only the
// fields they care about.
type Config struct {
	// HandshakeTimeout bounds the writable-readiness wait, the handshake
	// write, and the response read during Connect.
	HandshakeTimeout time.Duration

	// MaxFrameSize bounds the payload length the parser will accept
	// before returning ErrTooLarge.
	MaxFrameSize uint64

	// UserAgent, Origin, and Protocol are optional request headers; each
	// is omitted from the handshake request when empty.
	UserAgent string
	Origin    string
	Protocol  string

	// EnableCompression is accepted for API compatibility with a future
	// extension negotiation but has no effect: this core never offers or
	// accepts per-message-deflate.
	EnableCompression bool

	// Logger receives Debug/Warn entries for state transitions and
	// protocol errors. A nil Logger disables logging.
	Logger *Logger
}

const (
	defaultHandshakeTimeout = 5 * time.Second
	defaultMaxFrameSize     = 1 << 20 // 1 MiB
)

// DefaultConfig returns the baseline Config: a 5-second handshake timeout,
// a 1 MiB max frame size, no optional headers, and the NewLogger(nil)
// logger, which discards the Debug and Warn entries this package emits.
func DefaultConfig() Config {
	return Config{
		HandshakeTimeout: defaultHandshakeTimeout,
		MaxFrameSize:     defaultMaxFrameSize,
		Logger:           NewLogger(nil),
	}
}

// Option mutates a Config in place; used with Connect's variadic options
// to override DefaultConfig's fields one at a time.
type Option func(*Config)

// WithOrigin sets the Origin header sent with the handshake request.
func WithOrigin(origin string) Option {
	return func(c *Config) { c.Origin = origin }
}

// WithProtocol sets the Sec-WebSocket-Protocol header.
func WithProtocol(protocol string) Option {
	return func(c *Config) { c.Protocol = protocol }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *Config) { c.UserAgent = userAgent }
}

// WithHandshakeTimeout overrides the default 5-second handshake timeout.
func WithHandshakeTimeout(d time.Duration) Option {
	return func(c *Config) { c.HandshakeTimeout = d }
}

// WithMaxFrameSize overrides the default 1 MiB maximum frame payload size.
func WithMaxFrameSize(n uint64) Option {
	return func(c *Config) { c.MaxFrameSize = n }
}

// WithLogger overrides the logger; pass a nil-backed Logger (NewLogger(nil))
// to silence logging entirely.
func WithLogger(l *Logger) Option {
	return func(c *Config) { c.Logger = l }
}

func resolveConfig(opts []Option) Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}
