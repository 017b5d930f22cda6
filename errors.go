package wsclient

import "fmt"

// Code classifies the kind of failure a client operation produced. It
// mirrors the closed error taxonomy a hand-rolled WS engine needs to give
// callers a stable basis for retry/backoff decisions.
type Code int

const (
	// CodeOK is the zero value; Error is never returned with this code.
	CodeOK Code = iota
	CodeInvalidArgs
	CodeMemory
	CodeNetwork
	CodeHandshake
	CodeProtocol
	CodeTimeout
	CodeClosed
	CodeBufferFull
	CodeNotReady
)

// ErrorString returns the stable, short, lower-case label for code, the
// value get_last_error/error_string callers are expected to branch on.
func ErrorString(code Code) string {
	switch code {
	case CodeOK:
		return "ok"
	case CodeInvalidArgs:
		return "invalid_args"
	case CodeMemory:
		return "memory"
	case CodeNetwork:
		return "network"
	case CodeHandshake:
		return "handshake"
	case CodeProtocol:
		return "protocol"
	case CodeTimeout:
		return "timeout"
	case CodeClosed:
		return "closed"
	case CodeBufferFull:
		return "buffer_full"
	case CodeNotReady:
		return "not_ready"
	default:
		return "unknown"
	}
}

// Error is the single error type this package returns. Op names the
// operation that failed (e.g. "connect", "recv"), Code classifies the
// failure, and Err, when non-nil, wraps the underlying cause.
type Error struct {
	Code Code
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("wsclient: %s: %s: %v", e.Op, ErrorString(e.Code), e.Err)
	}
	return fmt.Sprintf("wsclient: %s: %s", e.Op, ErrorString(e.Code))
}

func (e *Error) Unwrap() error { return e.Err }

// newErr constructs an *Error, wrapping err when non-nil.
func newErr(op string, code Code, err error) *Error {
	return &Error{Code: code, Op: op, Err: err}
}
