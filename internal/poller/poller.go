// Package poller provides a readiness wait primitive for a non-blocking
// TCP socket: block the calling goroutine, without spawning one of its
// own, until the socket is readable or writable or a timeout elapses. On
// unix platforms it polls the raw descriptor directly (grounded on
// momentics/hioload-ws's epoll-backed transport, see internal/transport in
// that project's source); elsewhere it falls back to a deadline set
// directly on the net.Conn. Wait is implemented per-OS in poller_unix.go
// and poller_fallback.go.
package poller

import "time"

// Direction selects which readiness condition to wait for.
type Direction int

const (
	Readable Direction = iota
	Writable
)

// TimeoutError is returned by Wait when the timeout elapses before the
// socket becomes ready. It satisfies net.Error so callers can test
// Timeout() the same way they would for a deadline-based net.Conn error.
type TimeoutError struct{}

func (TimeoutError) Error() string   { return "poller: wait timed out" }
func (TimeoutError) Timeout() bool   { return true }
func (TimeoutError) Temporary() bool { return true }
