//go:build !unix

package poller

import (
	"net"
	"time"
)

// Wait on non-unix platforms only sets a read or write deadline on conn
// (none when timeout <= 0) and returns at once without waiting; the
// caller's subsequent Read/Write blocks until data moves or the deadline
// passes. This keeps the blocking-with-timeout contract of the unix path
// without requiring a raw descriptor.
func Wait(conn *net.TCPConn, dir Direction, timeout time.Duration) error {
	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}
	if dir == Readable {
		return conn.SetReadDeadline(deadline)
	}
	return conn.SetWriteDeadline(deadline)
}
