//go:build unix

package poller

import (
	"net"
	"time"

	"golang.org/x/sys/unix"
)

// Wait blocks until conn's underlying descriptor is ready for dir, or
// until timeout elapses (timeout <= 0 means wait forever). It uses
// poll(2) via golang.org/x/sys/unix directly on the raw descriptor so it
// observes readiness without performing the eventual Read/Write itself,
// matching the engine's "wait, then I/O" two-step from spec section 4.4.
func Wait(conn *net.TCPConn, dir Direction, timeout time.Duration) error {
	raw, err := conn.SyscallConn()
	if err != nil {
		return err
	}

	var events int16
	if dir == Readable {
		events = unix.POLLIN
	} else {
		events = unix.POLLOUT
	}

	deadline := -1
	if timeout > 0 {
		deadline = int(timeout.Milliseconds())
		if deadline == 0 {
			deadline = 1
		}
	}

	var pollErr error
	var ready bool
	ctrlErr := raw.Control(func(fd uintptr) {
		fds := []unix.PollFd{{Fd: int32(fd), Events: events}}
		n, e := unix.Poll(fds, deadline)
		if e != nil {
			pollErr = e
			return
		}
		if n == 0 {
			return
		}
		if fds[0].Revents&(unix.POLLERR|unix.POLLHUP|unix.POLLNVAL) != 0 {
			ready = true // let the subsequent Read/Write surface the real error
			return
		}
		ready = n > 0
	})
	if ctrlErr != nil {
		return ctrlErr
	}
	if pollErr != nil {
		return pollErr
	}
	if !ready {
		return TimeoutError{}
	}
	return nil
}
