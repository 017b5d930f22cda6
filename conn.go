// Package wsclient is a client-side implementation of the WebSocket
// protocol (RFC 6455) for embedding in host applications that need a
// low-overhead, zero-copy, non-blocking WebSocket client over plaintext
// TCP. It establishes a handshake with a remote server, exchanges data
// and control frames, honors the close handshake, and surfaces received
// payloads as views rather than fresh copies: a frame that arrives in one
// read is a view into the connection's receive buffer, while a frame whose
// payload spans several reads is a view into the parser's assembly buffer.
//
// TLS, compression extensions, the server role, and multi-connection
// multiplexing are out of scope; see internal/frame, internal/handshake,
// and internal/utf8validate for the protocol-level primitives this
// package wires together.
package wsclient

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"io"
	"net"
	"time"

	"github.com/nilstrand/wsclient/internal/frame"
	"github.com/nilstrand/wsclient/internal/handshake"
	"github.com/nilstrand/wsclient/internal/poller"
	"github.com/nilstrand/wsclient/internal/sha1accept"
)

// State is one of the connection's lifecycle stages. Transitions are
// monotone toward CLOSED/ERROR, except CONNECTING->OPEN.
type State int

const (
	StateInit State = iota
	StateConnecting
	StateOpen
	StateClosing
	StateClosed
	StateError
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

var (
	errNotOpen            = errors.New("connection is not open")
	errPayloadPinned      = errors.New("payload is pinned; release it before the next recv")
	errNoPin              = errors.New("no payload is currently pinned")
	errPartialWrite       = errors.New("partial write to socket")
	errBufferTooSmall     = errors.New("encoded frame does not fit the send buffer")
	errRecvBufferFull     = errors.New("receive buffer is full")
	errControlTooLarge    = errors.New("control frame payload exceeds 125 bytes")
	errHandshakeExhausted = errors.New("handshake response exceeded scratch buffer before \\r\\n\\r\\n")
	errHandshakeTimedOut  = errors.New("timed out waiting for handshake response")
	errInvalidCloseCode   = errors.New("close code is not in the valid send set")
)

// validSendCloseCode reports whether code may be sent in a CLOSE frame,
// per spec section 6: the fixed RFC send set plus the application-defined
// range [3000, 4999]. 1005 and 1006 are reserved for local use only and
// must never appear on the wire; 1004, 1010, and 1015 are likewise
// excluded from the send set.
func validSendCloseCode(code uint16) bool {
	switch code {
	case 1000, 1001, 1002, 1003, 1007, 1008, 1009, 1011:
		return true
	}
	return code >= 3000 && code <= 4999
}

// handshakeScratchSize is the fixed scratch buffer the connect path reads
// the server's HTTP/1.1 response into; spec requires it be at least 4 KiB.
const handshakeScratchSize = 4096

// Conn is a single client-side WebSocket connection. It is not safe for
// concurrent use: exactly one goroutine may call its methods at a time,
// matching the single-threaded ownership model every operation assumes.
type Conn struct {
	cfg     Config
	socket  *net.TCPConn
	state   State
	lastErr *Error

	parser *frame.Parser

	// recvBuf is the flat receive buffer; valid bytes occupy
	// recvBuf[0:fill]. off marks the start of bytes not yet consumed by
	// the parser. Bytes in [0:off) are either fully parsed header/payload
	// scratch the parser already copied internally, or belong to a frame
	// currently pinned for the caller. The buffer is only ever compacted
	// (memmove offset back to zero) when pinRefcount == 0.
	recvBuf []byte
	fill    int
	off     int

	pinRefcount int

	sendBuf []byte
}

// Connect dials host, performs the RFC 6455 handshake, and returns an
// open Conn. uri must be ws://host[:port]/path; wss:// is rejected.
func Connect(uri string, opts ...Option) (*Conn, error) {
	cfg := resolveConfig(opts)
	if cfg.MaxFrameSize == 0 {
		cfg.MaxFrameSize = defaultMaxFrameSize
	}
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = defaultHandshakeTimeout
	}

	tgt, err := parseURI(uri)
	if err != nil {
		return nil, &Error{Code: CodeInvalidArgs, Op: "connect", Err: err}
	}

	c := &Conn{
		cfg:     cfg,
		state:   StateConnecting,
		parser:  frame.NewParser(cfg.MaxFrameSize),
		recvBuf: make([]byte, cfg.MaxFrameSize+frame.HeaderMaxSize),
	}

	dialer := net.Dialer{Timeout: cfg.HandshakeTimeout}
	rawConn, err := dialer.Dial("tcp", tgt.hostPort)
	if err != nil {
		c.state = StateError
		return nil, c.fail("connect", CodeNetwork, err)
	}
	tcpConn, ok := rawConn.(*net.TCPConn)
	if !ok {
		_ = rawConn.Close()
		c.state = StateError
		return nil, c.fail("connect", CodeNetwork, errors.New("dialed connection is not TCP"))
	}
	_ = tcpConn.SetNoDelay(true)
	c.socket = tcpConn

	deadline := time.Now().Add(cfg.HandshakeTimeout)

	if err := poller.Wait(c.socket, poller.Writable, time.Until(deadline)); err != nil {
		c.state = StateError
		return nil, c.fail("connect", classifyWaitErr(err), err)
	}

	key := sha1accept.GenerateKey()

	reqBuf := make([]byte, handshakeScratchSize)
	n, err := handshake.Build(reqBuf, handshake.Request{
		Host:      tgt.hostPort,
		Path:      tgt.path,
		Key:       key,
		UserAgent: cfg.UserAgent,
		Origin:    cfg.Origin,
		Protocol:  cfg.Protocol,
	})
	if err != nil {
		c.state = StateError
		return nil, c.fail("connect", CodeInvalidArgs, err)
	}

	if err := c.writeAllByDeadline(reqBuf[:n], deadline); err != nil {
		c.state = StateError
		return nil, c.fail("connect", classifyWaitErr(err), err)
	}

	scratch := make([]byte, handshakeScratchSize)
	total := 0
	for !containsDoubleCRLF(scratch[:total]) {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			c.state = StateError
			return nil, c.fail("connect", CodeHandshake, errHandshakeTimedOut)
		}
		if err := poller.Wait(c.socket, poller.Readable, remaining); err != nil {
			c.state = StateError
			return nil, c.fail("connect", CodeHandshake, err)
		}
		if total >= len(scratch) {
			c.state = StateError
			return nil, c.fail("connect", CodeHandshake, errHandshakeExhausted)
		}
		n, rerr := c.socket.Read(scratch[total:])
		total += n
		if rerr != nil && !containsDoubleCRLF(scratch[:total]) {
			c.state = StateError
			return nil, c.fail("connect", CodeNetwork, rerr)
		}
	}

	if err := handshake.ValidateResponse(scratch[:total], key); err != nil {
		c.state = StateError
		return nil, c.fail("connect", CodeHandshake, err)
	}

	// A server that pipelines a frame immediately after the 101 response
	// may have landed bytes past the \r\n\r\n in the same read; carry them
	// into recvBuf so the first Recv call sees them instead of losing them.
	if headerEnd := indexDoubleCRLFEnd(scratch[:total]); headerEnd < total {
		c.fill = copy(c.recvBuf, scratch[headerEnd:total])
	}

	c.state = StateOpen
	c.cfg.Logger.debug("handshake complete", "host", tgt.hostPort, "path", tgt.path)
	return c, nil
}

func containsDoubleCRLF(b []byte) bool {
	return indexDoubleCRLFEnd(b) >= 0
}

// indexDoubleCRLFEnd returns the index just past the first "\r\n\r\n" in b,
// or -1 if the separator has not appeared yet.
func indexDoubleCRLFEnd(b []byte) int {
	const sep = "\r\n\r\n"
	if len(b) < len(sep) {
		return -1
	}
	for i := 0; i+len(sep) <= len(b); i++ {
		if string(b[i:i+len(sep)]) == sep {
			return i + len(sep)
		}
	}
	return -1
}

func (c *Conn) writeAllByDeadline(buf []byte, deadline time.Time) error {
	written := 0
	for written < len(buf) {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return errHandshakeTimedOut
		}
		if err := poller.Wait(c.socket, poller.Writable, remaining); err != nil {
			return err
		}
		n, err := c.socket.Write(buf[written:])
		written += n
		if err != nil {
			return err
		}
	}
	return nil
}

func classifyWaitErr(err error) Code {
	if isTimeoutErr(err) {
		return CodeTimeout
	}
	return CodeNetwork
}

func isTimeoutErr(err error) bool {
	te, ok := err.(interface{ Timeout() bool })
	return ok && te.Timeout()
}

func (c *Conn) fail(op string, code Code, err error) *Error {
	e := newErr(op, code, err)
	c.lastErr = e
	c.cfg.Logger.warn("operation failed", "op", op, "code", ErrorString(code), "err", err)
	return e
}

// GetState reports the connection's current lifecycle state.
func (c *Conn) GetState() State { return c.state }

// GetLastError returns the most recent non-OK error recorded by any
// operation on this connection, or nil if none has occurred.
func (c *Conn) GetLastError() error {
	if c.lastErr == nil {
		return nil
	}
	return c.lastErr
}

// Fileno exposes the underlying socket's raw descriptor for callers that
// want to integrate this connection into their own readiness loop (e.g.
// an epoll set shared across several sockets). The descriptor is valid
// only as long as the connection is open.
func (c *Conn) Fileno() (uintptr, error) {
	if c.socket == nil {
		return 0, c.fail("fileno", CodeInvalidArgs, errNotOpen)
	}
	raw, err := c.socket.SyscallConn()
	if err != nil {
		return 0, c.fail("fileno", CodeNetwork, err)
	}
	var fd uintptr
	if err := raw.Control(func(f uintptr) { fd = f }); err != nil {
		return 0, c.fail("fileno", CodeNetwork, err)
	}
	return fd, nil
}

// ---- send path ----

func (c *Conn) checkSendAllowed(opcode frame.Opcode) error {
	if opcode == frame.OpClose {
		if c.state != StateOpen && c.state != StateClosing {
			return c.fail("send", CodeClosed, errNotOpen)
		}
		return nil
	}
	if c.state != StateOpen {
		return c.fail("send", CodeClosed, errNotOpen)
	}
	return nil
}

// send builds a masked frame with a freshly drawn mask key and writes it
// once to the socket. No send-side queue exists in the core: a partial
// write or a write error is surfaced to the caller directly.
func (c *Conn) send(opcode frame.Opcode, payload []byte) error {
	if err := c.checkSendAllowed(opcode); err != nil {
		return err
	}

	var maskKey [4]byte
	if _, err := rand.Read(maskKey[:]); err != nil {
		return c.fail("send", CodeMemory, err)
	}

	size := frame.EncodedSize(true, len(payload))
	if cap(c.sendBuf) < size {
		c.sendBuf = make([]byte, size)
	} else {
		c.sendBuf = c.sendBuf[:size]
	}
	n := frame.Build(c.sendBuf, true, opcode, true, maskKey, payload)
	if n == 0 {
		return c.fail("send", CodeBufferFull, errBufferTooSmall)
	}

	// A single write attempt bounded by a short deadline: a socket that
	// cannot take the frame within sendAttemptWindow surfaces as a timeout
	// (the EAGAIN equivalent) instead of blocking. No retry, no queue.
	const sendAttemptWindow = 10 * time.Millisecond
	if err := c.socket.SetWriteDeadline(time.Now().Add(sendAttemptWindow)); err != nil {
		c.state = StateError
		return c.fail("send", CodeNetwork, err)
	}
	wrote, err := c.socket.Write(c.sendBuf[:n])
	_ = c.socket.SetWriteDeadline(time.Time{})
	if err != nil {
		if isTimeoutErr(err) {
			return c.fail("send", CodeNotReady, err)
		}
		c.state = StateError
		return c.fail("send", CodeNetwork, err)
	}
	if wrote != n {
		c.state = StateError
		return c.fail("send", CodeNetwork, errPartialWrite)
	}
	return nil
}

// SendText sends one unfragmented TEXT frame.
func (c *Conn) SendText(data []byte) error { return c.send(frame.OpText, data) }

// SendBinary sends one unfragmented BINARY frame.
func (c *Conn) SendBinary(data []byte) error { return c.send(frame.OpBinary, data) }

// SendPing sends a PING control frame. data must be 125 bytes or fewer.
func (c *Conn) SendPing(data []byte) error {
	if len(data) > 125 {
		return c.fail("send_ping", CodeInvalidArgs, errControlTooLarge)
	}
	return c.send(frame.OpPing, data)
}

// SendClose sends a CLOSE frame with the given code and reason, then
// moves the connection to CLOSING. The reason is truncated so the total
// CLOSE payload (2-byte code plus reason) never exceeds 125 bytes. code
// must be in the valid send set; 1005, 1006, and any other code outside
// that set are rejected before anything is written to the socket.
func (c *Conn) SendClose(code uint16, reason string) error {
	if !validSendCloseCode(code) {
		return c.fail("send_close", CodeInvalidArgs, errInvalidCloseCode)
	}
	if len(reason) > 123 {
		reason = reason[:123]
	}
	payload := make([]byte, 2+len(reason))
	binary.BigEndian.PutUint16(payload, code)
	copy(payload[2:], reason)

	err := c.send(frame.OpClose, payload)
	if err == nil && c.state == StateOpen {
		c.state = StateClosing
	}
	return err
}

// ---- receive path ----

// Recv waits up to timeout for the next frame and returns it. A zero
// timeout waits forever. The returned Message's Payload is pinned: call
// ReleasePayload before the next Recv. It is a zero-copy view into the
// connection's receive buffer when the whole frame arrived in one read;
// a payload that arrived over several reads is copied into the parser's
// assembly buffer and returned from there.
func (c *Conn) Recv(timeout time.Duration) (Message, error) {
	if c.state != StateOpen {
		return Message{}, c.fail("recv", CodeClosed, errNotOpen)
	}
	if c.pinRefcount > 0 {
		return Message{}, c.fail("recv", CodeNotReady, errPayloadPinned)
	}

	if c.off < c.fill {
		if msg, status, err := c.parseOnce(); status != frame.NeedMore {
			return msg, err
		}
	}

	if err := poller.Wait(c.socket, poller.Readable, timeout); err != nil {
		code := classifyWaitErr(err)
		if code != CodeTimeout {
			c.state = StateError
		}
		return Message{}, c.fail("recv", code, err)
	}

	if c.fill >= len(c.recvBuf) {
		c.state = StateError
		return Message{}, c.fail("recv", CodeBufferFull, errRecvBufferFull)
	}
	n, rerr := c.socket.Read(c.recvBuf[c.fill:])
	if n > 0 {
		c.fill += n
	}
	if n == 0 && rerr != nil {
		if errors.Is(rerr, io.EOF) {
			c.state = StateClosed
			return Message{}, c.fail("recv", CodeClosed, rerr)
		}
		c.state = StateError
		return Message{}, c.fail("recv", CodeNetwork, rerr)
	}

	msg, _, err := c.parseOnce()
	return msg, err
}

// parseOnce feeds whatever unconsumed bytes are buffered to the parser
// and dispatches on the result.
func (c *Conn) parseOnce() (Message, frame.Status, error) {
	status, consumed, view, ferr := c.parser.Feed(c.recvBuf[c.off:c.fill])
	c.off += consumed

	switch status {
	case frame.NeedMore:
		c.compactIfUnpinned()
		return Message{}, status, c.fail("recv", CodeNotReady, nil)
	case frame.ErrProtocol, frame.ErrTooLarge:
		c.state = StateError
		code := CodeProtocol
		return Message{}, status, c.fail("recv", code, ferr)
	default: // frame.Frame
		msg, err := c.dispatchFrame(view)
		return msg, status, err
	}
}

func (c *Conn) dispatchFrame(view frame.View) (Message, error) {
	switch view.Opcode {
	case frame.OpPing:
		c.cfg.Logger.debug("auto-pong", "len", len(view.Payload))
		_ = c.send(frame.OpPong, view.Payload)
		c.compactIfUnpinned()
		return Message{}, c.fail("recv", CodeNotReady, nil)
	case frame.OpPong:
		c.compactIfUnpinned()
		return Message{}, c.fail("recv", CodeNotReady, nil)
	case frame.OpClose:
		closePayload := make([]byte, 2)
		binary.BigEndian.PutUint16(closePayload, 1000)
		_ = c.send(frame.OpClose, closePayload)
		c.state = StateClosed
		c.compactIfUnpinned()
		if c.socket != nil {
			_ = c.socket.Close()
		}
		return Message{}, c.fail("recv", CodeClosed, nil)
	default: // TEXT, BINARY, CONTINUATION
		c.pinRefcount = 1
		msg := Message{Opcode: Opcode(view.Opcode), FIN: view.FIN, Payload: view.Payload}
		return msg, nil
	}
}

// RetainPayload increments the pin refcount on the currently pinned
// payload, so a second consumer can hold a reference independently of
// the first. It fails with not_ready if nothing is currently pinned.
func (c *Conn) RetainPayload() error {
	if c.pinRefcount == 0 {
		return c.fail("retain_payload", CodeNotReady, errNoPin)
	}
	c.pinRefcount++
	return nil
}

// ReleasePayload decrements the pin refcount. When it reaches zero the
// consumed prefix is memmove'd out of the receive buffer. The buffer is
// also compacted after NeedMore and auto-handled control frames, but
// never while a payload is pinned.
func (c *Conn) ReleasePayload() error {
	if c.pinRefcount == 0 {
		return c.fail("release_payload", CodeNotReady, errNoPin)
	}
	c.pinRefcount--
	if c.pinRefcount == 0 {
		c.compact()
	}
	return nil
}

func (c *Conn) compactIfUnpinned() {
	if c.pinRefcount == 0 {
		c.compact()
	}
}

func (c *Conn) compact() {
	if c.off == 0 {
		return
	}
	n := copy(c.recvBuf, c.recvBuf[c.off:c.fill])
	c.fill = n
	c.off = 0
}

// Close sends a CLOSE frame (code 1000) if the connection is still open
// or closing, then shuts down the socket. It is idempotent: closing an
// already-closed connection is always valid.
func (c *Conn) Close() error {
	if c.state == StateClosed {
		return nil
	}
	if c.state == StateOpen || c.state == StateClosing {
		_ = c.SendClose(1000, "")
	}
	c.state = StateClosed
	if c.socket != nil {
		return c.socket.Close()
	}
	return nil
}
