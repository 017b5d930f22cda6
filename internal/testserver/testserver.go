// Package testserver is a minimal RFC 6455 server stub used only by this
// module's own integration tests: it speaks just enough of the protocol
// to complete a handshake and let a test script send and receive frames
// against a real net.Conn, so the client engine in the parent package can
// be driven end-to-end instead of only unit-tested in isolation. It
// reuses the same frame parser/builder the client uses rather than
// re-implementing framing by hand, unlike a hand-rolled echo server.
package testserver

import (
	"bufio"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/nilstrand/wsclient/internal/frame"
	"github.com/nilstrand/wsclient/internal/sha1accept"
)

// Server accepts exactly one client connection and completes the
// WebSocket handshake before handing control to the test.
type Server struct {
	ln     net.Listener
	conn   net.Conn
	parser *frame.Parser
	buf    []byte
	fill   int
	off    int
}

// Listen opens a TCP listener on an ephemeral loopback port.
func Listen() (*Server, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, err
	}
	return &Server{ln: ln, parser: frame.NewParser(0), buf: make([]byte, 1<<20)}, nil
}

// Addr returns the ws:// URL a client should dial.
func (s *Server) Addr() string {
	return fmt.Sprintf("ws://%s/", s.ln.Addr().String())
}

// Accept blocks until one client connects, reads its handshake request,
// and writes back a valid 101 Switching Protocols response.
func (s *Server) Accept() error {
	conn, err := s.ln.Accept()
	if err != nil {
		return err
	}
	s.conn = conn

	r := bufio.NewReader(conn)
	statusLine, err := r.ReadString('\n')
	if err != nil {
		return err
	}
	if !strings.HasPrefix(statusLine, "GET ") {
		return fmt.Errorf("testserver: unexpected request line %q", statusLine)
	}

	var key string
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return err
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			break
		}
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(name), "Sec-WebSocket-Key") {
			key = strings.TrimSpace(value)
		}
	}
	if key == "" {
		return fmt.Errorf("testserver: no Sec-WebSocket-Key in request")
	}

	accept := sha1accept.Accept(key)
	resp := "HTTP/1.1 101 Switching Protocols\r\n" +
		"Upgrade: websocket\r\n" +
		"Connection: Upgrade\r\n" +
		"Sec-WebSocket-Accept: " + accept + "\r\n\r\n"
	_, err = conn.Write([]byte(resp))
	return err
}

// SendFrame builds an unmasked server-to-client frame (the server role
// never masks) and writes it directly to the accepted connection.
func (s *Server) SendFrame(fin bool, opcode frame.Opcode, payload []byte) error {
	dst := make([]byte, frame.EncodedSize(false, len(payload)))
	n := frame.Build(dst, fin, opcode, false, [4]byte{}, payload)
	_, err := s.conn.Write(dst[:n])
	return err
}

// SendRaw writes b to the accepted connection without any framing,
// useful for tests that need to inject a malformed byte sequence.
func (s *Server) SendRaw(b []byte) error {
	_, err := s.conn.Write(b)
	return err
}

// ReadFrame blocks (bounded by deadline) until one full frame arrives
// from the client and returns its decoded view. Client frames are
// masked; the parser removes the mask before returning the view.
func (s *Server) ReadFrame(deadline time.Duration) (frame.View, error) {
	if deadline > 0 {
		_ = s.conn.SetReadDeadline(time.Now().Add(deadline))
	}
	for {
		if s.off < s.fill {
			status, consumed, view, err := s.parser.Feed(s.buf[s.off:s.fill])
			s.off += consumed
			switch status {
			case frame.Frame:
				return view, nil
			case frame.ErrProtocol, frame.ErrTooLarge:
				return frame.View{}, err
			}
		}
		if s.off == s.fill {
			s.off, s.fill = 0, 0
		}
		n, err := s.conn.Read(s.buf[s.fill:])
		if n > 0 {
			s.fill += n
		}
		if err != nil {
			return frame.View{}, err
		}
	}
}

// Close shuts down the accepted connection and the listener.
func (s *Server) Close() error {
	if s.conn != nil {
		_ = s.conn.Close()
	}
	return s.ln.Close()
}
