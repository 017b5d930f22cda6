package wsclient

import (
	"testing"
	"time"

	"github.com/nilstrand/wsclient/internal/frame"
	"github.com/nilstrand/wsclient/internal/testserver"
)

func mustServer(t *testing.T) *testserver.Server {
	t.Helper()
	srv, err := testserver.Listen()
	if err != nil {
		t.Fatalf("testserver.Listen: %v", err)
	}
	t.Cleanup(func() { _ = srv.Close() })
	return srv
}

func dial(t *testing.T, srv *testserver.Server, opts ...Option) *Conn {
	t.Helper()
	acceptErr := make(chan error, 1)
	go func() { acceptErr <- srv.Accept() }()

	conn, err := Connect(srv.Addr(), opts...)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := <-acceptErr; err != nil {
		t.Fatalf("server Accept: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestConnectReachesOpen(t *testing.T) {
	srv := mustServer(t)
	conn := dial(t, srv)
	if conn.GetState() != StateOpen {
		t.Fatalf("state = %v, want open", conn.GetState())
	}
}

func TestSendTextEchoedByServer(t *testing.T) {
	srv := mustServer(t)
	conn := dial(t, srv)

	if err := conn.SendText([]byte("hello")); err != nil {
		t.Fatalf("SendText: %v", err)
	}

	view, err := srv.ReadFrame(2 * time.Second)
	if err != nil {
		t.Fatalf("server ReadFrame: %v", err)
	}
	if view.Opcode != frame.OpText || string(view.Payload) != "hello" {
		t.Fatalf("server saw opcode=%v payload=%q, want TEXT %q", view.Opcode, view.Payload, "hello")
	}

	if err := srv.SendFrame(true, frame.OpText, []byte("hello back")); err != nil {
		t.Fatalf("server SendFrame: %v", err)
	}

	msg, err := conn.Recv(2 * time.Second)
	if err != nil {
		t.Fatalf("Recv: %v", err)
	}
	if msg.Opcode != OpText || string(msg.Payload) != "hello back" {
		t.Fatalf("Recv = opcode=%v payload=%q, want TEXT %q", msg.Opcode, msg.Payload, "hello back")
	}
	if err := conn.ReleasePayload(); err != nil {
		t.Fatalf("ReleasePayload: %v", err)
	}
}

func TestRecvWhilePinnedReturnsNotReady(t *testing.T) {
	srv := mustServer(t)
	conn := dial(t, srv)

	if err := srv.SendFrame(true, frame.OpBinary, []byte{1, 2, 3}); err != nil {
		t.Fatalf("server SendFrame: %v", err)
	}
	msg, err := conn.Recv(2 * time.Second)
	if err != nil {
		t.Fatalf("Recv: %v", err)
	}
	if msg.Opcode != OpBinary {
		t.Fatalf("opcode = %v, want binary", msg.Opcode)
	}

	_, err = conn.Recv(time.Second)
	if err == nil {
		t.Fatal("expected an error recv'ing while a payload is pinned")
	}
	wantCode := CodeNotReady
	var wsErr *Error
	if !asError(err, &wsErr) || wsErr.Code != wantCode {
		t.Fatalf("err = %v, want Code=%v", err, wantCode)
	}

	if err := conn.ReleasePayload(); err != nil {
		t.Fatalf("ReleasePayload: %v", err)
	}
}

func TestAutoPong(t *testing.T) {
	srv := mustServer(t)
	conn := dial(t, srv)

	if err := srv.SendFrame(true, frame.OpPing, []byte("ping-data")); err != nil {
		t.Fatalf("server SendFrame(ping): %v", err)
	}

	_, err := conn.Recv(2 * time.Second)
	var wsErr *Error
	if !asError(err, &wsErr) || wsErr.Code != CodeNotReady {
		t.Fatalf("Recv after PING = %v, want not_ready", err)
	}

	view, err := srv.ReadFrame(2 * time.Second)
	if err != nil {
		t.Fatalf("server ReadFrame (expecting PONG): %v", err)
	}
	if view.Opcode != frame.OpPong || string(view.Payload) != "ping-data" {
		t.Fatalf("got opcode=%v payload=%q, want PONG %q", view.Opcode, view.Payload, "ping-data")
	}
}

func TestCloseHandshakeFromServer(t *testing.T) {
	srv := mustServer(t)
	conn := dial(t, srv)

	closePayload := []byte{0x03, 0xE8} // code 1000, no reason
	if err := srv.SendFrame(true, frame.OpClose, closePayload); err != nil {
		t.Fatalf("server SendFrame(close): %v", err)
	}

	_, err := conn.Recv(2 * time.Second)
	var wsErr *Error
	if !asError(err, &wsErr) || wsErr.Code != CodeClosed {
		t.Fatalf("Recv after CLOSE = %v, want closed", err)
	}
	if conn.GetState() != StateClosed {
		t.Fatalf("state = %v, want closed", conn.GetState())
	}

	view, err := srv.ReadFrame(2 * time.Second)
	if err != nil {
		t.Fatalf("server ReadFrame (expecting echoed CLOSE): %v", err)
	}
	if view.Opcode != frame.OpClose {
		t.Fatalf("opcode = %v, want CLOSE", view.Opcode)
	}
}

func TestSendAfterCloseFails(t *testing.T) {
	srv := mustServer(t)
	conn := dial(t, srv)
	if err := conn.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := conn.SendText([]byte("too late")); err == nil {
		t.Fatal("expected SendText on a closed connection to fail")
	}
	// idempotent
	if err := conn.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestProtocolViolationSetsErrorState(t *testing.T) {
	srv := mustServer(t)
	conn := dial(t, srv)

	// PING with FIN=0: first byte 0x09 (opcode PING, FIN clear), second
	// byte 0x00 (unmasked, zero length) — must be rejected outright.
	if err := srv.SendRaw([]byte{0x09, 0x00}); err != nil {
		t.Fatalf("server SendRaw: %v", err)
	}

	_, err := conn.Recv(2 * time.Second)
	var wsErr *Error
	if !asError(err, &wsErr) || wsErr.Code != CodeProtocol {
		t.Fatalf("Recv = %v, want protocol error", err)
	}
	if conn.GetState() != StateError {
		t.Fatalf("state = %v, want error", conn.GetState())
	}
	if conn.GetLastError() == nil {
		t.Fatal("GetLastError should be non-nil after a protocol violation")
	}
}

func asError(err error, target **Error) bool {
	if err == nil {
		return false
	}
	e, ok := err.(*Error)
	if !ok {
		return false
	}
	*target = e
	return true
}
