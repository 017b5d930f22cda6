// Package handshake builds the client HTTP/1.1 Upgrade request and
// validates the server's 101 response, per RFC 6455 section 4.
package handshake

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/net/http/httpguts"

	"github.com/nilstrand/wsclient/internal/sha1accept"
)

// ErrHandshake is wrapped by every validation failure in this package so
// callers can classify it with errors.Is against the taxonomy in the
// public package.
var ErrHandshake = errors.New("handshake")

// Request holds everything needed to build a client Upgrade request.
type Request struct {
	Host      string // host:port already combined
	Path      string
	Key       string // Sec-WebSocket-Key; generate with sha1accept.GenerateKey
	UserAgent string // optional
	Origin    string // optional
	Protocol  string // optional Sec-WebSocket-Protocol
}

// Build writes the HTTP/1.1 Upgrade request into dst and returns the
// number of bytes written, or an "invalid args" error if dst is too small.
func Build(dst []byte, req Request) (int, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "GET %s HTTP/1.1\r\n", req.Path)
	fmt.Fprintf(&buf, "Host: %s\r\n", req.Host)
	buf.WriteString("Upgrade: websocket\r\n")
	buf.WriteString("Connection: Upgrade\r\n")
	fmt.Fprintf(&buf, "Sec-WebSocket-Key: %s\r\n", req.Key)
	buf.WriteString("Sec-WebSocket-Version: 13\r\n")
	if req.UserAgent != "" {
		fmt.Fprintf(&buf, "User-Agent: %s\r\n", req.UserAgent)
	}
	if req.Origin != "" {
		fmt.Fprintf(&buf, "Origin: %s\r\n", req.Origin)
	}
	if req.Protocol != "" {
		fmt.Fprintf(&buf, "Sec-WebSocket-Protocol: %s\r\n", req.Protocol)
	}
	buf.WriteString("\r\n")

	if buf.Len() > len(dst) {
		return 0, fmt.Errorf("%w: output buffer too small for request (%d > %d)", errInvalidArgs, buf.Len(), len(dst))
	}
	return copy(dst, buf.Bytes()), nil
}

// errInvalidArgs is a local sentinel; the public package maps this
// component's errors onto its own Code taxonomy rather than exporting one
// here, matching the teacher's pattern of small per-file sentinel errors.
var errInvalidArgs = errors.New("invalid args")

// ValidateResponse checks a raw HTTP response (status line through the
// blank line terminating headers) against RFC 6455 section 4.1's
// requirements, given the key that was sent in the request.
func ValidateResponse(raw []byte, key string) error {
	r := bufio.NewScanner(bytes.NewReader(raw))
	r.Buffer(make([]byte, 0, 4096), 1<<20)

	if !r.Scan() {
		return fmt.Errorf("%w: empty response", ErrHandshake)
	}
	status := r.Text()
	if !strings.HasPrefix(status, "HTTP/1.1 101") {
		return fmt.Errorf("%w: unexpected status line %q", ErrHandshake, status)
	}

	headers := map[string]string{}
	for r.Scan() {
		line := r.Text()
		if line == "" {
			break
		}
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		headers[strings.ToLower(strings.TrimSpace(name))] = strings.TrimSpace(value)
	}

	upgrade, ok := headers["upgrade"]
	if !ok || !httpguts.HeaderValuesContainsToken([]string{upgrade}, "websocket") {
		return fmt.Errorf("%w: missing or invalid Upgrade header", ErrHandshake)
	}
	connection, ok := headers["connection"]
	if !ok || !httpguts.HeaderValuesContainsToken([]string{connection}, "upgrade") {
		return fmt.Errorf("%w: missing or invalid Connection header", ErrHandshake)
	}
	accept, ok := headers["sec-websocket-accept"]
	if !ok {
		return fmt.Errorf("%w: missing Sec-WebSocket-Accept header", ErrHandshake)
	}
	want := sha1accept.Accept(key)
	if accept != want {
		return fmt.Errorf("%w: Sec-WebSocket-Accept mismatch (got %q want %q)", ErrHandshake, accept, want)
	}
	return nil
}
