package wsclient

import "github.com/nilstrand/wsclient/internal/frame"

// Opcode identifies the kind of a Message returned from Recv or accepted
// by a Send* call. Its values mirror the internal frame package's opcode
// set so callers never need to import an internal package to compare
// against them.
type Opcode byte

const (
	OpContinuation Opcode = Opcode(frame.OpContinuation)
	OpText         Opcode = Opcode(frame.OpText)
	OpBinary       Opcode = Opcode(frame.OpBinary)
	OpClose        Opcode = Opcode(frame.OpClose)
	OpPing         Opcode = Opcode(frame.OpPing)
	OpPong         Opcode = Opcode(frame.OpPong)
)

// Message is one frame handed back by Recv: a data frame's opcode, its
// FIN flag, and a payload that stays valid until ReleasePayload is called.
// The payload is a zero-copy view into the connection's receive buffer when
// the frame arrived in one read, and a view into the parser's assembly
// buffer when its payload spanned several reads. Fragmented messages
// arrive as one TEXT/BINARY frame (FIN may be false) followed by zero or
// more CONTINUATION frames, the last with FIN true; reassembly across
// frames is the caller's responsibility.
type Message struct {
	Opcode  Opcode
	FIN     bool
	Payload []byte
}
