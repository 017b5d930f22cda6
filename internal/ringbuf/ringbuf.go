// Package ringbuf provides a fixed-capacity byte ring buffer with
// contiguous-region peek/commit/consume access, as an auxiliary buffering
// utility for send-side or non-pinned uses. The connection's receive path
// keeps a flat buffer with memmove-on-release instead (see conn.go), since
// a single stable pointer across one parse is easier to reason about than
// wraparound when payloads must stay pinned; see DESIGN.md.
package ringbuf

// Ring is a fixed-capacity circular byte buffer.
type Ring struct {
	buf   []byte
	head  int // next write index
	tail  int // next read index
	count int
}

// New allocates a ring buffer of the given capacity.
func New(capacity int) *Ring {
	return &Ring{buf: make([]byte, capacity)}
}

// Len returns the number of unread bytes currently stored.
func (r *Ring) Len() int { return r.count }

// Cap returns the buffer's fixed capacity.
func (r *Ring) Cap() int { return len(r.buf) }

// Free returns the number of bytes that can still be written.
func (r *Ring) Free() int { return len(r.buf) - r.count }

// PeekRead returns the contiguous readable region starting at tail. It may
// be shorter than Len when the readable data wraps around the end of the
// backing array; call PeekRead again after Consume to see the rest.
func (r *Ring) PeekRead() []byte {
	if r.count == 0 {
		return nil
	}
	end := r.tail + r.count
	if end > len(r.buf) {
		end = len(r.buf)
	}
	return r.buf[r.tail:end]
}

// Consume advances the read index past n bytes previously returned by
// PeekRead. It panics if n exceeds Len, which indicates a caller bug.
func (r *Ring) Consume(n int) {
	if n > r.count {
		panic("ringbuf: consume exceeds buffered length")
	}
	r.tail = (r.tail + n) % len(r.buf)
	r.count -= n
}

// PeekWrite returns the contiguous writable region starting at head. It may
// be shorter than Free when the writable space wraps around; call
// PeekWrite again after Commit to see the rest.
func (r *Ring) PeekWrite() []byte {
	if r.count == len(r.buf) {
		return nil
	}
	end := r.head + r.Free()
	if end > len(r.buf) {
		end = len(r.buf)
	}
	return r.buf[r.head:end]
}

// Commit advances the write index past n bytes previously written into the
// slice returned by PeekWrite. It panics if n exceeds Free.
func (r *Ring) Commit(n int) {
	if n > r.Free() {
		panic("ringbuf: commit exceeds free space")
	}
	r.head = (r.head + n) % len(r.buf)
	r.count += n
}

// WriteCopy copies p into the ring, wrapping as needed. It returns the
// number of bytes written, which is less than len(p) if the ring fills up.
func (r *Ring) WriteCopy(p []byte) int {
	written := 0
	for written < len(p) {
		dst := r.PeekWrite()
		if len(dst) == 0 {
			break
		}
		n := copy(dst, p[written:])
		r.Commit(n)
		written += n
	}
	return written
}

// ReadCopy copies up to len(p) unread bytes out of the ring into p,
// consuming them. It returns the number of bytes copied.
func (r *Ring) ReadCopy(p []byte) int {
	read := 0
	for read < len(p) {
		src := r.PeekRead()
		if len(src) == 0 {
			break
		}
		n := copy(p[read:], src)
		r.Consume(n)
		read += n
	}
	return read
}
