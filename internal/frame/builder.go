package frame

import "encoding/binary"

// HeaderMaxSize is the largest a frame header can be: 2 base bytes + 8
// extended-length bytes + 4 mask-key bytes.
const HeaderMaxSize = 14

// Build serializes one frame into dst and returns the number of bytes
// written, or 0 if dst is too small to hold the header and payload.
// Masked frames draw their mask key from maskKey and XOR payload into dst
// while copying; the source payload slice is left untouched.
func Build(dst []byte, fin bool, opcode Opcode, masked bool, maskKey [4]byte, payload []byte) int {
	total := headerSize(masked, len(payload)) + len(payload)
	if len(dst) < total {
		return 0
	}

	b0 := byte(opcode) & 0x0F
	if fin {
		b0 |= 0x80
	}
	dst[0] = b0

	n := len(payload)
	i := 2
	var b1 byte
	switch {
	case n <= 125:
		b1 = byte(n)
	case n <= 0xFFFF:
		b1 = 126
		binary.BigEndian.PutUint16(dst[i:i+2], uint16(n))
		i += 2
	default:
		b1 = 127
		binary.BigEndian.PutUint64(dst[i:i+8], uint64(n))
		i += 8
	}
	if masked {
		b1 |= 0x80
		copy(dst[i:i+4], maskKey[:])
		i += 4
	}
	dst[1] = b1

	copy(dst[i:i+n], payload)
	if masked {
		applyMask(dst[i:i+n], maskKey)
	}
	return i + n
}

// headerSize returns the number of bytes Build's header occupies for a
// given payload length and masking flag, without the payload itself.
func headerSize(masked bool, payloadLen int) int {
	size := 2
	switch {
	case payloadLen <= 125:
	case payloadLen <= 0xFFFF:
		size += 2
	default:
		size += 8
	}
	if masked {
		size += 4
	}
	return size
}

// EncodedSize returns the total wire size Build would need for the given
// payload length and masking flag, useful for sizing a scratch buffer.
func EncodedSize(masked bool, payloadLen int) int {
	return headerSize(masked, payloadLen) + payloadLen
}
