package wire

import (
	"errors"
	"fmt"
)

const (
	// lenSize is the size of a pkt-line length header in bytes.
	lenSize = 4

	// MaxPayloadLen is the largest payload a single pkt-line can carry,
	// the four hex digits of the header bound the whole frame to 0xffff.
	MaxPayloadLen = 0xffff - lenSize

	// Flush is the reserved zero-length token terminating a pkt-line
	// sequence.
	Flush = "0000"
)

var (
	// ErrProtocol indicates malformed pkt-line framing received from a peer.
	ErrProtocol = errors.New("malformed pkt-line framing")

	// ErrPayloadTooLarge indicates a payload exceeding [MaxPayloadLen].
	ErrPayloadTooLarge = errors.New("payload exceeds pkt-line frame limit")
)

// Line encodes payload as a single pkt-line data frame: four lowercase hex
// digits covering the whole frame, header included, followed by the payload.
func Line(payload []byte) ([]byte, error) {
	return AppendLine(nil, payload)
}

// AppendLine appends the pkt-line encoding of payload to dst.
func AppendLine(dst, payload []byte) ([]byte, error) {
	if len(payload) > MaxPayloadLen {
		return dst, fmt.Errorf("%w: %d > %d", ErrPayloadTooLarge, len(payload), MaxPayloadLen)
	}
	dst = fmt.Appendf(dst, "%04x", lenSize+len(payload))
	return append(dst, payload...), nil
}

// LineString encodes s as a single pkt-line data frame.
func LineString(s string) ([]byte, error) {
	return AppendLine(nil, []byte(s))
}
