package wire

import (
	"fmt"
	"io"
)

// Band identifies one of the side-band channels multiplexed over a single
// pkt-line stream.
type Band byte

const (
	// BandData carries packfile data.
	BandData Band = 1
	// BandProgress carries human readable progress messages.
	BandProgress Band = 2
	// BandError carries a fatal error message.
	BandError Band = 3
)

// maxSidebandPayload leaves room for the leading band byte in one frame.
const maxSidebandPayload = MaxPayloadLen - 1

// Writer encodes pkt-line frames onto an underlying stream.
type Writer struct {
	w io.Writer
}

// NewWriter returns a [Writer] encoding pkt-lines onto w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// WriteLine writes payload as a single pkt-line data frame.
func (w *Writer) WriteLine(payload []byte) error {
	frame, err := Line(payload)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(frame); err != nil {
		return fmt.Errorf("writing pkt-line frame: %w", err)
	}
	return nil
}

// WriteLineString writes s as a single pkt-line data frame.
func (w *Writer) WriteLineString(s string) error {
	return w.WriteLine([]byte(s))
}

// WriteFlush writes the reserved flush token.
func (w *Writer) WriteFlush() error {
	if _, err := io.WriteString(w.w, Flush); err != nil {
		return fmt.Errorf("writing pkt-line flush: %w", err)
	}
	return nil
}

// WriteSideband writes msg on the given band, chunking it across as many
// frames as needed. Each frame carries the band identifier byte followed by
// up to [MaxPayloadLen]-1 message bytes.
func (w *Writer) WriteSideband(band Band, msg []byte) error {
	for len(msg) > 0 {
		n := min(len(msg), maxSidebandPayload)
		frame := make([]byte, 0, lenSize+1+n)
		frame = append(frame, 0, 0, 0, 0)
		frame = append(frame, byte(band))
		frame = append(frame, msg[:n]...)
		copy(frame[:lenSize], fmt.Sprintf("%04x", len(frame)))

		if _, err := w.w.Write(frame); err != nil {
			return fmt.Errorf("writing side-band frame: %w", err)
		}
		msg = msg[n:]
	}
	return nil
}

// WriteSidebandString writes s on the given band.
func (w *Writer) WriteSidebandString(band Band, s string) error {
	return w.WriteSideband(band, []byte(s))
}
