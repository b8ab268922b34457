package wire

import (
	"bufio"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
)

// ErrFlush is returned by [Reader.ReadLine] when a flush token is read in
// place of a data frame.
var ErrFlush = errors.New("pkt-line flush")

// ErrRawMode is returned by [Reader.ReadLine] once the stream has switched to
// raw pass-through, callers must consume [Reader.Remainder] instead.
var ErrRawMode = errors.New("pkt-line stream switched to raw mode")

// Reader is a streaming pkt-line decoder.
//
// The decoder is a three state machine. It starts out expecting a four hex
// digit length header. A data frame moves it through the data state and back.
// A flush token permanently switches it to raw mode: the smart protocol
// terminates command-list framing with a single flush before the unframed
// packfile begins, so every byte after the first flush belongs to the caller
// verbatim.
type Reader struct {
	br  *bufio.Reader
	raw bool
}

// NewReader returns a [Reader] decoding pkt-lines from r.
func NewReader(r io.Reader) *Reader {
	return &Reader{br: bufio.NewReader(r)}
}

// ReadLine reads one pkt-line data frame and returns its payload, which may
// be empty but non-nil for an empty-but-present frame.
//
// A flush token returns [ErrFlush] and switches the reader to raw mode. A
// header that is not four hex digits, or that declares a frame shorter than
// its own header, returns an error wrapping [ErrProtocol].
func (r *Reader) ReadLine() ([]byte, error) {
	if r.raw {
		return nil, ErrRawMode
	}

	var head [lenSize]byte
	if _, err := io.ReadFull(r.br, head[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: truncated length header: %w", ErrProtocol, err)
		}
		return nil, err //nolint:wrapcheck // io.EOF at a frame boundary is clean termination
	}

	n, err := parseLen(head)
	if err != nil {
		return nil, err
	}

	if n == 0 {
		r.raw = true
		return nil, ErrFlush
	}

	payload := make([]byte, n-lenSize)
	if _, err := io.ReadFull(r.br, payload); err != nil {
		return nil, fmt.Errorf("%w: truncated payload, want %d bytes: %w", ErrProtocol, n-lenSize, err)
	}

	return payload, nil
}

// Remainder exposes every byte following the flush token as a raw, unframed
// stream. It is only meaningful once ReadLine has returned [ErrFlush];
// before that it would surface framed bytes verbatim.
func (r *Reader) Remainder() io.Reader {
	return r.br
}

// parseLen decodes a four hex digit pkt-line length header.
func parseLen(head [lenSize]byte) (int, error) {
	var raw [lenSize / 2]byte
	if _, err := hex.Decode(raw[:], head[:]); err != nil {
		return 0, fmt.Errorf("%w: non-hex length %q: %w", ErrProtocol, head, err)
	}

	n := int(raw[0])<<8 | int(raw[1])
	switch {
	case n == 0:
		return 0, nil // flush
	case n < lenSize:
		return 0, fmt.Errorf("%w: declared frame length %d below header size", ErrProtocol, n)
	default:
		return n, nil
	}
}
