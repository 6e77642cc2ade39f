package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// MaxFrameLen bounds a single length-prefixed frame. It covers both the
// handshake/ack vocabulary (a few bytes) and peripheral payloads (1..1024
// bytes), so 1024 is the ceiling for both.
const MaxFrameLen = 1024

// ErrFrameTooLarge is returned by WriteFrame/ReadFrame when a length exceeds MaxFrameLen.
var ErrFrameTooLarge = errors.New("wire: frame exceeds maximum length")

// WriteFrame writes a 2-byte big-endian length prefix followed by payload,
// checking each write's error before proceeding to the next field.
func WriteFrame(w io.Writer, payload []byte) error {
	if len(payload) > MaxFrameLen {
		return fmt.Errorf("%w: %d", ErrFrameTooLarge, len(payload))
	}
	var hdr [2]byte
	binary.BigEndian.PutUint16(hdr[:], uint16(len(payload)))
	if _, err := w.Write(hdr[:]); err != nil {
		return fmt.Errorf("wire: write frame header: %w", err)
	}
	if len(payload) == 0 {
		return nil
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("wire: write frame payload: %w", err)
	}
	return nil
}

// ReadFrame reads one length-prefixed frame, allocating exactly len(payload) bytes.
func ReadFrame(r io.Reader) ([]byte, error) {
	var hdr [2]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint16(hdr[:])
	if n == 0 {
		return nil, nil
	}
	if int(n) > MaxFrameLen {
		return nil, fmt.Errorf("%w: %d", ErrFrameTooLarge, n)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("wire: read frame payload: %w", err)
	}
	return buf, nil
}
