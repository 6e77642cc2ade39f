// Package wire defines the on-the-wire message shapes shared by the Tick
// Coordinator, the Tick Client and the Peripheral Endpoint: the fixed-width
// tick broadcast frame, the textual handshake vocabulary, and the generic
// length-prefixed framing used for everything else.
package wire

import "encoding/binary"

// TickFrameLen is the wire size of one tick broadcast: the simulated time in
// nanoseconds, fixed little-endian.
const TickFrameLen = 8

// EncodeTick packs a tick value into its 8-byte wire representation.
func EncodeTick(tickNs uint64) [TickFrameLen]byte {
	var buf [TickFrameLen]byte
	binary.LittleEndian.PutUint64(buf[:], tickNs)
	return buf
}

// DecodeTick unpacks an 8-byte tick broadcast payload.
func DecodeTick(buf []byte) uint64 {
	return binary.LittleEndian.Uint64(buf)
}
