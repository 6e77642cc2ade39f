package peripheral

import "bytes"

// bufferCapacity is the fixed receive-buffer size for every endpoint: filled
// lazily by the background reader, drained FIFO by Receive.
const bufferCapacity = 1024

// fifoBuffer is the endpoint's receive buffer: a FIFO byte queue that drops
// an entire arriving message rather than truncating it when it would not
// fit in the remaining capacity.
type fifoBuffer struct {
	buf bytes.Buffer
}

// room reports the number of bytes that may still be appended.
func (b *fifoBuffer) room() int {
	return bufferCapacity - b.buf.Len()
}

// tryAppend appends msg in full, or drops it entirely and returns false if
// it would overflow the remaining capacity.
func (b *fifoBuffer) tryAppend(msg []byte) bool {
	if len(msg) > b.room() {
		return false
	}
	b.buf.Write(msg)
	compact(&b.buf)
	return true
}

// len returns the number of buffered, unread bytes.
func (b *fifoBuffer) len() int { return b.buf.Len() }

// take copies up to len(out) buffered bytes into out, removing them from
// the buffer, and returns the number of bytes copied.
func (b *fifoBuffer) take(out []byte) int {
	n, _ := b.buf.Read(out)
	return n
}

// compact reclaims consumed prefix capacity once the buffer has grown large
// relative to its unread bytes, so long-running endpoints don't retain an
// ever-growing backing array after steady drain/fill cycles.
func compact(b *bytes.Buffer) bool {
	data := b.Bytes()
	if len(data) < 1024 {
		return false
	}
	if cap(data) > 0 && len(data)*4 < cap(data) {
		clone := make([]byte, len(data))
		copy(clone, data)
		b.Reset()
		b.Write(clone)
		return true
	}
	return false
}
