package peripheral

import "testing"

func TestFifoBufferAppendAndTake(t *testing.T) {
	var b fifoBuffer
	if !b.tryAppend([]byte("hello")) {
		t.Fatalf("expected append to succeed")
	}
	if b.len() != 5 {
		t.Fatalf("expected len 5, got %d", b.len())
	}
	out := make([]byte, 5)
	n := b.take(out)
	if n != 5 || string(out) != "hello" {
		t.Fatalf("expected to read back 'hello', got %q (n=%d)", out[:n], n)
	}
	if b.len() != 0 {
		t.Fatalf("expected empty buffer after take, got len %d", b.len())
	}
}

func TestFifoBufferOverflowDropsWholeMessage(t *testing.T) {
	var b fifoBuffer
	big := make([]byte, bufferCapacity)
	if !b.tryAppend(big) {
		t.Fatalf("expected exact-capacity append to succeed")
	}
	if b.tryAppend([]byte{1}) {
		t.Fatalf("expected overflow append to be rejected")
	}
	if b.len() != bufferCapacity {
		t.Fatalf("expected buffer to retain only the first message, got len %d", b.len())
	}
}

func TestFifoBufferPartialTake(t *testing.T) {
	var b fifoBuffer
	b.tryAppend([]byte("abcdef"))
	out := make([]byte, 3)
	n := b.take(out)
	if n != 3 || string(out) != "abc" {
		t.Fatalf("expected partial read 'abc', got %q", out[:n])
	}
	if b.len() != 3 {
		t.Fatalf("expected 3 bytes remaining, got %d", b.len())
	}
	n = b.take(out)
	if n != 3 || string(out[:n]) != "def" {
		t.Fatalf("expected remaining 'def', got %q", out[:n])
	}
}
