package sockstats

import (
	"net"
	"testing"
)

func TestWrapConnReportsOpenAndClose(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()

	var events []Event
	w := WrapConn(client, func(c *Conn, e Event) { events = append(events, e) })
	if len(events) != 1 || events[0] != EventOpen {
		t.Fatalf("expected a single EventOpen report, got %v", events)
	}
	if w.OpenedAt.IsZero() {
		t.Fatalf("expected OpenedAt to be set")
	}

	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if len(events) != 2 || events[1] != EventClose {
		t.Fatalf("expected EventClose to follow, got %v", events)
	}
	if w.ClosedAt.IsZero() {
		t.Fatalf("expected ClosedAt to be set")
	}
}

func TestWrapConnCountsBytes(t *testing.T) {
	server, client := net.Pipe()
	w := WrapConn(client, nil)
	defer w.Close()
	defer server.Close()

	done := make(chan struct{})
	go func() {
		buf := make([]byte, 5)
		_, _ = server.Read(buf)
		close(done)
	}()

	n, err := w.Write([]byte("hello"))
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	<-done
	if n != 5 || w.SentBytes != 5 {
		t.Fatalf("expected SentBytes=5, got n=%d sentBytes=%d", n, w.SentBytes)
	}
	if w.FirstWriteAt.IsZero() {
		t.Fatalf("expected FirstWriteAt to be set after first write")
	}
}
