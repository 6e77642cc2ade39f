package peripheral

import (
	"context"
	"testing"
	"time"
)

func mustOpenPair(t *testing.T) (server, client *Endpoint) {
	t.Helper()
	server = New("server", "127.0.0.1:0", RoleServer)
	if err := server.Init(); err != nil {
		t.Fatalf("server init: %v", err)
	}
	client = New("client", server.ln.Addr().String(), RoleClient)
	if err := client.Init(); err != nil {
		t.Fatalf("client init: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := server.WaitConnected(ctx); err != nil {
		t.Fatalf("server wait connected: %v", err)
	}
	if err := client.WaitConnected(ctx); err != nil {
		t.Fatalf("client wait connected: %v", err)
	}
	return server, client
}

func TestEndpointSendReceive(t *testing.T) {
	server, client := mustOpenPair(t)
	defer server.Close()
	defer client.Close()

	if _, err := client.Send([]byte("hello")); err != nil {
		t.Fatalf("send: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		ok, err := server.Available()
		if err != nil {
			t.Fatalf("available: %v", err)
		}
		if ok {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	buf := make([]byte, 32)
	n, err := server.Receive(buf)
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	if string(buf[:n]) != "hello" {
		t.Fatalf("expected 'hello', got %q", buf[:n])
	}
}

func TestEndpointInitIdempotent(t *testing.T) {
	server, client := mustOpenPair(t)
	defer server.Close()
	defer client.Close()

	if err := client.Init(); err != nil {
		t.Fatalf("second Init should be a no-op success, got %v", err)
	}
}

func TestEndpointMultipleSendsConcatenateWithoutBoundaries(t *testing.T) {
	server, client := mustOpenPair(t)
	defer server.Close()
	defer client.Close()

	for _, msg := range []string{"one", "two", "three"} {
		if _, err := client.Send([]byte(msg)); err != nil {
			t.Fatalf("send %q: %v", msg, err)
		}
	}

	var got []byte
	deadline := time.Now().Add(2 * time.Second)
	for len(got) < len("onetwothree") && time.Now().Before(deadline) {
		ok, err := server.Available()
		if err != nil {
			t.Fatalf("available: %v", err)
		}
		if !ok {
			time.Sleep(5 * time.Millisecond)
			continue
		}
		buf := make([]byte, 32)
		n, err := server.Receive(buf)
		if err != nil {
			t.Fatalf("receive: %v", err)
		}
		got = append(got, buf[:n]...)
	}
	if string(got) != "onetwothree" {
		t.Fatalf("expected concatenated 'onetwothree', got %q", got)
	}
}

func TestEndpointPartialReadsPreserveOrder(t *testing.T) {
	server, client := mustOpenPair(t)
	defer server.Close()
	defer client.Close()

	payload := []byte("0123456789AB") // len 12, divisible by 3
	if _, err := client.Send(payload); err != nil {
		t.Fatalf("send: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if ok, _ := server.Available(); ok {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	first := make([]byte, len(payload)/3)
	n1, err := server.Receive(first)
	if err != nil {
		t.Fatalf("receive first third: %v", err)
	}
	rest := make([]byte, len(payload))
	n2, err := server.Receive(rest)
	if err != nil {
		t.Fatalf("receive remainder: %v", err)
	}
	got := append(first[:n1], rest[:n2]...)
	if string(got) != string(payload) {
		t.Fatalf("expected %q, got %q", payload, got)
	}
}

func TestEndpointOperationsNonBlockingBeforeConnect(t *testing.T) {
	ep := New("lonely", "127.0.0.1:0", RoleServer)
	if err := ep.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}
	defer ep.Close()

	done := make(chan struct{})
	go func() {
		_, _ = ep.Send([]byte("x"))
		_, _ = ep.Available()
		buf := make([]byte, 8)
		_, _ = ep.Receive(buf)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("operations blocked with no connected peer")
	}
}
