package tickcoord

import (
	"io"
	"log/slog"
	"testing"

	"github.com/TrySpaceOrg/simulith-go/internal/wire"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestCoordinator(expected int) *Coordinator {
	return &Coordinator{
		clientCount: expected,
		logger:      testLogger(),
		registry:    newRegistry(expected),
		subs:        newPublishSet(4),
		requestCh:   make(chan request, 8),
	}
}

func TestHandshakeRegistersNewClient(t *testing.T) {
	c := newTestCoordinator(2)
	replyCh := make(chan string, 1)
	payload, _ := wire.BuildReady("sim-a")
	c.handleRequest(request{payload: payload, replyCh: replyCh})

	resp := <-replyCh
	if resp != wire.ReplyACK {
		t.Fatalf("expected ACK, got %q", resp)
	}
	if !c.registry.idTaken("sim-a") {
		t.Fatalf("expected sim-a to be registered")
	}
}

func TestHandshakeRejectsDuplicateID(t *testing.T) {
	c := newTestCoordinator(2)
	payload, _ := wire.BuildReady("sim-a")

	first := make(chan string, 1)
	c.handleRequest(request{payload: payload, replyCh: first})
	<-first

	second := make(chan string, 1)
	c.handleRequest(request{payload: payload, replyCh: second})
	if resp := <-second; resp != wire.ReplyDupID {
		t.Fatalf("expected DUP_ID, got %q", resp)
	}
}

func TestHandshakeRejectsMalformedReady(t *testing.T) {
	c := newTestCoordinator(1)
	replyCh := make(chan string, 1)
	c.handleRequest(request{payload: "READY", replyCh: replyCh})
	if resp := <-replyCh; resp != wire.ReplyERR {
		t.Fatalf("expected ERR for malformed READY, got %q", resp)
	}
}

func TestHandshakeRejectsFullRegistry(t *testing.T) {
	c := newTestCoordinator(1)
	p1, _ := wire.BuildReady("first")
	first := make(chan string, 1)
	c.handleRequest(request{payload: p1, replyCh: first})
	<-first

	p2, _ := wire.BuildReady("second")
	second := make(chan string, 1)
	c.handleRequest(request{payload: p2, replyCh: second})
	if resp := <-second; resp != wire.ReplyERR {
		t.Fatalf("expected ERR once registry is full, got %q", resp)
	}
}

func TestAckKnownAndUnknownClient(t *testing.T) {
	c := newTestCoordinator(1)
	p1, _ := wire.BuildReady("first")
	ready := make(chan string, 1)
	c.handleRequest(request{payload: p1, replyCh: ready})
	<-ready

	ackCh := make(chan string, 1)
	c.handleRequest(request{payload: "first", replyCh: ackCh})
	if resp := <-ackCh; resp != wire.ReplyACK {
		t.Fatalf("expected ACK for known client ack, got %q", resp)
	}
	if !c.registry.allResponded() {
		t.Fatalf("expected registry to record the ack")
	}

	unknownCh := make(chan string, 1)
	c.handleRequest(request{payload: "ghost", replyCh: unknownCh})
	if resp := <-unknownCh; resp != wire.ReplyACK {
		t.Fatalf("expected ACK even for unknown client id (matches handle_ack's log-only behavior), got %q", resp)
	}
}

func TestSnapshotReflectsRegisteredClientsAndDefaults(t *testing.T) {
	c := New(WithClientCount(2), WithLogger(testLogger()))

	snap := c.Snapshot()
	if snap.Registered != 0 || snap.Expected != 2 {
		t.Fatalf("Snapshot before any registration = %+v, want Registered=0 Expected=2", snap)
	}
	if snap.Speed != 1.0 || snap.Paused {
		t.Fatalf("Snapshot defaults = %+v, want Speed=1.0 Paused=false", snap)
	}

	payload, _ := wire.BuildReady("sim-a")
	replyCh := make(chan string, 1)
	c.handleRequest(request{payload: payload, replyCh: replyCh})
	<-replyCh

	if snap := c.Snapshot(); snap.Registered != 1 {
		t.Fatalf("Snapshot.Registered after one registration = %d, want 1", snap.Registered)
	}
}

func TestWithIDGeneratorOverridesDefault(t *testing.T) {
	c := New(WithIDGenerator(func() string { return "fixed-id" }))
	if got := c.idGen(); got != "fixed-id" {
		t.Fatalf("idGen() = %q, want %q", got, "fixed-id")
	}
}
