package tickcoord

import "testing"

// register() itself is a dumb append; duplicate-id rejection is the
// handshake dispatcher's job (it checks idTaken before calling register),
// so this only verifies idTaken reflects what's been registered.
func TestRegistryRegisterAndIDTaken(t *testing.T) {
	r := newRegistry(2)
	if !r.register("a") {
		t.Fatalf("expected first registration to succeed")
	}
	if !r.idTaken("a") {
		t.Fatalf("expected 'a' to be taken")
	}
	if r.idTaken("b") {
		t.Fatalf("did not expect 'b' to be taken")
	}
}

func TestRegistryFullAtExpectedCount(t *testing.T) {
	r := newRegistry(2)
	r.register("a")
	if r.full() {
		t.Fatalf("registry should not be full with 1/2 clients")
	}
	r.register("b")
	if !r.full() {
		t.Fatalf("registry should be full with 2/2 clients")
	}
	if r.register("c") {
		t.Fatalf("expected registration beyond expected count to be rejected")
	}
}

func TestRegistryAckAndAllResponded(t *testing.T) {
	r := newRegistry(2)
	r.register("a")
	r.register("b")
	r.resetResponses()
	if r.allResponded() {
		t.Fatalf("expected allResponded to be false before any acks")
	}
	r.ack("a")
	if r.allResponded() {
		t.Fatalf("expected allResponded to be false with only one ack")
	}
	r.ack("b")
	if !r.allResponded() {
		t.Fatalf("expected allResponded to be true once both clients ack")
	}
}

func TestRegistryAckUnknownClientStillReportsFalse(t *testing.T) {
	r := newRegistry(1)
	r.register("a")
	if r.ack("ghost") {
		t.Fatalf("expected ack of unknown client id to report false")
	}
}
