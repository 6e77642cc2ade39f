package bus

import (
	"context"
	"testing"
	"time"

	"github.com/TrySpaceOrg/simulith-go/peripheral"
)

func mustOpenFourWirePair(t *testing.T) (server, client *FourWire) {
	t.Helper()
	server = NewFourWire("server", "127.0.0.1:0", peripheral.RoleServer, 0, 3)
	if err := server.Init(); err != nil {
		t.Fatalf("server init: %v", err)
	}
	client = NewFourWire("client", server.ep.BoundAddr(), peripheral.RoleClient, 0, 3)
	if err := client.Init(); err != nil {
		t.Fatalf("client init: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := server.ep.WaitConnected(ctx); err != nil {
		t.Fatalf("server wait connected: %v", err)
	}
	if err := client.ep.WaitConnected(ctx); err != nil {
		t.Fatalf("client wait connected: %v", err)
	}
	return server, client
}

func TestFourWireWriteCarriesBusAndChipSelect(t *testing.T) {
	server, client := mustOpenFourWirePair(t)
	defer server.Close()
	defer client.Close()

	if err := client.Write([]byte{0x01}); err != nil {
		t.Fatalf("write: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if ok, _ := server.ep.Available(); ok {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	buf := make([]byte, 16)
	n, err := server.ep.Receive(buf)
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	want := []byte{spiCmdWrite, 0, 3, 0x01}
	if n != len(want) {
		t.Fatalf("expected %d bytes, got %d", len(want), n)
	}
	for i := range want {
		if buf[i] != want[i] {
			t.Fatalf("byte %d: expected %#x, got %#x", i, want[i], buf[i])
		}
	}
}

func TestFourWireString(t *testing.T) {
	fw := NewFourWire("bus0", "127.0.0.1:0", peripheral.RoleServer, 1, 2)
	if got := fw.String(); got != "spi(bus=1 cs=2)" {
		t.Fatalf("unexpected String(): %q", got)
	}
}
