package tickclient_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/TrySpaceOrg/simulith-go/tickclient"
	"github.com/TrySpaceOrg/simulith-go/tickcoord"
)

// TestTwoClientsStayBarrierSynchronized covers the core end-to-end scenario:
// two simulators register, then must each observe the same sequence of
// ticks, with the coordinator never advancing a tick until both have acked
// it.
func TestTwoClientsStayBarrierSynchronized(t *testing.T) {
	coord := tickcoord.New(
		tickcoord.WithPublishAddr("127.0.0.1:0"),
		tickcoord.WithReplyAddr("127.0.0.1:0"),
		tickcoord.WithClientCount(2),
		tickcoord.WithInterval(time.Millisecond),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := coord.Initialize(ctx); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	go func() { _ = coord.Run(ctx) }()
	defer coord.Shutdown(context.Background())

	const ticksToObserve = 5
	var wg sync.WaitGroup
	errs := make(chan error, 2)
	var mu sync.Mutex
	seenByID := make(map[string][]uint64)

	runClient := func(id string) {
		defer wg.Done()
		cl := tickclient.New(coord.PublishAddr(), coord.ReplyAddr(), id)
		if err := cl.Connect(ctx); err != nil {
			errs <- err
			return
		}
		defer cl.Shutdown()
		if err := cl.Handshake(ctx); err != nil {
			errs <- err
			return
		}
		var seen []uint64
		err := cl.RunLoop(ctx, func(simTimeNs uint64) error {
			seen = append(seen, simTimeNs)
			if len(seen) >= ticksToObserve {
				return context.Canceled
			}
			return nil
		})
		mu.Lock()
		seenByID[id] = seen
		mu.Unlock()
		if err != nil && err != context.Canceled {
			errs <- err
		}
	}

	wg.Add(2)
	go runClient("sim-a")
	go runClient("sim-b")
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Fatalf("client error: %v", err)
	}

	a, b := seenByID["sim-a"], seenByID["sim-b"]
	if len(a) != ticksToObserve || len(b) != ticksToObserve {
		t.Fatalf("expected %d ticks per client, got sim-a=%v sim-b=%v", ticksToObserve, a, b)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("tick %d differs: sim-a=%d sim-b=%d", i, a[i], b[i])
		}
	}
}

// TestDuplicateClientIDRejected exercises the DUP_ID branch of the
// handshake dispatch table end to end.
func TestDuplicateClientIDRejected(t *testing.T) {
	coord := tickcoord.New(
		tickcoord.WithPublishAddr("127.0.0.1:0"),
		tickcoord.WithReplyAddr("127.0.0.1:0"),
		tickcoord.WithClientCount(2),
		tickcoord.WithInterval(time.Millisecond),
	)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := coord.Initialize(ctx); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	go func() { _ = coord.Run(ctx) }()
	defer coord.Shutdown(context.Background())

	first := tickclient.New(coord.PublishAddr(), coord.ReplyAddr(), "dup")
	if err := first.Connect(ctx); err != nil {
		t.Fatalf("connect first: %v", err)
	}
	defer first.Shutdown()
	if err := first.Handshake(ctx); err != nil {
		t.Fatalf("handshake first: %v", err)
	}

	second := tickclient.New(coord.PublishAddr(), coord.ReplyAddr(), "dup")
	if err := second.Connect(ctx); err != nil {
		t.Fatalf("connect second: %v", err)
	}
	defer second.Shutdown()
	if err := second.Handshake(ctx); err == nil {
		t.Fatalf("expected duplicate-id handshake to fail")
	}
}

// TestSingleClientObservesContiguousTickSequence registers one client
// against a coordinator with a 10ms interval and checks that the simulated
// time advances by exactly one interval per tick, starting at zero.
func TestSingleClientObservesContiguousTickSequence(t *testing.T) {
	const interval = 10 * time.Millisecond
	coord := tickcoord.New(
		tickcoord.WithPublishAddr("127.0.0.1:0"),
		tickcoord.WithReplyAddr("127.0.0.1:0"),
		tickcoord.WithClientCount(1),
		tickcoord.WithInterval(interval),
	)
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := coord.Initialize(ctx); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	go func() { _ = coord.Run(ctx) }()
	defer coord.Shutdown(context.Background())

	cl := tickclient.New(coord.PublishAddr(), coord.ReplyAddr(), "c1")
	if err := cl.Connect(ctx); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer cl.Shutdown()
	if err := cl.Handshake(ctx); err != nil {
		t.Fatalf("handshake: %v", err)
	}

	const numTicks = 20
	var seen []uint64
	err := cl.RunLoop(ctx, func(simTimeNs uint64) error {
		seen = append(seen, simTimeNs)
		if len(seen) >= numTicks {
			return context.Canceled
		}
		return nil
	})
	if err != nil && err != context.Canceled {
		t.Fatalf("run loop: %v", err)
	}
	for i, v := range seen {
		want := uint64(i) * uint64(interval.Nanoseconds())
		if v != want {
			t.Fatalf("tick %d: expected %d, got %d", i, want, v)
		}
	}
}

