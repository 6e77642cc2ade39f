// Package tickcoord implements the Tick Coordinator: the barrier-sync
// authority that registers a fixed set of simulator clients, then advances
// a shared simulation clock one tick at a time, never proceeding past a
// tick until every client has acknowledged it.
package tickcoord

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/TrySpaceOrg/simulith-go/internal/logging"
	"github.com/TrySpaceOrg/simulith-go/internal/metrics"
	"github.com/TrySpaceOrg/simulith-go/internal/wire"
	"github.com/rs/xid"
)

const (
	defaultPublishAddr = ":50000"
	defaultReplyAddr   = ":50001"
	defaultInterval    = 10 * time.Millisecond
	defaultPubBuffer   = 64
	logInterval        = 10 * time.Second
)

// Coordinator is the Tick Coordinator. Construct with New, bind its
// listeners with Initialize, then run the tick loop with Run.
type Coordinator struct {
	pubAddr       string
	repAddr       string
	clientCount   int
	interval      time.Duration
	publishBuffer int
	statusPath    string
	operatorR     io.Reader
	logger        *slog.Logger
	idGen         func() string

	registry  *registry
	subs      *publishSet
	requestCh chan request

	pubListener net.Listener
	repListener net.Listener

	readyOnce sync.Once
	readyCh   chan struct{}
	errCh     chan error

	wg sync.WaitGroup

	currentTimeNs   atomic.Uint64
	paused          atomic.Bool
	speedBits       atomic.Uint64
	lastBarrierWait atomic.Int64
	lastStatusWrite time.Time
}

// New constructs a Coordinator; listeners are not yet bound until Initialize.
func New(opts ...Option) *Coordinator {
	c := &Coordinator{
		pubAddr:       defaultPublishAddr,
		repAddr:       defaultReplyAddr,
		clientCount:   1,
		interval:      defaultInterval,
		publishBuffer: defaultPubBuffer,
		logger:        logging.L(),
		idGen:         func() string { return xid.New().String() },
		requestCh:     make(chan request, 256),
		readyCh:       make(chan struct{}),
		errCh:         make(chan error, 1),
	}
	c.operatorR = os.Stdin
	c.speedBits.Store(math.Float64bits(1.0))
	for _, o := range opts {
		o(c)
	}
	c.registry = newRegistry(c.clientCount)
	c.subs = newPublishSet(c.publishBuffer)
	return c
}

// Ready is closed once both listeners are bound.
func (c *Coordinator) Ready() <-chan struct{} { return c.readyCh }

// Errors surfaces fatal asynchronous errors (listener failures).
func (c *Coordinator) Errors() <-chan error { return c.errCh }

func (c *Coordinator) setError(err error) {
	select {
	case c.errCh <- err:
	default:
	}
}

// Initialize binds the publish and reply listeners and starts their accept
// loops. Run must be called afterward to drive the handshake and tick loop.
func (c *Coordinator) Initialize(ctx context.Context) error {
	if c.clientCount <= 0 || c.clientCount > MaxClients {
		return fmt.Errorf("%w: %d", ErrInvalidCount, c.clientCount)
	}
	if c.interval <= 0 {
		return fmt.Errorf("%w: %s", ErrInvalidRate, c.interval)
	}

	pubLn, err := net.Listen("tcp", c.pubAddr)
	if err != nil {
		wrapped := fmt.Errorf("%w: publish: %v", ErrListen, err)
		metrics.IncError(mapErrToMetric(ErrListen))
		c.setError(wrapped)
		return wrapped
	}
	c.pubListener = pubLn
	c.pubAddr = pubLn.Addr().String()

	repLn, err := net.Listen("tcp", c.repAddr)
	if err != nil {
		_ = pubLn.Close()
		wrapped := fmt.Errorf("%w: reply: %v", ErrListen, err)
		metrics.IncError(mapErrToMetric(ErrListen))
		c.setError(wrapped)
		return wrapped
	}
	c.repListener = repLn
	c.repAddr = repLn.Addr().String()

	c.wg.Add(2)
	go c.servePublish(ctx, pubLn)
	go c.serveReply(ctx, repLn)

	c.readyOnce.Do(func() { close(c.readyCh) })
	c.logger.Info("tickcoord_listening", "publish_addr", c.pubAddr, "reply_addr", c.repAddr,
		"expected_clients", c.clientCount, "interval", c.interval)
	return nil
}

// Snapshot is a point-in-time read of coordinator runtime state, safe to
// call from any goroutine.
type Snapshot struct {
	Registered      int
	Expected        int
	CurrentTimeNs   uint64
	Paused          bool
	Speed           float64
	LastBarrierWait time.Duration
}

// Snapshot returns the coordinator's current runtime state.
func (c *Coordinator) Snapshot() Snapshot {
	return Snapshot{
		Registered:      c.registry.count(),
		Expected:        c.clientCount,
		CurrentTimeNs:   c.currentTimeNs.Load(),
		Paused:          c.paused.Load(),
		Speed:           math.Float64frombits(c.speedBits.Load()),
		LastBarrierWait: time.Duration(c.lastBarrierWait.Load()),
	}
}

// PublishAddr returns the bound publish listen address.
func (c *Coordinator) PublishAddr() string { return c.pubAddr }

// ReplyAddr returns the bound reply listen address.
func (c *Coordinator) ReplyAddr() string { return c.repAddr }

// Run blocks, first waiting for every expected client to register, then
// driving the tick loop until ctx is canceled or the operator quits.
func (c *Coordinator) Run(ctx context.Context) error {
	c.logger.Info("waiting_for_clients", "expected", c.clientCount)
	if err := c.awaitClients(ctx); err != nil {
		return err
	}
	c.logger.Info("all_clients_ready")
	c.registry.resetResponses()

	return c.runTickLoop(ctx)
}

func (c *Coordinator) awaitClients(ctx context.Context) error {
	for !c.registry.full() {
		select {
		case req := <-c.requestCh:
			c.handleRequest(req)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (c *Coordinator) runTickLoop(ctx context.Context) error {
	cliCh := c.startOperator(ctx, c.operatorR)

	paused := false
	speed := 1.0
	lastLogNs := uint64(0)

	for {
		select {
		case <-ctx.Done():
			return nil
		case line := <-cliCh:
			var quit bool
			speed, paused, quit = applyCommand(c.logger, line, speed, paused)
			c.speedBits.Store(math.Float64bits(speed))
			c.paused.Store(paused)
			if quit {
				return nil
			}
		default:
		}

		if c.statusPath != "" && time.Since(c.lastStatusWrite) >= 200*time.Millisecond {
			c.writeStatus(speed, paused)
			c.lastStatusWrite = time.Now()
		}

		if paused {
			time.Sleep(100 * time.Millisecond)
			continue
		}

		start := time.Now()
		c.broadcastTick()
		c.registry.resetResponses()

		if err := c.waitForBarrier(ctx, cliCh, &speed, &paused); err != nil {
			return err
		}
		c.speedBits.Store(math.Float64bits(speed))
		c.paused.Store(paused)

		elapsed := time.Since(start)
		target := time.Duration(float64(c.interval) / speed)
		if elapsed < target {
			sleepRemaining(target-elapsed, speed)
		}
		c.lastBarrierWait.Store(int64(elapsed))

		currentTimeNs := c.currentTimeNs.Add(uint64(c.interval.Nanoseconds()))
		metrics.IncTick()
		metrics.ObserveBarrierWait(elapsed.Seconds())

		if currentTimeNs-lastLogNs >= uint64(logInterval.Nanoseconds()) {
			c.logger.Info("simulation_progress", "sim_time_s", float64(currentTimeNs)/1e9, "speed", speed)
			lastLogNs = currentTimeNs
		}
	}
}

// waitForBarrier spins until every registered client has acked the current
// tick, draining c.requestCh (handshake or ack frames arriving
// concurrently) and pacing per the active speed tier while idle. speed and
// paused are pointers since an operator command mid-barrier must be visible
// to the caller's next iteration, not just to this call's own pacing.
func (c *Coordinator) waitForBarrier(ctx context.Context, cliCh <-chan string, speed *float64, paused *bool) error {
	interval := cliCheckInterval(*speed)
	iterations := 0
	for !c.registry.allResponded() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case req := <-c.requestCh:
			c.handleRequest(req)
		default:
			pace(*speed)
		}

		iterations++
		if iterations%interval == 0 {
			select {
			case line := <-cliCh:
				var quit bool
				*speed, *paused, quit = applyCommand(c.logger, line, *speed, *paused)
				if quit {
					return context.Canceled
				}
				interval = cliCheckInterval(*speed)
			default:
			}
		}
	}
	return nil
}

// broadcastTick encodes the current simulation time and fans it out to
// every connected publish-side subscriber.
func (c *Coordinator) broadcastTick() {
	frame := wire.EncodeTick(c.currentTimeNs.Load())
	delivered, dropped := c.subs.broadcast(frame)
	if dropped > 0 {
		c.logger.Warn("tick_broadcast_overflow", "delivered", delivered, "dropped", dropped)
	}
}

// Shutdown closes both listeners and every connected subscriber, then waits
// for all goroutines to exit.
func (c *Coordinator) Shutdown(ctx context.Context) error {
	if c.pubListener != nil {
		_ = c.pubListener.Close()
	}
	if c.repListener != nil {
		_ = c.repListener.Close()
	}
	for _, s := range c.subs.snapshot() {
		s.close()
	}
	done := make(chan struct{})
	go func() { c.wg.Wait(); close(done) }()
	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: shutdown timeout: %v", ErrContext, ctx.Err())
	case <-done:
		c.logger.Info("tickcoord_shutdown", "ticks", c.currentTimeNs.Load()/uint64(c.interval.Nanoseconds()))
		return nil
	}
}
