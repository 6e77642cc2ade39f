// Package tickclient implements the Tick Client: the per-simulator library
// that registers with a Tick Coordinator, then blocks the simulator's
// stepping loop on each broadcast tick before acknowledging it.
package tickclient

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync/atomic"
	"time"

	"github.com/TrySpaceOrg/simulith-go/internal/logging"
	"github.com/TrySpaceOrg/simulith-go/internal/wire"
)

const (
	defaultBackoffMin = 100 * time.Millisecond
	defaultBackoffMax = 5 * time.Second
	dialTimeout       = 5 * time.Second
	ackTimeout        = 5 * time.Second
)

// Client is one Tick Client connection to a coordinator.
type Client struct {
	id      string
	pubAddr string
	repAddr string
	logger  *slog.Logger

	backoffMin time.Duration
	backoffMax time.Duration

	pubConn net.Conn
	repConn net.Conn

	tickCh chan uint64
	cancel context.CancelFunc
	closed atomic.Bool
}

// New constructs a Tick Client for the given publish/reply addresses and
// client id. Connect must be called before Handshake/RunLoop.
func New(pubAddr, repAddr, id string, opts ...Option) *Client {
	c := &Client{
		id:         id,
		pubAddr:    pubAddr,
		repAddr:    repAddr,
		logger:     logging.L(),
		backoffMin: defaultBackoffMin,
		backoffMax: defaultBackoffMax,
		tickCh:     make(chan uint64, 1),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Connect dials both the publish and reply channels, retrying with
// exponential backoff (bounded by ctx) since the coordinator may not have
// started listening yet: the delay doubles on each failure, clamps at a
// configured maximum, and resets once a dial succeeds.
func (c *Client) Connect(ctx context.Context) error {
	if c.closed.Load() {
		return ErrClosed
	}
	pubConn, err := c.dialWithBackoff(ctx, c.pubAddr)
	if err != nil {
		return err
	}
	repConn, err := c.dialWithBackoff(ctx, c.repAddr)
	if err != nil {
		_ = pubConn.Close()
		return err
	}
	c.pubConn = pubConn
	c.repConn = repConn

	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	go c.readTicks(ctx)
	c.logger.Info("tickclient_connected", "id", c.id, "publish_addr", c.pubAddr, "reply_addr", c.repAddr)
	return nil
}

func (c *Client) dialWithBackoff(ctx context.Context, addr string) (net.Conn, error) {
	backoff := c.backoffMin
	for {
		conn, err := net.DialTimeout("tcp", addr, dialTimeout)
		if err == nil {
			return conn, nil
		}
		c.logger.Warn("tickclient_dial_retry", "addr", addr, "error", err, "backoff", backoff)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > c.backoffMax {
			backoff = c.backoffMax
		}
	}
}

// readTicks continuously drains the publish connection into a single-slot
// mailbox channel: a tick the caller hasn't consumed yet is replaced by the
// next one, since the barrier only ever cares about the latest tick. The
// tick broadcast carries no length prefix or other framing: it is always
// exactly wire.TickFrameLen bytes, read raw.
func (c *Client) readTicks(ctx context.Context) {
	var buf [wire.TickFrameLen]byte
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		if _, err := io.ReadFull(c.pubConn, buf[:]); err != nil {
			c.logger.Warn("tickclient_tick_read_error", "error", err)
			return
		}
		t := wire.DecodeTick(buf[:])
		select {
		case c.tickCh <- t:
		default:
			select {
			case <-c.tickCh:
			default:
			}
			c.tickCh <- t
		}
	}
}

// Handshake sends "READY <id>" on the reply channel and waits for the
// coordinator's ACK/DUP_ID/ERR response.
func (c *Client) Handshake(ctx context.Context) error {
	if c.closed.Load() {
		return ErrClosed
	}
	if c.repConn == nil {
		return ErrNotConnected
	}
	payload, err := wire.BuildReady(c.id)
	if err != nil {
		return err
	}
	resp, err := c.request(payload)
	if err != nil {
		return err
	}
	switch resp {
	case wire.ReplyACK:
		c.logger.Info("tickclient_registered", "id", c.id)
		return nil
	case wire.ReplyDupID:
		return fmt.Errorf("%w: %s", ErrDuplicateID, c.id)
	default:
		return fmt.Errorf("%w: %s", ErrHandshake, resp)
	}
}

// request writes payload and reads back exactly one reply frame, honoring
// the REQ/REP one-exchange-at-a-time discipline.
func (c *Client) request(payload string) (string, error) {
	_ = c.repConn.SetWriteDeadline(time.Now().Add(ackTimeout))
	if err := wire.WriteFrame(c.repConn, []byte(payload)); err != nil {
		return "", fmt.Errorf("tickclient: write request: %w", err)
	}
	_ = c.repConn.SetReadDeadline(time.Now().Add(ackTimeout))
	buf, err := wire.ReadFrame(c.repConn)
	if err != nil {
		return "", fmt.Errorf("tickclient: read reply: %w", err)
	}
	return string(buf), nil
}

// WaitForTick blocks until the next tick frame arrives or ctx is done.
func (c *Client) WaitForTick(ctx context.Context) (uint64, error) {
	if c.closed.Load() {
		return 0, ErrClosed
	}
	select {
	case t := <-c.tickCh:
		return t, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// Ack acknowledges the current tick to the coordinator.
func (c *Client) Ack(ctx context.Context) error {
	if c.closed.Load() {
		return ErrClosed
	}
	resp, err := c.request(c.id)
	if err != nil {
		return err
	}
	if resp != wire.ReplyACK {
		c.logger.Warn("tickclient_unexpected_ack_reply", "reply", resp)
	}
	return nil
}

// RunLoop repeatedly waits for a tick, invokes onTick with the simulated
// time in nanoseconds, then acks it, until ctx is canceled or onTick
// returns an error.
func (c *Client) RunLoop(ctx context.Context, onTick func(simTimeNs uint64) error) error {
	for {
		t, err := c.WaitForTick(ctx)
		if err != nil {
			return err
		}
		if err := onTick(t); err != nil {
			return err
		}
		if err := c.Ack(ctx); err != nil {
			return err
		}
	}
}

// Shutdown closes both connections and stops the tick reader. It is
// idempotent; every method called after Shutdown returns ErrClosed.
func (c *Client) Shutdown() error {
	c.closed.Store(true)
	if c.cancel != nil {
		c.cancel()
	}
	var firstErr error
	if c.pubConn != nil {
		if err := c.pubConn.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if c.repConn != nil {
		if err := c.repConn.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
