// Package peripheral implements the Peripheral Transport Fabric: a
// symmetric, point-to-point, buffered, non-blocking bidirectional channel
// between exactly two endpoints used to emulate serial-style hardware
// buses between simulator processes.
package peripheral

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/TrySpaceOrg/simulith-go/internal/logging"
	"github.com/TrySpaceOrg/simulith-go/internal/metrics"
	"github.com/TrySpaceOrg/simulith-go/internal/sockstats"
	"github.com/TrySpaceOrg/simulith-go/internal/tcpinfo"
	"github.com/TrySpaceOrg/simulith-go/internal/wire"
	"github.com/rs/xid"
)

// Role distinguishes which side of an address pair an Endpoint plays.
type Role int

const (
	// RoleServer binds the address and accepts the single peer connection.
	RoleServer Role = iota
	// RoleClient dials the address.
	RoleClient
)

// state is the Endpoint's two-state lifecycle.
type state int

const (
	stateUninitialized state = iota
	stateOpen
)

const (
	sendQueueDepth = 64
	dialTimeout    = 5 * time.Second
	acceptTimeout  = 30 * time.Second
)

// Endpoint is one side of a peripheral bus pair. All five operations
// (Init, Send, Available, Receive, Close) return promptly and never wait on
// the peer.
type Endpoint struct {
	Name string
	Role Role
	Addr string
	// StatsEnabled turns on the optional sockstats/tcpinfo wrapping; off by
	// default since it costs a getsockopt poll per connection.
	StatsEnabled bool

	mu    sync.Mutex
	state state
	conn  net.Conn
	ln    net.Listener
	tx    *asyncTx
	rx    fifoBuffer
	id    string

	wg       sync.WaitGroup
	cancel   context.CancelFunc
	connGot  chan struct{}
	connOnce sync.Once
}

// New constructs an uninitialized endpoint bound to addr in the given role.
func New(name, addr string, role Role) *Endpoint {
	return &Endpoint{
		Name: name,
		Addr: addr,
		Role: role,
		id:   xid.New().String(),
	}
}

// Init opens the endpoint: the server role binds and accepts one connection
// in the background; the client role dials. A second call on an
// already-open endpoint is a no-op success.
func (e *Endpoint) Init() error {
	e.mu.Lock()
	if e.state == stateOpen {
		e.mu.Unlock()
		return nil
	}
	e.mu.Unlock()

	if e.Addr == "" {
		return fmt.Errorf("%w: empty address", ErrInvalidArg)
	}

	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	e.connGot = make(chan struct{})

	switch e.Role {
	case RoleServer:
		ln, err := net.Listen("tcp", e.Addr)
		if err != nil {
			cancel()
			return fmt.Errorf("%w: %v", ErrBind, err)
		}
		e.ln = ln
		e.wg.Add(1)
		go e.acceptLoop(ctx, ln)
	case RoleClient:
		conn, err := net.DialTimeout("tcp", e.Addr, dialTimeout)
		if err != nil {
			cancel()
			return fmt.Errorf("%w: %v", ErrConnect, err)
		}
		e.onConnected(ctx, conn)
	}

	e.mu.Lock()
	e.state = stateOpen
	e.mu.Unlock()
	logging.L().Info("peripheral_init", "name", e.Name, "addr", e.Addr, "role", e.roleString(), "id", e.id)
	return nil
}

func (e *Endpoint) roleString() string {
	if e.Role == RoleServer {
		return "server"
	}
	return "client"
}

func (e *Endpoint) acceptLoop(ctx context.Context, ln net.Listener) {
	defer e.wg.Done()
	go func() { <-ctx.Done(); _ = ln.Close() }()
	conn, err := ln.Accept()
	if err != nil {
		return
	}
	e.onConnected(ctx, conn)
}

// onConnected wires up the asyncTx send funnel and the background reader
// once a connection exists, for either role.
func (e *Endpoint) onConnected(ctx context.Context, rawConn net.Conn) {
	var conn net.Conn = rawConn
	if e.StatsEnabled {
		conn = sockstats.WrapConn(rawConn, func(c *sockstats.Conn, event sockstats.Event) {
			if event == sockstats.EventClose {
				logging.L().Debug("peripheral_conn_stats", "name", e.Name,
					"sent_bytes", c.SentBytes, "recv_bytes", c.RecvBytes)
			}
		})
		if tcpinfo.Available {
			e.wg.Add(1)
			go e.pollTCPInfo(ctx, rawConn)
		}
	}

	e.mu.Lock()
	e.conn = conn
	e.tx = newAsyncTx(ctx, sendQueueDepth, func(msg []byte) error {
		return wire.WriteFrame(conn, msg)
	}, asyncTxHooks{
		OnError: func(err error) {
			metrics.IncError(metrics.ErrPeripheralWrite)
			logging.L().Warn("peripheral_send_error", "name", e.Name, "error", err)
		},
		OnAfter: func(n int) { metrics.AddPeripheralSent(n) },
		OnDrop: func() error {
			metrics.IncPeripheralSendOverflow()
			return ErrUnavailable
		},
	})
	e.mu.Unlock()
	e.connOnce.Do(func() { close(e.connGot) })

	e.wg.Add(1)
	go e.readLoop(ctx, conn)
}

// pollTCPInfo periodically samples TCP_INFO and publishes RTT to metrics,
// for the optional diagnostic path enabled by StatsEnabled.
func (e *Endpoint) pollTCPInfo(ctx context.Context, conn net.Conn) {
	defer e.wg.Done()
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			info, err := tcpinfo.Get(conn)
			if err != nil {
				continue
			}
			metrics.ObserveRTT(e.Name, info.RTT.Seconds())
		}
	}
}

// readLoop continuously drains frames off conn into the FIFO receive buffer
// so Available/Receive themselves never touch the network: every endpoint
// operation is non-blocking.
func (e *Endpoint) readLoop(ctx context.Context, conn net.Conn) {
	defer e.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		_ = conn.SetReadDeadline(time.Now().Add(time.Second))
		msg, err := wire.ReadFrame(conn)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			return
		}
		if len(msg) == 0 {
			continue
		}
		e.mu.Lock()
		ok := e.rx.tryAppend(msg)
		e.mu.Unlock()
		if !ok {
			metrics.IncPeripheralDropped()
			logging.L().Warn("peripheral_rx_overflow", "name", e.Name, "dropped_bytes", len(msg))
			continue
		}
		metrics.AddPeripheralReceived(len(msg))
	}
}

// Send hands msg to the asynchronous transmit funnel. It returns the number
// of bytes accepted (len(msg)) on success, or an error if the endpoint is
// not yet connected or the send queue is full.
func (e *Endpoint) Send(msg []byte) (int, error) {
	e.mu.Lock()
	open := e.state == stateOpen
	tx := e.tx
	e.mu.Unlock()
	if !open {
		return 0, ErrNotInitialized
	}
	if tx == nil {
		// Connected side hasn't accepted/dialed yet (server still waiting
		// for its peer); treat as a transient unavailable peer, not a crash.
		return 0, ErrUnavailable
	}
	if err := tx.Send(msg); err != nil {
		return 0, err
	}
	return len(msg), nil
}

// Available reports whether at least one byte is currently buffered.
func (e *Endpoint) Available() (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != stateOpen {
		return false, ErrNotInitialized
	}
	return e.rx.len() > 0, nil
}

// Receive copies up to len(out) buffered bytes, returning the number
// copied (0 if nothing is buffered).
func (e *Endpoint) Receive(out []byte) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != stateOpen {
		return 0, ErrNotInitialized
	}
	return e.rx.take(out), nil
}

// Close releases the endpoint's transport resources.
func (e *Endpoint) Close() error {
	e.mu.Lock()
	if e.state != stateOpen {
		e.mu.Unlock()
		return nil
	}
	e.state = stateUninitialized
	cancel := e.cancel
	ln := e.ln
	conn := e.conn
	tx := e.tx
	e.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if tx != nil {
		tx.Close()
	}
	if ln != nil {
		_ = ln.Close()
	}
	if conn != nil {
		_ = conn.Close()
	}
	e.wg.Wait()
	logging.L().Info("peripheral_close", "name", e.Name, "id", e.id)
	return nil
}

// BoundAddr returns the actual listen address once a server-role endpoint
// has bound (useful when Addr was "host:0" and the OS picked the port); it
// falls back to the configured Addr for client-role endpoints.
func (e *Endpoint) BoundAddr() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ln != nil {
		return e.ln.Addr().String()
	}
	return e.Addr
}

// WaitConnected blocks until the peer connection is established or ctx is
// done. It exists for tests and for callers that want a synchronous
// handshake before their first Send; ordinary operation never needs it
// since Send/Receive/Available are all non-blocking regardless of
// connection state.
func (e *Endpoint) WaitConnected(ctx context.Context) error {
	e.mu.Lock()
	ch := e.connGot
	e.mu.Unlock()
	if ch == nil {
		return ErrNotInitialized
	}
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
