package tickcoord

import (
	"context"
	"net"
	"time"

	"github.com/TrySpaceOrg/simulith-go/internal/metrics"
	"github.com/TrySpaceOrg/simulith-go/internal/wire"
)

// serveReply accepts reply-side connections until ctx is done, spawning a
// request/reply goroutine per connection.
func (c *Coordinator) serveReply(ctx context.Context, ln net.Listener) {
	defer c.wg.Done()
	go func() { <-ctx.Done(); _ = ln.Close() }()
	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
			}
			metrics.IncError(mapErrToMetric(ErrAccept))
			c.logger.Warn("reply_accept_error", "error", err)
			time.Sleep(100 * time.Millisecond)
			continue
		}
		if tcp, ok := conn.(*net.TCPConn); ok {
			_ = tcp.SetNoDelay(true)
		}
		c.wg.Add(1)
		go c.serveReplyConn(ctx, conn)
	}
}

// serveReplyConn implements one REP-style connection: read a request frame,
// forward it to the coordinator's single request queue, write back
// whatever the tick loop decides, repeat. The strict one-request-then-one-
// reply ordering here is what gives a TCP byte stream the same exchange
// discipline as the original's ZMQ REQ/REP socket pair.
func (c *Coordinator) serveReplyConn(ctx context.Context, conn net.Conn) {
	defer c.wg.Done()
	defer func() { _ = conn.Close() }()

	connID := c.idGen()
	c.logger.Debug("reply_conn_accepted", "conn_id", connID, "remote", conn.RemoteAddr().String())
	replyCh := make(chan string, 1)
	for {
		_ = conn.SetReadDeadline(time.Now().Add(30 * time.Second))
		buf, err := wire.ReadFrame(conn)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				select {
				case <-ctx.Done():
					return
				default:
					continue
				}
			}
			return
		}

		select {
		case c.requestCh <- request{payload: string(buf), replyCh: replyCh}:
		case <-ctx.Done():
			return
		}

		select {
		case resp := <-replyCh:
			if err := wire.WriteFrame(conn, []byte(resp)); err != nil {
				metrics.IncError(mapErrToMetric(ErrConnWrite))
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
