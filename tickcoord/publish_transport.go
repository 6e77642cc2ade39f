package tickcoord

import (
	"context"
	"net"
	"time"

	"github.com/TrySpaceOrg/simulith-go/internal/logging"
	"github.com/TrySpaceOrg/simulith-go/internal/metrics"
)

// servePublish accepts publish-side connections until ctx is done, adding
// each to the coordinator's publishSet and spawning its writer goroutine.
func (c *Coordinator) servePublish(ctx context.Context, ln net.Listener) {
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
			c.logger.Warn("publish_accept_error", "error", err)
			time.Sleep(100 * time.Millisecond)
			continue
		}
		if tcp, ok := conn.(*net.TCPConn); ok {
			_ = tcp.SetNoDelay(true)
		}
		sub := c.subs.add(conn)
		c.wg.Add(1)
		go c.writeSubscriber(ctx, conn, sub)
	}
}

// writeSubscriber drains sub.out to conn until it is closed or ctx ends. The
// tick broadcast frame carries no length prefix or other framing: it is
// always exactly 8 bytes, written raw.
func (c *Coordinator) writeSubscriber(ctx context.Context, conn net.Conn, sub *subscriber) {
	defer c.wg.Done()
	defer func() {
		c.subs.remove(sub)
		_ = conn.Close()
	}()
	for {
		select {
		case <-ctx.Done():
			return
		case <-sub.closed:
			return
		case frame := <-sub.out:
			if _, err := conn.Write(frame[:]); err != nil {
				metrics.IncError(mapErrToMetric(ErrTickSend))
				logging.L().Warn("publish_write_error", "error", err)
				return
			}
		}
	}
}
