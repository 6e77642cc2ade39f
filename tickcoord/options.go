package tickcoord

import (
	"io"
	"log/slog"
	"time"
)

// Option configures a Coordinator at construction time.
type Option func(*Coordinator)

// WithPublishAddr sets the listen address for the tick broadcast channel
// (default ":50000", matching simulith.h's default PUB port).
func WithPublishAddr(addr string) Option { return func(c *Coordinator) { c.pubAddr = addr } }

// WithReplyAddr sets the listen address for the handshake/ack channel
// (default ":50001" matching simulith.h's default REP port).
func WithReplyAddr(addr string) Option { return func(c *Coordinator) { c.repAddr = addr } }

// WithClientCount sets how many distinct client ids must register before
// the tick loop starts.
func WithClientCount(n int) Option {
	return func(c *Coordinator) {
		if n > 0 {
			c.clientCount = n
		}
	}
}

// WithInterval sets the simulated tick period at speed 1.0 (default 10ms,
// matching simulith.h's INTERVAL_NS).
func WithInterval(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.interval = d
		}
	}
}

// WithLogger overrides the coordinator's logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Coordinator) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithOperatorInput overrides the source of CLI commands ('p', '+', '-',
// 'quit'); defaults to os.Stdin.
func WithOperatorInput(r io.Reader) Option {
	return func(c *Coordinator) {
		if r != nil {
			c.operatorR = r
		}
	}
}

// WithPublishBuffer sets the per-subscriber outbound tick queue depth.
func WithPublishBuffer(n int) Option {
	return func(c *Coordinator) {
		if n > 0 {
			c.publishBuffer = n
		}
	}
}

// WithStatusPath enables periodic atomic status-snapshot writes to path.
func WithStatusPath(path string) Option { return func(c *Coordinator) { c.statusPath = path } }

// WithIDGenerator overrides the generator used for per-connection diagnostic
// session ids (distinct from the client's own registered identifier).
// Defaults to an rs/xid-backed generator; tests can swap in a deterministic
// one.
func WithIDGenerator(gen func() string) Option {
	return func(c *Coordinator) {
		if gen != nil {
			c.idGen = gen
		}
	}
}
