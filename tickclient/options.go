package tickclient

import (
	"log/slog"
	"time"
)

// Option configures a Client at construction time.
type Option func(*Client)

// WithLogger overrides the client's logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithDialBackoff overrides the min/max exponential backoff bounds used by
// Connect's dial retry loop (defaults 100ms / 5s).
func WithDialBackoff(min, max time.Duration) Option {
	return func(c *Client) {
		if min > 0 {
			c.backoffMin = min
		}
		if max > 0 {
			c.backoffMax = max
		}
	}
}
