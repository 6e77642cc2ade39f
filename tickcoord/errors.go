package tickcoord

import (
	"errors"

	"github.com/TrySpaceOrg/simulith-go/internal/metrics"
)

// Sentinel errors, classified via errors.Is and mapped to metrics labels.
var (
	ErrListen       = errors.New("tickcoord: listen")
	ErrAccept       = errors.New("tickcoord: accept")
	ErrHandshake    = errors.New("tickcoord: handshake")
	ErrConnRead     = errors.New("tickcoord: conn_read")
	ErrConnWrite    = errors.New("tickcoord: conn_write")
	ErrTickSend     = errors.New("tickcoord: tick_send")
	ErrContext      = errors.New("tickcoord: context_cancelled")
	ErrInvalidCount = errors.New("tickcoord: invalid client count")
	ErrInvalidRate  = errors.New("tickcoord: invalid interval")
)

// mapErrToMetric maps wrapped sentinel errors to metrics error labels.
func mapErrToMetric(err error) string {
	switch {
	case errors.Is(err, ErrHandshake):
		return metrics.ErrHandshake
	case errors.Is(err, ErrTickSend):
		return metrics.ErrTickSend
	case errors.Is(err, ErrConnRead), errors.Is(err, ErrAccept), errors.Is(err, ErrListen):
		return metrics.ErrTickAck
	case errors.Is(err, ErrInvalidCount), errors.Is(err, ErrInvalidRate):
		return metrics.ErrConfig
	default:
		return "other"
	}
}
