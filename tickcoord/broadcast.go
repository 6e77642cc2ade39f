package tickcoord

import (
	"net"
	"sync"

	"github.com/TrySpaceOrg/simulith-go/internal/logging"
)

// subscriber is one connected publish-side client: the tick loop pushes
// 8-byte tick frames onto Out, and a dedicated writer goroutine drains it to
// the network.
type subscriber struct {
	conn      net.Conn
	out       chan [8]byte
	closed    chan struct{}
	closeOnce sync.Once
}

func (s *subscriber) close() {
	s.closeOnce.Do(func() { close(s.closed) })
}

// publishSet is the set of connected publish-side subscribers. Broadcast
// always drops on backpressure rather than kicking: a slow simulator
// missing a tick frame must not tear down the whole run. The drop is logged
// when the tick is broadcast (tick_broadcast_overflow); that subscriber
// never acks the tick, so the barrier keeps waiting on it.
type publishSet struct {
	mu      sync.RWMutex
	subs    map[*subscriber]struct{}
	bufSize int
}

func newPublishSet(bufSize int) *publishSet {
	if bufSize <= 0 {
		bufSize = 16
	}
	return &publishSet{subs: make(map[*subscriber]struct{}), bufSize: bufSize}
}

func (p *publishSet) add(conn net.Conn) *subscriber {
	s := &subscriber{
		conn:   conn,
		out:    make(chan [8]byte, p.bufSize),
		closed: make(chan struct{}),
	}
	p.mu.Lock()
	p.subs[s] = struct{}{}
	n := len(p.subs)
	p.mu.Unlock()
	logging.L().Info("publish_subscriber_connected", "count", n)
	return s
}

func (p *publishSet) remove(s *subscriber) {
	p.mu.Lock()
	_, existed := p.subs[s]
	delete(p.subs, s)
	n := len(p.subs)
	p.mu.Unlock()
	if existed {
		s.close()
		logging.L().Info("publish_subscriber_disconnected", "count", n)
	}
}

func (p *publishSet) snapshot() []*subscriber {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]*subscriber, 0, len(p.subs))
	for s := range p.subs {
		out = append(out, s)
	}
	return out
}

// broadcast enqueues frame to every subscriber, dropping for any whose
// outbound queue is already full.
func (p *publishSet) broadcast(frame [8]byte) (delivered, dropped int) {
	for _, s := range p.snapshot() {
		select {
		case s.out <- frame:
			delivered++
		default:
			dropped++
		}
	}
	return delivered, dropped
}

func (p *publishSet) count() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.subs)
}
