package peripheral

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// ErrAsyncTxClosed is returned by asyncTx.Send once the funnel has been closed.
var ErrAsyncTxClosed = errors.New("peripheral: async tx closed")

// asyncTx funnels byte-message writes through a single goroutine so the
// caller-facing Send never blocks on the peer.
type asyncTx struct {
	mu     sync.Mutex
	ch     chan []byte
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	send   func([]byte) error
	hooks  asyncTxHooks
	closed atomic.Bool
}

// asyncTxHooks customize asyncTx behavior without coupling it to any one
// caller's metrics/logging concerns.
type asyncTxHooks struct {
	OnError func(error)
	OnAfter func(n int)
	OnDrop  func() error
}

func newAsyncTx(parent context.Context, buf int, send func([]byte) error, hooks asyncTxHooks) *asyncTx {
	ctx, cancel := context.WithCancel(parent)
	a := &asyncTx{
		ch:     make(chan []byte, buf),
		ctx:    ctx,
		cancel: cancel,
		send:   send,
		hooks:  hooks,
	}
	a.wg.Add(1)
	go a.loop()
	return a
}

func (a *asyncTx) loop() {
	defer a.wg.Done()
	for {
		select {
		case msg, ok := <-a.ch:
			if !ok {
				return
			}
			if err := a.send(msg); err != nil {
				if a.hooks.OnError != nil {
					a.hooks.OnError(err)
				}
				continue
			}
			if a.hooks.OnAfter != nil {
				a.hooks.OnAfter(len(msg))
			}
		case <-a.ctx.Done():
			return
		}
	}
}

// Send enqueues msg for asynchronous transmission, or invokes OnDrop and
// returns its error if the funnel's internal buffer is full.
func (a *asyncTx) Send(msg []byte) error {
	if a.closed.Load() {
		return ErrAsyncTxClosed
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed.Load() {
		return ErrAsyncTxClosed
	}
	select {
	case a.ch <- msg:
		return nil
	default:
		if a.hooks.OnDrop != nil {
			return a.hooks.OnDrop()
		}
		return nil
	}
}

// Close stops the worker goroutine and waits for it to exit.
func (a *asyncTx) Close() {
	if a.closed.Swap(true) {
		return
	}
	a.cancel()
	a.mu.Lock()
	close(a.ch)
	a.mu.Unlock()
	a.wg.Wait()
}
