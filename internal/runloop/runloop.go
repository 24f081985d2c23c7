// Package runloop provides a task queue owned by a single goroutine.
//
// Any goroutine may Post work; only the owner executes it, either by
// calling RunPending at a point of its choosing (for example once per
// frame on the render goroutine) or by running Run in a dedicated loop.
package runloop

import (
	"context"
	"sync"
)

// Loop is a FIFO queue of deferred functions.
//
// Thread safety: Post and Len are safe for concurrent use. RunPending and
// Run must only be called by the owning goroutine.
type Loop struct {
	mu      sync.Mutex
	pending []func()

	// wake has capacity one so Post never blocks.
	wake chan struct{}
}

// New returns an empty loop.
func New() *Loop {
	return &Loop{wake: make(chan struct{}, 1)}
}

// Post queues fn for the owning goroutine. Nil functions are ignored.
func (l *Loop) Post(fn func()) {
	if fn == nil {
		return
	}
	l.mu.Lock()
	l.pending = append(l.pending, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Len returns the number of queued functions.
func (l *Loop) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.pending)
}

// RunPending executes every function queued before the call and returns
// how many ran. Functions posted while running are left for the next call.
func (l *Loop) RunPending() int {
	l.mu.Lock()
	work := l.pending
	l.pending = nil
	l.mu.Unlock()

	for _, fn := range work {
		fn()
	}
	return len(work)
}

// Run executes posted functions until ctx is done. Work still queued at
// that point is drained before Run returns.
func (l *Loop) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			l.RunPending()
			return
		case <-l.wake:
			l.RunPending()
		}
	}
}
