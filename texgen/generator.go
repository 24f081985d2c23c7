// Package texgen runs texture-generation operations on a dedicated
// goroutine.
//
// Operations are picked by priority rather than arrival: an operation with
// a negative priority runs before anything else, otherwise the lowest
// priority value wins and ties run in the order they were scheduled.
// Priorities are read again on every pick, so an operation may change its
// priority while it waits.
package texgen

import (
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/gogpu/tiles"
)

// ErrClosed is returned by Schedule after Close.
var ErrClosed = errors.New("texgen: generator closed")

// Operation is a unit of work for the generator.
type Operation interface {
	Run()
	// Priority orders waiting operations. Negative means urgent.
	Priority() int
	// Owner identifies the layer or page the operation belongs to.
	Owner() any
}

// Discarder is implemented by operations that need to release state when
// they are removed without running.
type Discarder interface {
	Discard()
}

// Filter selects operations for RemoveOperations.
type Filter func(op Operation) bool

// OwnerFilter matches operations whose Owner is owner.
func OwnerFilter(owner any) Filter {
	return func(op Operation) bool { return op.Owner() == owner }
}

type entry struct {
	op  Operation
	seq uint64
}

// Generator is a single-worker priority queue.
//
// Thread safety: all methods are safe for concurrent use, except that
// RemoveOperations with wait set must not be called from inside an
// operation's Run.
type Generator struct {
	mu      sync.Mutex
	cond    *sync.Cond
	queue   []entry
	nextSeq uint64
	current entry
	running bool
	closed  bool

	logger *slog.Logger
	ran    atomic.Int64
	wg     sync.WaitGroup
}

// Option configures a Generator.
type Option func(*Generator)

// WithLogger sets the logger for queue activity.
func WithLogger(l *slog.Logger) Option {
	return func(g *Generator) {
		g.logger = l
	}
}

// New creates a generator and starts its worker goroutine.
func New(opts ...Option) *Generator {
	g := &Generator{}
	g.cond = sync.NewCond(&g.mu)
	for _, opt := range opts {
		opt(g)
	}
	g.wg.Add(1)
	go g.worker()
	return g
}

func (g *Generator) log() *slog.Logger {
	if g.logger != nil {
		return g.logger
	}
	return tiles.Logger()
}

// Schedule queues op.
func (g *Generator) Schedule(op Operation) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return ErrClosed
	}
	g.nextSeq++
	g.queue = append(g.queue, entry{op: op, seq: g.nextSeq})
	g.cond.Broadcast()
	return nil
}

// Pending returns the number of queued operations, not counting one that
// is running.
func (g *Generator) Pending() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.queue)
}

// Ran returns the number of operations that completed.
func (g *Generator) Ran() int64 {
	return g.ran.Load()
}

// RemoveOperations drops queued operations matching filter and returns
// how many were dropped. With wait set, it also blocks until a matching
// operation that is already running has finished, so on return no
// matching work is queued or in progress.
func (g *Generator) RemoveOperations(filter Filter, wait bool) int {
	if filter == nil {
		return 0
	}
	g.mu.Lock()
	var dropped []Operation
	kept := g.queue[:0]
	for _, e := range g.queue {
		if filter(e.op) {
			dropped = append(dropped, e.op)
			continue
		}
		kept = append(kept, e)
	}
	clear(g.queue[len(kept):])
	g.queue = kept

	if wait && g.running && filter(g.current.op) {
		seq := g.current.seq
		for g.running && g.current.seq == seq {
			g.cond.Wait()
		}
	}
	g.mu.Unlock()

	discard(dropped)
	if len(dropped) > 0 {
		g.log().Debug("texgen: removed operations", "count", len(dropped))
	}
	return len(dropped)
}

// Close stops the worker after the running operation, if any, completes.
// Queued operations are discarded. Close is idempotent.
func (g *Generator) Close() {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return
	}
	g.closed = true
	dropped := make([]Operation, 0, len(g.queue))
	for _, e := range g.queue {
		dropped = append(dropped, e.op)
	}
	g.queue = nil
	g.cond.Broadcast()
	g.mu.Unlock()

	g.wg.Wait()
	discard(dropped)
}

func (g *Generator) worker() {
	defer g.wg.Done()
	for {
		g.mu.Lock()
		for len(g.queue) == 0 && !g.closed {
			g.cond.Wait()
		}
		if g.closed {
			g.mu.Unlock()
			return
		}
		g.current = g.popNextLocked()
		g.running = true
		op := g.current.op
		g.mu.Unlock()

		op.Run()
		g.ran.Add(1)

		g.mu.Lock()
		g.running = false
		g.current = entry{}
		g.cond.Broadcast()
		g.mu.Unlock()
	}
}

// popNextLocked removes and returns the next operation. Must be called
// with g.mu held and a non-empty queue.
func (g *Generator) popNextLocked() entry {
	best := -1
	bestPriority := 0
	for i, e := range g.queue {
		p := e.op.Priority()
		if p < 0 {
			best = i
			break
		}
		if best < 0 || p < bestPriority {
			best, bestPriority = i, p
		}
	}
	e := g.queue[best]
	last := len(g.queue) - 1
	copy(g.queue[best:], g.queue[best+1:])
	g.queue[last] = entry{}
	g.queue = g.queue[:last]
	return e
}

func discard(ops []Operation) {
	for _, op := range ops {
		if d, ok := op.(Discarder); ok {
			d.Discard()
		}
	}
}
