package texgen

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type testOp struct {
	name      string
	priority  int
	owner     any
	run       func()
	discarded atomic.Bool
}

func (o *testOp) Run() {
	if o.run != nil {
		o.run()
	}
}
func (o *testOp) Priority() int { return o.priority }
func (o *testOp) Owner() any    { return o.owner }
func (o *testOp) Discard()      { o.discarded.Store(true) }

// blocker schedules an operation that holds the worker until release is
// closed, and returns once it is running.
func blocker(t *testing.T, g *Generator, owner any) (release chan struct{}) {
	t.Helper()
	started := make(chan struct{})
	release = make(chan struct{})
	op := &testOp{name: "blocker", priority: -1, owner: owner, run: func() {
		close(started)
		<-release
	}}
	if err := g.Schedule(op); err != nil {
		t.Fatal(err)
	}
	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("blocker did not start")
	}
	return release
}

func waitRan(t *testing.T, g *Generator, n int64) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for g.Ran() < n {
		if time.Now().After(deadline) {
			t.Fatalf("Ran = %d, want %d", g.Ran(), n)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestPriorityOrder(t *testing.T) {
	g := New()
	defer g.Close()
	release := blocker(t, g, nil)

	var mu sync.Mutex
	var order []string
	record := func(name string, priority int) *testOp {
		return &testOp{name: name, priority: priority, run: func() {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
		}}
	}
	ops := []*testOp{
		record("p5a", 5),
		record("p1", 1),
		record("p5b", 5),
		record("urgent", -1),
		record("p3", 3),
	}
	for _, op := range ops {
		if err := g.Schedule(op); err != nil {
			t.Fatal(err)
		}
	}
	if g.Pending() != len(ops) {
		t.Errorf("Pending = %d, want %d", g.Pending(), len(ops))
	}
	close(release)
	waitRan(t, g, int64(len(ops)+1))

	want := []string{"urgent", "p1", "p3", "p5a", "p5b"}
	mu.Lock()
	defer mu.Unlock()
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestRemoveOperations(t *testing.T) {
	g := New()
	defer g.Close()
	release := blocker(t, g, nil)

	a, b := new(int), new(int)
	opA := &testOp{owner: a}
	opB := &testOp{owner: b}
	_ = g.Schedule(opA)
	_ = g.Schedule(opB)

	if n := g.RemoveOperations(OwnerFilter(a), false); n != 1 {
		t.Errorf("RemoveOperations = %d, want 1", n)
	}
	if !opA.discarded.Load() || opB.discarded.Load() {
		t.Error("wrong operation discarded")
	}
	if g.Pending() != 1 {
		t.Errorf("Pending = %d, want 1", g.Pending())
	}
	if g.RemoveOperations(nil, true) != 0 {
		t.Error("nil filter removed operations")
	}
	close(release)
	waitRan(t, g, 2)
}

func TestRemoveWaitsForRunning(t *testing.T) {
	g := New()
	defer g.Close()
	owner := new(int)
	release := blocker(t, g, owner)

	returned := make(chan struct{})
	go func() {
		g.RemoveOperations(OwnerFilter(owner), true)
		close(returned)
	}()

	select {
	case <-returned:
		t.Fatal("RemoveOperations returned while matching operation was running")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	select {
	case <-returned:
	case <-time.After(5 * time.Second):
		t.Fatal("RemoveOperations did not return after operation finished")
	}
}

func TestRemoveDoesNotWaitForOtherOwner(t *testing.T) {
	g := New()
	defer g.Close()
	release := blocker(t, g, new(int))
	defer close(release)

	done := make(chan struct{})
	go func() {
		g.RemoveOperations(OwnerFilter(new(int)), true)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("RemoveOperations waited on an unrelated operation")
	}
}

func TestClose(t *testing.T) {
	g := New()
	release := blocker(t, g, nil)
	queued := &testOp{}
	_ = g.Schedule(queued)

	closed := make(chan struct{})
	go func() {
		g.Close()
		close(closed)
	}()
	for {
		g.mu.Lock()
		c := g.closed
		g.mu.Unlock()
		if c {
			break
		}
		time.Sleep(time.Millisecond)
	}
	close(release)
	select {
	case <-closed:
	case <-time.After(5 * time.Second):
		t.Fatal("Close did not return")
	}
	if !queued.discarded.Load() {
		t.Error("queued operation not discarded on Close")
	}
	if err := g.Schedule(&testOp{}); !errors.Is(err, ErrClosed) {
		t.Errorf("Schedule after Close = %v", err)
	}
	g.Close()
}
