package runloop

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestRunPendingOrder(t *testing.T) {
	l := New()
	var got []int
	for i := range 3 {
		l.Post(func() { got = append(got, i) })
	}
	l.Post(nil)
	if l.Len() != 3 {
		t.Fatalf("Len = %d, want 3", l.Len())
	}
	if n := l.RunPending(); n != 3 {
		t.Errorf("RunPending = %d, want 3", n)
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("order = %v", got)
		}
	}
	if l.RunPending() != 0 {
		t.Error("second RunPending ran work")
	}
}

func TestPostDuringRun(t *testing.T) {
	l := New()
	ran := 0
	l.Post(func() {
		ran++
		l.Post(func() { ran++ })
	})
	if n := l.RunPending(); n != 1 {
		t.Errorf("RunPending = %d, want 1", n)
	}
	if l.Len() != 1 {
		t.Errorf("Len = %d, want 1 re-posted", l.Len())
	}
	l.RunPending()
	if ran != 2 {
		t.Errorf("ran = %d, want 2", ran)
	}
}

func TestRun(t *testing.T) {
	l := New()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		l.Run(ctx)
		close(done)
	}()

	var wg sync.WaitGroup
	wg.Add(10)
	for range 10 {
		go l.Post(wg.Done)
	}
	waited := make(chan struct{})
	go func() {
		wg.Wait()
		close(waited)
	}()
	select {
	case <-waited:
	case <-time.After(5 * time.Second):
		t.Fatal("posted work did not run")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
