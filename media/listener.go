package media

import (
	"sync"
	"sync/atomic"

	"github.com/gogpu/tiles/surface"
)

// FramerateCallback receives the window and the latched frame timestamp in
// nanoseconds each time a frame is queued.
type FramerateCallback func(w *surface.Window, timestamp int64)

// Listener tracks frame availability for one window.
type Listener struct {
	window     *surface.Window
	invalidate func()

	available atomic.Bool

	mu        sync.Mutex
	framerate FramerateCallback
}

func newListener(w *surface.Window, invalidate func()) *Listener {
	return &Listener{window: w, invalidate: invalidate}
}

// OnFrameAvailable implements surface.FrameAvailableListener.
func (l *Listener) OnFrameAvailable(t *surface.Texture) {
	if l.invalidate != nil {
		l.invalidate()
	}
	l.available.Store(true)

	l.mu.Lock()
	cb := l.framerate
	l.mu.Unlock()
	if cb != nil {
		cb(l.window, t.Timestamp())
	}
}

// IsFrameAvailable reports whether any frame has been queued.
func (l *Listener) IsFrameAvailable() bool {
	return l.available.Load()
}

// SetFramerateCallback replaces the framerate callback. Nil removes it.
func (l *Listener) SetFramerateCallback(cb FramerateCallback) {
	l.mu.Lock()
	l.framerate = cb
	l.mu.Unlock()
}
