// Package profiler records which tiles were ready on each composited frame.
//
// A profiling session starts with Start. Each frame opens with NextFrame,
// whose record describes the viewport, followed by one record per tile
// (NextTile) and per invalidated rectangle (NextInval). Stop returns the
// share of in-view tiles that were ready. Sessions can be exported to a
// SQLite database for offline inspection.
package profiler

import (
	"image"
	"sync"
	"time"

	"github.com/gogpu/tiles"
)

// MaxFrames bounds the frames kept by one session.
const MaxFrames = 400

// InvalLevel marks records produced by NextInval.
const InvalLevel = -2

// Record is one rectangle observed during a frame.
type Record struct {
	Left, Top, Right, Bottom int
	Scale                    float64
	Ready                    bool
	// Level is the time since the previous frame in microseconds for
	// viewport records, the tile draw count for tile records and
	// InvalLevel for inval records.
	Level int
}

// Rect returns the record's rectangle.
func (r Record) Rect() image.Rectangle {
	return image.Rect(r.Left, r.Top, r.Right, r.Bottom)
}

// TileState is the view of a tile the profiler needs.
type TileState interface {
	X() int
	Y() int
	IsReady() bool
	DrawCount() int
}

// Profiler collects frames. The zero value is not usable; call New.
type Profiler struct {
	mu      sync.Mutex
	now     func() time.Time
	enabled bool
	good    int
	bad     int
	frames  [][]Record
	last    time.Time
	capped  bool
}

// Option configures a Profiler.
type Option func(*Profiler)

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(p *Profiler) {
		p.now = now
	}
}

// New returns a stopped profiler.
func New(opts ...Option) *Profiler {
	p := &Profiler{now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start clears previous results and begins recording.
func (p *Profiler) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.enabled = true
	p.good, p.bad = 0, 0
	p.frames = nil
	p.capped = false
	p.last = p.now()
	tiles.Logger().Debug("profiler: start")
}

// Stop ends recording and returns the fraction of in-view tiles that were
// ready. It returns 0 when no in-view tile was observed.
func (p *Profiler) Stop() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.enabled = false
	tiles.Logger().Debug("profiler: stop", "frames", len(p.frames))
	if p.good+p.bad == 0 {
		return 0
	}
	return float64(p.good) / float64(p.good+p.bad)
}

// Clear drops recorded frames without changing the enabled state.
func (p *Profiler) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.frames = nil
	p.capped = false
}

// Enabled reports whether a session is running.
func (p *Profiler) Enabled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.enabled
}

// NextFrame opens a frame whose viewport is r.
func (p *Profiler) NextFrame(r image.Rectangle, scale float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.enabled {
		return
	}
	if len(p.frames) >= MaxFrames {
		p.capped = true
		return
	}
	now := p.now()
	delta := now.Sub(p.last)
	p.last = now
	p.frames = append(p.frames, []Record{
		newRecord(r, scale, true, int(delta.Microseconds())),
	})
}

// NextTile adds a tile to the current frame. In-view tiles count toward
// the ratio returned by Stop.
func (p *Profiler) NextTile(t TileState, tileSize image.Point, scale float64, inView bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.recording() {
		return
	}
	ready := t.IsReady()
	if inView {
		if ready {
			p.good++
		} else {
			p.bad++
		}
	}
	origin := image.Pt(t.X()*tileSize.X, t.Y()*tileSize.Y)
	r := image.Rectangle{Min: origin, Max: origin.Add(tileSize)}
	p.appendLocked(newRecord(r, scale, ready, t.DrawCount()))
}

// NextInval adds an invalidated rectangle to the current frame.
func (p *Profiler) NextInval(r image.Rectangle, scale float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.recording() {
		return
	}
	p.appendLocked(newRecord(r, scale, false, InvalLevel))
}

// NumFrames returns the number of recorded frames.
func (p *Profiler) NumFrames() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.frames)
}

// Frames returns a copy of the recorded frames.
func (p *Profiler) Frames() [][]Record {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([][]Record, len(p.frames))
	for i, f := range p.frames {
		out[i] = append([]Record(nil), f...)
	}
	return out
}

// recording reports whether tiles and invals are kept. Once NextFrame has
// refused a frame they are dropped until Start or Clear.
func (p *Profiler) recording() bool {
	return p.enabled && !p.capped && len(p.frames) > 0
}

func (p *Profiler) appendLocked(r Record) {
	last := len(p.frames) - 1
	p.frames[last] = append(p.frames[last], r)
}

func newRecord(r image.Rectangle, scale float64, ready bool, level int) Record {
	return Record{
		Left: r.Min.X, Top: r.Min.Y, Right: r.Max.X, Bottom: r.Max.Y,
		Scale: scale, Ready: ready, Level: level,
	}
}
