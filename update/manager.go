// Package update double-buffers the content of a compositable layer.
//
// The producer goroutine accumulates a new picture and invalidated region on
// the deferred side of a Manager and promotes them with Swap. The
// texture-generation goroutine reads the painting side with Paint and clears
// the consumed region with ClearPaintingInval.
package update

import (
	"image"
	"sync"

	"github.com/gogpu/tiles"
	"github.com/gogpu/tiles/picture"
	"github.com/gogpu/tiles/region"
)

// maxClipRects is the number of inval rectangles above which Paint clips
// to the region bounds instead of replaying once per rectangle.
const maxClipRects = 16

// Manager holds the painting and deferred state of one layer.
//
// Only the painting picture pointer is guarded by a mutex. The inval
// regions follow a single-writer convention: the deferred region and Swap
// belong to the producer, while ClearPaintingInval belongs to the consumer,
// and the scheduler never runs Swap while a Paint of the same layer is in
// flight.
type Manager struct {
	deferredPicture *picture.Picture
	deferredInval   region.Region
	paintingInval   region.Region

	mu              sync.Mutex
	paintingPicture *picture.Picture
}

// New creates an empty Manager.
func New() *Manager {
	return &Manager{}
}

// UpdatePicture replaces the deferred picture. The manager takes its own
// reference to p and drops the one it held on the previous deferred picture.
// p may be nil.
func (m *Manager) UpdatePicture(p *picture.Picture) {
	if p != nil {
		p.Ref()
	}
	if m.deferredPicture != nil {
		m.deferredPicture.Unref()
	}
	m.deferredPicture = p
}

// UpdateInval adds r to the deferred region.
func (m *Manager) UpdateInval(r region.Region) {
	m.deferredInval.Union(r)
}

// UpdateInvalRect adds r to the deferred region.
func (m *Manager) UpdateInvalRect(r image.Rectangle) {
	m.deferredInval.UnionRect(r)
}

// Swap promotes the deferred state. The deferred region is merged into the
// painting region and cleared; if a deferred picture exists it replaces the
// painting picture.
func (m *Manager) Swap() {
	m.paintingInval.Union(m.deferredInval)
	m.deferredInval.Clear()

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deferredPicture == nil {
		return
	}
	tiles.Logger().Debug("update: swap",
		"was", pictureID(m.paintingPicture), "now", pictureID(m.deferredPicture))
	if m.paintingPicture != nil {
		m.paintingPicture.Unref()
	}
	m.paintingPicture = m.deferredPicture
	m.deferredPicture = nil
}

// Paint replays the painting picture into b and reports whether there was
// anything to draw and how many distinct pictures were replayed.
//
// When the painting region is not empty the replay is clipped to it, in
// content coordinates; otherwise the whole picture is drawn. With no
// painting picture Paint draws nothing and returns (false, 0).
func (m *Manager) Paint(b picture.Backend) (drew bool, pictures int) {
	m.mu.Lock()
	pic := m.paintingPicture
	if pic != nil {
		pic.Ref()
	}
	m.mu.Unlock()

	if pic == nil {
		return false, 0
	}
	defer pic.Unref()

	tiles.Logger().Debug("update: paint", "picture", pic.ID(), "inval", m.paintingInval.Len())

	if m.paintingInval.IsEmpty() {
		return true, pic.Playback(b)
	}

	rects := m.paintingInval.Rects()
	if len(rects) > maxClipRects {
		rects = []image.Rectangle{m.paintingInval.Bounds()}
	}
	for _, r := range rects {
		b.Save()
		b.ClipRect(float64(r.Min.X), float64(r.Min.Y), float64(r.Dx()), float64(r.Dy()))
		pictures = max(pictures, pic.Playback(b))
		b.Restore()
	}
	return true, pictures
}

// ClearPaintingInval empties the painting region after a successful paint.
func (m *Manager) ClearPaintingInval() {
	m.paintingInval.Clear()
}

// PaintingInval returns a copy of the painting region.
func (m *Manager) PaintingInval() region.Region {
	return m.paintingInval
}

// DeferredInval returns a copy of the deferred region.
func (m *Manager) DeferredInval() region.Region {
	return m.deferredInval
}

// PaintingPicture returns the painting picture without taking a reference.
func (m *Manager) PaintingPicture() *picture.Picture {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.paintingPicture
}

// DeferredPicture returns the deferred picture without taking a reference.
func (m *Manager) DeferredPicture() *picture.Picture {
	return m.deferredPicture
}

// Close drops the references held on both pictures.
func (m *Manager) Close() {
	if m.deferredPicture != nil {
		m.deferredPicture.Unref()
		m.deferredPicture = nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.paintingPicture != nil {
		m.paintingPicture.Unref()
		m.paintingPicture = nil
	}
}

func pictureID(p *picture.Picture) uint64 {
	if p == nil {
		return 0
	}
	return p.ID()
}
