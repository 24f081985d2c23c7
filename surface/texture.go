// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surface

import (
	"errors"
	"image"
	"sync"
)

var (
	// ErrAbandoned is returned when queueing into an abandoned texture.
	ErrAbandoned = errors.New("surface: texture abandoned")

	// ErrNilBuffer is returned by QueueBuffer for a nil buffer.
	ErrNilBuffer = errors.New("surface: nil buffer")
)

// maxQueued bounds the buffers waiting to be latched. Older frames are
// dropped first.
const maxQueued = 3

// Buffer is one frame handed from the producer to the consumer.
type Buffer struct {
	Width, Height int
	Format        PixelFormat
	// Pixels is optional CPU-side content.
	Pixels *image.RGBA
	// Timestamp is the presentation time in nanoseconds.
	Timestamp int64

	transform [16]float32
}

// Transform returns the texture transform the buffer was queued with.
func (b *Buffer) Transform() [16]float32 { return b.transform }

// FrameAvailableListener is notified on the producer goroutine whenever a
// new buffer is queued.
type FrameAvailableListener interface {
	OnFrameAvailable(t *Texture)
}

// Texture is the consumer end of a producer/consumer pair.
type Texture struct {
	id uint32

	mu        sync.Mutex
	queue     []*Buffer
	current   *Buffer
	listener  FrameAvailableListener
	abandoned bool
	window    *Window
	dropped   int
}

// NewTexture returns a consumer bound to texture id.
func NewTexture(id uint32) *Texture {
	t := &Texture{id: id}
	t.window = &Window{tex: t, transform: identity()}
	return t
}

// ID returns the texture id the consumer is bound to.
func (t *Texture) ID() uint32 { return t.id }

// Window returns the producer handle.
func (t *Texture) Window() *Window { return t.window }

// SetFrameAvailableListener replaces the frame listener. Nil removes it.
func (t *Texture) SetFrameAvailableListener(l FrameAvailableListener) {
	t.mu.Lock()
	t.listener = l
	t.mu.Unlock()
}

// UpdateTexImage latches the newest queued buffer and drops older ones.
// It reports whether a new buffer was latched.
func (t *Texture) UpdateTexImage() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.queue) == 0 {
		return false
	}
	t.current = t.queue[len(t.queue)-1]
	t.dropped += len(t.queue) - 1
	t.queue = t.queue[:0]
	return true
}

// CurrentBuffer returns the latched buffer, or nil before the first latch.
func (t *Texture) CurrentBuffer() *Buffer {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current
}

// TransformMatrix returns the column-major texture transform of the
// latched buffer. It is the identity before the first latch.
func (t *Texture) TransformMatrix() [16]float32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.current == nil {
		return identity()
	}
	return t.current.transform
}

// Timestamp returns the latched buffer's timestamp in nanoseconds.
func (t *Texture) Timestamp() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.current == nil {
		return 0
	}
	return t.current.Timestamp
}

// Dropped returns how many queued buffers were skipped by UpdateTexImage
// or by the queue bound.
func (t *Texture) Dropped() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.dropped
}

// Abandon disconnects the producer. Queued buffers and the listener are
// released; the latched buffer stays readable.
func (t *Texture) Abandon() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.abandoned = true
	t.queue = nil
	t.listener = nil
}

// IsAbandoned reports whether Abandon was called.
func (t *Texture) IsAbandoned() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.abandoned
}

func (t *Texture) queueBuffer(b *Buffer) error {
	t.mu.Lock()
	if t.abandoned {
		t.mu.Unlock()
		return ErrAbandoned
	}
	if len(t.queue) == maxQueued {
		copy(t.queue, t.queue[1:])
		t.queue = t.queue[:maxQueued-1]
		t.dropped++
	}
	t.queue = append(t.queue, b)
	l := t.listener
	t.mu.Unlock()

	if l != nil {
		l.OnFrameAvailable(t)
	}
	return nil
}

func identity() [16]float32 {
	return [16]float32{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}
