// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surface

import "sync"

// Window is the producer end handed to decoders and plugins.
type Window struct {
	tex *Texture

	mu        sync.Mutex
	transform [16]float32
}

// Texture returns the consumer this window feeds.
func (w *Window) Texture() *Texture { return w.tex }

// SetTransform sets the texture transform attached to subsequently queued
// buffers.
func (w *Window) SetTransform(m [16]float32) {
	w.mu.Lock()
	w.transform = m
	w.mu.Unlock()
}

// QueueBuffer hands b to the consumer and notifies its listener.
func (w *Window) QueueBuffer(b *Buffer) error {
	if b == nil {
		return ErrNilBuffer
	}
	w.mu.Lock()
	b.transform = w.transform
	w.mu.Unlock()
	return w.tex.queueBuffer(b)
}
