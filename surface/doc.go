// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package surface implements the buffer hand-off between an external frame
// producer (a video decoder or plugin) and the compositor.
//
// A Texture is the consumer side bound to a compositor texture id. Its
// Window is the producer side: the producer queues filled buffers, the
// consumer is notified through its FrameAvailableListener and latches the
// newest buffer with UpdateTexImage on the render goroutine.
//
// Once a Texture is abandoned its Window rejects further buffers with
// ErrAbandoned.
package surface
