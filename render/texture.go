// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"errors"
	"fmt"
	"image"
	"sync"
	"sync/atomic"

	"github.com/gogpu/gputypes"
	"golang.org/x/image/draw"

	"github.com/gogpu/tiles/canvas"
)

// Texture errors.
var (
	// ErrOutOfBounds is returned when an upload does not fit the texture.
	ErrOutOfBounds = errors.New("render: upload out of texture bounds")

	// ErrDrawInProgress is returned by BeginDraw when a draw session is open.
	ErrDrawInProgress = errors.New("render: draw already in progress")

	// ErrNoDraw is returned by EndDraw without a matching BeginDraw.
	ErrNoDraw = errors.New("render: no draw in progress")
)

// Texture is a tile texture that accepts CPU uploads.
type Texture interface {
	// Size returns the texture size in pixels.
	Size() image.Point

	// Upload copies img into the texture with img.Bounds().Min placed at
	// offset.
	Upload(offset image.Point, img *image.RGBA) error
}

// DrawableTexture is a texture that can also be drawn into directly.
//
// BeginDraw returns a canvas covering the whole texture. Drawing is only
// guaranteed to reach the texture after EndDraw.
type DrawableTexture interface {
	Texture
	BeginDraw() (*canvas.Canvas, error)
	EndDraw() error
}

// TextureInfo describes the destination texture of a render request.
type TextureInfo struct {
	Texture Texture
	Format  gputypes.TextureFormat

	pictureCount atomic.Int64
}

// NewTextureInfo wraps t.
func NewTextureInfo(t Texture, format gputypes.TextureFormat) *TextureInfo {
	return &TextureInfo{Texture: t, Format: format}
}

// PictureCount returns the picture count of the last render into the
// texture.
func (ti *TextureInfo) PictureCount() int {
	return int(ti.pictureCount.Load())
}

// SetPictureCount records the picture count of a render.
func (ti *TextureInfo) SetPictureCount(n int) {
	ti.pictureCount.Store(int64(n))
}

// MemoryTexture is a Texture and DrawableTexture kept in CPU memory.
// It is safe for concurrent use.
type MemoryTexture struct {
	mu      sync.Mutex
	img     *image.RGBA
	drawing atomic.Bool
	uploads atomic.Int64
	draws   atomic.Int64
}

// NewMemoryTexture creates a transparent texture.
func NewMemoryTexture(width, height int) *MemoryTexture {
	return &MemoryTexture{img: image.NewRGBA(image.Rect(0, 0, width, height))}
}

// Size returns the texture size in pixels.
func (t *MemoryTexture) Size() image.Point {
	return t.img.Bounds().Size()
}

// Upload copies img into the texture at offset.
func (t *MemoryTexture) Upload(offset image.Point, img *image.RGBA) error {
	src := img.Bounds()
	dst := image.Rectangle{Min: offset, Max: offset.Add(src.Size())}
	if !dst.In(t.img.Bounds()) {
		return fmt.Errorf("%w: %v in %v", ErrOutOfBounds, dst, t.img.Bounds())
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	draw.Copy(t.img, offset, img, src, draw.Src, nil)
	t.uploads.Add(1)
	return nil
}

// BeginDraw opens a draw session on the texture's pixels.
func (t *MemoryTexture) BeginDraw() (*canvas.Canvas, error) {
	if !t.drawing.CompareAndSwap(false, true) {
		return nil, ErrDrawInProgress
	}
	// Held until EndDraw so readers never see a partial draw.
	t.mu.Lock()
	return canvas.NewFromImage(t.img), nil
}

// EndDraw closes the draw session.
func (t *MemoryTexture) EndDraw() error {
	if !t.drawing.CompareAndSwap(true, false) {
		return ErrNoDraw
	}
	t.draws.Add(1)
	t.mu.Unlock()
	return nil
}

// Snapshot returns a copy of the texture pixels.
func (t *MemoryTexture) Snapshot() *image.RGBA {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := image.NewRGBA(t.img.Bounds())
	copy(out.Pix, t.img.Pix)
	return out
}

// Uploads returns the number of successful uploads.
func (t *MemoryTexture) Uploads() int {
	return int(t.uploads.Load())
}

// Draws returns the number of completed draw sessions.
func (t *MemoryTexture) Draws() int {
	return int(t.draws.Load())
}

var (
	_ Texture         = (*MemoryTexture)(nil)
	_ DrawableTexture = (*MemoryTexture)(nil)
)
