// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"image"

	"github.com/gogpu/tiles/canvas"
	"github.com/gogpu/tiles/perf"
)

// Raster renderer phase tags.
const (
	TagCreateBitmap  = "create_bitmap"
	TagDrawPicture   = "draw_picture"
	TagUpdateTexture = "update_texture"
	TagDisposeBitmap = "dispose_bitmap"
)

// RasterRenderer draws into a CPU bitmap sized to the inval rect and
// uploads it into the tile texture.
type RasterRenderer struct {
	baseRenderer

	// pix is reused between renders to avoid reallocating bitmaps.
	pix []uint8
}

func newRasterRenderer(ctx *Context) *RasterRenderer {
	r := &RasterRenderer{}
	r.baseRenderer = baseRenderer{
		ctx:  ctx,
		typ:  Raster,
		mon:  perf.NewMonitor(),
		tags: []string{TagCreateBitmap, TagDrawPicture, TagUpdateTexture, TagDisposeBitmap},
		impl: r,
	}
	return r
}

func (r *RasterRenderer) setupTarget(info *TileRenderInfo) *canvas.Canvas {
	if info.Texture == nil || info.Texture.Texture == nil {
		return nil
	}
	inval := info.invalRect()
	if inval.Empty() {
		return nil
	}

	r.start(info, TagCreateBitmap)
	c := canvas.NewFromImage(r.bitmap(inval.Dx(), inval.Dy()))
	c.Erase(clearColor(info.Tile))
	r.stop(info, TagCreateBitmap)

	r.start(info, TagDrawPicture)
	c.Translate(-float64(inval.Min.X), -float64(inval.Min.Y))
	return c
}

func (r *RasterRenderer) setupPartialInval(*TileRenderInfo, *canvas.Canvas) {}

func (r *RasterRenderer) renderingComplete(info *TileRenderInfo, c *canvas.Canvas) {
	r.stop(info, TagDrawPicture)

	r.start(info, TagUpdateTexture)
	if err := info.Texture.Texture.Upload(info.invalRect().Min, c.Image()); err != nil {
		r.ctx.log().Warn("render: texture upload failed", "tile", image.Pt(info.X, info.Y), "err", err)
	}
	r.stop(info, TagUpdateTexture)

	r.start(info, TagDisposeBitmap)
	r.pix = c.Image().Pix
	r.stop(info, TagDisposeBitmap)
}

// bitmap returns a w x h image backed by the reusable pixel buffer. The
// buffer is detached until renderingComplete hands it back.
func (r *RasterRenderer) bitmap(w, h int) *image.RGBA {
	n := 4 * w * h
	pix := r.pix
	r.pix = nil
	if cap(pix) < n {
		pix = make([]uint8, n)
	}
	return &image.RGBA{Pix: pix[:n], Stride: 4 * w, Rect: image.Rect(0, 0, w, h)}
}

// Close releases the reusable bitmap.
func (r *RasterRenderer) Close() {
	r.pix = nil
}

var _ Renderer = (*RasterRenderer)(nil)
