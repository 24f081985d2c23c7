// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"errors"

	"github.com/gogpu/tiles/canvas"
	"github.com/gogpu/tiles/perf"
)

// Ganesh renderer phase tags.
const (
	TagCreateFBO = "create_fbo"
)

// errNotDrawable is reported when a GPU render targets a texture that
// cannot be drawn into.
var errNotDrawable = errors.New("render: texture is not drawable")

// GaneshRenderer draws directly into a GPU-resident DrawableTexture.
//
// Only textures of exactly the context tile size are supported; other
// requests render nothing.
type GaneshRenderer struct {
	baseRenderer

	// target is the texture with an open draw session.
	target DrawableTexture
}

func newGaneshRenderer(ctx *Context) *GaneshRenderer {
	r := &GaneshRenderer{}
	r.baseRenderer = baseRenderer{
		ctx:  ctx,
		typ:  Ganesh,
		mon:  perf.NewMonitor(),
		tags: []string{TagCreateFBO, TagDrawPicture, TagUpdateTexture},
		impl: r,
	}
	return r
}

func (r *GaneshRenderer) setupTarget(info *TileRenderInfo) *canvas.Canvas {
	r.start(info, TagCreateFBO)
	defer r.stop(info, TagCreateFBO)

	if want := r.ctx.TileSize(); info.TileSize != want {
		r.ctx.log().Warn("render: unexpected tile size for GPU target",
			"expected", want, "actual", info.TileSize)
		return nil
	}
	if info.Texture == nil || info.Texture.Texture == nil {
		return nil
	}
	dt, ok := info.Texture.Texture.(DrawableTexture)
	if !ok {
		r.ctx.fallBackToRaster(errNotDrawable)
		return nil
	}
	c, err := dt.BeginDraw()
	if err != nil {
		r.ctx.fallBackToRaster(err)
		return nil
	}
	r.target = dt
	r.start(info, TagDrawPicture)
	return c
}

// setupPartialInval clips to the inval rect and clears it to the tile
// background.
func (r *GaneshRenderer) setupPartialInval(info *TileRenderInfo, c *canvas.Canvas) {
	inval := info.invalRect()
	c.ClipDevice(inval)
	c.EraseClip(clearColor(info.Tile))
}

func (r *GaneshRenderer) renderingComplete(info *TileRenderInfo, c *canvas.Canvas) {
	r.stop(info, TagDrawPicture)
	r.start(info, TagUpdateTexture)
	if r.target != nil {
		if err := r.target.EndDraw(); err != nil {
			r.ctx.log().Warn("render: GPU flush failed", "err", err)
		}
		r.target = nil
	}
	r.stop(info, TagUpdateTexture)
}

// Close ends a draw session left open.
func (r *GaneshRenderer) Close() {
	if r.target != nil {
		_ = r.target.EndDraw()
		r.target = nil
	}
}

var _ Renderer = (*GaneshRenderer)(nil)
