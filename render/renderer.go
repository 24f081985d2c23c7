// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"image"
	"image/color"

	"github.com/gogpu/tiles/canvas"
	"github.com/gogpu/tiles/perf"
	"github.com/gogpu/tiles/picture"
)

// Tile is the requesting tile as seen by a renderer.
type Tile interface {
	// IsLayerTile reports whether the tile belongs to a composited layer
	// rather than the base page. Layer tiles start transparent, base tiles
	// start white.
	IsLayerTile() bool
}

// TilePainter supplies a tile's content.
type TilePainter interface {
	// PaintTile replays the current content for tile into b, which is
	// already transformed into content coordinates, and returns how many
	// distinct pictures were drawn.
	PaintTile(tile Tile, b picture.Backend) int
}

// TileRenderInfo is one render request. It is not retained past Render.
type TileRenderInfo struct {
	// X and Y are the tile grid coordinates.
	X, Y int

	// Scale is the content scale factor.
	Scale float64

	// InvalRect is the area to redraw, in tile pixel coordinates. An empty
	// rect means the whole tile.
	InvalRect image.Rectangle

	// TileSize is the expected tile size in pixels.
	TileSize image.Point

	Painter TilePainter
	Tile    Tile
	Texture *TextureInfo

	// MeasurePerf enables per-phase timing.
	MeasurePerf bool
}

// invalRect returns the request's inval rect, defaulting to the full tile.
func (info *TileRenderInfo) invalRect() image.Rectangle {
	if info.InvalRect.Empty() {
		return image.Rectangle{Max: info.TileSize}
	}
	return info.InvalRect
}

// Renderer draws tiles into textures.
//
// A Renderer is used from one texture-generation goroutine at a time.
type Renderer interface {
	// Type returns the strategy implemented by the renderer.
	Type() Type

	// Render draws the tile described by info and returns the number of
	// distinct pictures drawn. It returns 0 when no drawing target is
	// available; the texture is then left untouched.
	Render(info *TileRenderInfo) int

	// Monitor returns the renderer's performance monitor.
	Monitor() *perf.Monitor

	// PerformanceTags lists the phases the renderer times, in order.
	PerformanceTags() []string

	// Close releases renderer resources.
	Close()
}

// strategy holds the steps that differ between renderers.
type strategy interface {
	// setupTarget returns a canvas for the request, or nil if none is
	// available.
	setupTarget(info *TileRenderInfo) *canvas.Canvas
	setupPartialInval(info *TileRenderInfo, c *canvas.Canvas)
	renderingComplete(info *TileRenderInfo, c *canvas.Canvas)
}

// baseRenderer implements the orchestration shared by all strategies.
type baseRenderer struct {
	ctx  *Context
	typ  Type
	mon  *perf.Monitor
	tags []string
	impl strategy
}

func (r *baseRenderer) Type() Type {
	return r.typ
}

func (r *baseRenderer) Monitor() *perf.Monitor {
	return r.mon
}

func (r *baseRenderer) PerformanceTags() []string {
	out := make([]string, len(r.tags))
	copy(out, r.tags)
	return out
}

func (r *baseRenderer) start(info *TileRenderInfo, tag string) {
	if info.MeasurePerf {
		r.mon.Start(tag)
	}
}

func (r *baseRenderer) stop(info *TileRenderInfo, tag string) {
	if info.MeasurePerf {
		r.mon.Stop(tag)
	}
}

// Render runs setupTarget, the partial inval hook, the content transform,
// the painter, the optional overlay and renderingComplete, in that order.
func (r *baseRenderer) Render(info *TileRenderInfo) int {
	c := r.impl.setupTarget(info)
	if c == nil {
		return 0
	}

	overlay := r.ctx.ShowVisualIndicator()
	saved := c.SaveCount()
	if overlay {
		c.Save()
	}

	r.impl.setupPartialInval(info, c)

	c.Translate(-float64(info.X*info.TileSize.X), -float64(info.Y*info.TileSize.Y))
	c.Scale(info.Scale, info.Scale)

	count := 0
	if info.Painter != nil {
		count = info.Painter.PaintTile(info.Tile, c)
	}

	if overlay {
		c.RestoreToCount(saved)
		r.drawOverlay(c, info, count)
	}

	r.impl.renderingComplete(info, c)
	if info.Texture != nil {
		info.Texture.SetPictureCount(count)
	}
	return count
}

// Overlay colors.
var (
	overlayRed   = color.NRGBA{255, 0, 0, 128}
	overlayGreen = color.NRGBA{0, 255, 0, 128}
	overlayBlue  = color.NRGBA{0, 0, 255, 128}
)

// clearColor returns the background of a fresh tile.
func clearColor(t Tile) color.Color {
	if t != nil && t.IsLayerTile() {
		return color.Transparent
	}
	return color.White
}
