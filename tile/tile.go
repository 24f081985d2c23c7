package tile

import (
	"image"
	"math"
	"sync/atomic"

	"github.com/gogpu/tiles/region"
	"github.com/gogpu/tiles/render"
)

// Tile is one grid cell of a Layer.
type Tile struct {
	x, y    int
	layer   *Layer
	texture *render.TextureInfo

	repaintPending atomic.Bool
	draws          atomic.Int64
}

// X returns the tile column.
func (t *Tile) X() int { return t.x }

// Y returns the tile row.
func (t *Tile) Y() int { return t.y }

// IsLayerTile implements render.Tile.
func (t *Tile) IsLayerTile() bool { return t.layer.layerTiles }

// Texture returns the tile's texture.
func (t *Tile) Texture() *render.TextureInfo { return t.texture }

// RepaintPending reports whether a paint operation is queued or running.
func (t *Tile) RepaintPending() bool { return t.repaintPending.Load() }

// IsReady reports whether the tile has been painted and has no repaint
// pending.
func (t *Tile) IsReady() bool {
	return t.draws.Load() > 0 && !t.repaintPending.Load()
}

// DrawCount returns how many times the tile was painted.
func (t *Tile) DrawCount() int { return int(t.draws.Load()) }

// Paint renders the tile with r and returns the number of distinct
// pictures drawn. Only the part of the tile covered by the layer's painting
// region is redrawn; an empty region redraws the whole tile. A tile outside
// a non-empty region is left untouched and Paint returns 0.
func (t *Tile) Paint(r render.Renderer) int {
	l := t.layer
	var inval image.Rectangle
	if pr := l.paintingInval(); !pr.IsEmpty() {
		inval = t.invalRect(pr)
		if inval.Empty() {
			return 0
		}
	}
	n := r.Render(&render.TileRenderInfo{
		X:           t.x,
		Y:           t.y,
		Scale:       l.scale,
		InvalRect:   inval,
		TileSize:    l.ctx.TileSize(),
		Painter:     l,
		Tile:        t,
		Texture:     t.texture,
		MeasurePerf: l.measurePerf,
	})
	t.draws.Add(1)
	return n
}

// pixelBounds returns the tile's rectangle in scaled pixels.
func (t *Tile) pixelBounds() image.Rectangle {
	ts := t.layer.ctx.TileSize()
	origin := image.Pt(t.x*ts.X, t.y*ts.Y)
	return image.Rectangle{Min: origin, Max: origin.Add(ts)}
}

// contentBounds returns the tile's rectangle in content coordinates.
func (t *Tile) contentBounds() image.Rectangle {
	return scaleRect(t.pixelBounds(), 1/t.layer.scale)
}

// invalRect returns the bounds of inval, in content coordinates, mapped to
// tile-local pixels and clamped to the tile.
func (t *Tile) invalRect(inval region.Region) image.Rectangle {
	px := t.pixelBounds()
	var out image.Rectangle
	for _, r := range inval.Rects() {
		out = out.Union(scaleRect(r, t.layer.scale).Intersect(px))
	}
	if out.Empty() {
		return image.Rectangle{}
	}
	return out.Sub(px.Min)
}

// scaleRect scales r by s, rounding outward.
func scaleRect(r image.Rectangle, s float64) image.Rectangle {
	if s == 1 {
		return r
	}
	return image.Rect(
		int(math.Floor(float64(r.Min.X)*s)),
		int(math.Floor(float64(r.Min.Y)*s)),
		int(math.Ceil(float64(r.Max.X)*s)),
		int(math.Ceil(float64(r.Max.Y)*s)),
	)
}
