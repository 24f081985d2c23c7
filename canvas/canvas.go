// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package canvas provides a CPU raster target for picture playback.
//
// A Canvas draws into an *image.RGBA through a transform and clip stack.
// Paths are filled with golang.org/x/image/vector and text is drawn with a
// fixed bitmap face.
package canvas

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"

	"github.com/gogpu/tiles/picture"
)

type state struct {
	matrix Matrix
	clip   image.Rectangle
}

// Canvas is a drawing target backed by an RGBA image.
//
// Canvas implements picture.Backend. It is not safe for concurrent use.
type Canvas struct {
	img   *image.RGBA
	cur   state
	stack []state
	rast  *vector.Rasterizer
}

var _ picture.Backend = (*Canvas)(nil)

// New creates a transparent canvas of the given size.
func New(width, height int) *Canvas {
	return NewFromImage(image.NewRGBA(image.Rect(0, 0, width, height)))
}

// NewFromImage creates a canvas drawing into img. The clip starts at the
// image bounds.
func NewFromImage(img *image.RGBA) *Canvas {
	return &Canvas{
		img: img,
		cur: state{matrix: Identity(), clip: img.Bounds()},
	}
}

// Image returns the backing image.
func (c *Canvas) Image() *image.RGBA {
	return c.img
}

// Bounds returns the image bounds.
func (c *Canvas) Bounds() image.Rectangle {
	return c.img.Bounds()
}

// Matrix returns the current transform.
func (c *Canvas) Matrix() Matrix {
	return c.cur.matrix
}

// ClipBounds returns the current clip in device pixels.
func (c *Canvas) ClipBounds() image.Rectangle {
	return c.cur.clip
}

// SaveCount returns the depth of the save stack.
func (c *Canvas) SaveCount() int {
	return len(c.stack)
}

// Erase sets every pixel to col, ignoring clip and transform.
func (c *Canvas) Erase(col color.Color) {
	draw.Draw(c.img, c.img.Bounds(), image.NewUniform(col), image.Point{}, draw.Src)
}

// EraseClip sets every pixel inside the clip to col without blending.
func (c *Canvas) EraseClip(col color.Color) {
	if c.cur.clip.Empty() {
		return
	}
	draw.Draw(c.img, c.cur.clip, image.NewUniform(col), image.Point{}, draw.Src)
}

// Save pushes the transform and clip.
func (c *Canvas) Save() {
	c.stack = append(c.stack, c.cur)
}

// Restore pops the transform and clip. Extra calls are ignored.
func (c *Canvas) Restore() {
	if len(c.stack) == 0 {
		return
	}
	c.cur = c.stack[len(c.stack)-1]
	c.stack = c.stack[:len(c.stack)-1]
}

// RestoreToCount pops until the stack depth is n.
func (c *Canvas) RestoreToCount(n int) {
	for len(c.stack) > n {
		c.Restore()
	}
}

// Translate pre-concatenates a translation.
func (c *Canvas) Translate(dx, dy float64) {
	c.cur.matrix = c.cur.matrix.Multiply(Translate(dx, dy))
}

// Scale pre-concatenates a scale.
func (c *Canvas) Scale(sx, sy float64) {
	c.cur.matrix = c.cur.matrix.Multiply(Scale(sx, sy))
}

// ClipRect intersects the clip with the device-space bounds of the given
// user-space rectangle.
func (c *Canvas) ClipRect(x, y, width, height float64) {
	c.cur.clip = c.cur.clip.Intersect(c.deviceRect(x, y, width, height))
}

// ClipDevice intersects the clip with a device-space rectangle.
func (c *Canvas) ClipDevice(r image.Rectangle) {
	c.cur.clip = c.cur.clip.Intersect(r)
}

// Clear blends col over the whole clip.
func (c *Canvas) Clear(col color.Color) {
	if c.cur.clip.Empty() {
		return
	}
	draw.Draw(c.img, c.cur.clip, image.NewUniform(col), image.Point{}, draw.Over)
}

// FillRect fills a user-space rectangle.
func (c *Canvas) FillRect(x, y, width, height float64, col color.Color) {
	c.FillPath(&picture.Path{
		Verbs: []picture.Verb{
			picture.VerbMoveTo, picture.VerbLineTo, picture.VerbLineTo,
			picture.VerbLineTo, picture.VerbClose,
		},
		Points: []float32{
			float32(x), float32(y),
			float32(x + width), float32(y),
			float32(x + width), float32(y + height),
			float32(x), float32(y + height),
		},
	}, col)
}

// DrawLine strokes a segment.
func (c *Canvas) DrawLine(x0, y0, x1, y1 float64, col color.Color, width float64) {
	c.StrokePath(&picture.Path{
		Verbs:  []picture.Verb{picture.VerbMoveTo, picture.VerbLineTo},
		Points: []float32{float32(x0), float32(y0), float32(x1), float32(y1)},
	}, col, width)
}

// FillPath fills p with col using the non-zero rule.
func (c *Canvas) FillPath(p *picture.Path, col color.Color) {
	clip := c.cur.clip
	if p.IsEmpty() || clip.Empty() {
		return
	}
	z := c.rasterizer(clip.Dx(), clip.Dy())
	m := c.cur.matrix
	ox, oy := float64(clip.Min.X), float64(clip.Min.Y)
	pt := func(x, y float32) (float32, float32) {
		dx, dy := m.Apply(float64(x), float64(y))
		return float32(dx - ox), float32(dy - oy)
	}

	p.Walk(func(v picture.Verb, pts []float32) {
		switch v {
		case picture.VerbMoveTo:
			z.MoveTo(pt(pts[0], pts[1]))
		case picture.VerbLineTo:
			z.LineTo(pt(pts[0], pts[1]))
		case picture.VerbQuadTo:
			bx, by := pt(pts[0], pts[1])
			cx, cy := pt(pts[2], pts[3])
			z.QuadTo(bx, by, cx, cy)
		case picture.VerbCubicTo:
			bx, by := pt(pts[0], pts[1])
			cx, cy := pt(pts[2], pts[3])
			dx, dy := pt(pts[4], pts[5])
			z.CubeTo(bx, by, cx, cy, dx, dy)
		case picture.VerbClose:
			z.ClosePath()
		}
	})
	z.ClosePath()
	z.Draw(c.img, clip, image.NewUniform(col), image.Point{})
}

// StrokePath strokes p with the given width. Width is in user space and
// scales with the transform.
func (c *Canvas) StrokePath(p *picture.Path, col color.Color, width float64) {
	if width <= 0 {
		return
	}
	if expanded := expandStroke(p, width); !expanded.IsEmpty() {
		c.FillPath(expanded, col)
	}
}

// DrawText draws s with a 7x13 bitmap face. (x, y) is the baseline origin
// in user space; glyphs are not scaled by the transform.
func (c *Canvas) DrawText(s string, x, y float64, col color.Color) {
	clip := c.cur.clip
	if s == "" || clip.Empty() {
		return
	}
	dst, ok := c.img.SubImage(clip).(*image.RGBA)
	if !ok {
		return
	}
	dx, dy := c.cur.matrix.Apply(x, y)
	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(col),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(int(math.Round(dx)), int(math.Round(dy))),
	}
	d.DrawString(s)
}

// TextWidth returns the advance of s in pixels with the canvas face.
func TextWidth(s string) int {
	return font.MeasureString(basicfont.Face7x13, s).Round()
}

func (c *Canvas) rasterizer(w, h int) *vector.Rasterizer {
	if c.rast == nil {
		c.rast = vector.NewRasterizer(w, h)
	} else {
		c.rast.Reset(w, h)
	}
	c.rast.DrawOp = draw.Over
	return c.rast
}

// deviceRect maps a user rectangle to the device pixel rectangle covering
// its transformed corners.
func (c *Canvas) deviceRect(x, y, width, height float64) image.Rectangle {
	m := c.cur.matrix
	x0, y0 := m.Apply(x, y)
	x1, y1 := m.Apply(x+width, y+height)
	x2, y2 := m.Apply(x+width, y)
	x3, y3 := m.Apply(x, y+height)
	minX := math.Min(math.Min(x0, x1), math.Min(x2, x3))
	minY := math.Min(math.Min(y0, y1), math.Min(y2, y3))
	maxX := math.Max(math.Max(x0, x1), math.Max(x2, x3))
	maxY := math.Max(math.Max(y0, y1), math.Max(y2, y3))
	return image.Rect(
		int(math.Floor(minX)), int(math.Floor(minY)),
		int(math.Ceil(maxX)), int(math.Ceil(maxY)),
	)
}
