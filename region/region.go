// Package region implements a set of pixels described by disjoint
// rectangles, used to track invalidated areas of a layer.
package region

import (
	"image"
	"strings"
)

// Region is a set of pixels stored as non-overlapping rectangles.
//
// The zero value is an empty region. Region is a value type: copies are
// independent and every mutating method leaves other copies untouched.
type Region struct {
	rects []image.Rectangle
}

// FromRect returns a region covering r.
func FromRect(r image.Rectangle) Region {
	var reg Region
	reg.UnionRect(r)
	return reg
}

// FromRects returns the union of rs.
func FromRects(rs ...image.Rectangle) Region {
	var reg Region
	for _, r := range rs {
		reg.UnionRect(r)
	}
	return reg
}

// IsEmpty reports whether the region covers no pixel.
func (g Region) IsEmpty() bool {
	return len(g.rects) == 0
}

// Rects returns a copy of the disjoint rectangles making up the region.
func (g Region) Rects() []image.Rectangle {
	out := make([]image.Rectangle, len(g.rects))
	copy(out, g.rects)
	return out
}

// Len returns the number of rectangles in the region.
func (g Region) Len() int {
	return len(g.rects)
}

// Bounds returns the smallest rectangle containing the region.
func (g Region) Bounds() image.Rectangle {
	var b image.Rectangle
	for _, r := range g.rects {
		b = b.Union(r)
	}
	return b
}

// Area returns the number of pixels covered.
func (g Region) Area() int {
	n := 0
	for _, r := range g.rects {
		n += r.Dx() * r.Dy()
	}
	return n
}

// Contains reports whether p is inside the region.
func (g Region) Contains(p image.Point) bool {
	for _, r := range g.rects {
		if p.In(r) {
			return true
		}
	}
	return false
}

// UnionRect adds r to the region.
func (g *Region) UnionRect(r image.Rectangle) {
	r = r.Canon()
	if r.Empty() {
		return
	}
	pieces := []image.Rectangle{r}
	for _, existing := range g.rects {
		if !existing.Overlaps(r) {
			continue
		}
		pieces = subtractAll(pieces, existing)
		if len(pieces) == 0 {
			return
		}
	}
	next := make([]image.Rectangle, 0, len(g.rects)+len(pieces))
	next = append(next, g.rects...)
	g.rects = append(next, pieces...)
}

// Union adds every pixel of o to the region.
func (g *Region) Union(o Region) {
	for _, r := range o.rects {
		g.UnionRect(r)
	}
}

// SubtractRect removes r from the region.
func (g *Region) SubtractRect(r image.Rectangle) {
	r = r.Canon()
	if r.Empty() || len(g.rects) == 0 {
		return
	}
	g.rects = nilIfEmpty(subtractAll(g.rects, r))
}

// Subtract removes every pixel of o from the region.
func (g *Region) Subtract(o Region) {
	for _, r := range o.rects {
		g.SubtractRect(r)
	}
}

// IntersectRect returns the part of the region inside r.
func (g Region) IntersectRect(r image.Rectangle) Region {
	var out []image.Rectangle
	for _, existing := range g.rects {
		if in := existing.Intersect(r); !in.Empty() {
			out = append(out, in)
		}
	}
	return Region{rects: out}
}

// Translate returns the region moved by d.
func (g Region) Translate(d image.Point) Region {
	if len(g.rects) == 0 {
		return Region{}
	}
	out := make([]image.Rectangle, len(g.rects))
	for i, r := range g.rects {
		out[i] = r.Add(d)
	}
	return Region{rects: out}
}

// Clear empties the region.
func (g *Region) Clear() {
	g.rects = nil
}

// Equal reports whether g and o cover exactly the same pixels, regardless
// of how each is split into rectangles.
func (g Region) Equal(o Region) bool {
	if g.Area() != o.Area() {
		return false
	}
	rest := g
	rest.Subtract(o)
	return rest.IsEmpty()
}

func (g Region) String() string {
	if len(g.rects) == 0 {
		return "{}"
	}
	var sb strings.Builder
	sb.WriteByte('{')
	for i, r := range g.rects {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(r.String())
	}
	sb.WriteByte('}')
	return sb.String()
}

// subtractAll removes cut from every rectangle in rs and returns a new slice.
func subtractAll(rs []image.Rectangle, cut image.Rectangle) []image.Rectangle {
	out := make([]image.Rectangle, 0, len(rs)+4)
	for _, r := range rs {
		out = appendDifference(out, r, cut)
	}
	return out
}

// appendDifference appends r minus cut, as at most four bands.
func appendDifference(dst []image.Rectangle, r, cut image.Rectangle) []image.Rectangle {
	in := r.Intersect(cut)
	if in.Empty() {
		return append(dst, r)
	}
	if in.Min.Y > r.Min.Y {
		dst = append(dst, image.Rect(r.Min.X, r.Min.Y, r.Max.X, in.Min.Y))
	}
	if in.Max.Y < r.Max.Y {
		dst = append(dst, image.Rect(r.Min.X, in.Max.Y, r.Max.X, r.Max.Y))
	}
	if in.Min.X > r.Min.X {
		dst = append(dst, image.Rect(r.Min.X, in.Min.Y, in.Min.X, in.Max.Y))
	}
	if in.Max.X < r.Max.X {
		dst = append(dst, image.Rect(in.Max.X, in.Min.Y, r.Max.X, in.Max.Y))
	}
	return dst
}

func nilIfEmpty(rs []image.Rectangle) []image.Rectangle {
	if len(rs) == 0 {
		return nil
	}
	return rs
}
