// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package canvas

import (
	"math"

	"github.com/gogpu/tiles/picture"
)

// curveSegments is the number of line segments a curve is flattened into
// before stroking.
const curveSegments = 16

// expandStroke creates a filled path from a stroked path.
// Each segment becomes a rectangle; curves are flattened first. Joins and
// caps are butt.
func expandStroke(p *picture.Path, width float64) *picture.Path {
	if p.IsEmpty() {
		return nil
	}
	halfWidth := float32(width / 2)
	expanded := &picture.Path{
		Verbs:  make([]picture.Verb, 0, len(p.Verbs)*5),
		Points: make([]float32, 0, len(p.Points)*4),
	}

	var curX, curY, startX, startY float32
	p.Walk(func(v picture.Verb, pts []float32) {
		switch v {
		case picture.VerbMoveTo:
			curX, curY = pts[0], pts[1]
			startX, startY = curX, curY
		case picture.VerbLineTo:
			addLineStroke(expanded, curX, curY, pts[0], pts[1], halfWidth)
			curX, curY = pts[0], pts[1]
		case picture.VerbQuadTo:
			x0, y0 := curX, curY
			for i := 1; i <= curveSegments; i++ {
				t := float32(i) / curveSegments
				mt := 1 - t
				x := mt*mt*x0 + 2*mt*t*pts[0] + t*t*pts[2]
				y := mt*mt*y0 + 2*mt*t*pts[1] + t*t*pts[3]
				addLineStroke(expanded, curX, curY, x, y, halfWidth)
				curX, curY = x, y
			}
		case picture.VerbCubicTo:
			x0, y0 := curX, curY
			for i := 1; i <= curveSegments; i++ {
				t := float32(i) / curveSegments
				mt := 1 - t
				x := mt*mt*mt*x0 + 3*mt*mt*t*pts[0] + 3*mt*t*t*pts[2] + t*t*t*pts[4]
				y := mt*mt*mt*y0 + 3*mt*mt*t*pts[1] + 3*mt*t*t*pts[3] + t*t*t*pts[5]
				addLineStroke(expanded, curX, curY, x, y, halfWidth)
				curX, curY = x, y
			}
		case picture.VerbClose:
			if curX != startX || curY != startY {
				addLineStroke(expanded, curX, curY, startX, startY, halfWidth)
			}
			curX, curY = startX, startY
		}
	})
	return expanded
}

// addLineStroke adds a stroked line segment as a rectangle.
func addLineStroke(p *picture.Path, x0, y0, x1, y1, halfWidth float32) {
	dx := x1 - x0
	dy := y1 - y0
	length := float32(math.Sqrt(float64(dx*dx + dy*dy)))
	if length < 1e-6 {
		return
	}

	// Perpendicular, scaled to half width. Corner order keeps the winding
	// independent of segment direction.
	px := -dy / length * halfWidth
	py := dx / length * halfWidth

	p.Verbs = append(p.Verbs,
		picture.VerbMoveTo,
		picture.VerbLineTo,
		picture.VerbLineTo,
		picture.VerbLineTo,
		picture.VerbClose,
	)
	p.Points = append(p.Points,
		x0+px, y0+py,
		x1+px, y1+py,
		x1-px, y1-py,
		x0-px, y0-py,
	)
}
