package picture

import "image/color"

// Backend is a drawing target a Picture can be replayed into.
//
// Coordinates are in the backend's current user space, which Translate and
// Scale modify. Save and Restore push and pop the transform and clip.
type Backend interface {
	Save()
	Restore()
	Translate(dx, dy float64)
	Scale(sx, sy float64)

	// ClipRect intersects the clip with the given user-space rectangle.
	ClipRect(x, y, width, height float64)

	// Clear fills the whole clip with c, blending over existing pixels.
	Clear(c color.Color)

	FillPath(p *Path, c color.Color)
	StrokePath(p *Path, c color.Color, width float64)
	DrawText(s string, x, y float64, c color.Color)
}
