package picture

import "image/color"

// Recorder captures drawing commands into a Picture.
//
// A Recorder is not safe for concurrent use. After Finish it is reset and
// may record a new picture.
type Recorder struct {
	width, height int
	commands      []command
	saveDepth     int

	currentPath        Path
	currentFillColor   color.Color
	currentStrokeColor color.Color
	currentStrokeWidth float64
}

// NewRecorder creates a recorder for content of the given size.
func NewRecorder(width, height int) *Recorder {
	r := &Recorder{width: width, height: height}
	r.reset()
	return r
}

func (r *Recorder) reset() {
	r.commands = make([]command, 0, 16)
	r.saveDepth = 0
	r.currentPath = Path{}
	r.currentFillColor = color.Black
	r.currentStrokeColor = color.Black
	r.currentStrokeWidth = 1.0
}

// SetFillColor sets the color for subsequent fill operations.
func (r *Recorder) SetFillColor(c color.Color) {
	r.currentFillColor = c
}

// SetStrokeColor sets the color for subsequent stroke operations.
func (r *Recorder) SetStrokeColor(c color.Color) {
	r.currentStrokeColor = c
}

// SetStrokeWidth sets the width for subsequent stroke operations.
func (r *Recorder) SetStrokeWidth(width float64) {
	r.currentStrokeWidth = width
}

// Save pushes the transform and clip.
func (r *Recorder) Save() {
	r.saveDepth++
	r.commands = append(r.commands, command{op: opSave})
}

// Restore pops the transform and clip. Unbalanced calls are ignored.
func (r *Recorder) Restore() {
	if r.saveDepth == 0 {
		return
	}
	r.saveDepth--
	r.commands = append(r.commands, command{op: opRestore})
}

// Translate moves the origin.
func (r *Recorder) Translate(dx, dy float64) {
	r.commands = append(r.commands, command{op: opTranslate, f: [4]float64{dx, dy}})
}

// Scale scales user space.
func (r *Recorder) Scale(sx, sy float64) {
	r.commands = append(r.commands, command{op: opScale, f: [4]float64{sx, sy}})
}

// ClipRect intersects the clip with a rectangle.
func (r *Recorder) ClipRect(x, y, width, height float64) {
	r.commands = append(r.commands, command{op: opClipRect, f: [4]float64{x, y, width, height}})
}

// Clear records a fill of the whole clip with c.
func (r *Recorder) Clear(c color.Color) {
	r.commands = append(r.commands, command{op: opClear, color: c})
}

// MoveTo starts a new subpath at the given point.
func (r *Recorder) MoveTo(x, y float64) {
	r.currentPath.Verbs = append(r.currentPath.Verbs, VerbMoveTo)
	r.currentPath.Points = append(r.currentPath.Points, float32(x), float32(y))
}

// LineTo draws a line from the current point to the given point.
func (r *Recorder) LineTo(x, y float64) {
	r.currentPath.Verbs = append(r.currentPath.Verbs, VerbLineTo)
	r.currentPath.Points = append(r.currentPath.Points, float32(x), float32(y))
}

// QuadTo draws a quadratic Bezier curve.
func (r *Recorder) QuadTo(cx, cy, x, y float64) {
	r.currentPath.Verbs = append(r.currentPath.Verbs, VerbQuadTo)
	r.currentPath.Points = append(r.currentPath.Points,
		float32(cx), float32(cy),
		float32(x), float32(y))
}

// CubicTo draws a cubic Bezier curve.
func (r *Recorder) CubicTo(c1x, c1y, c2x, c2y, x, y float64) {
	r.currentPath.Verbs = append(r.currentPath.Verbs, VerbCubicTo)
	r.currentPath.Points = append(r.currentPath.Points,
		float32(c1x), float32(c1y),
		float32(c2x), float32(c2y),
		float32(x), float32(y))
}

// ClosePath closes the current subpath.
func (r *Recorder) ClosePath() {
	r.currentPath.Verbs = append(r.currentPath.Verbs, VerbClose)
}

// Rectangle adds a rectangle to the current path.
func (r *Recorder) Rectangle(x, y, width, height float64) {
	r.MoveTo(x, y)
	r.LineTo(x+width, y)
	r.LineTo(x+width, y+height)
	r.LineTo(x, y+height)
	r.ClosePath()
}

// Circle adds a circle to the current path using cubic Bezier approximation.
func (r *Recorder) Circle(cx, cy, radius float64) {
	// kappa = 4 * (sqrt(2) - 1) / 3
	const kappa = 0.5522847498307936
	k := radius * kappa

	r.MoveTo(cx+radius, cy)
	r.CubicTo(cx+radius, cy+k, cx+k, cy+radius, cx, cy+radius)
	r.CubicTo(cx-k, cy+radius, cx-radius, cy+k, cx-radius, cy)
	r.CubicTo(cx-radius, cy-k, cx-k, cy-radius, cx, cy-radius)
	r.CubicTo(cx+k, cy-radius, cx+radius, cy-k, cx+radius, cy)
	r.ClosePath()
}

// Fill fills the current path and clears it.
func (r *Recorder) Fill() {
	if r.currentPath.IsEmpty() {
		return
	}
	r.commands = append(r.commands, command{
		op:    opFill,
		path:  r.currentPath.clone(),
		color: r.currentFillColor,
	})
	r.currentPath = Path{}
}

// Stroke strokes the current path and clears it.
func (r *Recorder) Stroke() {
	if r.currentPath.IsEmpty() {
		return
	}
	r.commands = append(r.commands, command{
		op:    opStroke,
		path:  r.currentPath.clone(),
		color: r.currentStrokeColor,
		f:     [4]float64{r.currentStrokeWidth},
	})
	r.currentPath = Path{}
}

// DrawLine strokes a single segment with the current stroke state.
func (r *Recorder) DrawLine(x0, y0, x1, y1 float64) {
	saved := r.currentPath
	r.currentPath = Path{}
	r.MoveTo(x0, y0)
	r.LineTo(x1, y1)
	r.Stroke()
	r.currentPath = saved
}

// DrawText draws s with its baseline origin at (x, y) in the fill color.
func (r *Recorder) DrawText(s string, x, y float64) {
	if s == "" {
		return
	}
	r.commands = append(r.commands, command{
		op:    opText,
		text:  s,
		color: r.currentFillColor,
		f:     [4]float64{x, y},
	})
}

// DrawPicture embeds p. The recorder takes its own reference, which the
// finished picture keeps until it is released.
func (r *Recorder) DrawPicture(p *Picture) {
	if p == nil {
		return
	}
	r.commands = append(r.commands, command{op: opPicture, pic: p.Ref()})
}

// Finish closes any open saves and returns the recorded picture with a
// single reference. The recorder is reset.
func (r *Recorder) Finish() *Picture {
	for r.saveDepth > 0 {
		r.Restore()
	}
	p := &Picture{
		id:       nextID.Add(1),
		width:    r.width,
		height:   r.height,
		commands: r.commands,
	}
	p.refs.Store(1)
	r.reset()
	return p
}
