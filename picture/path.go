package picture

// Verb is a path construction command.
type Verb uint8

const (
	VerbMoveTo Verb = iota
	VerbLineTo
	VerbQuadTo
	VerbCubicTo
	VerbClose
)

// pointCount returns how many float32 values (x,y pairs flattened) a verb
// consumes from Path.Points.
func (v Verb) pointCount() int {
	switch v {
	case VerbMoveTo, VerbLineTo:
		return 2
	case VerbQuadTo:
		return 4
	case VerbCubicTo:
		return 6
	default:
		return 0
	}
}

// Path is a flattened sequence of verbs and their points.
type Path struct {
	Verbs  []Verb
	Points []float32
}

// IsEmpty returns true if the path has no verbs.
func (p *Path) IsEmpty() bool {
	return p == nil || len(p.Verbs) == 0
}

// Walk calls fn for each verb with the points it consumes.
func (p *Path) Walk(fn func(v Verb, pts []float32)) {
	if p == nil {
		return
	}
	i := 0
	for _, v := range p.Verbs {
		n := v.pointCount()
		if i+n > len(p.Points) {
			return
		}
		fn(v, p.Points[i:i+n])
		i += n
	}
}

func (p *Path) clone() *Path {
	if p.IsEmpty() {
		return nil
	}
	c := &Path{
		Verbs:  make([]Verb, len(p.Verbs)),
		Points: make([]float32, len(p.Points)),
	}
	copy(c.Verbs, p.Verbs)
	copy(c.Points, p.Points)
	return c
}
