package picture

import (
	"image/color"
	"sync/atomic"
)

// op is the type of a recorded command.
type op uint8

const (
	opSave op = iota
	opRestore
	opTranslate
	opScale
	opClipRect
	opClear
	opFill
	opStroke
	opText
	opPicture
)

// command is a single recorded drawing operation.
type command struct {
	op    op
	path  *Path
	color color.Color
	// f holds translate/scale factors, clip rect, text origin or stroke width.
	f    [4]float64
	text string
	pic  *Picture
}

var nextID atomic.Uint64

// Picture is an immutable list of drawing commands.
//
// A Picture starts with one reference owned by whoever called
// Recorder.Finish. Ref and Unref are safe for concurrent use; the release
// hook runs exactly once when the last reference is dropped.
type Picture struct {
	id       uint64
	width    int
	height   int
	commands []command
	refs     atomic.Int32
	release  atomic.Pointer[func()]
}

// ID returns a process-unique identifier for the picture.
func (p *Picture) ID() uint64 {
	return p.id
}

// Size returns the recorded content size.
func (p *Picture) Size() (width, height int) {
	return p.width, p.height
}

// Len returns the number of top-level commands.
func (p *Picture) Len() int {
	return len(p.commands)
}

// Ref adds a reference and returns p.
func (p *Picture) Ref() *Picture {
	if p.refs.Add(1) <= 1 {
		panic("picture: Ref on released picture")
	}
	return p
}

// Unref drops a reference. When the count reaches zero the release hook
// runs and nested pictures are unreferenced.
func (p *Picture) Unref() {
	n := p.refs.Add(-1)
	switch {
	case n > 0:
		return
	case n < 0:
		panic("picture: Unref on released picture")
	}
	if fn := p.release.Load(); fn != nil {
		(*fn)()
	}
	for i := range p.commands {
		if c := p.commands[i].pic; c != nil {
			c.Unref()
		}
	}
}

// Refs returns the current reference count.
func (p *Picture) Refs() int {
	return int(p.refs.Load())
}

// OnRelease installs fn to run when the last reference is dropped.
func (p *Picture) OnRelease(fn func()) {
	p.release.Store(&fn)
}

// Playback replays the picture into b and returns the number of distinct
// pictures drawn, counting p itself and every distinct nested picture.
// The backend state is restored afterwards.
func (p *Picture) Playback(b Backend) int {
	seen := make(map[*Picture]struct{})
	p.playback(b, seen)
	return len(seen)
}

func (p *Picture) playback(b Backend, seen map[*Picture]struct{}) {
	seen[p] = struct{}{}
	b.Save()
	defer b.Restore()

	for i := range p.commands {
		c := &p.commands[i]
		switch c.op {
		case opSave:
			b.Save()
		case opRestore:
			b.Restore()
		case opTranslate:
			b.Translate(c.f[0], c.f[1])
		case opScale:
			b.Scale(c.f[0], c.f[1])
		case opClipRect:
			b.ClipRect(c.f[0], c.f[1], c.f[2], c.f[3])
		case opClear:
			b.Clear(c.color)
		case opFill:
			b.FillPath(c.path, c.color)
		case opStroke:
			b.StrokePath(c.path, c.color, c.f[0])
		case opText:
			b.DrawText(c.text, c.f[0], c.f[1], c.color)
		case opPicture:
			c.pic.playback(b, seen)
		}
	}
}
