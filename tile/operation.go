package tile

// Base priorities. Lower runs first.
const (
	priorityUnpainted = 0
	priorityRepaint   = 50000
	rowWeight         = 1000
)

// PaintOperation paints one tile on the texture generator.
type PaintOperation struct {
	tile *Tile
}

// Tile returns the tile the operation paints.
func (op *PaintOperation) Tile() *Tile { return op.tile }

// Run implements texgen.Operation.
func (op *PaintOperation) Run() {
	t := op.tile
	l := t.layer
	n := t.Paint(l.acquireRenderer())
	t.repaintPending.Store(false)
	l.log().Debug("tile: painted", "x", t.x, "y", t.y, "pictures", n)
	l.paintDone(true)
}

// Priority implements texgen.Operation. Tiles that were never painted come
// before repaints. Base tiles are then ordered top to bottom, left to
// right.
func (op *PaintOperation) Priority() int {
	t := op.tile
	p := priorityUnpainted
	if t.draws.Load() > 0 {
		p = priorityRepaint
	}
	if !t.IsLayerTile() {
		p += t.y*rowWeight + t.x
	}
	return p
}

// Owner implements texgen.Operation.
func (op *PaintOperation) Owner() any { return op.tile.layer }

// Discard implements texgen.Discarder.
func (op *PaintOperation) Discard() {
	op.tile.repaintPending.Store(false)
	op.tile.layer.paintDone(false)
}
