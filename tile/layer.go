package tile

import (
	"image"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"

	"github.com/gogpu/tiles"
	"github.com/gogpu/tiles/picture"
	"github.com/gogpu/tiles/profiler"
	"github.com/gogpu/tiles/region"
	"github.com/gogpu/tiles/render"
	"github.com/gogpu/tiles/texgen"
	"github.com/gogpu/tiles/update"
)

// TextureAllocator creates the texture backing a tile.
type TextureAllocator func(width, height int) (render.Texture, error)

// Option configures a Layer.
type Option func(*Layer)

// WithScale sets the content scale factor. Non-positive values are ignored.
func WithScale(s float64) Option {
	return func(l *Layer) {
		if s > 0 {
			l.scale = s
		}
	}
}

// AsLayer marks the layer as a composited layer. Its tiles start
// transparent instead of white.
func AsLayer() Option {
	return func(l *Layer) {
		l.layerTiles = true
	}
}

// WithMeasurePerf enables per-phase timing in paint requests.
func WithMeasurePerf(on bool) Option {
	return func(l *Layer) {
		l.measurePerf = on
	}
}

// WithTextureAllocator replaces the in-memory texture allocator.
func WithTextureAllocator(a TextureAllocator) Option {
	return func(l *Layer) {
		if a != nil {
			l.alloc = a
		}
	}
}

// WithProfiler reports tile states and invalidations to p.
func WithProfiler(p *profiler.Profiler) Option {
	return func(l *Layer) {
		l.prof = p
	}
}

// WithLogger sets the logger for paint scheduling.
func WithLogger(lg *slog.Logger) Option {
	return func(l *Layer) {
		l.logger = lg
	}
}

// Layer is a tiled surface painted from an update.Manager.
type Layer struct {
	ctx    *render.Context
	gen    *texgen.Generator
	um     *update.Manager
	alloc  TextureAllocator
	prof   *profiler.Profiler
	logger *slog.Logger

	scale       float64
	layerTiles  bool
	measurePerf bool

	mu    sync.Mutex
	tiles map[image.Point]*Tile
	size  image.Point

	// renderer is only used on the generator goroutine.
	renderer render.Renderer

	// outstanding counts scheduled paint operations that have not run or
	// been discarded. The painting region is cleared when it reaches zero
	// unless an operation was discarded.
	outstanding atomic.Int64
	keepInval   atomic.Bool

	// invalMu orders painting region reads against the clear.
	invalMu sync.Mutex
}

// NewLayer returns an empty layer drawing through ctx and painting on gen.
func NewLayer(ctx *render.Context, gen *texgen.Generator, opts ...Option) *Layer {
	l := &Layer{
		ctx:   ctx,
		gen:   gen,
		um:    update.New(),
		scale: 1,
		tiles: make(map[image.Point]*Tile),
	}
	l.alloc = func(w, h int) (render.Texture, error) {
		return render.NewMemoryTexture(w, h), nil
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Layer) log() *slog.Logger {
	if l.logger != nil {
		return l.logger
	}
	return tiles.Logger()
}

// Updates returns the layer's update manager.
func (l *Layer) Updates() *update.Manager { return l.um }

// Scale returns the content scale factor.
func (l *Layer) Scale() float64 { return l.scale }

// IsLayer reports whether the layer's tiles are layer tiles.
func (l *Layer) IsLayer() bool { return l.layerTiles }

// SetContentSize sets the content size in content pixels. It determines
// the tile grid.
func (l *Layer) SetContentSize(width, height int) {
	l.mu.Lock()
	l.size = image.Pt(width, height)
	l.mu.Unlock()
}

// GridSize returns the number of tile columns and rows covering the
// content at the current scale.
func (l *Layer) GridSize() (cols, rows int) {
	l.mu.Lock()
	size := l.size
	l.mu.Unlock()
	ts := l.ctx.TileSize()
	w := int(math.Ceil(float64(size.X) * l.scale))
	h := int(math.Ceil(float64(size.Y) * l.scale))
	return ceilDiv(w, ts.X), ceilDiv(h, ts.Y)
}

// UpdatePicture records new deferred content.
func (l *Layer) UpdatePicture(p *picture.Picture) {
	l.um.UpdatePicture(p)
}

// Invalidate adds r, in content coordinates, to the deferred region.
func (l *Layer) Invalidate(r image.Rectangle) {
	l.um.UpdateInvalRect(r)
	if l.prof != nil {
		l.prof.NextInval(r, l.scale)
	}
}

// InvalidateRegion adds r to the deferred region.
func (l *Layer) InvalidateRegion(r region.Region) {
	l.um.UpdateInval(r)
}

// Swap promotes deferred content. Queued paints for this layer are
// dropped and a running one is waited for first.
func (l *Layer) Swap() {
	if n := l.gen.RemoveOperations(l.paintFilter(), true); n > 0 {
		l.log().Debug("tile: dropped queued paints on swap", "count", n)
	}
	l.um.Swap()
}

// PaintTile implements render.TilePainter.
func (l *Layer) PaintTile(_ render.Tile, b picture.Backend) int {
	_, n := l.um.Paint(b)
	return n
}

// Tile returns the tile at grid position (x, y), creating it and its
// texture on first use.
func (l *Layer) Tile(x, y int) (*Tile, error) {
	key := image.Pt(x, y)
	l.mu.Lock()
	defer l.mu.Unlock()
	if t, ok := l.tiles[key]; ok {
		return t, nil
	}
	ts := l.ctx.TileSize()
	tex, err := l.alloc(ts.X, ts.Y)
	if err != nil {
		return nil, err
	}
	t := &Tile{
		x:       x,
		y:       y,
		layer:   l,
		texture: render.NewTextureInfo(tex, l.ctx.TextureFormat()),
	}
	l.tiles[key] = t
	return t, nil
}

// Tiles returns the tiles created so far.
func (l *Layer) Tiles() []*Tile {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]*Tile, 0, len(l.tiles))
	for _, t := range l.tiles {
		out = append(out, t)
	}
	return out
}

// ScheduleDirty queues a paint for every tile of the grid that intersects
// the painting region, or for every tile when the region is empty. Tiles
// with a paint already pending are skipped. It returns the number of
// operations scheduled.
//
// Call ScheduleDirty after Swap.
func (l *Layer) ScheduleDirty() (int, error) {
	inval := l.paintingInval()
	cols, rows := l.GridSize()

	// Hold a count so operations finishing while the grid is walked do not
	// clear the region early.
	l.outstanding.Add(1)
	defer l.paintDone(true)

	scheduled := 0
	for y := range rows {
		for x := range cols {
			t, err := l.Tile(x, y)
			if err != nil {
				return scheduled, err
			}
			if !inval.IsEmpty() && t.invalRect(inval).Empty() {
				continue
			}
			if !t.repaintPending.CompareAndSwap(false, true) {
				continue
			}
			op := &PaintOperation{tile: t}
			l.outstanding.Add(1)
			if err := l.gen.Schedule(op); err != nil {
				t.repaintPending.Store(false)
				l.outstanding.Add(-1)
				return scheduled, err
			}
			scheduled++
		}
	}
	l.log().Debug("tile: scheduled paints", "count", scheduled, "inval", inval.Len())
	return scheduled, nil
}

// ReportTiles records every tile's state with the profiler. Tiles
// intersecting viewport, in content coordinates, count as in view.
func (l *Layer) ReportTiles(viewport image.Rectangle) {
	if l.prof == nil {
		return
	}
	ts := l.ctx.TileSize()
	l.prof.NextFrame(viewport, l.scale)
	for _, t := range l.Tiles() {
		l.prof.NextTile(t, ts, l.scale, t.contentBounds().Overlaps(viewport))
	}
}

// Close drops pending paints and releases the layer's content and
// renderer.
func (l *Layer) Close() {
	l.gen.RemoveOperations(texgen.OwnerFilter(l), true)
	if l.renderer != nil {
		l.renderer.Close()
		l.renderer = nil
	}
	l.um.Close()
}

// paintDone is called once per scheduled operation, whether it ran or was
// discarded. A discarded paint keeps the painting region so the area is
// scheduled again after the next swap.
func (l *Layer) paintDone(ran bool) {
	if !ran {
		l.keepInval.Store(true)
	}
	if l.outstanding.Add(-1) != 0 {
		return
	}
	if l.keepInval.Swap(false) {
		return
	}
	l.invalMu.Lock()
	l.um.ClearPaintingInval()
	l.invalMu.Unlock()
}

func (l *Layer) paintingInval() region.Region {
	l.invalMu.Lock()
	defer l.invalMu.Unlock()
	return l.um.PaintingInval()
}

// acquireRenderer returns a renderer matching the context's current type.
func (l *Layer) acquireRenderer() render.Renderer {
	l.ctx.SwapRendererIfNeeded(&l.renderer)
	return l.renderer
}

func (l *Layer) paintFilter() texgen.Filter {
	return func(op texgen.Operation) bool {
		p, ok := op.(*PaintOperation)
		return ok && p.tile.layer == l
	}
}

func ceilDiv(a, b int) int {
	if a <= 0 || b <= 0 {
		return 0
	}
	return (a + b - 1) / b
}
