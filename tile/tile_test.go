package tile

import (
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/gogpu/tiles/picture"
	"github.com/gogpu/tiles/profiler"
	"github.com/gogpu/tiles/render"
	"github.com/gogpu/tiles/texgen"
)

var (
	red  = color.RGBA{255, 0, 0, 255}
	blue = color.RGBA{0, 0, 255, 255}
)

func rectPicture(x, y, w, h float64, c color.Color) *picture.Picture {
	rec := picture.NewRecorder(1024, 1024)
	rec.SetFillColor(c)
	rec.Rectangle(x, y, w, h)
	rec.Fill()
	return rec.Finish()
}

func newLayer(t *testing.T, opts ...Option) (*Layer, *texgen.Generator, *render.Context) {
	t.Helper()
	ctx := render.NewContext(render.WithTileSize(64, 64))
	gen := texgen.New()
	l := NewLayer(ctx, gen, opts...)
	l.SetContentSize(128, 128)
	t.Cleanup(func() {
		l.Close()
		gen.Close()
	})
	return l, gen, ctx
}

func waitRan(t *testing.T, gen *texgen.Generator, n int64) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for gen.Ran() < n {
		if time.Now().After(deadline) {
			t.Fatalf("generator ran %d operations, want %d", gen.Ran(), n)
		}
		time.Sleep(time.Millisecond)
	}
}

func snapshot(t *testing.T, tl *Tile) *image.RGBA {
	t.Helper()
	m, ok := tl.Texture().Texture.(*render.MemoryTexture)
	if !ok {
		t.Fatalf("texture is %T", tl.Texture().Texture)
	}
	return m.Snapshot()
}

func publish(l *Layer, p *picture.Picture, inval image.Rectangle) {
	l.UpdatePicture(p)
	p.Unref()
	if !inval.Empty() {
		l.Invalidate(inval)
	}
	l.Swap()
}

func TestGridSize(t *testing.T) {
	l, _, _ := newLayer(t, WithScale(1.5))
	l.SetContentSize(100, 50)
	if cols, rows := l.GridSize(); cols != 3 || rows != 2 {
		t.Errorf("GridSize = %d,%d, want 3,2", cols, rows)
	}
	l.SetContentSize(0, 50)
	if cols, _ := l.GridSize(); cols != 0 {
		t.Errorf("cols = %d for empty width", cols)
	}
}

func TestInvalRect(t *testing.T) {
	l, _, _ := newLayer(t, WithScale(2))
	tl, err := l.Tile(1, 0)
	if err != nil {
		t.Fatal(err)
	}
	l.Invalidate(image.Rect(20, 10, 40, 20))
	l.Invalidate(image.Rect(100, 100, 110, 110))
	l.Swap()

	// Content (20,10)-(40,20) at scale 2 is pixels (40,20)-(80,40); tile 1
	// starts at x=64.
	got := tl.invalRect(l.Updates().PaintingInval())
	if want := image.Rect(0, 20, 16, 40); got != want {
		t.Errorf("invalRect = %v, want %v", got, want)
	}
}

func TestPaintPipeline(t *testing.T) {
	l, gen, _ := newLayer(t)

	publish(l, rectPicture(0, 0, 128, 128, red), image.Rectangle{})
	n, err := l.ScheduleDirty()
	if err != nil || n != 4 {
		t.Fatalf("ScheduleDirty = %d, %v; want 4", n, err)
	}
	waitRan(t, gen, 4)

	for _, tl := range l.Tiles() {
		if !tl.IsReady() || tl.RepaintPending() {
			t.Errorf("tile (%d,%d) not ready", tl.X(), tl.Y())
		}
		if got := snapshot(t, tl).RGBAAt(32, 32); got != red {
			t.Errorf("tile (%d,%d) = %v, want red", tl.X(), tl.Y(), got)
		}
		if tl.Texture().PictureCount() != 1 {
			t.Errorf("PictureCount = %d", tl.Texture().PictureCount())
		}
	}
	if !l.Updates().PaintingInval().IsEmpty() {
		t.Error("painting region not cleared after paints completed")
	}

	// A small inval repaints only the tile it touches, and only inside it.
	publish(l, rectPicture(0, 0, 128, 128, blue), image.Rect(10, 10, 20, 20))
	n, err = l.ScheduleDirty()
	if err != nil || n != 1 {
		t.Fatalf("ScheduleDirty = %d, %v; want 1", n, err)
	}
	waitRan(t, gen, 5)

	tl, _ := l.Tile(0, 0)
	img := snapshot(t, tl)
	if got := img.RGBAAt(15, 15); got != blue {
		t.Errorf("inside inval = %v, want blue", got)
	}
	if got := img.RGBAAt(40, 40); got != red {
		t.Errorf("outside inval = %v, want red", got)
	}
	other, _ := l.Tile(1, 1)
	if other.DrawCount() != 1 {
		t.Errorf("untouched tile drawn %d times", other.DrawCount())
	}
}

func TestLayerTilesStartTransparent(t *testing.T) {
	l, gen, _ := newLayer(t, AsLayer())
	l.SetContentSize(64, 64)
	publish(l, rectPicture(0, 0, 10, 10, red), image.Rectangle{})
	if _, err := l.ScheduleDirty(); err != nil {
		t.Fatal(err)
	}
	waitRan(t, gen, 1)
	tl, _ := l.Tile(0, 0)
	if got := snapshot(t, tl).RGBAAt(40, 40); got.A != 0 {
		t.Errorf("layer tile background = %v, want transparent", got)
	}
}

func TestRendererSwitch(t *testing.T) {
	l, gen, ctx := newLayer(t)
	l.SetContentSize(64, 64)

	publish(l, rectPicture(0, 0, 64, 64, red), image.Rectangle{})
	_, _ = l.ScheduleDirty()
	waitRan(t, gen, 1)

	ctx.SetRendererType(render.Ganesh)
	publish(l, rectPicture(0, 0, 64, 64, blue), image.Rectangle{})
	_, _ = l.ScheduleDirty()
	waitRan(t, gen, 2)

	if ctx.Created() != 2 {
		t.Errorf("renderers created = %d, want 2", ctx.Created())
	}
	tl, _ := l.Tile(0, 0)
	if got := snapshot(t, tl).RGBAAt(10, 10); got != blue {
		t.Errorf("pixel after switch = %v, want blue", got)
	}
	m := tl.Texture().Texture.(*render.MemoryTexture)
	if m.Draws() != 1 || m.Uploads() != 1 {
		t.Errorf("uploads = %d draws = %d, want one of each", m.Uploads(), m.Draws())
	}
}

type gate struct {
	started chan struct{}
	release chan struct{}
}

func (g *gate) Run() {
	close(g.started)
	<-g.release
}
func (g *gate) Priority() int { return -1 }
func (g *gate) Owner() any    { return g }

func TestSwapDropsQueuedPaints(t *testing.T) {
	l, gen, _ := newLayer(t)
	g := &gate{started: make(chan struct{}), release: make(chan struct{})}
	if err := gen.Schedule(g); err != nil {
		t.Fatal(err)
	}
	<-g.started

	publish(l, rectPicture(0, 0, 128, 128, red), image.Rect(0, 0, 10, 10))
	if n, _ := l.ScheduleDirty(); n != 1 {
		t.Fatalf("scheduled %d, want 1", n)
	}
	tl, _ := l.Tile(0, 0)
	if !tl.RepaintPending() {
		t.Fatal("RepaintPending = false while queued")
	}

	l.Invalidate(image.Rect(70, 70, 80, 80))
	l.Swap()
	if tl.RepaintPending() {
		t.Error("RepaintPending still set after swap dropped the paint")
	}
	if gen.Pending() != 0 {
		t.Errorf("Pending = %d after swap", gen.Pending())
	}
	inval := l.Updates().PaintingInval()
	if !inval.Contains(image.Pt(5, 5)) || !inval.Contains(image.Pt(75, 75)) {
		t.Errorf("painting region lost areas: %v", inval)
	}

	close(g.release)
	if n, _ := l.ScheduleDirty(); n != 2 {
		t.Errorf("rescheduled %d, want 2", n)
	}
	waitRan(t, gen, 3)
}

func TestPriority(t *testing.T) {
	l, _, _ := newLayer(t)
	a, _ := l.Tile(1, 0)
	b, _ := l.Tile(0, 1)
	pa, pb := (&PaintOperation{tile: a}).Priority(), (&PaintOperation{tile: b}).Priority()
	if pa >= pb {
		t.Errorf("row 0 priority %d not before row 1 priority %d", pa, pb)
	}
	b.draws.Store(1)
	if p := (&PaintOperation{tile: b}).Priority(); p <= pb {
		t.Errorf("repaint priority %d not after first paint %d", p, pb)
	}
	if (&PaintOperation{tile: a}).Owner() != l {
		t.Error("Owner is not the layer")
	}
}

func TestProfilerReport(t *testing.T) {
	prof := profiler.New()
	prof.Start()
	l, gen, _ := newLayer(t, WithProfiler(prof))

	publish(l, rectPicture(0, 0, 128, 128, red), image.Rect(0, 0, 128, 128))
	_, _ = l.ScheduleDirty()
	waitRan(t, gen, 4)

	l.ReportTiles(image.Rect(0, 0, 64, 64))
	if got := prof.Stop(); got != 1 {
		t.Errorf("ready ratio = %v, want 1", got)
	}
	frames := prof.Frames()
	if len(frames) != 1 || len(frames[0]) != 5 {
		t.Fatalf("frames = %v", frames)
	}
}
