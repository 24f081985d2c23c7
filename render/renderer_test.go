// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/gogpu/tiles/picture"
)

var (
	red   = color.RGBA{255, 0, 0, 255}
	white = color.RGBA{255, 255, 255, 255}
)

// picturePainter replays a fixed picture.
type picturePainter struct {
	pic   *picture.Picture
	calls int
}

func (p *picturePainter) PaintTile(_ Tile, b picture.Backend) int {
	p.calls++
	if p.pic == nil {
		return 0
	}
	return p.pic.Playback(b)
}

type testTile struct{ layer bool }

func (t testTile) IsLayerTile() bool { return t.layer }

// rectPicture fills a content-space rectangle.
func rectPicture(t *testing.T, x, y, w, h float64, c color.Color) *picture.Picture {
	t.Helper()
	rec := picture.NewRecorder(1024, 1024)
	rec.SetFillColor(c)
	rec.Rectangle(x, y, w, h)
	rec.Fill()
	p := rec.Finish()
	t.Cleanup(p.Unref)
	return p
}

func newInfo(tex Texture, painter TilePainter) *TileRenderInfo {
	return &TileRenderInfo{
		Scale:    1,
		TileSize: image.Pt(64, 64),
		Painter:  painter,
		Tile:     testTile{},
		Texture:  NewTextureInfo(tex, 0),
	}
}

func TestRasterRenderPartialInval(t *testing.T) {
	ctx := NewContext(WithTileSize(64, 64))
	r := ctx.CreateRenderer()
	defer r.Close()
	if r.Type() != Raster {
		t.Fatalf("Type = %v, want raster", r.Type())
	}

	tex := NewMemoryTexture(64, 64)
	painter := &picturePainter{pic: rectPicture(t, 0, 0, 1024, 1024, red)}
	info := newInfo(tex, painter)
	info.InvalRect = image.Rect(10, 10, 20, 30)

	if n := r.Render(info); n != 1 {
		t.Fatalf("Render = %d, want 1", n)
	}
	if info.Texture.PictureCount() != 1 {
		t.Errorf("PictureCount = %d, want 1", info.Texture.PictureCount())
	}
	if tex.Uploads() != 1 {
		t.Errorf("Uploads = %d, want 1", tex.Uploads())
	}
	img := tex.Snapshot()
	if got := img.RGBAAt(15, 25); got != red {
		t.Errorf("inval pixel = %v, want red", got)
	}
	if got := img.RGBAAt(40, 40); got.A != 0 {
		t.Errorf("pixel outside inval = %v, want untouched", got)
	}
}

func TestRasterBackgrounds(t *testing.T) {
	tests := []struct {
		name  string
		layer bool
		want  color.RGBA
	}{
		{"base tile", false, white},
		{"layer tile", true, color.RGBA{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewContext(WithTileSize(64, 64)).CreateRenderer()
			tex := NewMemoryTexture(64, 64)
			_ = tex.Upload(image.Point{}, solid(64, 64, red))

			info := newInfo(tex, &picturePainter{})
			info.Tile = testTile{layer: tt.layer}
			if n := r.Render(info); n != 0 {
				t.Errorf("Render = %d, want 0", n)
			}
			if got := tex.Snapshot().RGBAAt(5, 5); got != tt.want {
				t.Errorf("pixel = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRenderContentTransform(t *testing.T) {
	r := NewContext(WithTileSize(64, 64)).CreateRenderer()
	tex := NewMemoryTexture(64, 64)

	// Content (96,96)-(112,112) lands at (32,32)-(48,48) in tile (1,1), and
	// at (48,48)-(56,56) in tile (0,0) at scale 0.5.
	info := newInfo(tex, &picturePainter{pic: rectPicture(t, 96, 96, 16, 16, red)})
	info.X, info.Y = 1, 1
	r.Render(info)
	img := tex.Snapshot()
	if got := img.RGBAAt(40, 40); got != red {
		t.Errorf("tile-local (40,40) = %v, want red", got)
	}
	if got := img.RGBAAt(10, 10); got != white {
		t.Errorf("tile-local (10,10) = %v, want white", got)
	}

	info.X, info.Y, info.Scale = 0, 0, 0.5
	r.Render(info)
	img = tex.Snapshot()
	if got := img.RGBAAt(50, 50); got != red {
		t.Errorf("scaled (50,50) = %v, want red", got)
	}
	if got := img.RGBAAt(40, 40); got != white {
		t.Errorf("scaled (40,40) = %v, want white", got)
	}
}

func TestRenderWithoutTexture(t *testing.T) {
	for _, typ := range []Type{Raster, Ganesh} {
		r := NewContext(WithType(typ), WithTileSize(64, 64)).CreateRenderer()
		painter := &picturePainter{}
		info := newInfo(nil, painter)
		info.Texture = nil
		if n := r.Render(info); n != 0 {
			t.Errorf("%v: Render = %d, want 0", typ, n)
		}
		if painter.calls != 0 {
			t.Errorf("%v: painter called without a target", typ)
		}
	}
}

func TestGaneshRender(t *testing.T) {
	ctx := NewContext(WithType(Ganesh), WithTileSize(64, 64))
	r := ctx.CreateRenderer()
	defer r.Close()

	tex := NewMemoryTexture(64, 64)
	_ = tex.Upload(image.Point{}, solid(64, 64, red))

	info := newInfo(tex, &picturePainter{pic: rectPicture(t, 0, 0, 8, 8, color.RGBA{0, 0, 255, 255})})
	info.InvalRect = image.Rect(0, 0, 32, 32)
	if n := r.Render(info); n != 1 {
		t.Fatalf("Render = %d, want 1", n)
	}
	img := tex.Snapshot()
	if got := img.RGBAAt(4, 4); got != (color.RGBA{0, 0, 255, 255}) {
		t.Errorf("content pixel = %v, want blue", got)
	}
	if got := img.RGBAAt(20, 20); got != white {
		t.Errorf("cleared inval pixel = %v, want white", got)
	}
	if got := img.RGBAAt(50, 50); got != red {
		t.Errorf("pixel outside inval = %v, want previous red", got)
	}
	if tex.Draws() != 1 || tex.Uploads() != 1 {
		t.Errorf("Draws=%d Uploads=%d, want 1 and 1", tex.Draws(), tex.Uploads())
	}
}

func TestGaneshRequiresTileSize(t *testing.T) {
	ctx := NewContext(WithType(Ganesh), WithTileSize(64, 64))
	r := ctx.CreateRenderer()
	tex := NewMemoryTexture(32, 32)
	info := newInfo(tex, &picturePainter{pic: rectPicture(t, 0, 0, 8, 8, red)})
	info.TileSize = image.Pt(32, 32)
	if n := r.Render(info); n != 0 {
		t.Errorf("Render = %d, want 0", n)
	}
	if tex.Draws() != 0 {
		t.Error("texture drawn with wrong tile size")
	}
	if ctx.RendererType() != Ganesh {
		t.Error("size mismatch should not trigger fallback")
	}
}

// uploadOnly is a texture without a draw session.
type uploadOnly struct{ m *MemoryTexture }

func (u uploadOnly) Size() image.Point                           { return u.m.Size() }
func (u uploadOnly) Upload(o image.Point, img *image.RGBA) error { return u.m.Upload(o, img) }

func TestGaneshFallsBackToRaster(t *testing.T) {
	ctx := NewContext(WithType(Ganesh), WithTileSize(64, 64))
	r := ctx.CreateRenderer()

	var tex Texture = uploadOnly{NewMemoryTexture(64, 64)}
	if _, ok := tex.(DrawableTexture); ok {
		t.Fatal("test texture must not be drawable")
	}
	if n := r.Render(newInfo(tex, &picturePainter{})); n != 0 {
		t.Errorf("Render = %d, want 0", n)
	}
	if ctx.RendererType() != Raster {
		t.Fatalf("RendererType = %v, want raster after fallback", ctx.RendererType())
	}
	if !ctx.SwapRendererIfNeeded(&r) || r.Type() != Raster {
		t.Errorf("swap after fallback gave %v", r.Type())
	}

	noFallback := NewContext(WithType(Ganesh), WithTileSize(64, 64), WithGPUFallback(false))
	r = noFallback.CreateRenderer()
	r.Render(newInfo(tex, &picturePainter{}))
	if noFallback.RendererType() != Ganesh {
		t.Error("fallback happened with WithGPUFallback(false)")
	}
}

func TestSwapRendererIfNeeded(t *testing.T) {
	var constructed []Type
	ctx := NewContext(WithCreateHook(func(r Renderer) {
		constructed = append(constructed, r.Type())
	}))

	r := ctx.CreateRenderer()
	first := r
	if ctx.SwapRendererIfNeeded(&r) {
		t.Error("swap without type change")
	}
	if r != first || len(constructed) != 1 {
		t.Errorf("renderer replaced without type change (constructed %v)", constructed)
	}

	ctx.SetRendererType(Ganesh)
	if !ctx.SwapRendererIfNeeded(&r) {
		t.Fatal("no swap after type change")
	}
	if r.Type() != Ganesh {
		t.Errorf("Type = %v, want ganesh", r.Type())
	}
	if len(constructed) != 2 || ctx.Created() != 2 {
		t.Errorf("constructed %v, Created %d", constructed, ctx.Created())
	}

	second := r
	if ctx.SwapRendererIfNeeded(&r) || r != second || ctx.Created() != 2 {
		t.Error("second swap with no change should be a no-op")
	}

	var none Renderer
	if !ctx.SwapRendererIfNeeded(&none) || none == nil {
		t.Error("nil renderer should be created")
	}
}

func TestContextsAreIsolated(t *testing.T) {
	a := NewContext()
	b := NewContext()
	a.SetRendererType(Ganesh)
	if b.RendererType() != Raster {
		t.Error("renderer type leaked between contexts")
	}
}

func TestVisualIndicator(t *testing.T) {
	ctx := NewContext(WithTileSize(64, 64), WithVisualIndicator(true))
	r := ctx.CreateRenderer()
	tex := NewMemoryTexture(64, 64)

	info := newInfo(tex, &picturePainter{})
	info.InvalRect = image.Rect(0, 0, 64, 64)
	r.Render(info)

	// White background tinted green away from lines and text.
	got := tex.Snapshot().RGBAAt(50, 32)
	if got.G != 255 || got.R == 255 || got.B == 255 {
		t.Errorf("overlay pixel = %v, want green tint over white", got)
	}

	ctx.SetShowVisualIndicator(false)
	r.Render(info)
	if got := tex.Snapshot().RGBAAt(50, 32); got != white {
		t.Errorf("pixel without overlay = %v, want white", got)
	}
}

func TestOverlayTint(t *testing.T) {
	tests := []struct {
		count int
		alpha uint8
	}{
		{0, 20},
		{1, 21},
		{99, 119},
		{130, 50},
	}
	for _, tt := range tests {
		if got := overlayTint(tt.count).A; got != tt.alpha {
			t.Errorf("overlayTint(%d).A = %d, want %d", tt.count, got, tt.alpha)
		}
	}
}

func TestOverlayText(t *testing.T) {
	r := newRasterRenderer(NewContext())
	info := &TileRenderInfo{X: 2, Y: 3, Scale: 1.5}
	lines := r.overlayText(info, 4)
	if len(lines) != 1 || lines[0] != "(2,3) 1.50, raster c4" {
		t.Errorf("lines = %q", lines)
	}
	info.MeasurePerf = true
	lines = r.overlayText(info, 4)
	if want := 1 + len(r.PerformanceTags()) + 1; len(lines) != want {
		t.Errorf("len(lines) = %d, want %d", len(lines), want)
	}
	if last := lines[len(lines)-1]; last != "total: 0.00ms" {
		t.Errorf("total line = %q", last)
	}
}

func TestMeasurePerf(t *testing.T) {
	for _, typ := range []Type{Raster, Ganesh} {
		r := NewContext(WithType(typ), WithTileSize(64, 64)).CreateRenderer()
		info := newInfo(NewMemoryTexture(64, 64), &picturePainter{})
		info.MeasurePerf = true
		r.Render(info)
		for _, tag := range r.PerformanceTags() {
			if r.Monitor().Samples(tag) != 1 {
				t.Errorf("%v: tag %s has %d samples, want 1", typ, tag, r.Monitor().Samples(tag))
			}
		}
	}
}

func TestPerformanceTags(t *testing.T) {
	raster := NewContext().CreateRenderer()
	want := []string{TagCreateBitmap, TagDrawPicture, TagUpdateTexture, TagDisposeBitmap}
	if got := raster.PerformanceTags(); len(got) != len(want) {
		t.Errorf("raster tags = %v", got)
	}
	ganesh := NewContext(WithType(Ganesh)).CreateRenderer()
	if got := ganesh.PerformanceTags(); len(got) != 3 || got[0] != TagCreateFBO {
		t.Errorf("ganesh tags = %v", got)
	}
}

func TestMemoryTextureErrors(t *testing.T) {
	tex := NewMemoryTexture(8, 8)
	if err := tex.Upload(image.Pt(4, 4), solid(8, 8, red)); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("Upload out of bounds = %v", err)
	}
	if err := tex.EndDraw(); !errors.Is(err, ErrNoDraw) {
		t.Errorf("EndDraw without BeginDraw = %v", err)
	}
	if _, err := tex.BeginDraw(); err != nil {
		t.Fatalf("BeginDraw: %v", err)
	}
	if _, err := tex.BeginDraw(); !errors.Is(err, ErrDrawInProgress) {
		t.Errorf("second BeginDraw = %v", err)
	}
	if err := tex.EndDraw(); err != nil {
		t.Errorf("EndDraw: %v", err)
	}
}

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}
