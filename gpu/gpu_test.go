//go:build !nogpu

package gpu

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"

	"github.com/gogpu/tiles/render"
)

// createNoopDevice creates a noop device and queue for testing.
func createNoopDevice(t *testing.T) (hal.Device, hal.Queue) {
	t.Helper()
	api := noop.API{}
	instance, err := api.CreateInstance(nil)
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() {
		openDev.Device.Destroy()
		instance.Destroy()
	})
	return openDev.Device, openDev.Queue
}

type halProvider struct {
	device any
	queue  any
}

func (p halProvider) HalDevice() any { return p.device }
func (p halProvider) HalQueue() any  { return p.queue }

func TestNewTextureFactoryErrors(t *testing.T) {
	if _, err := NewTextureFactory(nil, nil); !errors.Is(err, ErrNoHAL) {
		t.Errorf("NewTextureFactory(nil) = %v, want ErrNoHAL", err)
	}
	if _, err := NewTextureFactoryFromProvider(struct{}{}); !errors.Is(err, ErrNoHAL) {
		t.Errorf("provider without HAL = %v, want ErrNoHAL", err)
	}
	if _, err := NewTextureFactoryFromProvider(halProvider{device: 1, queue: 2}); !errors.Is(err, ErrNoHAL) {
		t.Errorf("provider with wrong types = %v, want ErrNoHAL", err)
	}
}

func TestFactoryFromProvider(t *testing.T) {
	device, queue := createNoopDevice(t)
	f, err := NewTextureFactoryFromProvider(halProvider{device: device, queue: queue},
		WithFormat(gputypes.TextureFormatBGRA8Unorm))
	if err != nil {
		t.Fatalf("NewTextureFactoryFromProvider: %v", err)
	}
	if f.Format() != gputypes.TextureFormatBGRA8Unorm {
		t.Errorf("Format = %v", f.Format())
	}
	if f.Device() != device {
		t.Error("Device not stored")
	}

	g, _ := NewTextureFactory(device, queue, WithFormat(gputypes.TextureFormatDepth24PlusStencil8))
	if g.Format() != gputypes.TextureFormatRGBA8Unorm {
		t.Errorf("unsupported format accepted: %v", g.Format())
	}
}

func TestTextureLifecycle(t *testing.T) {
	device, queue := createNoopDevice(t)
	f, err := NewTextureFactory(device, queue)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.NewTexture(0, 10); !errors.Is(err, ErrInvalidSize) {
		t.Errorf("NewTexture(0,10) = %v, want ErrInvalidSize", err)
	}

	tex, err := f.NewTexture(32, 32)
	if err != nil {
		t.Fatalf("NewTexture: %v", err)
	}
	if tex.Size() != image.Pt(32, 32) || tex.HalTexture() == nil {
		t.Fatalf("Size = %v, hal = %v", tex.Size(), tex.HalTexture())
	}

	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	img.SetRGBA(0, 0, color.RGBA{255, 0, 0, 255})
	if err := tex.Upload(image.Pt(4, 4), img); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if err := tex.Upload(image.Pt(30, 30), img); !errors.Is(err, render.ErrOutOfBounds) {
		t.Errorf("out of bounds Upload = %v", err)
	}

	c, err := tex.BeginDraw()
	if err != nil {
		t.Fatalf("BeginDraw: %v", err)
	}
	if got := c.Image().RGBAAt(4, 4); got != (color.RGBA{255, 0, 0, 255}) {
		t.Errorf("mirror pixel = %v, want uploaded red", got)
	}
	if _, err := tex.BeginDraw(); !errors.Is(err, render.ErrDrawInProgress) {
		t.Errorf("nested BeginDraw = %v", err)
	}
	if err := tex.Upload(image.Point{}, img); !errors.Is(err, render.ErrDrawInProgress) {
		t.Errorf("Upload during draw = %v", err)
	}
	if err := tex.EndDraw(); err != nil {
		t.Fatalf("EndDraw: %v", err)
	}
	if err := tex.EndDraw(); !errors.Is(err, render.ErrNoDraw) {
		t.Errorf("second EndDraw = %v", err)
	}
	if tex.Writes() != 2 {
		t.Errorf("Writes = %d, want 2", tex.Writes())
	}

	tex.Destroy()
	tex.Destroy()
	if tex.HalTexture() != nil {
		t.Error("HalTexture after Destroy")
	}
	if err := tex.Upload(image.Point{}, img); !errors.Is(err, ErrDestroyed) {
		t.Errorf("Upload after Destroy = %v", err)
	}
	if _, err := tex.BeginDraw(); !errors.Is(err, ErrDestroyed) {
		t.Errorf("BeginDraw after Destroy = %v", err)
	}
}

func TestRenderIntoGPUTexture(t *testing.T) {
	device, queue := createNoopDevice(t)
	f, _ := NewTextureFactory(device, queue)
	tex, err := f.NewTexture(64, 64)
	if err != nil {
		t.Fatal(err)
	}
	defer tex.Destroy()

	ctx := render.NewContext(render.WithType(render.Ganesh), render.WithTileSize(64, 64))
	r := ctx.CreateRenderer()
	info := &render.TileRenderInfo{
		Scale:    1,
		TileSize: image.Pt(64, 64),
		Texture:  render.NewTextureInfo(tex, f.Format()),
	}
	r.Render(info)
	if tex.Writes() != 1 {
		t.Errorf("Writes = %d, want 1 flush", tex.Writes())
	}
}

func TestPackRows(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.SetRGBA(1, 1, color.RGBA{1, 2, 3, 4})
	img.SetRGBA(2, 2, color.RGBA{5, 6, 7, 8})

	got := packRows(img, image.Rect(1, 1, 3, 3), false)
	if len(got) != 16 {
		t.Fatalf("len = %d, want 16", len(got))
	}
	if got[0] != 1 || got[3] != 4 || got[12] != 5 {
		t.Errorf("packed = %v", got)
	}

	bgra := packRows(img, image.Rect(1, 1, 3, 3), true)
	if bgra[0] != 3 || bgra[2] != 1 || bgra[12] != 7 || bgra[14] != 5 {
		t.Errorf("bgra = %v", bgra)
	}
}
