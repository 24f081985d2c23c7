//go:build !nogpu

package gpu

import (
	"fmt"
	"image"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/tiles/canvas"
	"github.com/gogpu/tiles/render"
)

// Texture is a tile texture on the GPU.
//
// The texture keeps a CPU mirror of its contents. Uploads write through the
// queue and update the mirror; a draw session edits the mirror and flushes
// it with a single write on EndDraw. Texture is safe for concurrent use.
type Texture struct {
	mu        sync.Mutex
	factory   *TextureFactory
	tex       hal.Texture
	width     int
	height    int
	mirror    *image.RGBA
	drawing   bool
	destroyed bool
	writes    int
}

func newTexture(f *TextureFactory, tex hal.Texture, width, height int) *Texture {
	return &Texture{
		factory: f,
		tex:     tex,
		width:   width,
		height:  height,
		mirror:  image.NewRGBA(image.Rect(0, 0, width, height)),
	}
}

// Size returns the texture size in pixels.
func (t *Texture) Size() image.Point {
	return image.Pt(t.width, t.height)
}

// Format returns the texture format.
func (t *Texture) Format() gputypes.TextureFormat {
	return t.factory.format
}

// HalTexture returns the underlying hal texture, or nil once destroyed.
func (t *Texture) HalTexture() hal.Texture {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.destroyed {
		return nil
	}
	return t.tex
}

// Writes returns the number of queue writes issued.
func (t *Texture) Writes() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.writes
}

// Upload writes img into the texture with its origin at offset.
func (t *Texture) Upload(offset image.Point, img *image.RGBA) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.destroyed {
		return ErrDestroyed
	}
	if t.drawing {
		return render.ErrDrawInProgress
	}
	src := img.Bounds()
	dst := image.Rectangle{Min: offset, Max: offset.Add(src.Size())}
	if !dst.In(t.mirror.Bounds()) {
		return fmt.Errorf("%w: %v in %v", render.ErrOutOfBounds, dst, t.mirror.Bounds())
	}
	if dst.Empty() {
		return nil
	}
	for y := 0; y < src.Dy(); y++ {
		from := img.PixOffset(src.Min.X, src.Min.Y+y)
		to := t.mirror.PixOffset(dst.Min.X, dst.Min.Y+y)
		copy(t.mirror.Pix[to:to+4*src.Dx()], img.Pix[from:from+4*src.Dx()])
	}
	t.write(dst)
	return nil
}

// BeginDraw opens a draw session on the texture mirror.
func (t *Texture) BeginDraw() (*canvas.Canvas, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.destroyed {
		return nil, ErrDestroyed
	}
	if t.drawing {
		return nil, render.ErrDrawInProgress
	}
	t.drawing = true
	return canvas.NewFromImage(t.mirror), nil
}

// EndDraw flushes the mirror to the GPU and closes the draw session.
func (t *Texture) EndDraw() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.drawing {
		return render.ErrNoDraw
	}
	t.drawing = false
	if t.destroyed {
		return ErrDestroyed
	}
	t.write(t.mirror.Bounds())
	return nil
}

// Destroy releases the GPU texture. Destroy is idempotent.
func (t *Texture) Destroy() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.destroyed {
		return
	}
	t.destroyed = true
	t.factory.device.DestroyTexture(t.tex)
	t.tex = nil
}

// write sends the mirror pixels inside r to the GPU. Caller holds t.mu.
func (t *Texture) write(r image.Rectangle) {
	data := packRows(t.mirror, r, t.factory.format == gputypes.TextureFormatBGRA8Unorm)
	t.factory.queue.WriteTexture(
		&hal.ImageCopyTexture{
			Texture:  t.tex,
			MipLevel: 0,
			Origin:   hal.Origin3D{X: uint32(r.Min.X), Y: uint32(r.Min.Y), Z: 0},
		},
		data,
		&hal.ImageDataLayout{
			Offset:       0,
			BytesPerRow:  uint32(4 * r.Dx()),
			RowsPerImage: uint32(r.Dy()),
		},
		&hal.Extent3D{Width: uint32(r.Dx()), Height: uint32(r.Dy()), DepthOrArrayLayers: 1},
	)
	t.writes++
}

// packRows copies the pixels of img inside r into a tightly packed buffer,
// swapping red and blue when bgra is set.
func packRows(img *image.RGBA, r image.Rectangle, bgra bool) []byte {
	rowBytes := 4 * r.Dx()
	out := make([]byte, rowBytes*r.Dy())
	for y := 0; y < r.Dy(); y++ {
		from := img.PixOffset(r.Min.X, r.Min.Y+y)
		copy(out[y*rowBytes:(y+1)*rowBytes], img.Pix[from:from+rowBytes])
	}
	if bgra {
		for i := 0; i < len(out); i += 4 {
			out[i], out[i+2] = out[i+2], out[i]
		}
	}
	return out
}

var _ render.DrawableTexture = (*Texture)(nil)
