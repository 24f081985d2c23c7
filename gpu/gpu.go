//go:build !nogpu

// Package gpu provides tile textures backed by gogpu/wgpu hal.
//
// The host application owns the device. A TextureFactory is created from
// the host's hal device and queue, either directly or from a provider that
// exposes them:
//
//	f, err := gpu.NewTextureFactoryFromProvider(app)
//	tex, err := f.NewTexture(256, 256)
//	info := render.NewTextureInfo(tex, f.Format())
//
// Textures implement render.DrawableTexture, so both the raster and the
// GPU renderer can target them.
package gpu

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

var (
	// ErrNoHAL is returned when no hal device or queue is available.
	ErrNoHAL = errors.New("gpu: hal device not available")

	// ErrInvalidSize is returned for non-positive texture dimensions.
	ErrInvalidSize = errors.New("gpu: invalid texture size")

	// ErrDestroyed is returned when using a destroyed texture.
	ErrDestroyed = errors.New("gpu: texture destroyed")
)

// TextureFactory creates tile textures on a shared hal device.
type TextureFactory struct {
	device hal.Device
	queue  hal.Queue
	format gputypes.TextureFormat
}

// FactoryOption configures a TextureFactory.
type FactoryOption func(*TextureFactory)

// WithFormat sets the tile texture format. Only RGBA8Unorm and BGRA8Unorm
// are accepted; other values are ignored.
func WithFormat(f gputypes.TextureFormat) FactoryOption {
	return func(tf *TextureFactory) {
		switch f {
		case gputypes.TextureFormatRGBA8Unorm, gputypes.TextureFormatBGRA8Unorm:
			tf.format = f
		}
	}
}

// NewTextureFactory creates a factory on device and queue.
func NewTextureFactory(device hal.Device, queue hal.Queue, opts ...FactoryOption) (*TextureFactory, error) {
	if device == nil || queue == nil {
		return nil, ErrNoHAL
	}
	f := &TextureFactory{
		device: device,
		queue:  queue,
		format: gputypes.TextureFormatRGBA8Unorm,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// NewTextureFactoryFromProvider creates a factory from a provider that
// implements HalDevice() any and HalQueue() any returning hal.Device and
// hal.Queue.
func NewTextureFactoryFromProvider(provider any, opts ...FactoryOption) (*TextureFactory, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, fmt.Errorf("%w: provider does not expose HAL types", ErrNoHAL)
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: provider HalDevice is not hal.Device", ErrNoHAL)
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("%w: provider HalQueue is not hal.Queue", ErrNoHAL)
	}
	return NewTextureFactory(device, queue, opts...)
}

// Format returns the format of created textures.
func (f *TextureFactory) Format() gputypes.TextureFormat {
	return f.format
}

// Device returns the hal device.
func (f *TextureFactory) Device() hal.Device {
	return f.device
}

// NewTexture creates a width x height tile texture.
func (f *TextureFactory) NewTexture(width, height int) (*Texture, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	tex, err := f.device.CreateTexture(&hal.TextureDescriptor{
		Label: "tile_texture",
		Size: hal.Extent3D{
			Width:              uint32(width),
			Height:             uint32(height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        f.format,
		Usage: gputypes.TextureUsageTextureBinding |
			gputypes.TextureUsageCopyDst |
			gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: create tile texture: %w", err)
	}
	return newTexture(f, tex, width, height), nil
}
