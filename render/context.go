// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"fmt"
	"image"
	"log/slog"
	"sync/atomic"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/tiles"
)

// Default tile dimensions.
const (
	DefaultTileWidth  = 256
	DefaultTileHeight = 256
)

// Context carries the rendering configuration shared by every renderer of
// a tile subsystem: the selected strategy, the debug overlay flag, the tile
// size and the host device.
//
// The renderer type and overlay flag may be changed from any goroutine.
// Renderers pick up a type change at the next SwapRendererIfNeeded.
type Context struct {
	typ       atomic.Int32
	indicator atomic.Bool
	fallback  bool
	tileSize  image.Point
	device    DeviceHandle
	logger    *slog.Logger
	onCreate  func(Renderer)
	created   atomic.Int64
}

// Option configures a Context.
type Option func(*Context)

// WithType sets the initial renderer type. Default: Raster.
func WithType(t Type) Option {
	return func(c *Context) {
		c.typ.Store(int32(t))
	}
}

// WithTileSize sets the tile size in pixels.
func WithTileSize(width, height int) Option {
	return func(c *Context) {
		c.tileSize = image.Pt(width, height)
	}
}

// WithVisualIndicator enables the debug overlay.
func WithVisualIndicator(on bool) Option {
	return func(c *Context) {
		c.indicator.Store(on)
	}
}

// WithDevice sets the host GPU device.
func WithDevice(h DeviceHandle) Option {
	return func(c *Context) {
		c.device = h
	}
}

// WithLogger sets the logger. By default the module logger is used.
func WithLogger(l *slog.Logger) Option {
	return func(c *Context) {
		c.logger = l
	}
}

// WithCreateHook installs fn to run for every renderer the context creates.
func WithCreateHook(fn func(Renderer)) Option {
	return func(c *Context) {
		c.onCreate = fn
	}
}

// WithGPUFallback controls whether a GPU draw failure switches the context
// back to Raster. Default: true.
func WithGPUFallback(on bool) Option {
	return func(c *Context) {
		c.fallback = on
	}
}

// NewContext creates a Context.
func NewContext(opts ...Option) *Context {
	c := &Context{
		fallback: true,
		tileSize: image.Pt(DefaultTileWidth, DefaultTileHeight),
		device:   NullDeviceHandle{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewContextFromConfig creates a Context from a module config.
func NewContextFromConfig(cfg *tiles.Config, opts ...Option) (*Context, error) {
	t, err := ParseType(cfg.Renderer)
	if err != nil {
		return nil, err
	}
	base := []Option{
		WithType(t),
		WithTileSize(cfg.TileWidth, cfg.TileHeight),
		WithVisualIndicator(cfg.ShowVisualIndicator),
	}
	return NewContext(append(base, opts...)...), nil
}

// ApplyConfig updates the runtime-switchable settings from cfg.
func (c *Context) ApplyConfig(cfg *tiles.Config) error {
	t, err := ParseType(cfg.Renderer)
	if err != nil {
		return fmt.Errorf("render: apply config: %w", err)
	}
	c.SetRendererType(t)
	c.SetShowVisualIndicator(cfg.ShowVisualIndicator)
	return nil
}

// RendererType returns the selected renderer type.
func (c *Context) RendererType() Type {
	return Type(c.typ.Load())
}

// SetRendererType selects the renderer type for subsequently created or
// swapped renderers.
func (c *Context) SetRendererType(t Type) {
	if old := Type(c.typ.Swap(int32(t))); old != t {
		c.log().Info("render: renderer type changed", "from", old, "to", t)
	}
}

// ShowVisualIndicator reports whether the debug overlay is enabled.
func (c *Context) ShowVisualIndicator() bool {
	return c.indicator.Load()
}

// SetShowVisualIndicator enables or disables the debug overlay.
func (c *Context) SetShowVisualIndicator(on bool) {
	c.indicator.Store(on)
}

// TileSize returns the tile size in pixels.
func (c *Context) TileSize() image.Point {
	return c.tileSize
}

// Device returns the host device handle.
func (c *Context) Device() DeviceHandle {
	return c.device
}

// HasGPU reports whether the host provided a real device.
func (c *Context) HasGPU() bool {
	return hasDevice(c.device)
}

// TextureFormat returns the format tile textures should be created with.
func (c *Context) TextureFormat() gputypes.TextureFormat {
	return tileFormat(c.device)
}

// Created returns how many renderers the context has created.
func (c *Context) Created() int64 {
	return c.created.Load()
}

// CreateRenderer instantiates the currently selected strategy.
func (c *Context) CreateRenderer() Renderer {
	var r Renderer
	switch t := c.RendererType(); t {
	case Ganesh:
		r = newGaneshRenderer(c)
	default:
		r = newRasterRenderer(c)
	}
	c.created.Add(1)
	c.log().Debug("render: renderer created", "type", r.Type())
	if c.onCreate != nil {
		c.onCreate(r)
	}
	return r
}

// SwapRendererIfNeeded replaces *r with a new renderer when its type no
// longer matches the selected type, closing the old one. It reports
// whether a swap happened. A nil *r is always replaced.
func (c *Context) SwapRendererIfNeeded(r *Renderer) bool {
	if *r != nil && (*r).Type() == c.RendererType() {
		return false
	}
	if *r != nil {
		(*r).Close()
	}
	*r = c.CreateRenderer()
	return true
}

// fallBackToRaster is called by the GPU path when it cannot draw.
func (c *Context) fallBackToRaster(err error) {
	if !c.fallback {
		return
	}
	c.log().Warn("render: GPU target unavailable, falling back to raster", "err", err)
	c.SetRendererType(Raster)
}

func (c *Context) log() *slog.Logger {
	if c.logger != nil {
		return c.logger
	}
	return tiles.Logger()
}
