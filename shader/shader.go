package shader

import (
	_ "embed"
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"
)

//go:embed shaders/layer_quad.wgsl
var layerQuadSource string

//go:embed shaders/video_quad.wgsl
var videoQuadSource string

// Program names accepted by Source and Compile.
const (
	LayerQuad = "layer_quad"
	VideoQuad = "video_quad"
)

var (
	// ErrUnknownProgram is returned for a program name that has no source.
	ErrUnknownProgram = errors.New("shader: unknown program")

	// ErrNoDevice is returned by AttachDevice when the device is nil.
	ErrNoDevice = errors.New("shader: no device")
)

// Source returns the WGSL source of the named program.
func Source(name string) (string, error) {
	switch name {
	case LayerQuad:
		return layerQuadSource, nil
	case VideoQuad:
		return videoQuadSource, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownProgram, name)
}

// Compile translates the named program to SPIR-V.
func Compile(name string) ([]byte, error) {
	src, err := Source(name)
	if err != nil {
		return nil, err
	}
	spirv, err := naga.Compile(src)
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", name, err)
	}
	return spirv, nil
}

// Target is the texture binding point a quad samples from.
type Target uint8

const (
	// Texture2D is an ordinary 2D texture such as a tile.
	Texture2D Target = iota
	// ExternalOES is a texture fed by an external producer.
	ExternalOES
)

func (t Target) String() string {
	if t == ExternalOES {
		return "external_oes"
	}
	return "texture_2d"
}

// Kind distinguishes the two quad programs.
type Kind uint8

const (
	KindLayer Kind = iota
	KindVideo
)

// Quad is one recorded draw.
type Quad struct {
	Kind Kind
	// Matrix maps the unit square to clip space.
	Matrix Matrix4
	// TexMatrix is the producer transform for video quads.
	TexMatrix Matrix4
	Texture   uint32
	Opacity   float32
	Blend     bool
	Target    Target
	Inverted  bool
	Contrast  float32
}

// Sink receives quads drained by Flush.
type Sink interface {
	DrawQuad(q Quad)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Quad)

// DrawQuad calls f(q).
func (f SinkFunc) DrawQuad(q Quad) { f(q) }

// Program batches quad draws. It is safe for concurrent use.
type Program struct {
	mu         sync.Mutex
	projection Matrix4
	inverted   bool
	contrast   float32
	quads      []Quad

	device hal.Device
	layer  hal.ShaderModule
	video  hal.ShaderModule
}

// NewProgram returns a program with an identity projection.
func NewProgram() *Program {
	return &Program{projection: Identity4(), contrast: 1}
}

// SetProjection sets the matrix applied after every draw matrix.
func (p *Program) SetProjection(m Matrix4) {
	p.mu.Lock()
	p.projection = m
	p.mu.Unlock()
}

// SetInverted switches layer quads to the inverted-colors pass.
func (p *Program) SetInverted(inverted bool, contrast float32) {
	p.mu.Lock()
	p.inverted = inverted
	p.contrast = contrast
	p.mu.Unlock()
}

// DrawLayerQuad records a textured quad covering bounds in the space of
// draw. Blending is enabled when forced or when opacity is below one.
func (p *Program) DrawLayerQuad(draw Matrix4, bounds Rect, texture uint32, opacity float32, forceBlending bool, target Target) {
	if bounds.IsEmpty() {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.quads = append(p.quads, Quad{
		Kind:     KindLayer,
		Matrix:   p.projection.Multiply(draw).Multiply(bounds.geometry()),
		Texture:  texture,
		Opacity:  opacity,
		Blend:    forceBlending || opacity < 1,
		Target:   target,
		Inverted: p.inverted,
		Contrast: p.contrast,
	})
}

// DrawVideoLayerQuad records an opaque video frame quad. texMatrix is the
// producer's transform for the current frame.
func (p *Program) DrawVideoLayerQuad(draw, texMatrix Matrix4, bounds Rect, texture uint32) {
	if bounds.IsEmpty() {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.quads = append(p.quads, Quad{
		Kind:      KindVideo,
		Matrix:    p.projection.Multiply(draw).Multiply(bounds.geometry()),
		TexMatrix: texMatrix,
		Texture:   texture,
		Opacity:   1,
		Target:    ExternalOES,
	})
}

// Pending returns the number of recorded quads.
func (p *Program) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.quads)
}

// Flush hands every recorded quad to s in order and clears the batch.
func (p *Program) Flush(s Sink) int {
	p.mu.Lock()
	quads := p.quads
	p.quads = nil
	p.mu.Unlock()
	for _, q := range quads {
		s.DrawQuad(q)
	}
	return len(quads)
}

// AttachDevice creates hal shader modules for both programs on device.
func (p *Program) AttachDevice(device hal.Device) error {
	if device == nil {
		return ErrNoDevice
	}
	layer, err := device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  LayerQuad,
		Source: hal.ShaderSource{WGSL: layerQuadSource},
	})
	if err != nil {
		return fmt.Errorf("create %s module: %w", LayerQuad, err)
	}
	video, err := device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  VideoQuad,
		Source: hal.ShaderSource{WGSL: videoQuadSource},
	})
	if err != nil {
		device.DestroyShaderModule(layer)
		return fmt.Errorf("create %s module: %w", VideoQuad, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.releaseLocked()
	p.device, p.layer, p.video = device, layer, video
	return nil
}

// HasModules reports whether shader modules are attached.
func (p *Program) HasModules() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.layer != nil && p.video != nil
}

// Release destroys attached shader modules.
func (p *Program) Release() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.releaseLocked()
}

func (p *Program) releaseLocked() {
	if p.device == nil {
		return
	}
	if p.layer != nil {
		p.device.DestroyShaderModule(p.layer)
	}
	if p.video != nil {
		p.device.DestroyShaderModule(p.video)
	}
	p.device, p.layer, p.video = nil, nil, nil
}
