// Package pipeline performs the one-time GPU setup for GUI rendering: shader,
// font atlas texture and sampler, bind group layouts, render pipeline,
// uniform buffer and the common bind group.
package pipeline

import (
	_ "embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/imrender/draw"
	"github.com/gogpu/imrender/internal/release"
)

// Embedded GUI shader source.
//
//go:embed shaders/imgui.wgsl
var ShaderSource string

// Pipeline setup errors.
var (
	// ErrEmptyFont is returned when the font atlas has no pixels.
	ErrEmptyFont = errors.New("pipeline: font atlas is empty")

	// ErrFontSize is returned when the pixel slice does not match the atlas size.
	ErrFontSize = errors.New("pipeline: font atlas pixel count mismatch")

	// ErrBadDepthFormat is returned for a depth format without a depth aspect.
	ErrBadDepthFormat = errors.New("pipeline: depth format has no depth aspect")
)

// ShaderFormat selects how the shader is handed to the device.
type ShaderFormat int

const (
	// ShaderFormatWGSL passes the WGSL text to the device.
	ShaderFormatWGSL ShaderFormat = iota

	// ShaderFormatSPIRV compiles the WGSL with naga and passes SPIR-V words.
	ShaderFormatSPIRV
)

// String implements fmt.Stringer.
func (f ShaderFormat) String() string {
	switch f {
	case ShaderFormatWGSL:
		return "wgsl"
	case ShaderFormatSPIRV:
		return "spirv"
	default:
		return fmt.Sprintf("ShaderFormat(%d)", int(f))
	}
}

// FontImage is the rasterized font atlas in RGBA8, row-major, no padding.
type FontImage struct {
	Pixels        []byte
	Width, Height int
}

// Config describes what to build.
type Config struct {
	ColorFormat  gputypes.TextureFormat
	DepthFormat  gputypes.TextureFormat // TextureFormatUndefined for none
	ShaderFormat ShaderFormat
	// Gamma overrides the format-derived gamma when positive.
	Gamma float32
	Font  FontImage
}

// Resources holds the long-lived handles used on every frame.
type Resources struct {
	device hal.Device
	rs     release.Stack

	Shader         hal.ShaderModule
	FontTexture    hal.Texture
	FontView       hal.TextureView
	Sampler        hal.Sampler
	CommonLayout   hal.BindGroupLayout
	ImageLayout    hal.BindGroupLayout
	PipelineLayout hal.PipelineLayout
	Pipeline       hal.RenderPipeline
	Uniforms       hal.Buffer
	CommonGroup    hal.BindGroup

	ColorFormat gputypes.TextureFormat
	DepthFormat gputypes.TextureFormat
	Gamma       float32
}

// New creates every resource described by cfg. On failure, whatever was
// created so far is destroyed in reverse order before the error is returned.
func New(device hal.Device, queue hal.Queue, cfg Config, log *slog.Logger) (*Resources, error) {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	if cfg.DepthFormat != gputypes.TextureFormatUndefined && !cfg.DepthFormat.HasDepth() {
		return nil, fmt.Errorf("%w: %v", ErrBadDepthFormat, cfg.DepthFormat)
	}

	r := &Resources{
		device:      device,
		ColorFormat: cfg.ColorFormat,
		DepthFormat: cfg.DepthFormat,
		Gamma:       cfg.Gamma,
	}
	if r.Gamma <= 0 {
		r.Gamma = GammaFor(cfg.ColorFormat)
	}
	defer r.rs.ReleaseUnlessKept()

	steps := []struct {
		name string
		fn   func() error
	}{
		{"create shader module", func() error { return r.createShader(cfg.ShaderFormat) }},
		{"create font texture", func() error { return r.createFontTexture(queue, cfg.Font) }},
		{"create sampler", r.createSampler},
		{"create bind group layouts", r.createLayouts},
		{"create render pipeline", r.createPipeline},
		{"create uniform buffer", r.createUniforms},
		{"create common bind group", r.createCommonGroup},
	}
	for _, s := range steps {
		if err := s.fn(); err != nil {
			return nil, fmt.Errorf("pipeline: %s: %w", s.name, err)
		}
	}

	r.rs.Keep()
	log.Info("pipeline: resources created",
		"color_format", cfg.ColorFormat,
		"depth", cfg.DepthFormat != gputypes.TextureFormatUndefined,
		"shader", cfg.ShaderFormat,
		"gamma", r.Gamma,
		"font", fmt.Sprintf("%dx%d", cfg.Font.Width, cfg.Font.Height))
	return r, nil
}

// Release destroys every resource in reverse creation order.
// Calling it more than once is a no-op.
func (r *Resources) Release() {
	r.rs.Release()
}

// WriteUniforms uploads the projection for the given display rectangle.
func (r *Resources) WriteUniforms(queue hal.Queue, pos, size draw.Vec2) error {
	buf := EncodeUniforms(Ortho(pos, size), r.Gamma)
	if err := queue.WriteBuffer(r.Uniforms, 0, buf[:]); err != nil {
		return fmt.Errorf("pipeline: upload uniforms: %w", err)
	}
	return nil
}

func (r *Resources) createShader(format ShaderFormat) error {
	if ShaderSource == "" {
		return errors.New("shader source is empty")
	}
	desc := &hal.ShaderModuleDescriptor{Label: "imgui_shader"}
	switch format {
	case ShaderFormatWGSL:
		desc.Source = hal.ShaderSource{WGSL: ShaderSource}
	case ShaderFormatSPIRV:
		words, err := CompileSPIRV(ShaderSource)
		if err != nil {
			return err
		}
		desc.Source = hal.ShaderSource{SPIRV: words}
	default:
		return fmt.Errorf("unknown shader format %v", format)
	}

	shader, err := r.device.CreateShaderModule(desc)
	if err != nil {
		return err
	}
	r.Shader = shader
	r.rs.Push(func() { r.device.DestroyShaderModule(shader); r.Shader = nil })
	return nil
}

// CompileSPIRV compiles WGSL source to SPIR-V words.
func CompileSPIRV(src string) ([]uint32, error) {
	bytes, err := naga.Compile(src)
	if err != nil {
		return nil, fmt.Errorf("compile wgsl: %w", err)
	}
	if len(bytes)%4 != 0 {
		return nil, fmt.Errorf("compile wgsl: spir-v length %d is not word aligned", len(bytes))
	}
	// SPIR-V is little-endian 32-bit words.
	words := make([]uint32, len(bytes)/4)
	for i := range words {
		words[i] = uint32(bytes[i*4]) |
			uint32(bytes[i*4+1])<<8 |
			uint32(bytes[i*4+2])<<16 |
			uint32(bytes[i*4+3])<<24
	}
	return words, nil
}

func (r *Resources) createFontTexture(queue hal.Queue, font FontImage) error {
	if font.Width <= 0 || font.Height <= 0 {
		return ErrEmptyFont
	}
	if len(font.Pixels) != font.Width*font.Height*4 {
		return fmt.Errorf("%w: %d bytes for %dx%d", ErrFontSize, len(font.Pixels), font.Width, font.Height)
	}
	w, h := uint32(font.Width), uint32(font.Height) //nolint:gosec // checked positive above

	tex, err := r.device.CreateTexture(&hal.TextureDescriptor{
		Label:         "imgui_font_texture",
		Size:          hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		return err
	}
	r.FontTexture = tex
	r.rs.Push(func() { r.device.DestroyTexture(tex); r.FontTexture = nil })

	view, err := r.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         "imgui_font_texture_view",
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		return fmt.Errorf("view: %w", err)
	}
	r.FontView = view
	r.rs.Push(func() { r.device.DestroyTextureView(view); r.FontView = nil })

	err = queue.WriteTexture(
		&hal.ImageCopyTexture{Texture: tex, MipLevel: 0},
		font.Pixels,
		&hal.ImageDataLayout{Offset: 0, BytesPerRow: w * 4, RowsPerImage: h},
		&hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
	)
	if err != nil {
		return fmt.Errorf("upload: %w", err)
	}
	return nil
}

func (r *Resources) createSampler() error {
	sampler, err := r.device.CreateSampler(&hal.SamplerDescriptor{
		Label:        "imgui_sampler",
		AddressModeU: gputypes.AddressModeRepeat,
		AddressModeV: gputypes.AddressModeRepeat,
		AddressModeW: gputypes.AddressModeRepeat,
		MagFilter:    gputypes.FilterModeLinear,
		MinFilter:    gputypes.FilterModeLinear,
		MipmapFilter: gputypes.FilterModeLinear,
		LodMaxClamp:  32,
		Anisotropy:   1,
	})
	if err != nil {
		return err
	}
	r.Sampler = sampler
	r.rs.Push(func() { r.device.DestroySampler(sampler); r.Sampler = nil })
	return nil
}

// createLayouts builds the two bind group layouts:
//
//	group 0 (common): binding 0 uniforms (vertex+fragment), binding 1 sampler
//	group 1 (image):  binding 0 texture_2d<f32>
func (r *Resources) createLayouts() error {
	common, err := r.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "imgui_common_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
			{
				Binding:    1,
				Visibility: gputypes.ShaderStageFragment,
				Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("common: %w", err)
	}
	r.CommonLayout = common
	r.rs.Push(func() { r.device.DestroyBindGroupLayout(common); r.CommonLayout = nil })

	image, err := r.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "imgui_image_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageFragment,
				Texture: &gputypes.TextureBindingLayout{
					SampleType:    gputypes.TextureSampleTypeFloat,
					ViewDimension: gputypes.TextureViewDimension2D,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("image: %w", err)
	}
	r.ImageLayout = image
	r.rs.Push(func() { r.device.DestroyBindGroupLayout(image); r.ImageLayout = nil })

	layout, err := r.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "imgui_pipeline_layout",
		BindGroupLayouts: []hal.BindGroupLayout{common, image},
	})
	if err != nil {
		return fmt.Errorf("pipeline layout: %w", err)
	}
	r.PipelineLayout = layout
	r.rs.Push(func() { r.device.DestroyPipelineLayout(layout); r.PipelineLayout = nil })
	return nil
}

func (r *Resources) createPipeline() error {
	blend := gputypes.BlendStateAlpha()
	desc := &hal.RenderPipelineDescriptor{
		Label:  "imgui_pipeline",
		Layout: r.PipelineLayout,
		Vertex: hal.VertexState{
			Module:     r.Shader,
			EntryPoint: "vs_main",
			Buffers:    VertexLayout(),
		},
		Fragment: &hal.FragmentState{
			Module:     r.Shader,
			EntryPoint: "fs_main",
			Targets: []gputypes.ColorTargetState{
				{
					Format:    r.ColorFormat,
					Blend:     &blend,
					WriteMask: gputypes.ColorWriteMaskAll,
				},
			},
		},
		Primitive: gputypes.PrimitiveState{
			Topology:  gputypes.PrimitiveTopologyTriangleList,
			FrontFace: gputypes.FrontFaceCW,
			CullMode:  gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	}
	if r.DepthFormat != gputypes.TextureFormatUndefined {
		desc.DepthStencil = depthStencilState(r.DepthFormat)
	}

	pipeline, err := r.device.CreateRenderPipeline(desc)
	if err != nil {
		return err
	}
	r.Pipeline = pipeline
	r.rs.Push(func() { r.device.DestroyRenderPipeline(pipeline); r.Pipeline = nil })
	return nil
}

// depthStencilState passes every fragment and writes nothing, so the GUI
// draws over whatever depth the host pass holds.
func depthStencilState(format gputypes.TextureFormat) *hal.DepthStencilState {
	keep := hal.StencilFaceState{
		Compare:     gputypes.CompareFunctionAlways,
		FailOp:      hal.StencilOperationKeep,
		DepthFailOp: hal.StencilOperationKeep,
		PassOp:      hal.StencilOperationKeep,
	}
	return &hal.DepthStencilState{
		Format:            format,
		DepthWriteEnabled: false,
		DepthCompare:      gputypes.CompareFunctionAlways,
		StencilFront:      keep,
		StencilBack:       keep,
		StencilReadMask:   0x00,
		StencilWriteMask:  0x00,
	}
}

func (r *Resources) createUniforms() error {
	buf, err := r.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "imgui_uniform_buffer",
		Size:  UniformSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return err
	}
	r.Uniforms = buf
	r.rs.Push(func() { r.device.DestroyBuffer(buf); r.Uniforms = nil })
	return nil
}

func (r *Resources) createCommonGroup() error {
	group, err := r.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "imgui_common_bind_group",
		Layout: r.CommonLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{Buffer: r.Uniforms.NativeHandle(), Offset: 0, Size: UniformSize}},
			{Binding: 1, Resource: gputypes.SamplerBinding{Sampler: r.Sampler.NativeHandle()}},
		},
	})
	if err != nil {
		return err
	}
	r.CommonGroup = group
	r.rs.Push(func() { r.device.DestroyBindGroup(group); r.CommonGroup = nil })
	return nil
}

// VertexLayout returns the vertex buffer layout matching VertexInput in
// imgui.wgsl and draw.Vert:
//
//	location 0: position (float32x2) @ 0
//	location 1: uv       (float32x2) @ 8
//	location 2: color    (unorm8x4)  @ 16
func VertexLayout() []gputypes.VertexBufferLayout {
	return []gputypes.VertexBufferLayout{
		{
			ArrayStride: draw.VertSize,
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes: []gputypes.VertexAttribute{
				{Format: gputypes.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},
				{Format: gputypes.VertexFormatFloat32x2, Offset: 8, ShaderLocation: 1},
				{Format: gputypes.VertexFormatUnorm8x4, Offset: 16, ShaderLocation: 2},
			},
		},
	}
}
