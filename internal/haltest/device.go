// Package haltest provides recording and counting doubles for the wgpu HAL,
// backed by the noop backend. It is imported only from tests.
package haltest

import (
	"fmt"
	"sync"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
)

// Resource kinds tracked by Device.
const (
	KindBuffer          = "buffer"
	KindTexture         = "texture"
	KindTextureView     = "texture_view"
	KindSampler         = "sampler"
	KindBindGroupLayout = "bind_group_layout"
	KindBindGroup       = "bind_group"
	KindPipelineLayout  = "pipeline_layout"
	KindShaderModule    = "shader_module"
	KindRenderPipeline  = "render_pipeline"
)

// Kinds lists every tracked resource kind in creation order of a typical
// pipeline setup.
var Kinds = []string{
	KindShaderModule,
	KindTexture,
	KindTextureView,
	KindSampler,
	KindBindGroupLayout,
	KindPipelineLayout,
	KindRenderPipeline,
	KindBuffer,
	KindBindGroup,
}

// OpenNoop opens a device and queue on the noop backend.
func OpenNoop(tb testing.TB) (hal.Device, hal.Queue) {
	tb.Helper()
	inst, err := noop.API{}.CreateInstance(nil)
	if err != nil {
		tb.Fatalf("noop: create instance: %v", err)
	}
	adapters := inst.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		tb.Fatal("noop: no adapters")
	}
	open, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		tb.Fatalf("noop: open device: %v", err)
	}
	return open.Device, open.Queue
}

// Handle is a distinct resource handle. Unlike noop resources, every Handle
// has its own identity and a non-zero native handle.
type Handle struct {
	Kind  string
	ID    int
	Label string
}

func (h *Handle) Destroy()                            {}
func (h *Handle) NativeHandle() uintptr               { return uintptr(h.ID) }
func (h *Handle) CurrentUsage() gputypes.TextureUsage { return 0 }
func (h *Handle) AddPendingRef()                      {}
func (h *Handle) DecPendingRef()                      {}

func (h *Handle) String() string { return fmt.Sprintf("%s#%d", h.Kind, h.ID) }

// NewView returns a texture view with its own identity, for registering host
// textures in tests.
func NewView(id int) *Handle {
	return &Handle{Kind: KindTextureView, ID: 1_000_000 + id}
}

// Device wraps a noop device, counts creations and destructions per kind and
// can be told to fail a given kind.
//
// Buffers come from the wrapped noop device so queue writes land in real
// memory; every other resource is a distinct *Handle.
type Device struct {
	hal.Device

	mu        sync.Mutex
	nextID    int
	created   map[string]int
	destroyed map[string]int
	fail      map[string]error

	Buffers         []*hal.BufferDescriptor
	Textures        []*hal.TextureDescriptor
	Samplers        []*hal.SamplerDescriptor
	BindGroups      []*hal.BindGroupDescriptor
	ShaderModules   []*hal.ShaderModuleDescriptor
	RenderPipelines []*hal.RenderPipelineDescriptor
	Layouts         []*hal.BindGroupLayoutDescriptor
}

// NewDevice wraps inner.
func NewDevice(inner hal.Device) *Device {
	return &Device{
		Device:    inner,
		created:   make(map[string]int),
		destroyed: make(map[string]int),
		fail:      make(map[string]error),
	}
}

// FailOn makes the next creations of kind return err. A nil err clears it.
func (d *Device) FailOn(kind string, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err == nil {
		delete(d.fail, kind)
		return
	}
	d.fail[kind] = err
}

// Created returns how many resources of kind were created.
func (d *Device) Created(kind string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.created[kind]
}

// Destroyed returns how many resources of kind were destroyed.
func (d *Device) Destroyed(kind string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.destroyed[kind]
}

// Live returns created minus destroyed, summed over every kind.
func (d *Device) Live() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for k, c := range d.created {
		n += c - d.destroyed[k]
	}
	return n
}

func (d *Device) track(kind, label string) (*Handle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.fail[kind]; err != nil {
		return nil, err
	}
	d.nextID++
	d.created[kind]++
	return &Handle{Kind: kind, ID: d.nextID, Label: label}, nil
}

func (d *Device) untrack(kind string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.destroyed[kind]++
}

func (d *Device) CreateBuffer(desc *hal.BufferDescriptor) (hal.Buffer, error) {
	if _, err := d.track(KindBuffer, desc.Label); err != nil {
		return nil, err
	}
	d.mu.Lock()
	d.Buffers = append(d.Buffers, desc)
	d.mu.Unlock()
	return d.Device.CreateBuffer(desc)
}

func (d *Device) DestroyBuffer(b hal.Buffer) {
	d.untrack(KindBuffer)
	d.Device.DestroyBuffer(b)
}

func (d *Device) CreateTexture(desc *hal.TextureDescriptor) (hal.Texture, error) {
	h, err := d.track(KindTexture, desc.Label)
	if err != nil {
		return nil, err
	}
	d.mu.Lock()
	d.Textures = append(d.Textures, desc)
	d.mu.Unlock()
	return h, nil
}

func (d *Device) DestroyTexture(hal.Texture) { d.untrack(KindTexture) }

func (d *Device) CreateTextureView(_ hal.Texture, desc *hal.TextureViewDescriptor) (hal.TextureView, error) {
	var label string
	if desc != nil {
		label = desc.Label
	}
	h, err := d.track(KindTextureView, label)
	if err != nil {
		return nil, err
	}
	return h, nil
}

func (d *Device) DestroyTextureView(hal.TextureView) { d.untrack(KindTextureView) }

func (d *Device) CreateSampler(desc *hal.SamplerDescriptor) (hal.Sampler, error) {
	h, err := d.track(KindSampler, desc.Label)
	if err != nil {
		return nil, err
	}
	d.mu.Lock()
	d.Samplers = append(d.Samplers, desc)
	d.mu.Unlock()
	return h, nil
}

func (d *Device) DestroySampler(hal.Sampler) { d.untrack(KindSampler) }

func (d *Device) CreateBindGroupLayout(desc *hal.BindGroupLayoutDescriptor) (hal.BindGroupLayout, error) {
	h, err := d.track(KindBindGroupLayout, desc.Label)
	if err != nil {
		return nil, err
	}
	d.mu.Lock()
	d.Layouts = append(d.Layouts, desc)
	d.mu.Unlock()
	return h, nil
}

func (d *Device) DestroyBindGroupLayout(hal.BindGroupLayout) { d.untrack(KindBindGroupLayout) }

func (d *Device) CreateBindGroup(desc *hal.BindGroupDescriptor) (hal.BindGroup, error) {
	h, err := d.track(KindBindGroup, desc.Label)
	if err != nil {
		return nil, err
	}
	d.mu.Lock()
	d.BindGroups = append(d.BindGroups, desc)
	d.mu.Unlock()
	return h, nil
}

func (d *Device) DestroyBindGroup(hal.BindGroup) { d.untrack(KindBindGroup) }

func (d *Device) CreatePipelineLayout(desc *hal.PipelineLayoutDescriptor) (hal.PipelineLayout, error) {
	h, err := d.track(KindPipelineLayout, desc.Label)
	if err != nil {
		return nil, err
	}
	return h, nil
}

func (d *Device) DestroyPipelineLayout(hal.PipelineLayout) { d.untrack(KindPipelineLayout) }

func (d *Device) CreateShaderModule(desc *hal.ShaderModuleDescriptor) (hal.ShaderModule, error) {
	h, err := d.track(KindShaderModule, desc.Label)
	if err != nil {
		return nil, err
	}
	d.mu.Lock()
	d.ShaderModules = append(d.ShaderModules, desc)
	d.mu.Unlock()
	return h, nil
}

func (d *Device) DestroyShaderModule(hal.ShaderModule) { d.untrack(KindShaderModule) }

func (d *Device) CreateRenderPipeline(desc *hal.RenderPipelineDescriptor) (hal.RenderPipeline, error) {
	h, err := d.track(KindRenderPipeline, desc.Label)
	if err != nil {
		return nil, err
	}
	d.mu.Lock()
	d.RenderPipelines = append(d.RenderPipelines, desc)
	d.mu.Unlock()
	return h, nil
}

func (d *Device) DestroyRenderPipeline(hal.RenderPipeline) { d.untrack(KindRenderPipeline) }
