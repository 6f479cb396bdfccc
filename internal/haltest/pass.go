package haltest

import (
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// DrawIndexedCall is one recorded DrawIndexed.
type DrawIndexedCall struct {
	IndexCount    uint32
	InstanceCount uint32
	FirstIndex    uint32
	BaseVertex    int32
	FirstInstance uint32
}

// Scissor is one recorded SetScissorRect.
type Scissor struct {
	X, Y, W, H uint32
}

// Viewport is one recorded SetViewport.
type Viewport struct {
	X, Y, W, H, MinDepth, MaxDepth float32
}

// BindGroupCall is one recorded SetBindGroup.
type BindGroupCall struct {
	Index uint32
	Group hal.BindGroup
}

// Pass is a hal.RenderPassEncoder that records every call.
type Pass struct {
	Calls []string

	Pipelines     []hal.RenderPipeline
	BindGroups    []BindGroupCall
	VertexBuffers []hal.Buffer
	IndexBuffers  []hal.Buffer
	IndexFormats  []gputypes.IndexFormat
	Viewports     []Viewport
	Scissors      []Scissor
	Draws         []DrawIndexedCall
	Ended         bool
}

var _ hal.RenderPassEncoder = (*Pass)(nil)

// Count returns how many times the named method was called.
func (p *Pass) Count(name string) int {
	n := 0
	for _, c := range p.Calls {
		if c == name {
			n++
		}
	}
	return n
}

func (p *Pass) End() {
	p.Calls = append(p.Calls, "End")
	p.Ended = true
}

func (p *Pass) SetPipeline(pipeline hal.RenderPipeline) {
	p.Calls = append(p.Calls, "SetPipeline")
	p.Pipelines = append(p.Pipelines, pipeline)
}

func (p *Pass) SetBindGroup(index uint32, group hal.BindGroup, _ []uint32) {
	p.Calls = append(p.Calls, "SetBindGroup")
	p.BindGroups = append(p.BindGroups, BindGroupCall{Index: index, Group: group})
}

func (p *Pass) SetVertexBuffer(_ uint32, buffer hal.Buffer, _ uint64) {
	p.Calls = append(p.Calls, "SetVertexBuffer")
	p.VertexBuffers = append(p.VertexBuffers, buffer)
}

func (p *Pass) SetIndexBuffer(buffer hal.Buffer, format gputypes.IndexFormat, _ uint64) {
	p.Calls = append(p.Calls, "SetIndexBuffer")
	p.IndexBuffers = append(p.IndexBuffers, buffer)
	p.IndexFormats = append(p.IndexFormats, format)
}

func (p *Pass) SetViewport(x, y, width, height, minDepth, maxDepth float32) {
	p.Calls = append(p.Calls, "SetViewport")
	p.Viewports = append(p.Viewports, Viewport{x, y, width, height, minDepth, maxDepth})
}

func (p *Pass) SetScissorRect(x, y, width, height uint32) {
	p.Calls = append(p.Calls, "SetScissorRect")
	p.Scissors = append(p.Scissors, Scissor{x, y, width, height})
}

func (p *Pass) SetBlendConstant(*gputypes.Color) {
	p.Calls = append(p.Calls, "SetBlendConstant")
}

func (p *Pass) SetStencilReference(uint32) {
	p.Calls = append(p.Calls, "SetStencilReference")
}

func (p *Pass) Draw(_, _, _, _ uint32) {
	p.Calls = append(p.Calls, "Draw")
}

func (p *Pass) DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32, firstInstance uint32) {
	p.Calls = append(p.Calls, "DrawIndexed")
	p.Draws = append(p.Draws, DrawIndexedCall{indexCount, instanceCount, firstIndex, baseVertex, firstInstance})
}

func (p *Pass) DrawIndirect(hal.Buffer, uint64) {
	p.Calls = append(p.Calls, "DrawIndirect")
}

func (p *Pass) DrawIndexedIndirect(hal.Buffer, uint64) {
	p.Calls = append(p.Calls, "DrawIndexedIndirect")
}

func (p *Pass) ExecuteBundle(hal.RenderBundle) {
	p.Calls = append(p.Calls, "ExecuteBundle")
}
