// Package draw defines the draw data an immediate-mode GUI produces each frame
// and that a rendering backend consumes.
//
// The model mirrors the classic Dear ImGui layout: a frame is a [Data] holding
// an ordered sequence of [List] values, each with its own vertex buffer,
// 16-bit index buffer and an ordered sequence of [Cmd] draw commands. A
// command draws ElemCount indices starting at IdxOffset, with vertices
// addressed relative to VtxOffset, clipped to ClipRect and sampling the
// texture identified by TextureID.
//
// Coordinates are in display (window) units with the origin at the top-left
// corner. Backends scale them by [Data.FramebufferScale] to get pixels.
package draw

import (
	"encoding/binary"
	"math"
)

// Vec2 is a 2D vector in display units.
type Vec2 struct {
	X, Y float32
}

// Add returns v+o.
func (v Vec2) Add(o Vec2) Vec2 { return Vec2{v.X + o.X, v.Y + o.Y} }

// Sub returns v-o.
func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{v.X - o.X, v.Y - o.Y} }

// Vec4 is a rectangle stored as (min.x, min.y, max.x, max.y).
type Vec4 struct {
	X, Y, Z, W float32
}

// Contains reports whether p lies inside the rectangle (min inclusive, max exclusive).
func (r Vec4) Contains(p Vec2) bool {
	return p.X >= r.X && p.Y >= r.Y && p.X < r.Z && p.Y < r.W
}

// Intersect returns the overlap of r and o. The result may be empty.
func (r Vec4) Intersect(o Vec4) Vec4 {
	return Vec4{
		X: max(r.X, o.X),
		Y: max(r.Y, o.Y),
		Z: min(r.Z, o.Z),
		W: min(r.W, o.W),
	}
}

// TextureID identifies a texture known to the rendering backend.
// Zero means "no texture".
type TextureID uintptr

// Idx is a vertex index. Backends bind index buffers as uint16.
type Idx = uint16

// IdxSize is the byte size of one index.
const IdxSize = 2

// VertSize is the byte stride of one vertex.
//
//	pos (vec2<f32>)   = 8 bytes  (location 0)
//	uv  (vec2<f32>)   = 8 bytes  (location 1)
//	col (unorm8x4)    = 4 bytes  (location 2)
const VertSize = 20

// Vert is one GUI vertex. Col is packed RGBA with R in the lowest byte.
type Vert struct {
	Pos Vec2
	UV  Vec2
	Col uint32
}

// Put encodes v into dst, which must be at least VertSize bytes long.
func (v Vert) Put(dst []byte) {
	binary.LittleEndian.PutUint32(dst[0:4], math.Float32bits(v.Pos.X))
	binary.LittleEndian.PutUint32(dst[4:8], math.Float32bits(v.Pos.Y))
	binary.LittleEndian.PutUint32(dst[8:12], math.Float32bits(v.UV.X))
	binary.LittleEndian.PutUint32(dst[12:16], math.Float32bits(v.UV.Y))
	binary.LittleEndian.PutUint32(dst[16:20], v.Col)
}

// RGBA packs a color with R in the lowest byte.
func RGBA(r, g, b, a uint8) uint32 {
	return uint32(r) | uint32(g)<<8 | uint32(b)<<16 | uint32(a)<<24
}

// Callback is a user hook attached to a draw command in place of geometry.
type Callback func(list *List, cmd *Cmd)

// Cmd is a single draw command.
type Cmd struct {
	// ClipRect is the clipping rectangle in display coordinates.
	ClipRect Vec4

	// TextureID selects the texture sampled by this command. Zero for none.
	TextureID TextureID

	// VtxOffset is added to every index of this command.
	VtxOffset uint32

	// IdxOffset is the first index of this command in the list's index buffer.
	IdxOffset uint32

	// ElemCount is the number of indices to draw (a multiple of 3).
	ElemCount uint32

	// Callback, when non-nil, replaces the geometry of this command.
	Callback Callback

	// CallbackData is passed through untouched for the callback's use.
	CallbackData any
}

// HasCallback reports whether the command carries a user callback.
func (c *Cmd) HasCallback() bool { return c.Callback != nil }

// Data is everything needed to render one GUI frame.
type Data struct {
	// Valid is false until the GUI finished building the frame.
	Valid bool

	// Lists holds the frame's draw lists in back-to-front order.
	Lists []*List

	// DisplayPos is the top-left of the viewport in display coordinates.
	DisplayPos Vec2

	// DisplaySize is the viewport size in display units.
	DisplaySize Vec2

	// FramebufferScale maps display units to framebuffer pixels.
	FramebufferScale Vec2

	// TotalVtxCount is the sum of every list's vertex count.
	TotalVtxCount int

	// TotalIdxCount is the sum of every list's index count.
	TotalIdxCount int
}

// Recount recomputes TotalVtxCount and TotalIdxCount from the lists.
func (d *Data) Recount() {
	d.TotalVtxCount, d.TotalIdxCount = 0, 0
	for _, l := range d.Lists {
		d.TotalVtxCount += len(l.VtxBuffer)
		d.TotalIdxCount += len(l.IdxBuffer)
	}
}

// FramebufferSize returns the display size scaled to framebuffer pixels.
func (d *Data) FramebufferSize() (w, h float32) {
	return d.DisplaySize.X * d.FramebufferScale.X, d.DisplaySize.Y * d.FramebufferScale.Y
}
