package draw

import (
	"encoding/binary"
	"math"
	"testing"
)

var full = Vec4{0, 0, 800, 600}

func TestVertPut(t *testing.T) {
	v := Vert{Pos: Vec2{1.5, -2}, UV: Vec2{0.25, 0.75}, Col: RGBA(0x11, 0x22, 0x33, 0x44)}
	buf := make([]byte, VertSize)
	v.Put(buf)

	floats := []float32{1.5, -2, 0.25, 0.75}
	for i, want := range floats {
		got := math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
		if got != want {
			t.Errorf("float %d = %v, want %v", i, got, want)
		}
	}
	// unorm8x4 reads bytes in memory order: R, G, B, A.
	if buf[16] != 0x11 || buf[17] != 0x22 || buf[18] != 0x33 || buf[19] != 0x44 {
		t.Errorf("color bytes = % x, want 11 22 33 44", buf[16:20])
	}
}

func TestAddRectFilled(t *testing.T) {
	l := NewList(full)
	l.AddRectFilled(Vec2{10, 10}, Vec2{20, 20}, Vec2{}, RGBA(255, 255, 255, 255))
	l.Finish()

	if len(l.VtxBuffer) != 4 || len(l.IdxBuffer) != 6 {
		t.Fatalf("got %d vertices / %d indices, want 4/6", len(l.VtxBuffer), len(l.IdxBuffer))
	}
	if len(l.Cmds) != 1 {
		t.Fatalf("got %d commands, want 1", len(l.Cmds))
	}
	if c := l.Cmds[0]; c.ElemCount != 6 || c.IdxOffset != 0 || c.ClipRect != full {
		t.Errorf("cmd = %+v", c)
	}
}

func TestTransparentShapesAreDropped(t *testing.T) {
	l := NewList(full)
	l.AddRectFilled(Vec2{0, 0}, Vec2{1, 1}, Vec2{}, RGBA(255, 0, 0, 0))
	l.AddTriangleFilled(Vec2{}, Vec2{1, 0}, Vec2{0, 1}, Vec2{}, 0)
	l.Finish()

	if len(l.VtxBuffer) != 0 || len(l.Cmds) != 0 {
		t.Errorf("transparent geometry emitted %d vertices, %d commands", len(l.VtxBuffer), len(l.Cmds))
	}
}

func TestClipAndTextureSplitCommands(t *testing.T) {
	white := RGBA(255, 255, 255, 255)
	l := NewList(full)
	l.AddRectFilled(Vec2{0, 0}, Vec2{10, 10}, Vec2{}, white)
	l.AddRectFilled(Vec2{10, 0}, Vec2{20, 10}, Vec2{}, white)

	l.PushClipRect(Vec4{5, 5, 1000, 50}, true)
	l.AddRectFilled(Vec2{0, 0}, Vec2{10, 10}, Vec2{}, white)
	l.PopClipRect()

	l.PushTexture(7)
	l.AddRectFilled(Vec2{0, 0}, Vec2{10, 10}, Vec2{}, white)
	l.PopTexture()
	l.Finish()

	if len(l.Cmds) != 3 {
		t.Fatalf("got %d commands, want 3", len(l.Cmds))
	}
	if l.Cmds[0].ElemCount != 12 {
		t.Errorf("first command merged %d indices, want 12", l.Cmds[0].ElemCount)
	}
	if want := (Vec4{5, 5, 800, 50}); l.Cmds[1].ClipRect != want {
		t.Errorf("intersected clip = %+v, want %+v", l.Cmds[1].ClipRect, want)
	}
	if l.Cmds[1].IdxOffset != 12 || l.Cmds[2].IdxOffset != 18 {
		t.Errorf("idx offsets = %d, %d; want 12, 18", l.Cmds[1].IdxOffset, l.Cmds[2].IdxOffset)
	}
	if l.Cmds[2].TextureID != 7 {
		t.Errorf("texture = %d, want 7", l.Cmds[2].TextureID)
	}

	var total uint32
	for _, c := range l.Cmds {
		total += c.ElemCount
	}
	if int(total) != len(l.IdxBuffer) {
		t.Errorf("commands cover %d indices, buffer has %d", total, len(l.IdxBuffer))
	}
}

func TestAddCallback(t *testing.T) {
	l := NewList(full)
	l.AddRectFilled(Vec2{0, 0}, Vec2{10, 10}, Vec2{}, RGBA(1, 1, 1, 255))
	l.AddCallback(func(*List, *Cmd) {}, "payload")
	l.AddRectFilled(Vec2{0, 0}, Vec2{10, 10}, Vec2{}, RGBA(1, 1, 1, 255))
	l.Finish()

	if len(l.Cmds) != 3 {
		t.Fatalf("got %d commands, want 3", len(l.Cmds))
	}
	cb := l.Cmds[1]
	if !cb.HasCallback() || cb.ElemCount != 0 || cb.CallbackData != "payload" {
		t.Errorf("callback cmd = %+v", cb)
	}
	if l.Cmds[2].IdxOffset != 6 || l.Cmds[2].HasCallback() {
		t.Errorf("cmd after callback = %+v", l.Cmds[2])
	}
}

func TestPrimReserveStartsNewCommandOn16BitOverflow(t *testing.T) {
	l := NewList(full)
	l.VtxBuffer = make([]Vert, 1<<16-2)
	l.PrimReserve(0, 0)

	base := l.PrimReserve(3, 3)
	if base != 0 {
		t.Errorf("base = %d, want 0", base)
	}
	last := l.Cmds[len(l.Cmds)-1]
	if last.VtxOffset != 1<<16-2 {
		t.Errorf("VtxOffset = %d, want %d", last.VtxOffset, 1<<16-2)
	}
}

func TestDataRecount(t *testing.T) {
	a := NewList(full)
	a.AddTriangleFilled(Vec2{}, Vec2{1, 0}, Vec2{0, 1}, Vec2{}, RGBA(1, 2, 3, 4))
	b := NewList(full)
	b.AddRectFilled(Vec2{}, Vec2{1, 1}, Vec2{}, RGBA(1, 2, 3, 4))

	d := &Data{Lists: []*List{a, b}, DisplaySize: Vec2{400, 300}, FramebufferScale: Vec2{2, 2}}
	d.Recount()
	if d.TotalVtxCount != 7 || d.TotalIdxCount != 9 {
		t.Errorf("totals = %d/%d, want 7/9", d.TotalVtxCount, d.TotalIdxCount)
	}
	if w, h := d.FramebufferSize(); w != 800 || h != 600 {
		t.Errorf("framebuffer = %vx%v, want 800x600", w, h)
	}
}

func TestVec4(t *testing.T) {
	r := Vec4{0, 0, 10, 10}
	if !r.Contains(Vec2{0, 0}) || r.Contains(Vec2{10, 5}) {
		t.Error("Contains: min must be inclusive, max exclusive")
	}
	got := r.Intersect(Vec4{5, -5, 20, 5})
	if want := (Vec4{5, 0, 10, 5}); got != want {
		t.Errorf("Intersect = %+v, want %+v", got, want)
	}
}
