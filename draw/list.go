package draw

// List is a single draw list: a vertex buffer, an index buffer and the
// commands that draw ranges of them.
//
// The builder methods keep the last command open while its clip rectangle and
// texture match the current stacks, and start a new command when either
// changes. A fresh List has no clip rectangle pushed; callers set one with
// PushClipRect before emitting geometry.
type List struct {
	Cmds      []Cmd
	VtxBuffer []Vert
	IdxBuffer []Idx

	clipStack    []Vec4
	textureStack []TextureID
}

// NewList returns an empty list whose base clip rectangle is clip.
func NewList(clip Vec4) *List {
	l := &List{}
	l.PushClipRect(clip, false)
	return l
}

// Reset clears geometry and commands while keeping allocated capacity.
func (l *List) Reset() {
	l.Cmds = l.Cmds[:0]
	l.VtxBuffer = l.VtxBuffer[:0]
	l.IdxBuffer = l.IdxBuffer[:0]
	l.clipStack = l.clipStack[:0]
	l.textureStack = l.textureStack[:0]
}

// ClipRect returns the current clip rectangle.
func (l *List) ClipRect() Vec4 {
	if n := len(l.clipStack); n > 0 {
		return l.clipStack[n-1]
	}
	return Vec4{}
}

// TextureID returns the current texture.
func (l *List) TextureID() TextureID {
	if n := len(l.textureStack); n > 0 {
		return l.textureStack[n-1]
	}
	return 0
}

// PushClipRect pushes a clip rectangle. When intersect is true the rectangle is
// intersected with the current one first.
func (l *List) PushClipRect(r Vec4, intersect bool) {
	if intersect && len(l.clipStack) > 0 {
		r = r.Intersect(l.ClipRect())
	}
	l.clipStack = append(l.clipStack, r)
	l.onStateChanged()
}

// PopClipRect restores the previous clip rectangle.
func (l *List) PopClipRect() {
	if len(l.clipStack) == 0 {
		return
	}
	l.clipStack = l.clipStack[:len(l.clipStack)-1]
	l.onStateChanged()
}

// PushTexture makes id the texture for subsequent geometry.
func (l *List) PushTexture(id TextureID) {
	l.textureStack = append(l.textureStack, id)
	l.onStateChanged()
}

// PopTexture restores the previous texture.
func (l *List) PopTexture() {
	if len(l.textureStack) == 0 {
		return
	}
	l.textureStack = l.textureStack[:len(l.textureStack)-1]
	l.onStateChanged()
}

// onStateChanged reuses an empty trailing command or opens a new one when the
// clip rectangle or texture no longer matches.
func (l *List) onStateChanged() {
	clip, tex := l.ClipRect(), l.TextureID()
	if n := len(l.Cmds); n > 0 {
		last := &l.Cmds[n-1]
		if last.Callback == nil && last.ElemCount == 0 {
			last.ClipRect = clip
			last.TextureID = tex
			return
		}
		if last.Callback == nil && last.ClipRect == clip && last.TextureID == tex {
			return
		}
	}
	l.Cmds = append(l.Cmds, l.newCmd())
}

// newCmd returns an empty command for the current state, carrying the vertex
// offset of the previous command.
func (l *List) newCmd() Cmd {
	var vtxOffset uint32
	if n := len(l.Cmds); n > 0 {
		vtxOffset = l.Cmds[n-1].VtxOffset
	}
	return Cmd{
		ClipRect:  l.ClipRect(),
		TextureID: l.TextureID(),
		VtxOffset: vtxOffset,
		IdxOffset: uint32(len(l.IdxBuffer)),
	}
}

// current returns the open command, creating one if needed.
func (l *List) current() *Cmd {
	if len(l.Cmds) == 0 || l.Cmds[len(l.Cmds)-1].Callback != nil {
		l.Cmds = append(l.Cmds, l.newCmd())
	}
	return &l.Cmds[len(l.Cmds)-1]
}

// PrimReserve grows the buffers for idxCount indices and vtxCount vertices and
// returns the base vertex index for the new geometry.
//
// Indices are 16-bit, so a list can address at most 65536 vertices per
// command. When the next vertex would overflow that range a new command is
// started with VtxOffset set to the current vertex count.
func (l *List) PrimReserve(idxCount, vtxCount int) Idx {
	cmd := l.current()
	base := len(l.VtxBuffer) - int(cmd.VtxOffset)
	if base+vtxCount > 1<<16 {
		l.Cmds = append(l.Cmds, Cmd{
			ClipRect:  cmd.ClipRect,
			TextureID: cmd.TextureID,
			VtxOffset: uint32(len(l.VtxBuffer)),
			IdxOffset: uint32(len(l.IdxBuffer)),
		})
		cmd = &l.Cmds[len(l.Cmds)-1]
		base = 0
	}
	cmd.ElemCount += uint32(idxCount)
	return Idx(base)
}

// AddQuadUV adds an axis-aligned textured quad from a to b with texture
// coordinates uvA to uvB.
func (l *List) AddQuadUV(a, b, uvA, uvB Vec2, col uint32) {
	if col>>24 == 0 {
		return
	}
	base := l.PrimReserve(6, 4)
	l.VtxBuffer = append(l.VtxBuffer,
		Vert{Pos: a, UV: uvA, Col: col},
		Vert{Pos: Vec2{b.X, a.Y}, UV: Vec2{uvB.X, uvA.Y}, Col: col},
		Vert{Pos: b, UV: uvB, Col: col},
		Vert{Pos: Vec2{a.X, b.Y}, UV: Vec2{uvA.X, uvB.Y}, Col: col},
	)
	l.IdxBuffer = append(l.IdxBuffer,
		base, base+1, base+2,
		base, base+2, base+3,
	)
}

// AddRectFilled adds a solid rectangle sampled at uv, which should address an
// opaque white texel of the current texture.
func (l *List) AddRectFilled(a, b, uv Vec2, col uint32) {
	l.AddQuadUV(a, b, uv, uv, col)
}

// AddRect adds a rectangle outline of the given thickness.
func (l *List) AddRect(a, b, uv Vec2, col uint32, thickness float32) {
	l.AddRectFilled(a, Vec2{b.X, a.Y + thickness}, uv, col)
	l.AddRectFilled(Vec2{a.X, b.Y - thickness}, b, uv, col)
	l.AddRectFilled(Vec2{a.X, a.Y + thickness}, Vec2{a.X + thickness, b.Y - thickness}, uv, col)
	l.AddRectFilled(Vec2{b.X - thickness, a.Y + thickness}, Vec2{b.X, b.Y - thickness}, uv, col)
}

// AddTriangleFilled adds a solid triangle.
func (l *List) AddTriangleFilled(p0, p1, p2, uv Vec2, col uint32) {
	if col>>24 == 0 {
		return
	}
	base := l.PrimReserve(3, 3)
	l.VtxBuffer = append(l.VtxBuffer,
		Vert{Pos: p0, UV: uv, Col: col},
		Vert{Pos: p1, UV: uv, Col: col},
		Vert{Pos: p2, UV: uv, Col: col},
	)
	l.IdxBuffer = append(l.IdxBuffer, base, base+1, base+2)
}

// AddCallback appends a command that carries cb instead of geometry.
func (l *List) AddCallback(cb Callback, data any) {
	cmd := l.newCmd()
	cmd.Callback = cb
	cmd.CallbackData = data
	if n := len(l.Cmds); n > 0 && l.Cmds[n-1].ElemCount == 0 && l.Cmds[n-1].Callback == nil {
		l.Cmds[n-1] = cmd
	} else {
		l.Cmds = append(l.Cmds, cmd)
	}
	l.onStateChanged()
}

// Finish drops a trailing empty command left by the builder.
func (l *List) Finish() {
	if n := len(l.Cmds); n > 0 {
		last := l.Cmds[n-1]
		if last.ElemCount == 0 && last.Callback == nil {
			l.Cmds = l.Cmds[:n-1]
		}
	}
}
