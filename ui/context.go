// Package ui is a small immediate-mode GUI. It keeps just enough state
// (windows, hot and active widgets, text focus) to turn per-frame widget calls
// into draw.Data for a rendering backend.
//
// A frame looks like:
//
//	ctx.IO().DisplaySize = draw.Vec2{X: 1280, Y: 720}
//	ctx.NewFrame()
//	if ctx.Begin("Hello", draw.Vec2{X: 10, Y: 10}, draw.Vec2{X: 300, Y: 200}) {
//		ctx.Text("hello, world")
//		if ctx.Button("Save") {
//			save()
//		}
//	}
//	ctx.End()
//	data := ctx.Render()
package ui

import (
	"errors"
	"hash/fnv"

	"github.com/chewxy/math32"

	"github.com/gogpu/imrender/draw"
)

// ErrFrameState is reported through panics on misuse of the frame protocol.
var ErrFrameState = errors.New("ui: Begin/End called outside NewFrame/Render")

// ID identifies a widget across frames.
type ID uint32

type window struct {
	name      string
	id        ID
	pos, size draw.Vec2
	list      *draw.List
	lastFrame int

	// Layout cursor for the next item.
	cursor       draw.Vec2
	lineStart    float32
	prevLineEnd  draw.Vec2
	prevLineH    float32
	sameLine     bool
	contentClip  draw.Vec4
	contentWidth float32
}

// Context is the GUI state.
type Context struct {
	io    *IO
	atlas *FontAtlas
	style Style

	frame   int
	time    float64
	inFrame bool

	byID    map[ID]*window
	current *window
	order   []*window

	hot    ID
	active ID
	focus  ID

	data draw.Data
}

// NewContext returns a context drawing with atlas, or the built-in font when
// atlas is nil.
func NewContext(atlas *FontAtlas) *Context {
	if atlas == nil {
		atlas = NewFontAtlas()
	}
	return &Context{
		io:    NewIO(),
		atlas: atlas,
		style: DefaultStyle(),
		byID:  make(map[ID]*window),
	}
}

// IO returns the input and display state.
func (c *Context) IO() *IO { return c.io }

// FontAtlas returns the font atlas.
func (c *Context) FontAtlas() *FontAtlas { return c.atlas }

// Style returns the style for modification.
func (c *Context) Style() *Style { return &c.style }

// FrameCount returns the number of frames started.
func (c *Context) FrameCount() int { return c.frame }

// Time returns the accumulated DeltaTime in seconds.
func (c *Context) Time() float64 { return c.time }

// NewFrame starts a frame. Input for the frame must already be in IO.
func (c *Context) NewFrame() {
	c.frame++
	c.time += float64(c.io.DeltaTime)
	c.inFrame = true
	c.order = c.order[:0]
	c.hot = 0
	if !c.io.MouseDown[MouseButtonLeft] && !c.io.MouseReleased(MouseButtonLeft) {
		c.active = 0
	}
	if c.io.MouseClicked(MouseButtonLeft) {
		// A click anywhere drops text focus; a text field clicked this frame
		// takes it back.
		c.focus = 0
	}
}

// Render finishes the frame and returns its draw data. The data and its lists
// are owned by the context and stay valid until the next NewFrame.
func (c *Context) Render() *draw.Data {
	if c.current != nil {
		c.End()
	}
	c.inFrame = false

	c.io.WantCaptureMouse = c.hot != 0 || c.active != 0 || c.mouseOverWindow()
	c.io.WantCaptureKeyboard = c.focus != 0
	c.io.WantTextInput = c.focus != 0

	c.data.Lists = c.data.Lists[:0]
	for _, w := range c.order {
		w.list.Finish()
		c.data.Lists = append(c.data.Lists, w.list)
	}
	c.data.DisplayPos = draw.Vec2{}
	c.data.DisplaySize = c.io.DisplaySize
	c.data.FramebufferScale = c.io.DisplayFramebufferScale
	c.data.Recount()
	c.data.Valid = true

	c.io.endFrame()
	return &c.data
}

// DrawData returns the data produced by the last Render.
func (c *Context) DrawData() *draw.Data { return &c.data }

func (c *Context) mouseOverWindow() bool {
	if !c.io.MouseValid() {
		return false
	}
	for _, w := range c.order {
		if rect(w.pos, w.pos.Add(w.size)).Contains(c.io.MousePos) {
			return true
		}
	}
	return false
}

// Begin starts a window at pos with the given size. Windows are drawn in the
// order Begin is called. Every Begin must be paired with End.
func (c *Context) Begin(name string, pos, size draw.Vec2) bool {
	if !c.inFrame || c.current != nil {
		panic(ErrFrameState)
	}
	id := hashID(0, name)
	w, ok := c.byID[id]
	if !ok {
		w = &window{name: name, id: id, list: &draw.List{}}
		c.byID[id] = w
	}
	w.pos, w.size = pos, size
	w.lastFrame = c.frame
	c.current = w
	c.order = append(c.order, w)

	l := w.list
	l.Reset()
	l.PushClipRect(draw.Vec4{X: 0, Y: 0, Z: c.io.DisplaySize.X, W: c.io.DisplaySize.Y}, false)
	l.PushTexture(c.atlas.TexID)

	br := pos.Add(size)
	titleH := c.atlas.LineHeight + c.style.FramePadding.Y*2
	l.AddRectFilled(pos, br, c.atlas.WhiteUV, c.style.Colors[ColWindowBg])
	l.AddRectFilled(pos, draw.Vec2{X: br.X, Y: pos.Y + titleH}, c.atlas.WhiteUV, c.style.Colors[ColTitleBg])
	if c.style.BorderSize > 0 {
		l.AddRect(pos, br, c.atlas.WhiteUV, c.style.Colors[ColBorder], c.style.BorderSize)
	}
	c.addText(draw.Vec2{X: pos.X + c.style.FramePadding.X, Y: pos.Y + c.style.FramePadding.Y}, name, c.style.Colors[ColText])

	pad := c.style.WindowPadding
	w.contentClip = draw.Vec4{
		X: pos.X + pad.X*0.5,
		Y: pos.Y + titleH,
		Z: br.X - pad.X*0.5,
		W: br.Y - pad.Y*0.5,
	}
	l.PushClipRect(w.contentClip, true)
	w.lineStart = pos.X + pad.X
	w.cursor = draw.Vec2{X: w.lineStart, Y: pos.Y + titleH + pad.Y}
	w.contentWidth = size.X - pad.X*2
	w.sameLine = false
	w.prevLineH = 0
	return size.X > 0 && size.Y > 0
}

// End closes the current window.
func (c *Context) End() {
	w := c.current
	if w == nil {
		panic(ErrFrameState)
	}
	w.list.PopClipRect()
	w.list.PopTexture()
	w.list.PopClipRect()
	c.current = nil
}

// SameLine places the next item to the right of the previous one.
func (c *Context) SameLine() {
	if w := c.current; w != nil {
		w.sameLine = true
	}
}

// itemRect reserves space for an item of the given size and returns its
// top-left corner.
func (c *Context) itemRect(size draw.Vec2) draw.Vec2 {
	w := c.current
	var pos draw.Vec2
	if w.sameLine {
		pos = draw.Vec2{X: w.prevLineEnd.X + c.style.ItemSpacing.X, Y: w.prevLineEnd.Y}
		w.prevLineH = math32.Max(w.prevLineH, size.Y)
	} else {
		pos = w.cursor
		w.prevLineH = size.Y
	}
	pos = draw.Vec2{X: math32.Floor(pos.X), Y: math32.Floor(pos.Y)}
	w.sameLine = false
	w.prevLineEnd = draw.Vec2{X: pos.X + size.X, Y: pos.Y}
	w.cursor = draw.Vec2{X: w.lineStart, Y: pos.Y + w.prevLineH + c.style.ItemSpacing.Y}
	return pos
}

func (c *Context) id(label string) ID {
	var seed ID
	if c.current != nil {
		seed = c.current.id
	}
	return hashID(seed, label)
}

// hovered reports whether the mouse is over r and inside the current clip.
func (c *Context) hovered(r draw.Vec4) bool {
	if !c.io.MouseValid() || c.current == nil {
		return false
	}
	m := c.io.MousePos
	return r.Contains(m) && c.current.list.ClipRect().Contains(m)
}

// behavior runs click handling for a widget and reports (hovered, held, pressed).
// A press completes when the button is released over the widget that
// captured it.
func (c *Context) behavior(id ID, r draw.Vec4) (hovered, held, pressed bool) {
	hovered = c.hovered(r)
	if hovered {
		c.hot = id
		if c.io.MouseClicked(MouseButtonLeft) {
			c.active = id
		}
	}
	if c.active == id {
		held = c.io.MouseDown[MouseButtonLeft]
		if c.io.MouseReleased(MouseButtonLeft) {
			pressed = hovered
			c.active = 0
		}
	}
	return hovered, held, pressed
}

func (c *Context) addText(pos draw.Vec2, s string, col uint32) {
	l := c.current.list
	x, y := pos.X, pos.Y
	for _, r := range s {
		if r == '\n' {
			x = pos.X
			y += c.atlas.LineHeight
			continue
		}
		g := c.atlas.Glyph(r)
		if r != ' ' {
			l.AddQuadUV(
				draw.Vec2{X: x + g.X0, Y: y + g.Y0},
				draw.Vec2{X: x + g.X1, Y: y + g.Y1},
				draw.Vec2{X: g.U0, Y: g.V0},
				draw.Vec2{X: g.U1, Y: g.V1},
				col,
			)
		}
		x += g.Advance
	}
}

func rect(lo, hi draw.Vec2) draw.Vec4 {
	return draw.Vec4{X: lo.X, Y: lo.Y, Z: hi.X, W: hi.Y}
}

func hashID(seed ID, label string) ID {
	h := fnv.New32a()
	var b [4]byte
	b[0], b[1], b[2], b[3] = byte(seed), byte(seed>>8), byte(seed>>16), byte(seed>>24)
	h.Write(b[:])
	h.Write([]byte(label))
	return ID(h.Sum32())
}
