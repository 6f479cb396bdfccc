package ui

import (
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/width"

	"github.com/gogpu/imrender/draw"
)

// Text draws a line of text.
func (c *Context) Text(s string) {
	size := c.atlas.TextSize(s)
	pos := c.itemRect(size)
	c.addText(pos, s, c.style.Colors[ColText])
}

// Textf draws formatted text.
func (c *Context) Textf(format string, args ...any) {
	c.Text(fmt.Sprintf(format, args...))
}

// TextDisabled draws a line of text in the disabled color.
func (c *Context) TextDisabled(s string) {
	size := c.atlas.TextSize(s)
	pos := c.itemRect(size)
	c.addText(pos, s, c.style.Colors[ColTextDisabled])
}

// Button draws a button and reports whether it was clicked this frame.
func (c *Context) Button(label string) bool {
	pad := c.style.FramePadding
	ts := c.atlas.TextSize(label)
	size := draw.Vec2{X: ts.X + pad.X*2, Y: ts.Y + pad.Y*2}
	pos := c.itemRect(size)
	r := rect(pos, pos.Add(size))

	hovered, held, pressed := c.behavior(c.id(label), r)
	col := c.style.Colors[ColButton]
	switch {
	case held && hovered:
		col = c.style.Colors[ColButtonActive]
	case hovered:
		col = c.style.Colors[ColButtonHovered]
	}
	l := c.current.list
	l.AddRectFilled(pos, pos.Add(size), c.atlas.WhiteUV, col)
	c.addText(pos.Add(pad), label, c.style.Colors[ColText])
	return pressed
}

// Checkbox draws a labeled checkbox bound to v and reports whether it was
// toggled this frame.
func (c *Context) Checkbox(label string, v *bool) bool {
	pad := c.style.FramePadding
	box := c.atlas.LineHeight + pad.Y*2
	ts := c.atlas.TextSize(label)
	size := draw.Vec2{X: box + c.style.ItemSpacing.X + ts.X, Y: box}
	pos := c.itemRect(size)

	hovered, _, pressed := c.behavior(c.id(label), rect(pos, pos.Add(size)))
	if pressed {
		*v = !*v
	}

	l := c.current.list
	bg := c.style.Colors[ColFrameBg]
	if hovered {
		bg = c.style.Colors[ColFrameBgHovered]
	}
	l.AddRectFilled(pos, draw.Vec2{X: pos.X + box, Y: pos.Y + box}, c.atlas.WhiteUV, bg)
	if *v {
		inset := box / 4
		l.AddRectFilled(
			draw.Vec2{X: pos.X + inset, Y: pos.Y + inset},
			draw.Vec2{X: pos.X + box - inset, Y: pos.Y + box - inset},
			c.atlas.WhiteUV, c.style.Colors[ColCheckMark])
	}
	c.addText(draw.Vec2{X: pos.X + box + c.style.ItemSpacing.X, Y: pos.Y + pad.Y}, label, c.style.Colors[ColText])
	return pressed
}

// Image draws the texture id at the given size, mapping the whole texture.
func (c *Context) Image(id draw.TextureID, size draw.Vec2) {
	c.ImageUV(id, size, draw.Vec2{}, draw.Vec2{X: 1, Y: 1}, draw.RGBA(255, 255, 255, 255))
}

// ImageUV draws the texture region uv0..uv1 tinted by col.
func (c *Context) ImageUV(id draw.TextureID, size, uv0, uv1 draw.Vec2, col uint32) {
	pos := c.itemRect(size)
	l := c.current.list
	l.PushTexture(id)
	l.AddQuadUV(pos, pos.Add(size), uv0, uv1, col)
	l.PopTexture()
}

// TextInput draws a single-line text field editing buf. Clicking the field
// gives it keyboard focus; Enter or Escape releases it. Typed characters are
// folded to their narrow forms and dropped when the font has no glyph for
// them. It reports whether buf changed this frame.
func (c *Context) TextInput(label string, buf *string, maxLen int) bool {
	pad := c.style.FramePadding
	fieldW := max(c.current.contentWidth*0.6, c.atlas.TextSize("W").X*8)
	size := draw.Vec2{X: fieldW, Y: c.atlas.LineHeight + pad.Y*2}
	ts := c.atlas.TextSize(label)
	pos := c.itemRect(draw.Vec2{X: fieldW + c.style.ItemSpacing.X + ts.X, Y: size.Y})
	r := rect(pos, pos.Add(size))
	id := c.id(label)

	hovered := c.hovered(r)
	if hovered {
		c.hot = id
		if c.io.MouseClicked(MouseButtonLeft) {
			c.focus = id
		}
	}

	changed := false
	if c.focus == id {
		for _, ch := range c.io.InputQueueCharacters {
			folded := width.Fold.String(string(ch))
			for _, fr := range folded {
				if !c.atlas.HasGlyph(fr) || fr == '\ufffd' {
					continue
				}
				if maxLen > 0 && utf8.RuneCountInString(*buf) >= maxLen {
					continue
				}
				*buf += string(fr)
				changed = true
			}
		}
		if c.io.KeyPressed(KeyBackspace) && len(*buf) > 0 {
			_, n := utf8.DecodeLastRuneInString(*buf)
			*buf = (*buf)[:len(*buf)-n]
			changed = true
		}
		if c.io.KeyPressed(KeyEnter) || c.io.KeyPressed(KeyEscape) {
			c.focus = 0
		}
	}

	l := c.current.list
	bg := c.style.Colors[ColFrameBg]
	if hovered || c.focus == id {
		bg = c.style.Colors[ColFrameBgHovered]
	}
	l.AddRectFilled(pos, pos.Add(size), c.atlas.WhiteUV, bg)
	l.PushClipRect(r, true)
	textPos := pos.Add(pad)
	c.addText(textPos, *buf, c.style.Colors[ColText])
	if c.focus == id && int(c.time*2)%2 == 0 {
		caretX := textPos.X + c.atlas.TextSize(*buf).X
		l.AddRectFilled(
			draw.Vec2{X: caretX, Y: textPos.Y},
			draw.Vec2{X: caretX + 1, Y: textPos.Y + c.atlas.LineHeight},
			c.atlas.WhiteUV, c.style.Colors[ColText])
	}
	l.PopClipRect()
	c.addText(draw.Vec2{X: pos.X + fieldW + c.style.ItemSpacing.X, Y: pos.Y + pad.Y}, label, c.style.Colors[ColText])
	return changed
}

// Focused reports whether the text field with label has keyboard focus. Outside
// a window it matches the label in any window drawn this frame.
func (c *Context) Focused(label string) bool {
	if c.focus == 0 {
		return false
	}
	if c.current != nil {
		return c.focus == c.id(label)
	}
	for _, w := range c.order {
		if c.focus == hashID(w.id, label) {
			return true
		}
	}
	return false
}

// Separator draws a horizontal line across the window.
func (c *Context) Separator() {
	w := c.current
	pos := c.itemRect(draw.Vec2{X: w.contentWidth, Y: 1})
	w.list.AddRectFilled(pos, draw.Vec2{X: pos.X + w.contentWidth, Y: pos.Y + 1}, c.atlas.WhiteUV, c.style.Colors[ColSeparator])
}

// Spacing adds vertical space.
func (c *Context) Spacing() {
	c.itemRect(draw.Vec2{Y: c.style.ItemSpacing.Y})
}

// Callback appends a user callback command to the current window's list.
func (c *Context) Callback(cb draw.Callback, data any) {
	c.current.list.AddCallback(cb, data)
}
