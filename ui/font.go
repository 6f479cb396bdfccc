package ui

import (
	"image"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/gogpu/imrender/draw"
)

// Atlas dimensions. The 7x13 face has 96 glyphs (ASCII plus the replacement
// character), which fit in 16 columns by 6 rows of 7x13 cells.
const (
	atlasWidth  = 128
	atlasHeight = 128
	atlasCols   = 16
)

// whiteRect is an opaque 2x2 block in the bottom-right corner, sampled by
// solid shapes.
var whiteRect = image.Rect(atlasWidth-4, atlasHeight-4, atlasWidth-2, atlasHeight-2)

// Glyph locates one character in the atlas.
type Glyph struct {
	// X0, Y0, X1, Y1 is the quad relative to the pen position at the top of
	// the line.
	X0, Y0, X1, Y1 float32
	// U0, V0, U1, V1 are the normalized texture coordinates.
	U0, V0, U1, V1 float32
	// Advance is the horizontal pen movement.
	Advance float32
}

// FontAtlas is a bitmap font rasterized into a single texture.
type FontAtlas struct {
	// TexID is the backend's id for the atlas texture. The renderer sets it
	// after uploading the pixels.
	TexID draw.TextureID

	// WhiteUV addresses an opaque white texel.
	WhiteUV draw.Vec2

	// LineHeight is the distance between baselines.
	LineHeight float32

	alpha    *image.Alpha
	rgba     []byte
	glyphs   map[rune]Glyph
	fallback Glyph
}

// NewFontAtlas rasterizes the built-in 7x13 bitmap face.
func NewFontAtlas() *FontAtlas {
	return newFontAtlas(basicfont.Face7x13)
}

func newFontAtlas(face *basicfont.Face) *FontAtlas {
	a := &FontAtlas{
		alpha:      image.NewAlpha(image.Rect(0, 0, atlasWidth, atlasHeight)),
		glyphs:     make(map[rune]Glyph),
		LineHeight: float32(face.Height),
	}

	d := font.Drawer{Dst: a.alpha, Src: image.Opaque, Face: face}
	cellW, cellH := face.Advance, face.Height
	i := 0
	for _, rng := range face.Ranges {
		for r := rng.Low; r < rng.High; r++ {
			x, y := (i%atlasCols)*cellW, (i/atlasCols)*cellH
			d.Dot = fixed.P(x, y+face.Ascent)
			d.DrawString(string(r))

			a.glyphs[r] = Glyph{
				X0: 0, Y0: 0,
				X1: float32(face.Width), Y1: float32(cellH),
				U0: float32(x) / atlasWidth, V0: float32(y) / atlasHeight,
				U1: float32(x+face.Width) / atlasWidth, V1: float32(y+cellH) / atlasHeight,
				Advance: float32(face.Advance),
			}
			i++
		}
	}
	a.fallback = a.glyphs['?']
	if g, ok := a.glyphs['\ufffd']; ok {
		a.fallback = g
	}

	xdraw.Draw(a.alpha, whiteRect, image.Opaque, image.Point{}, xdraw.Src)
	a.WhiteUV = draw.Vec2{
		X: (float32(whiteRect.Min.X) + 1) / atlasWidth,
		Y: (float32(whiteRect.Min.Y) + 1) / atlasHeight,
	}
	return a
}

// TexDataAsRGBA32 returns the atlas as non-premultiplied RGBA8: white with
// the glyph coverage in alpha.
func (a *FontAtlas) TexDataAsRGBA32() (pixels []byte, width, height int) {
	if a.rgba == nil {
		a.rgba = make([]byte, atlasWidth*atlasHeight*4)
		for i, v := range a.alpha.Pix {
			a.rgba[i*4+0] = 0xff
			a.rgba[i*4+1] = 0xff
			a.rgba[i*4+2] = 0xff
			a.rgba[i*4+3] = v
		}
	}
	return a.rgba, atlasWidth, atlasHeight
}

// Glyph returns the glyph for r, or the fallback glyph when r is not in the
// atlas.
func (a *FontAtlas) Glyph(r rune) Glyph {
	if g, ok := a.glyphs[r]; ok {
		return g
	}
	return a.fallback
}

// HasGlyph reports whether r has its own glyph.
func (a *FontAtlas) HasGlyph(r rune) bool {
	_, ok := a.glyphs[r]
	return ok
}

// TextSize measures s. Newlines start a new line.
func (a *FontAtlas) TextSize(s string) draw.Vec2 {
	var w, lineW float32
	lines := 1
	for _, r := range s {
		if r == '\n' {
			w = max(w, lineW)
			lineW = 0
			lines++
			continue
		}
		lineW += a.Glyph(r).Advance
	}
	return draw.Vec2{X: max(w, lineW), Y: float32(lines) * a.LineHeight}
}
