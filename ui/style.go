package ui

import "github.com/gogpu/imrender/draw"

// Col indexes Style.Colors.
type Col int

// Style colors.
const (
	ColText Col = iota
	ColTextDisabled
	ColWindowBg
	ColBorder
	ColTitleBg
	ColFrameBg
	ColFrameBgHovered
	ColButton
	ColButtonHovered
	ColButtonActive
	ColCheckMark
	ColSeparator

	colCount
)

// Style holds sizes and colors. Colors are packed RGBA, R in the low byte.
type Style struct {
	WindowPadding draw.Vec2
	FramePadding  draw.Vec2
	ItemSpacing   draw.Vec2
	BorderSize    float32
	Colors        [colCount]uint32
}

// DefaultStyle returns the dark default style.
func DefaultStyle() Style {
	s := Style{
		WindowPadding: draw.Vec2{X: 8, Y: 8},
		FramePadding:  draw.Vec2{X: 4, Y: 3},
		ItemSpacing:   draw.Vec2{X: 8, Y: 4},
		BorderSize:    1,
	}
	s.Colors[ColText] = draw.RGBA(255, 255, 255, 255)
	s.Colors[ColTextDisabled] = draw.RGBA(128, 128, 128, 255)
	s.Colors[ColWindowBg] = draw.RGBA(15, 15, 15, 240)
	s.Colors[ColBorder] = draw.RGBA(110, 110, 128, 128)
	s.Colors[ColTitleBg] = draw.RGBA(41, 74, 122, 255)
	s.Colors[ColFrameBg] = draw.RGBA(41, 74, 122, 138)
	s.Colors[ColFrameBgHovered] = draw.RGBA(66, 150, 250, 102)
	s.Colors[ColButton] = draw.RGBA(66, 150, 250, 102)
	s.Colors[ColButtonHovered] = draw.RGBA(66, 150, 250, 255)
	s.Colors[ColButtonActive] = draw.RGBA(15, 135, 250, 255)
	s.Colors[ColCheckMark] = draw.RGBA(66, 150, 250, 255)
	s.Colors[ColSeparator] = draw.RGBA(110, 110, 128, 128)
	return s
}
