package input

import (
	"github.com/gogpu/gpucontext"

	"github.com/gogpu/imrender/ui"
)

var keyMap = map[gpucontext.Key]ui.Key{
	gpucontext.KeyTab:          ui.KeyTab,
	gpucontext.KeyLeft:         ui.KeyLeftArrow,
	gpucontext.KeyRight:        ui.KeyRightArrow,
	gpucontext.KeyUp:           ui.KeyUpArrow,
	gpucontext.KeyDown:         ui.KeyDownArrow,
	gpucontext.KeyPageUp:       ui.KeyPageUp,
	gpucontext.KeyPageDown:     ui.KeyPageDown,
	gpucontext.KeyHome:         ui.KeyHome,
	gpucontext.KeyEnd:          ui.KeyEnd,
	gpucontext.KeyInsert:       ui.KeyInsert,
	gpucontext.KeyDelete:       ui.KeyDelete,
	gpucontext.KeyBackspace:    ui.KeyBackspace,
	gpucontext.KeySpace:        ui.KeySpace,
	gpucontext.KeyEnter:        ui.KeyEnter,
	gpucontext.KeyNumpadEnter:  ui.KeyEnter,
	gpucontext.KeyEscape:       ui.KeyEscape,
	gpucontext.KeyLeftControl:  ui.KeyLeftCtrl,
	gpucontext.KeyLeftShift:    ui.KeyLeftShift,
	gpucontext.KeyLeftAlt:      ui.KeyLeftAlt,
	gpucontext.KeyLeftSuper:    ui.KeyLeftSuper,
	gpucontext.KeyRightControl: ui.KeyRightCtrl,
	gpucontext.KeyRightShift:   ui.KeyRightShift,
	gpucontext.KeyRightAlt:     ui.KeyRightAlt,
	gpucontext.KeyRightSuper:   ui.KeyRightSuper,
}

func init() {
	for i := 0; i < 26; i++ {
		keyMap[gpucontext.KeyA+gpucontext.Key(i)] = ui.KeyA + ui.Key(i)
	}
	for i := 0; i < 10; i++ {
		keyMap[gpucontext.Key0+gpucontext.Key(i)] = ui.Key0 + ui.Key(i)
	}
	for i := 0; i < 12; i++ {
		keyMap[gpucontext.KeyF1+gpucontext.Key(i)] = ui.KeyF1 + ui.Key(i)
	}
}

// MapKey returns the GUI key for a host key, or ui.KeyNone when the GUI has
// no equivalent.
func MapKey(k gpucontext.Key) ui.Key {
	return keyMap[k]
}

// MapMouseButton returns the GUI button index for a host button.
func MapMouseButton(b gpucontext.MouseButton) int {
	switch b {
	case gpucontext.MouseButtonLeft:
		return ui.MouseButtonLeft
	case gpucontext.MouseButtonRight:
		return ui.MouseButtonRight
	case gpucontext.MouseButtonMiddle:
		return ui.MouseButtonMiddle
	default:
		return int(b)
	}
}

// Forward applies the events of b to io in order.
func Forward(b Batch, io *ui.IO) {
	for i := range b.Events {
		forward(&b.Events[i], io)
	}
}

func forward(e *Event, io *ui.IO) {
	switch e.Kind {
	case KindKey:
		forwardMods(e, io)
		if k := MapKey(e.Key); k != ui.KeyNone {
			io.AddKeyEvent(k, e.Down)
		}
	case KindText:
		io.AddInputCharactersUTF8(e.Text)
	case KindMouseMove:
		io.AddMousePosEvent(e.X, e.Y)
	case KindMouseButton:
		io.AddMousePosEvent(e.X, e.Y)
		io.AddMouseButtonEvent(MapMouseButton(e.Button), e.Down)
	case KindScroll:
		io.AddMouseWheelEvent(e.X, e.Y)
	case KindFocus:
		io.AddFocusEvent(e.Down)
	}
}

// forwardMods sends the modifier state carried by a key event. Hosts disagree
// on whether a modifier's own press includes it in Mods, so the modifier keys
// themselves decide their state.
func forwardMods(e *Event, io *ui.IO) {
	ctrl, shift, alt, super := e.Mods.HasControl(), e.Mods.HasShift(), e.Mods.HasAlt(), e.Mods.HasSuper()
	switch e.Key {
	case gpucontext.KeyLeftControl, gpucontext.KeyRightControl:
		ctrl = e.Down
	case gpucontext.KeyLeftShift, gpucontext.KeyRightShift:
		shift = e.Down
	case gpucontext.KeyLeftAlt, gpucontext.KeyRightAlt:
		alt = e.Down
	case gpucontext.KeyLeftSuper, gpucontext.KeyRightSuper:
		super = e.Down
	}
	setMod(io, ui.KeyModCtrl, io.KeyCtrl, ctrl)
	setMod(io, ui.KeyModShift, io.KeyShift, shift)
	setMod(io, ui.KeyModAlt, io.KeyAlt, alt)
	setMod(io, ui.KeyModSuper, io.KeySuper, super)
}

func setMod(io *ui.IO, key ui.Key, was, now bool) {
	if was != now {
		io.AddKeyEvent(key, now)
	}
}
