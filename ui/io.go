package ui

import (
	"math"

	"github.com/gogpu/imrender/draw"
)

// Key identifies a keyboard key in the GUI's input model.
type Key int

// Keys understood by the GUI. The Mod keys report modifier state and are
// sent alongside the physical left/right keys.
const (
	KeyNone Key = iota
	KeyTab
	KeyLeftArrow
	KeyRightArrow
	KeyUpArrow
	KeyDownArrow
	KeyPageUp
	KeyPageDown
	KeyHome
	KeyEnd
	KeyInsert
	KeyDelete
	KeyBackspace
	KeySpace
	KeyEnter
	KeyEscape
	KeyLeftCtrl
	KeyLeftShift
	KeyLeftAlt
	KeyLeftSuper
	KeyRightCtrl
	KeyRightShift
	KeyRightAlt
	KeyRightSuper
	Key0
	Key1
	Key2
	Key3
	Key4
	Key5
	Key6
	Key7
	Key8
	Key9
	KeyA
	KeyB
	KeyC
	KeyD
	KeyE
	KeyF
	KeyG
	KeyH
	KeyI
	KeyJ
	KeyK
	KeyL
	KeyM
	KeyN
	KeyO
	KeyP
	KeyQ
	KeyR
	KeyS
	KeyT
	KeyU
	KeyV
	KeyW
	KeyX
	KeyY
	KeyZ
	KeyF1
	KeyF2
	KeyF3
	KeyF4
	KeyF5
	KeyF6
	KeyF7
	KeyF8
	KeyF9
	KeyF10
	KeyF11
	KeyF12
	KeyModCtrl
	KeyModShift
	KeyModAlt
	KeyModSuper

	keyCount
)

// Mouse buttons.
const (
	MouseButtonLeft = iota
	MouseButtonRight
	MouseButtonMiddle

	// MouseButtonCount is the number of tracked buttons.
	MouseButtonCount = 5
)

// IO is the GUI's input and display state. The host fills it in before
// NewFrame; the GUI reads it while building the frame and publishes the
// Want* hints back.
type IO struct {
	// DisplaySize is the window size in display units.
	DisplaySize draw.Vec2
	// DisplayFramebufferScale maps display units to framebuffer pixels.
	DisplayFramebufferScale draw.Vec2
	// DeltaTime is the time since the last frame in seconds.
	DeltaTime float32

	// MousePos is the mouse position in display units. Both components are
	// -MaxFloat32 while the mouse is unavailable.
	MousePos    draw.Vec2
	MouseDown   [MouseButtonCount]bool
	MouseWheel  float32
	MouseWheelH float32

	KeyCtrl  bool
	KeyShift bool
	KeyAlt   bool
	KeySuper bool

	// InputQueueCharacters holds text typed since the last frame.
	InputQueueCharacters []rune

	// AppFocused is false after the host window lost focus.
	AppFocused bool

	// Output hints for the host.
	WantCaptureMouse    bool
	WantCaptureKeyboard bool
	WantTextInput       bool

	keysDown      [keyCount]bool
	keysPressed   [keyCount]bool
	mouseClicked  [MouseButtonCount]bool
	mouseReleased [MouseButtonCount]bool
}

// NewIO returns IO with the mouse unavailable and a unit framebuffer scale.
func NewIO() *IO {
	return &IO{
		DisplayFramebufferScale: draw.Vec2{X: 1, Y: 1},
		MousePos:                noMouse,
		AppFocused:              true,
	}
}

var noMouse = draw.Vec2{X: -math.MaxFloat32, Y: -math.MaxFloat32}

// AddKeyEvent records a key transition.
func (io *IO) AddKeyEvent(key Key, down bool) {
	if key <= KeyNone || key >= keyCount {
		return
	}
	switch key {
	case KeyModCtrl:
		io.KeyCtrl = down
	case KeyModShift:
		io.KeyShift = down
	case KeyModAlt:
		io.KeyAlt = down
	case KeyModSuper:
		io.KeySuper = down
	}
	if down && !io.keysDown[key] {
		io.keysPressed[key] = true
	}
	io.keysDown[key] = down
}

// AddInputCharacter queues a typed character. Control characters are dropped.
func (io *IO) AddInputCharacter(r rune) {
	if r < 0x20 || r == 0x7f {
		return
	}
	io.InputQueueCharacters = append(io.InputQueueCharacters, r)
}

// AddInputCharactersUTF8 queues every character of s.
func (io *IO) AddInputCharactersUTF8(s string) {
	for _, r := range s {
		io.AddInputCharacter(r)
	}
}

// AddMousePosEvent moves the mouse.
func (io *IO) AddMousePosEvent(x, y float32) {
	io.MousePos = draw.Vec2{X: x, Y: y}
}

// AddMouseButtonEvent records a mouse button transition.
func (io *IO) AddMouseButtonEvent(button int, down bool) {
	if button < 0 || button >= MouseButtonCount {
		return
	}
	switch {
	case down && !io.MouseDown[button]:
		io.mouseClicked[button] = true
	case !down && io.MouseDown[button]:
		io.mouseReleased[button] = true
	}
	io.MouseDown[button] = down
}

// AddMouseWheelEvent accumulates wheel movement. Positive y scrolls up.
func (io *IO) AddMouseWheelEvent(x, y float32) {
	io.MouseWheelH += x
	io.MouseWheel += y
}

// AddFocusEvent reports host window focus. Losing focus releases every key
// and button so nothing stays stuck down.
func (io *IO) AddFocusEvent(focused bool) {
	io.AppFocused = focused
	if focused {
		return
	}
	io.keysDown = [keyCount]bool{}
	io.MouseDown = [MouseButtonCount]bool{}
	io.KeyCtrl, io.KeyShift, io.KeyAlt, io.KeySuper = false, false, false, false
}

// KeyDown reports whether key is held.
func (io *IO) KeyDown(key Key) bool {
	return key > KeyNone && key < keyCount && io.keysDown[key]
}

// KeyPressed reports whether key went down this frame.
func (io *IO) KeyPressed(key Key) bool {
	return key > KeyNone && key < keyCount && io.keysPressed[key]
}

// MouseClicked reports whether button went down this frame.
func (io *IO) MouseClicked(button int) bool {
	return button >= 0 && button < MouseButtonCount && io.mouseClicked[button]
}

// MouseReleased reports whether button went up this frame.
func (io *IO) MouseReleased(button int) bool {
	return button >= 0 && button < MouseButtonCount && io.mouseReleased[button]
}

// MouseValid reports whether the mouse position is known.
func (io *IO) MouseValid() bool {
	return io.MousePos != noMouse
}

// endFrame clears per-frame edges and queues.
func (io *IO) endFrame() {
	io.keysPressed = [keyCount]bool{}
	io.mouseClicked = [MouseButtonCount]bool{}
	io.mouseReleased = [MouseButtonCount]bool{}
	io.InputQueueCharacters = io.InputQueueCharacters[:0]
	io.MouseWheel, io.MouseWheelH = 0, 0
}
