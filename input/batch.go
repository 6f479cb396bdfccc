// Package input carries host window events into the GUI's input model.
//
// Events are gathered into a Batch, either explicitly by the host or by a
// Collector subscribed to a gpucontext.EventSource, and applied to ui.IO once
// per frame with Forward. Order within a batch is preserved, so a press and
// release arriving in the same frame still register as a click.
package input

import "github.com/gogpu/gpucontext"

// Kind is the type of an Event.
type Kind uint8

// Event kinds.
const (
	KindKey Kind = iota + 1
	KindText
	KindMouseMove
	KindMouseButton
	KindScroll
	KindFocus
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindKey:
		return "key"
	case KindText:
		return "text"
	case KindMouseMove:
		return "mouse-move"
	case KindMouseButton:
		return "mouse-button"
	case KindScroll:
		return "scroll"
	case KindFocus:
		return "focus"
	default:
		return "unknown"
	}
}

// Event is one host input event. Only the fields of its Kind are set.
type Event struct {
	Kind Kind

	Key  gpucontext.Key
	Mods gpucontext.Modifiers

	// Down is the new state for key and mouse button events, and the focus
	// state for focus events.
	Down bool

	Text string

	Button gpucontext.MouseButton

	// X, Y is the mouse position for move and button events, or the scroll
	// delta for scroll events.
	X, Y float32
}

// Batch is an ordered list of events for one frame. The zero value is empty
// and ready to use.
type Batch struct {
	Events []Event
}

// Len returns the number of events.
func (b Batch) Len() int { return len(b.Events) }

// Reset empties the batch, keeping its storage.
func (b *Batch) Reset() { b.Events = b.Events[:0] }

// Key records a key transition with the modifiers held at the time.
func (b *Batch) Key(key gpucontext.Key, mods gpucontext.Modifiers, down bool) {
	b.Events = append(b.Events, Event{Kind: KindKey, Key: key, Mods: mods, Down: down})
}

// Text records typed text.
func (b *Batch) Text(s string) {
	if s == "" {
		return
	}
	b.Events = append(b.Events, Event{Kind: KindText, Text: s})
}

// MouseMove records a mouse position in window coordinates.
func (b *Batch) MouseMove(x, y float32) {
	b.Events = append(b.Events, Event{Kind: KindMouseMove, X: x, Y: y})
}

// MouseButton records a button transition at a position.
func (b *Batch) MouseButton(button gpucontext.MouseButton, down bool, x, y float32) {
	b.Events = append(b.Events, Event{Kind: KindMouseButton, Button: button, Down: down, X: x, Y: y})
}

// Scroll records wheel movement. Positive dy scrolls up.
func (b *Batch) Scroll(dx, dy float32) {
	b.Events = append(b.Events, Event{Kind: KindScroll, X: dx, Y: dy})
}

// Focus records the host window gaining or losing focus.
func (b *Batch) Focus(focused bool) {
	b.Events = append(b.Events, Event{Kind: KindFocus, Down: focused})
}

// Append adds the events of o after those of b.
func (b *Batch) Append(o Batch) {
	b.Events = append(b.Events, o.Events...)
}
