package input

import (
	"sync"

	"github.com/gogpu/gpucontext"
)

// Collector subscribes to an event source and buffers its events until the
// frame loop drains them. Event callbacks may arrive on any goroutine.
//
// gpucontext.EventSource has no way to unsubscribe, so Detach leaves the
// callbacks registered and makes them drop everything.
type Collector struct {
	mu       sync.Mutex
	pending  Batch
	detached bool
}

// Attach subscribes a new Collector to src.
func Attach(src gpucontext.EventSource) *Collector {
	c := &Collector{}
	src.OnKeyPress(func(k gpucontext.Key, m gpucontext.Modifiers) {
		c.add(func(b *Batch) { b.Key(k, m, true) })
	})
	src.OnKeyRelease(func(k gpucontext.Key, m gpucontext.Modifiers) {
		c.add(func(b *Batch) { b.Key(k, m, false) })
	})
	src.OnTextInput(func(s string) {
		c.add(func(b *Batch) { b.Text(s) })
	})
	src.OnIMECompositionEnd(func(committed string) {
		c.add(func(b *Batch) { b.Text(committed) })
	})
	src.OnMouseMove(func(x, y float64) {
		c.add(func(b *Batch) { b.MouseMove(float32(x), float32(y)) })
	})
	src.OnMousePress(func(btn gpucontext.MouseButton, x, y float64) {
		c.add(func(b *Batch) { b.MouseButton(btn, true, float32(x), float32(y)) })
	})
	src.OnMouseRelease(func(btn gpucontext.MouseButton, x, y float64) {
		c.add(func(b *Batch) { b.MouseButton(btn, false, float32(x), float32(y)) })
	})
	src.OnScroll(func(dx, dy float64) {
		c.add(func(b *Batch) { b.Scroll(float32(dx), float32(dy)) })
	})
	src.OnFocus(func(focused bool) {
		c.add(func(b *Batch) { b.Focus(focused) })
	})
	return c
}

func (c *Collector) add(fn func(*Batch)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.detached {
		return
	}
	fn(&c.pending)
}

// Drain returns the events gathered since the last Drain.
func (c *Collector) Drain() Batch {
	c.mu.Lock()
	defer c.mu.Unlock()
	b := c.pending
	c.pending = Batch{}
	return b
}

// Detach stops collecting and discards pending events. It is safe to call
// more than once.
func (c *Collector) Detach() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.detached = true
	c.pending = Batch{}
}

// Detached reports whether Detach was called.
func (c *Collector) Detached() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.detached
}
