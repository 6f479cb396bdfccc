package haltest

import (
	"sync"

	"github.com/gogpu/wgpu/hal"
)

// BufferWrite is one recorded Queue.WriteBuffer call.
type BufferWrite struct {
	Buffer hal.Buffer
	Offset uint64
	Data   []byte
}

// Queue wraps a noop queue and records buffer and texture writes.
type Queue struct {
	hal.Queue

	mu            sync.Mutex
	Writes        []BufferWrite
	TextureWrites int
	FailWrite     error
}

// NewQueue wraps inner.
func NewQueue(inner hal.Queue) *Queue {
	return &Queue{Queue: inner}
}

func (q *Queue) WriteBuffer(buf hal.Buffer, offset uint64, data []byte) error {
	q.mu.Lock()
	if q.FailWrite != nil {
		err := q.FailWrite
		q.mu.Unlock()
		return err
	}
	q.Writes = append(q.Writes, BufferWrite{Buffer: buf, Offset: offset, Data: append([]byte(nil), data...)})
	q.mu.Unlock()
	return q.Queue.WriteBuffer(buf, offset, data)
}

func (q *Queue) WriteTexture(dst *hal.ImageCopyTexture, data []byte, layout *hal.ImageDataLayout, size *hal.Extent3D) error {
	q.mu.Lock()
	q.TextureWrites++
	q.mu.Unlock()
	return q.Queue.WriteTexture(dst, data, layout, size)
}

// WriteCount returns the number of recorded buffer writes.
func (q *Queue) WriteCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.Writes)
}

// WritesTo returns the recorded writes that targeted buf.
func (q *Queue) WritesTo(buf hal.Buffer) []BufferWrite {
	q.mu.Lock()
	defer q.mu.Unlock()
	var out []BufferWrite
	for _, w := range q.Writes {
		if w.Buffer == buf {
			out = append(out, w)
		}
	}
	return out
}

// Reset forgets recorded writes.
func (q *Queue) Reset() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.Writes = nil
	q.TextureWrites = 0
}
