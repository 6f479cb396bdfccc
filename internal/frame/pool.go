// Package frame manages the ring of per-frame vertex and index buffers used
// by the GUI renderer.
//
// Each in-flight frame owns one [Buffer]: a device vertex buffer, a device
// index buffer and host staging memory for both. Buffers grow on demand to
// the exact requested size (aligned up to 4 bytes) and are never shrunk, so
// after a few frames the steady state performs no allocations.
package frame

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// ErrInvalidCount is returned by NewPool for a non-positive slot count.
var ErrInvalidCount = errors.New("frame: slot count must be positive")

// ErrSlotOutOfRange is returned when a slot index is outside the ring.
var ErrSlotOutOfRange = errors.New("frame: slot out of range")

// Buffer holds the GPU and staging memory of one in-flight frame.
type Buffer struct {
	// Vertex is the device vertex buffer, nil until first use.
	Vertex hal.Buffer
	// Index is the device index buffer, nil until first use.
	Index hal.Buffer

	// VertexCap and IndexCap are the byte sizes of the device buffers.
	VertexCap uint64
	IndexCap  uint64

	// VertexStaging and IndexStaging mirror the device buffers on the host.
	// They are always exactly VertexCap and IndexCap bytes long.
	VertexStaging []byte
	IndexStaging  []byte

	vtxUsed uint64
	idxUsed uint64
}

// SetUsed records how many staging bytes of each kind hold this frame's data.
// Upload transfers only that many bytes.
func (b *Buffer) SetUsed(vtxBytes, idxBytes uint64) {
	b.vtxUsed = min(vtxBytes, b.VertexCap)
	b.idxUsed = min(idxBytes, b.IndexCap)
}

// Upload writes the used part of the staging memory to the device buffers,
// one transfer per buffer.
func (b *Buffer) Upload(queue hal.Queue) error {
	if b.vtxUsed > 0 {
		if err := queue.WriteBuffer(b.Vertex, 0, b.VertexStaging[:b.vtxUsed]); err != nil {
			return fmt.Errorf("frame: upload vertices: %w", err)
		}
	}
	if b.idxUsed > 0 {
		if err := queue.WriteBuffer(b.Index, 0, b.IndexStaging[:b.idxUsed]); err != nil {
			return fmt.Errorf("frame: upload indices: %w", err)
		}
	}
	return nil
}

// Pool is the ring of per-frame buffers.
type Pool struct {
	device hal.Device
	log    *slog.Logger

	slots []Buffer
	count int
	index int
}

// NewPool creates a pool of count slots. Device buffers are allocated lazily
// on the first EnsureCapacity call for each slot.
func NewPool(device hal.Device, count int, log *slog.Logger) (*Pool, error) {
	if count <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCount, count)
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Pool{
		device: device,
		log:    log,
		count:  count,
		// The first Advance lands on slot 0.
		index: count - 1,
	}, nil
}

// Count returns the number of slots.
func (p *Pool) Count() int { return p.count }

// Index returns the current slot index.
func (p *Pool) Index() int { return p.index }

// Advance moves to the next slot round-robin and returns its index.
func (p *Pool) Advance() int {
	p.index = (p.index + 1) % p.count
	return p.index
}

// Active returns the buffer at the current slot, allocating the ring on
// first use.
func (p *Pool) Active() *Buffer {
	p.lazyInit()
	return &p.slots[p.index]
}

// Slot returns the buffer at index i.
func (p *Pool) Slot(i int) (*Buffer, error) {
	if i < 0 || i >= p.count {
		return nil, fmt.Errorf("%w: %d of %d", ErrSlotOutOfRange, i, p.count)
	}
	p.lazyInit()
	return &p.slots[i], nil
}

func (p *Pool) lazyInit() {
	if p.slots == nil {
		p.slots = make([]Buffer, p.count)
	}
}

// EnsureCapacity makes slot hold at least vtxBytes of vertex data and idxBytes
// of index data. A buffer that is absent or too small is released and replaced
// with one sized exactly to the request rounded up to 4 bytes. Buffers that
// are already large enough are kept as they are.
func (p *Pool) EnsureCapacity(slot int, vtxBytes, idxBytes uint64) error {
	b, err := p.Slot(slot)
	if err != nil {
		return err
	}

	if b.Vertex == nil || b.VertexCap < vtxBytes {
		p.destroy(&b.Vertex)
		b.VertexCap, b.VertexStaging = 0, nil
		buf, size, err := p.create(vtxBytes, gputypes.BufferUsageVertex, "imgui_vertex_buffer", slot)
		if err != nil {
			return err
		}
		b.Vertex, b.VertexCap, b.VertexStaging = buf, size, make([]byte, size)
	}

	if b.Index == nil || b.IndexCap < idxBytes {
		p.destroy(&b.Index)
		b.IndexCap, b.IndexStaging = 0, nil
		buf, size, err := p.create(idxBytes, gputypes.BufferUsageIndex, "imgui_index_buffer", slot)
		if err != nil {
			return err
		}
		b.Index, b.IndexCap, b.IndexStaging = buf, size, make([]byte, size)
	}
	return nil
}

func (p *Pool) destroy(buf *hal.Buffer) {
	if *buf != nil {
		p.device.DestroyBuffer(*buf)
		*buf = nil
	}
}

func (p *Pool) create(want uint64, usage gputypes.BufferUsage, label string, slot int) (hal.Buffer, uint64, error) {
	size := max(Align4(want), 4)
	buf, err := p.device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  size,
		Usage: usage | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("frame: create %s (%d bytes): %w", label, size, err)
	}
	p.log.Debug("frame: buffer grown", "label", label, "slot", slot, "bytes", size)
	return buf, size, nil
}

// Release destroys every device buffer and drops the staging memory.
// The pool can be reused afterwards; buffers are recreated on demand.
func (p *Pool) Release() {
	for i := range p.slots {
		b := &p.slots[i]
		p.destroy(&b.Vertex)
		p.destroy(&b.Index)
		*b = Buffer{}
	}
	p.slots = nil
}

// Align4 rounds n up to a multiple of 4.
func Align4(n uint64) uint64 {
	return (n + 3) &^ 3
}
