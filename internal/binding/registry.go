// Package binding memoizes per-texture bind groups.
//
// The GUI references textures by an opaque [draw.TextureID]. The registry
// creates one bind group per distinct texture view, scoped to the per-image
// layout, and hands out a sequential non-zero id for it. Entries live until
// Release; there is no eviction, so the registry grows with the number of
// distinct views ever bound.
package binding

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/imrender/draw"
)

// ErrNilView is returned by Bind for a nil texture view.
var ErrNilView = errors.New("binding: nil texture view")

// Entry is a registered texture view.
type Entry struct {
	ID    draw.TextureID
	View  hal.TextureView
	Group hal.BindGroup
}

// Registry maps texture views to bind groups.
type Registry struct {
	device hal.Device
	layout hal.BindGroupLayout
	log    *slog.Logger

	byView map[hal.TextureView]*Entry
	byID   map[draw.TextureID]*Entry
	nextID draw.TextureID
}

// NewRegistry returns an empty registry creating bind groups against layout,
// which must declare a single sampled texture at binding 0.
func NewRegistry(device hal.Device, layout hal.BindGroupLayout, log *slog.Logger) *Registry {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Registry{
		device: device,
		layout: layout,
		log:    log,
		byView: make(map[hal.TextureView]*Entry),
		byID:   make(map[draw.TextureID]*Entry),
	}
}

// Bind returns the entry for view, creating its bind group on first use.
func (r *Registry) Bind(view hal.TextureView) (Entry, error) {
	if view == nil {
		return Entry{}, ErrNilView
	}
	if e, ok := r.byView[view]; ok {
		return *e, nil
	}

	group, err := r.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "imgui_image_bind_group",
		Layout: r.layout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.TextureViewBinding{TextureView: view.NativeHandle()}},
		},
	})
	if err != nil {
		return Entry{}, fmt.Errorf("binding: create bind group: %w", err)
	}

	r.nextID++
	e := &Entry{ID: r.nextID, View: view, Group: group}
	r.byView[view] = e
	r.byID[e.ID] = e
	r.log.Debug("binding: texture view registered", "id", e.ID, "entries", len(r.byView))
	return *e, nil
}

// Lookup resolves an id handed out by Bind.
func (r *Registry) Lookup(id draw.TextureID) (hal.BindGroup, bool) {
	e, ok := r.byID[id]
	if !ok {
		return nil, false
	}
	return e.Group, true
}

// ID returns the id assigned to view, if it was bound.
func (r *Registry) ID(view hal.TextureView) (draw.TextureID, bool) {
	e, ok := r.byView[view]
	if !ok {
		return 0, false
	}
	return e.ID, true
}

// Len returns the number of registered views.
func (r *Registry) Len() int { return len(r.byView) }

// Release destroys every bind group and empties the registry. Ids are not
// reused after Release.
func (r *Registry) Release() {
	for view, e := range r.byView {
		r.device.DestroyBindGroup(e.Group)
		delete(r.byView, view)
		delete(r.byID, e.ID)
	}
}
