package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
	"github.com/gogpu/wgpu/hal/software"
	"github.com/gogpu/wgpu/hal/vulkan"
)

// errNoAdapter is returned when a backend exposes no adapter.
var errNoAdapter = errors.New("no adapter")

// gpu is an opened device and the instance that owns it.
type gpu struct {
	backend  string
	instance hal.Instance
	adapter  hal.Adapter
	device   hal.Device
	queue    hal.Queue
	info     gputypes.AdapterInfo
}

// backendsByName maps config names to HAL backends. The software and noop
// backends both report BackendEmpty, so they are used directly instead of
// through the registry.
var backendsByName = map[string]hal.Backend{
	"vulkan":   vulkan.Backend{},
	"software": software.API{},
	"noop":     noop.API{},
}

// autoOrder is tried in order by the "auto" backend.
var autoOrder = []string{"vulkan", "software", "noop"}

// openGPU opens the named backend, or the first one that works for "auto".
func openGPU(name string, log *slog.Logger) (*gpu, error) {
	if name != "auto" {
		b, ok := backendsByName[name]
		if !ok {
			return nil, fmt.Errorf("unknown backend %q", name)
		}
		return openBackend(name, b)
	}

	var errs []error
	for _, n := range autoOrder {
		g, err := openBackend(n, backendsByName[n])
		if err == nil {
			return g, nil
		}
		log.Warn("backend unavailable", "backend", n, "err", err)
		errs = append(errs, fmt.Errorf("%s: %w", n, err))
	}
	return nil, errors.Join(errs...)
}

func openBackend(name string, b hal.Backend) (g *gpu, err error) {
	instance, err := b.CreateInstance(&hal.InstanceDescriptor{})
	if err != nil {
		return nil, fmt.Errorf("create instance: %w", err)
	}
	defer func() {
		if err != nil {
			instance.Destroy()
		}
	}()

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		return nil, errNoAdapter
	}
	exposed := pickAdapter(adapters)

	open, err := exposed.Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		return nil, fmt.Errorf("open device on %s: %w", exposed.Info.Name, err)
	}
	return &gpu{
		backend:  name,
		instance: instance,
		adapter:  exposed.Adapter,
		device:   open.Device,
		queue:    open.Queue,
		info:     exposed.Info,
	}, nil
}

// pickAdapter prefers a discrete GPU, then an integrated one, then whatever
// comes first.
func pickAdapter(adapters []hal.ExposedAdapter) hal.ExposedAdapter {
	for _, want := range []gputypes.DeviceType{gputypes.DeviceTypeDiscreteGPU, gputypes.DeviceTypeIntegratedGPU} {
		for _, a := range adapters {
			if a.Info.DeviceType == want {
				return a
			}
		}
	}
	return adapters[0]
}

func (g *gpu) close(log *slog.Logger) {
	if err := g.device.WaitIdle(); err != nil {
		log.Warn("wait idle", "err", err)
	}
	g.device.Destroy()
	g.adapter.Destroy()
	g.instance.Destroy()
}
