package imrender

import (
	"fmt"
	"log/slog"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/imrender/draw"
	"github.com/gogpu/imrender/input"
	"github.com/gogpu/imrender/internal/binding"
	"github.com/gogpu/imrender/internal/frame"
	"github.com/gogpu/imrender/internal/pipeline"
	"github.com/gogpu/imrender/internal/release"
	"github.com/gogpu/imrender/ui"
)

// GUI is the immediate-mode GUI a Controller drives. *ui.Context implements
// it.
type GUI interface {
	IO() *ui.IO
	FontAtlas() *ui.FontAtlas
	NewFrame()
	Render() *draw.Data
}

var _ GUI = (*ui.Context)(nil)

// Controller renders a GUI on a HAL device. It is not safe for concurrent
// use; call it from the frame loop only.
type Controller struct {
	device hal.Device
	queue  hal.Queue
	gui    GUI
	window gpucontext.WindowProvider
	log    *slog.Logger

	res       *pipeline.Resources
	bindings  *binding.Registry
	pool      *frame.Pool
	collector *input.Collector
	fontID    draw.TextureID
	fontGroup hal.BindGroup

	frames   uint64
	last     FrameStats
	disposed bool
}

// New creates a controller rendering gui with device and queue.
//
// window reports the display size and scale factor on every Update. It may be
// nil when the host fills in gui.IO() itself.
//
// Every GPU resource the controller needs is created here; any failure is
// returned and nothing is left allocated.
func New(device hal.Device, queue hal.Queue, gui GUI, window gpucontext.WindowProvider, opts ...Option) (*Controller, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return newController(device, queue, gui, window, o)
}

// NewFromProvider creates a controller from a host graphics context. The
// provider must have HalDevice() any and HalQueue() any methods returning
// hal.Device and hal.Queue. When it is also a gpucontext.DeviceProvider its
// surface format becomes the default color format.
func NewFromProvider(provider any, gui GUI, window gpucontext.WindowProvider, opts ...Option) (*Controller, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, fmt.Errorf("%w: provider does not expose HAL types", ErrNilDevice)
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: provider HalDevice is not hal.Device", ErrNilDevice)
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("%w: provider HalQueue is not hal.Queue", ErrNilDevice)
	}

	o := defaultOptions()
	if dp, ok := provider.(gpucontext.DeviceProvider); ok {
		o.colorFormat = dp.SurfaceFormat()
	}
	for _, opt := range opts {
		opt(&o)
	}
	return newController(device, queue, gui, window, o)
}

func newController(device hal.Device, queue hal.Queue, gui GUI, window gpucontext.WindowProvider, o options) (*Controller, error) {
	if device == nil || queue == nil {
		return nil, ErrNilDevice
	}
	if gui == nil {
		return nil, ErrNilGUI
	}
	if o.framesInFlight < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidFramesInFlight, o.framesInFlight)
	}
	log := o.logger
	if log == nil {
		log = Logger()
	}

	c := &Controller{
		device: device,
		queue:  queue,
		gui:    gui,
		window: window,
		log:    log,
	}

	var rs release.Stack
	defer rs.ReleaseUnlessKept()

	pixels, w, h := gui.FontAtlas().TexDataAsRGBA32()
	res, err := pipeline.New(device, queue, pipeline.Config{
		ColorFormat:  o.colorFormat,
		DepthFormat:  o.depthFormat,
		ShaderFormat: o.shaderFormat,
		Gamma:        o.gamma,
		Font:         pipeline.FontImage{Pixels: pixels, Width: w, Height: h},
	}, log)
	if err != nil {
		return nil, fmt.Errorf("imrender: %w", err)
	}
	c.res = res
	rs.Push(res.Release)

	c.bindings = binding.NewRegistry(device, res.ImageLayout, log)
	rs.Push(c.bindings.Release)
	font, err := c.bindings.Bind(res.FontView)
	if err != nil {
		return nil, fmt.Errorf("imrender: bind font texture: %w", err)
	}
	c.fontID = font.ID
	c.fontGroup = font.Group
	gui.FontAtlas().TexID = font.ID

	c.pool, err = frame.NewPool(device, o.framesInFlight, log)
	if err != nil {
		return nil, fmt.Errorf("imrender: %w", err)
	}
	rs.Push(c.pool.Release)

	if o.events != nil {
		c.collector = input.Attach(o.events)
	}

	rs.Keep()
	log.Info("imrender: controller ready",
		"frames_in_flight", o.framesInFlight,
		"color_format", o.colorFormat,
		"font_texture", font.ID)
	return c, nil
}

// Update starts a GUI frame. It sets the frame time and display metrics,
// forwards pending host events and then batch to the GUI, and calls
// NewFrame. dt is in seconds; a non-positive dt is treated as 1/60.
func (c *Controller) Update(dt float32, batch input.Batch) {
	if c.disposed {
		c.warnDisposed("Update")
		return
	}
	io := c.gui.IO()
	if dt <= 0 {
		dt = 1.0 / 60
	}
	io.DeltaTime = dt

	if c.window != nil {
		w, h := c.window.Size()
		sf := float32(c.window.ScaleFactor())
		if sf <= 0 {
			sf = 1
		}
		io.DisplaySize = draw.Vec2{X: float32(w), Y: float32(h)}
		io.DisplayFramebufferScale = draw.Vec2{X: sf, Y: sf}
	}

	if c.collector != nil {
		input.Forward(c.collector.Drain(), io)
	}
	input.Forward(batch, io)
	c.gui.NewFrame()
}

// Render finishes the GUI frame and records its draw calls into pass. The
// pass must target the color format given at creation. Render does not end
// the pass or submit anything.
func (c *Controller) Render(pass hal.RenderPassEncoder) error {
	if c.disposed {
		c.warnDisposed("Render")
		return ErrDisposed
	}
	data := c.gui.Render()
	st, err := c.renderDrawData(pass, data)
	c.frames++
	c.last = st
	if err != nil {
		return fmt.Errorf("imrender: render frame %d: %w", c.frames, err)
	}
	c.log.Debug("imrender: frame",
		"frame", c.frames,
		"draws", st.DrawCalls,
		"clipped", st.ClippedCommands,
		"callbacks", st.IgnoredCallbacks,
		"unresolved", st.UnresolvedTextures,
		"skipped", st.Skipped)
	return nil
}

// LastFrameStats returns the statistics of the last Render.
func (c *Controller) LastFrameStats() FrameStats { return c.last }

// BindTextureView makes view drawable from GUI code and returns its bind
// group. Binding the same view again returns the same group.
func (c *Controller) BindTextureView(view hal.TextureView) (hal.BindGroup, error) {
	if c.disposed {
		c.warnDisposed("BindTextureView")
		return nil, ErrDisposed
	}
	e, err := c.bindings.Bind(view)
	if err != nil {
		return nil, fmt.Errorf("imrender: %w", err)
	}
	return e.Group, nil
}

// TextureID returns the id GUI code uses to draw view, binding it first if
// needed.
func (c *Controller) TextureID(view hal.TextureView) (draw.TextureID, error) {
	if c.disposed {
		c.warnDisposed("TextureID")
		return 0, ErrDisposed
	}
	e, err := c.bindings.Bind(view)
	if err != nil {
		return 0, fmt.Errorf("imrender: %w", err)
	}
	return e.ID, nil
}

// FontTextureID returns the id of the font atlas texture.
func (c *Controller) FontTextureID() draw.TextureID { return c.fontID }

func (c *Controller) warnDisposed(op string) {
	c.log.Warn("imrender: call on disposed controller", "op", op, "frames", c.frames)
}

// Dispose releases every GPU resource the controller created and stops
// listening to host events. It is safe to call more than once.
func (c *Controller) Dispose() {
	if c.disposed {
		return
	}
	c.disposed = true
	if c.collector != nil {
		c.collector.Detach()
	}
	c.pool.Release()
	c.bindings.Release()
	c.res.Release()
	c.log.Debug("imrender: controller disposed", "frames", c.frames)
}
