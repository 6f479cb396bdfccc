package imrender

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/imrender/draw"
	"github.com/gogpu/imrender/input"
	"github.com/gogpu/imrender/internal/haltest"
	"github.com/gogpu/imrender/ui"
)

var errBoom = errors.New("boom")

// stubGUI returns a fixed draw.Data from Render.
type stubGUI struct {
	io        *ui.IO
	atlas     *ui.FontAtlas
	data      draw.Data
	newFrames int
}

func newStubGUI() *stubGUI {
	return &stubGUI{io: ui.NewIO(), atlas: ui.NewFontAtlas()}
}

func (g *stubGUI) IO() *ui.IO               { return g.io }
func (g *stubGUI) FontAtlas() *ui.FontAtlas { return g.atlas }
func (g *stubGUI) NewFrame()                { g.newFrames++ }
func (g *stubGUI) Render() *draw.Data       { return &g.data }

type fixture struct {
	ctrl   *Controller
	device *haltest.Device
	queue  *haltest.Queue
}

func newFixture(t *testing.T, gui GUI, window gpucontext.WindowProvider, opts ...Option) fixture {
	t.Helper()
	d, q := haltest.OpenNoop(t)
	f := fixture{device: haltest.NewDevice(d), queue: haltest.NewQueue(q)}
	ctrl, err := New(f.device, f.queue, gui, window, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(ctrl.Dispose)
	f.ctrl = ctrl
	f.queue.Reset()
	return f
}

func TestNewValidates(t *testing.T) {
	d, q := haltest.OpenNoop(t)
	gui := newStubGUI()
	tests := []struct {
		name    string
		device  hal.Device
		queue   hal.Queue
		gui     GUI
		opts    []Option
		wantErr error
	}{
		{"nil device", nil, q, gui, nil, ErrNilDevice},
		{"nil queue", d, nil, gui, nil, ErrNilDevice},
		{"nil gui", d, q, nil, nil, ErrNilGUI},
		{"zero frames", d, q, gui, []Option{WithFramesInFlight(0)}, ErrInvalidFramesInFlight},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.device, tt.queue, tt.gui, nil, tt.opts...)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewRegistersFontTexture(t *testing.T) {
	gui := newStubGUI()
	f := newFixture(t, gui, nil)

	id := f.ctrl.FontTextureID()
	if id == 0 || gui.atlas.TexID != id {
		t.Errorf("font id = %d, atlas TexID = %d", id, gui.atlas.TexID)
	}
	if _, ok := f.ctrl.bindings.Lookup(id); !ok {
		t.Error("font texture not in the binding registry")
	}
	// Common group plus the font image group.
	if got := f.device.Created(haltest.KindBindGroup); got != 2 {
		t.Errorf("bind groups = %d, want 2", got)
	}
}

func TestNewFailureReleasesEverything(t *testing.T) {
	for _, kind := range haltest.Kinds {
		t.Run(kind, func(t *testing.T) {
			d, q := haltest.OpenNoop(t)
			dev := haltest.NewDevice(d)
			dev.FailOn(kind, errBoom)
			_, err := New(dev, haltest.NewQueue(q), newStubGUI(), nil)
			if !errors.Is(err, errBoom) {
				t.Fatalf("err = %v, want errBoom", err)
			}
			if live := dev.Live(); live != 0 {
				t.Errorf("%d resources leaked", live)
			}
		})
	}
}

func TestNewFontBindingFailure(t *testing.T) {
	d, q := haltest.OpenNoop(t)
	dev := haltest.NewDevice(d)
	// The common bind group is the last pipeline resource; fail the next one.
	gui := newStubGUI()
	failing := &failAfter{Device: dev, n: 1}
	_, err := New(failing, haltest.NewQueue(q), gui, nil)
	if !errors.Is(err, errBoom) {
		t.Fatalf("err = %v, want errBoom", err)
	}
	if live := dev.Live(); live != 0 {
		t.Errorf("%d resources leaked", live)
	}
}

// failAfter lets n bind groups through and fails the rest.
type failAfter struct {
	*haltest.Device
	n int
}

func (f *failAfter) CreateBindGroup(desc *hal.BindGroupDescriptor) (hal.BindGroup, error) {
	if f.n == 0 {
		return nil, errBoom
	}
	f.n--
	return f.Device.CreateBindGroup(desc)
}

func TestDisposeReleasesEverything(t *testing.T) {
	gui := newStubGUI()
	gui.data = twoLists()
	f := newFixture(t, gui, nil)
	if _, err := f.ctrl.BindTextureView(haltest.NewView(500)); err != nil {
		t.Fatal(err)
	}
	if err := f.ctrl.Render(&haltest.Pass{}); err != nil {
		t.Fatal(err)
	}

	f.ctrl.Dispose()
	if live := f.device.Live(); live != 0 {
		t.Errorf("%d resources alive after Dispose", live)
	}
	if got := f.device.Destroyed(haltest.KindBindGroup); got != 3 {
		t.Errorf("bind groups destroyed = %d, want 3", got)
	}
	f.ctrl.Dispose()
	if live := f.device.Live(); live != 0 {
		t.Errorf("second Dispose changed live count to %d", live)
	}

	if err := f.ctrl.Render(&haltest.Pass{}); !errors.Is(err, ErrDisposed) {
		t.Errorf("Render after Dispose = %v", err)
	}
	if _, err := f.ctrl.BindTextureView(haltest.NewView(501)); !errors.Is(err, ErrDisposed) {
		t.Errorf("BindTextureView after Dispose = %v", err)
	}
	if _, err := f.ctrl.TextureID(haltest.NewView(501)); !errors.Is(err, ErrDisposed) {
		t.Errorf("TextureID after Dispose = %v", err)
	}
	f.ctrl.Update(0.1, input.Batch{})
	if gui.newFrames != 0 {
		t.Error("Update after Dispose started a frame")
	}
}

func TestDisposedCallsWarn(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))
	f := newFixture(t, newStubGUI(), nil, WithLogger(log))
	f.ctrl.Dispose()
	if buf.Len() != 0 {
		t.Fatalf("warnings before misuse: %s", buf.String())
	}

	f.ctrl.Update(0.1, input.Batch{})
	_ = f.ctrl.Render(&haltest.Pass{})
	_, _ = f.ctrl.BindTextureView(haltest.NewView(1))
	_, _ = f.ctrl.TextureID(haltest.NewView(1))

	out := buf.String()
	if n := strings.Count(out, "level=WARN"); n != 4 {
		t.Errorf("%d warnings, want 4:\n%s", n, out)
	}
	for _, op := range []string{"op=Update", "op=Render", "op=BindTextureView", "op=TextureID"} {
		if !strings.Contains(out, op) {
			t.Errorf("no warning for %s", op)
		}
	}
}

func TestBindTextureViewMemoizes(t *testing.T) {
	f := newFixture(t, newStubGUI(), nil)
	a, b := haltest.NewView(10), haltest.NewView(11)

	ga1, err := f.ctrl.BindTextureView(a)
	if err != nil {
		t.Fatal(err)
	}
	ga2, _ := f.ctrl.BindTextureView(a)
	gb, _ := f.ctrl.BindTextureView(b)
	if ga1 != ga2 {
		t.Error("same view bound twice returned different groups")
	}
	if ga1 == gb {
		t.Error("distinct views share a group")
	}

	ida, _ := f.ctrl.TextureID(a)
	idb, _ := f.ctrl.TextureID(b)
	if ida == idb || ida == 0 || ida == f.ctrl.FontTextureID() {
		t.Errorf("ids a=%d b=%d font=%d", ida, idb, f.ctrl.FontTextureID())
	}
	if _, err := f.ctrl.BindTextureView(nil); err == nil {
		t.Error("nil view accepted")
	}
}

func TestUpdate(t *testing.T) {
	gui := newStubGUI()
	window := gpucontext.NullWindowProvider{W: 640, H: 480, SF: 2}
	f := newFixture(t, gui, window)

	var b input.Batch
	b.Text("x")
	b.MouseMove(5, 6)
	f.ctrl.Update(0.5, b)

	if gui.newFrames != 1 {
		t.Errorf("NewFrame calls = %d", gui.newFrames)
	}
	io := gui.io
	if io.DeltaTime != 0.5 {
		t.Errorf("DeltaTime = %v", io.DeltaTime)
	}
	if io.DisplaySize != (draw.Vec2{X: 640, Y: 480}) || io.DisplayFramebufferScale != (draw.Vec2{X: 2, Y: 2}) {
		t.Errorf("display = %+v scale = %+v", io.DisplaySize, io.DisplayFramebufferScale)
	}
	if string(io.InputQueueCharacters) != "x" || io.MousePos != (draw.Vec2{X: 5, Y: 6}) {
		t.Errorf("input not forwarded: %q %+v", string(io.InputQueueCharacters), io.MousePos)
	}

	f.ctrl.Update(0, input.Batch{})
	if io.DeltaTime <= 0 {
		t.Errorf("DeltaTime = %v for a zero dt", io.DeltaTime)
	}
}

type textSource struct {
	gpucontext.NullEventSource
	text func(string)
}

func (s *textSource) OnTextInput(fn func(string)) { s.text = fn }

func TestEventSourceForwardedBeforeBatch(t *testing.T) {
	gui := newStubGUI()
	src := &textSource{}
	f := newFixture(t, gui, nil, WithEventSource(src))

	src.text("ab")
	var b input.Batch
	b.Text("c")
	f.ctrl.Update(0.1, b)
	if got := string(gui.io.InputQueueCharacters); got != "abc" {
		t.Errorf("chars = %q, want %q", got, "abc")
	}

	f.ctrl.Dispose()
	if !f.ctrl.collector.Detached() {
		t.Error("collector still attached after Dispose")
	}
}

type halProvider struct {
	device hal.Device
	queue  hal.Queue
}

func (p halProvider) HalDevice() any { return p.device }
func (p halProvider) HalQueue() any  { return p.queue }

type surfaceProvider struct {
	halProvider
	gpucontext.DeviceProvider
	format gputypes.TextureFormat
}

func (p surfaceProvider) SurfaceFormat() gputypes.TextureFormat { return p.format }

func TestNewFromProvider(t *testing.T) {
	d, q := haltest.OpenNoop(t)

	ctrl, err := NewFromProvider(halProvider{d, q}, newStubGUI(), nil)
	if err != nil {
		t.Fatalf("NewFromProvider: %v", err)
	}
	if ctrl.res.ColorFormat != gputypes.TextureFormatBGRA8Unorm {
		t.Errorf("color format = %v, want default", ctrl.res.ColorFormat)
	}
	ctrl.Dispose()

	sp := surfaceProvider{halProvider: halProvider{d, q}, format: gputypes.TextureFormatRGBA8UnormSrgb}
	ctrl, err = NewFromProvider(sp, newStubGUI(), nil)
	if err != nil {
		t.Fatalf("NewFromProvider(surface): %v", err)
	}
	if ctrl.res.ColorFormat != gputypes.TextureFormatRGBA8UnormSrgb || ctrl.res.Gamma != 2.2 {
		t.Errorf("format = %v gamma = %v", ctrl.res.ColorFormat, ctrl.res.Gamma)
	}
	ctrl.Dispose()

	// An explicit option wins over the provider.
	ctrl, err = NewFromProvider(sp, newStubGUI(), nil, WithColorFormat(gputypes.TextureFormatRGBA8Unorm), WithGamma(1.8))
	if err != nil {
		t.Fatal(err)
	}
	if ctrl.res.ColorFormat != gputypes.TextureFormatRGBA8Unorm || ctrl.res.Gamma != 1.8 {
		t.Errorf("format = %v gamma = %v", ctrl.res.ColorFormat, ctrl.res.Gamma)
	}
	ctrl.Dispose()

	for _, p := range []any{nil, struct{}{}, halProvider{nil, q}, halProvider{d, nil}} {
		if _, err := NewFromProvider(p, newStubGUI(), nil); !errors.Is(err, ErrNilDevice) {
			t.Errorf("NewFromProvider(%T) = %v, want ErrNilDevice", p, err)
		}
	}
}

func TestOptions(t *testing.T) {
	o := defaultOptions()
	if o.framesInFlight != 3 || o.colorFormat != gputypes.TextureFormatBGRA8Unorm || o.shaderFormat != ShaderFormatWGSL {
		t.Errorf("defaults = %+v", o)
	}
	for _, opt := range []Option{
		WithFramesInFlight(2),
		WithDepthFormat(gputypes.TextureFormatDepth32Float),
		WithShaderFormat(ShaderFormatSPIRV),
		WithColorFormat(gputypes.TextureFormatRGBA8Unorm),
	} {
		opt(&o)
	}
	if o.framesInFlight != 2 || o.depthFormat != gputypes.TextureFormatDepth32Float ||
		o.shaderFormat != ShaderFormatSPIRV || o.colorFormat != gputypes.TextureFormatRGBA8Unorm {
		t.Errorf("options = %+v", o)
	}
}

func TestDepthAndSPIRV(t *testing.T) {
	f := newFixture(t, newStubGUI(), nil,
		WithDepthFormat(gputypes.TextureFormatDepth32Float),
		WithShaderFormat(ShaderFormatSPIRV))
	if f.ctrl.res.DepthFormat != gputypes.TextureFormatDepth32Float {
		t.Errorf("depth = %v", f.ctrl.res.DepthFormat)
	}
	if len(f.device.ShaderModules[0].Source.SPIRV) == 0 {
		t.Error("shader not compiled to SPIR-V")
	}
}
