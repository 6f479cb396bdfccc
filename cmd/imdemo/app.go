package main

import (
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"unsafe"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/imrender"
	"github.com/gogpu/imrender/draw"
	"github.com/gogpu/imrender/input"
	"github.com/gogpu/imrender/ui"
)

const (
	targetFormat = gputypes.TextureFormatRGBA8Unorm
	checkerSize  = 64
	checkerCell  = 8

	// copyPitchAlignment is the row alignment of texture-to-buffer copies.
	copyPitchAlignment = 256
)

// texture is a texture with a single 2D view.
type texture struct {
	tex  hal.Texture
	view hal.TextureView
	w, h uint32
}

// app runs one scripted session: it renders cfg.Render.Frames frames into an
// offscreen target and writes the last one to a PNG.
type app struct {
	cfg Config
	log *slog.Logger

	gpu     *gpu
	gui     *ui.Context
	ctrl    *imrender.Controller
	target  *texture
	checker *texture

	checkerID draw.TextureID
	clicks    int
	show      bool
	name      string
}

func newApp(cfg Config, log *slog.Logger) (*app, error) {
	g, err := openGPU(cfg.Render.Backend, log)
	if err != nil {
		return nil, fmt.Errorf("open gpu: %w", err)
	}
	log.Info("device opened", "backend", g.backend, "adapter", g.info.Name, "type", g.info.DeviceType)

	a := &app{cfg: cfg, log: log, gpu: g, gui: ui.NewContext(nil), show: true}
	if err := a.init(); err != nil {
		a.close()
		return nil, err
	}
	return a, nil
}

func (a *app) init() error {
	fbW := uint32(float64(a.cfg.Window.Width) * a.cfg.Window.Scale)
	fbH := uint32(float64(a.cfg.Window.Height) * a.cfg.Window.Scale)

	var err error
	a.target, err = a.createTexture("imdemo_target", fbW, fbH,
		gputypes.TextureUsageRenderAttachment|gputypes.TextureUsageCopySrc)
	if err != nil {
		return err
	}

	window := gpucontext.NullWindowProvider{W: a.cfg.Window.Width, H: a.cfg.Window.Height, SF: a.cfg.Window.Scale}
	a.ctrl, err = imrender.New(a.gpu.device, a.gpu.queue, a.gui, window,
		imrender.WithColorFormat(targetFormat),
		imrender.WithFramesInFlight(a.cfg.Render.FramesInFlight))
	if err != nil {
		return fmt.Errorf("create controller: %w", err)
	}

	a.checker, err = a.createTexture("imdemo_checker", checkerSize, checkerSize,
		gputypes.TextureUsageTextureBinding|gputypes.TextureUsageCopyDst)
	if err != nil {
		return err
	}
	err = a.gpu.queue.WriteTexture(
		&hal.ImageCopyTexture{Texture: a.checker.tex},
		checkerPixels(checkerSize, checkerCell),
		&hal.ImageDataLayout{BytesPerRow: checkerSize * 4, RowsPerImage: checkerSize},
		&hal.Extent3D{Width: checkerSize, Height: checkerSize, DepthOrArrayLayers: 1},
	)
	if err != nil {
		return fmt.Errorf("upload checker: %w", err)
	}
	a.checkerID, err = a.ctrl.TextureID(a.checker.view)
	if err != nil {
		return fmt.Errorf("register checker: %w", err)
	}
	return nil
}

func (a *app) createTexture(label string, w, h uint32, usage gputypes.TextureUsage) (*texture, error) {
	tex, err := a.gpu.device.CreateTexture(&hal.TextureDescriptor{
		Label:         label,
		Size:          hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        targetFormat,
		Usage:         usage,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", label, err)
	}
	view, err := a.gpu.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         label + "_view",
		Format:        targetFormat,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		a.gpu.device.DestroyTexture(tex)
		return nil, fmt.Errorf("create %s view: %w", label, err)
	}
	return &texture{tex: tex, view: view, w: w, h: h}, nil
}

func (a *app) destroyTexture(t *texture) {
	if t == nil {
		return
	}
	a.gpu.device.DestroyTextureView(t.view)
	a.gpu.device.DestroyTexture(t.tex)
}

// close releases everything in reverse creation order.
func (a *app) close() {
	if err := a.gpu.device.WaitIdle(); err != nil {
		a.log.Warn("wait idle", "err", err)
	}
	if a.ctrl != nil {
		a.ctrl.Dispose()
	}
	a.destroyTexture(a.checker)
	a.destroyTexture(a.target)
	a.gpu.close(a.log)
}

// run renders every frame of the session and returns the last one.
func (a *app) run() (*image.RGBA, error) {
	dt := float32(1.0 / 60)
	var img *image.RGBA
	for i := 0; i < a.cfg.Render.Frames; i++ {
		a.ctrl.Update(dt, script(i, a.cfg.UI.Typed))
		a.buildUI(i)

		last := i == a.cfg.Render.Frames-1
		out, err := a.renderFrame(last)
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}
		if last {
			img = out
		}
		st := a.ctrl.LastFrameStats()
		a.log.Debug("frame rendered", "frame", i, "draws", st.DrawCalls, "vertices", st.Vertices, "indices", st.Indices)
	}
	a.log.Info("session finished", "frames", a.cfg.Render.Frames, "clicks", a.clicks, "name", a.name)
	return img, nil
}

func (a *app) buildUI(frame int) {
	g := a.gui
	if g.Begin(a.cfg.UI.Title, draw.Vec2{X: 20, Y: 20}, draw.Vec2{X: 360, Y: 260}) {
		g.Textf("frame %d, clicks %d", frame, a.clicks)
		if g.Button("Click me") {
			a.clicks++
		}
		g.Checkbox("Show image", &a.show)
		g.TextInput("Name", &a.name, 32)
		g.Separator()
		if a.show {
			g.Image(a.checkerID, draw.Vec2{X: checkerSize, Y: checkerSize})
		}
		if g.Focused("Name") {
			g.TextDisabled("typing...")
		}
	}
	g.End()
}

// Widget centers in display units. They follow the default style, the 7x13
// font and the window placement in buildUI.
var (
	buttonCenter = [2]float32{60, 73}
	fieldCenter  = [2]float32{120, 119}
)

// script returns the input of frame i: click the button, then focus the text
// field and type typed into it.
func script(i int, typed string) input.Batch {
	var b input.Batch
	bx, by := buttonCenter[0], buttonCenter[1]
	fx, fy := fieldCenter[0], fieldCenter[1]
	switch i {
	case 0:
		b.MouseMove(bx, by)
	case 1:
		b.MouseButton(gpucontext.MouseButtonLeft, true, bx, by)
	case 2:
		b.MouseButton(gpucontext.MouseButtonLeft, false, bx, by)
	case 3:
		b.MouseMove(fx, fy)
		b.MouseButton(gpucontext.MouseButtonLeft, true, fx, fy)
	case 4:
		b.MouseButton(gpucontext.MouseButtonLeft, false, fx, fy)
		b.Text(typed)
	}
	return b
}

// renderFrame records the GUI into one render pass and submits it. With
// readback it also copies the target into a staging buffer and returns it as
// an image.
func (a *app) renderFrame(readback bool) (*image.RGBA, error) {
	dev := a.gpu.device
	enc, err := dev.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "imdemo_frame"})
	if err != nil {
		return nil, fmt.Errorf("create encoder: %w", err)
	}
	defer enc.Destroy()
	if err := enc.BeginEncoding("imdemo_frame"); err != nil {
		return nil, fmt.Errorf("begin encoding: %w", err)
	}

	c := a.cfg.Render.Clear
	pass := enc.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "imdemo_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:       a.target.view,
			LoadOp:     gputypes.LoadOpClear,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: gputypes.Color{R: c[0], G: c[1], B: c[2], A: c[3]},
		}},
	})
	renderErr := a.ctrl.Render(pass)
	pass.End()
	if renderErr != nil {
		enc.DiscardEncoding()
		return nil, renderErr
	}

	var staging hal.Buffer
	var pitch uint32
	if readback {
		staging, pitch, err = a.encodeReadback(enc)
		if err != nil {
			enc.DiscardEncoding()
			return nil, err
		}
		defer dev.DestroyBuffer(staging)
	}

	cmd, err := enc.EndEncoding()
	if err != nil {
		return nil, fmt.Errorf("end encoding: %w", err)
	}
	defer dev.FreeCommandBuffer(cmd)
	if _, err := a.gpu.queue.Submit([]hal.CommandBuffer{cmd}); err != nil {
		return nil, fmt.Errorf("submit: %w", err)
	}
	if err := dev.WaitIdle(); err != nil {
		return nil, fmt.Errorf("wait idle: %w", err)
	}
	if !readback {
		return nil, nil
	}
	return a.readImage(staging, pitch)
}

// encodeReadback copies the target into a new staging buffer with rows
// padded to copyPitchAlignment.
func (a *app) encodeReadback(enc hal.CommandEncoder) (hal.Buffer, uint32, error) {
	t := a.target
	pitch := (t.w*4 + copyPitchAlignment - 1) &^ (copyPitchAlignment - 1)
	staging, err := a.gpu.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "imdemo_readback",
		Size:  uint64(pitch) * uint64(t.h),
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("create readback buffer: %w", err)
	}

	enc.TransitionTextures([]hal.TextureBarrier{{
		Texture: t.tex,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageRenderAttachment,
			NewUsage: gputypes.TextureUsageCopySrc,
		},
	}})
	enc.CopyTextureToBuffer(t.tex, staging, []hal.BufferTextureCopy{{
		BufferLayout: hal.ImageDataLayout{BytesPerRow: pitch, RowsPerImage: t.h},
		TextureBase:  hal.ImageCopyTexture{Texture: t.tex},
		Size:         hal.Extent3D{Width: t.w, Height: t.h, DepthOrArrayLayers: 1},
	}})
	enc.TransitionTextures([]hal.TextureBarrier{{
		Texture: t.tex,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageCopySrc,
			NewUsage: gputypes.TextureUsageRenderAttachment,
		},
	}})
	return staging, pitch, nil
}

func (a *app) readImage(staging hal.Buffer, pitch uint32) (*image.RGBA, error) {
	t := a.target
	size := uint64(pitch) * uint64(t.h)
	m, err := a.gpu.device.MapBuffer(staging, 0, size)
	if err != nil {
		return nil, fmt.Errorf("map readback buffer: %w", err)
	}
	src := unsafe.Slice((*byte)(m.Ptr), size) //nolint:gosec // mapping covers size bytes

	img := image.NewRGBA(image.Rect(0, 0, int(t.w), int(t.h)))
	row := int(t.w) * 4
	for y := 0; y < int(t.h); y++ {
		copy(img.Pix[y*img.Stride:y*img.Stride+row], src[y*int(pitch):y*int(pitch)+row])
	}
	if err := a.gpu.device.UnmapBuffer(staging); err != nil {
		return nil, fmt.Errorf("unmap readback buffer: %w", err)
	}
	return img, nil
}

// blankImageWarning explains why backend produces no GUI pixels, or returns
// "" when it rasterizes draws.
func blankImageWarning(backend string) string {
	switch backend {
	case "noop":
		return "noop backend draws nothing; the image only shows zeroed memory"
	case "software":
		return "software backend does not rasterize indexed draws; the image only shows the clear color"
	}
	return ""
}

// checkerPixels returns an RGBA8 checkerboard of size x size pixels.
func checkerPixels(size, cell int) []byte {
	pix := make([]byte, size*size*4)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			v := byte(0x40)
			if (x/cell+y/cell)%2 == 0 {
				v = 0xe0
			}
			i := (y*size + x) * 4
			pix[i], pix[i+1], pix[i+2], pix[i+3] = v, v, 0xff, 0xff
		}
	}
	return pix
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// runOnce opens a device, runs one session and writes the PNG.
func runOnce(cfg Config, log *slog.Logger) error {
	a, err := newApp(cfg, log)
	if err != nil {
		return err
	}
	defer a.close()

	img, err := a.run()
	if err != nil {
		return err
	}
	if msg := blankImageWarning(a.gpu.backend); msg != "" {
		log.Warn(msg, "backend", a.gpu.backend)
	}
	if err := writePNG(cfg.Render.Output, img); err != nil {
		return fmt.Errorf("write %s: %w", cfg.Render.Output, err)
	}
	log.Info("image written", "path", cfg.Render.Output, "width", img.Bounds().Dx(), "height", img.Bounds().Dy())
	return nil
}
