package imrender

import (
	"log/slog"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/imrender/internal/pipeline"
)

// ShaderFormat selects how the GUI shader is handed to the device.
type ShaderFormat = pipeline.ShaderFormat

// Shader formats.
const (
	// ShaderFormatWGSL passes the embedded WGSL text to the device.
	ShaderFormatWGSL = pipeline.ShaderFormatWGSL
	// ShaderFormatSPIRV compiles the WGSL to SPIR-V with naga first, for
	// backends that only consume SPIR-V.
	ShaderFormatSPIRV = pipeline.ShaderFormatSPIRV
)

// DefaultFramesInFlight is the default length of the per-frame buffer ring.
const DefaultFramesInFlight = 3

// Option configures a Controller during creation.
//
// Example:
//
//	ctrl, err := imrender.New(device, queue, gui, window,
//	    imrender.WithFramesInFlight(2),
//	    imrender.WithDepthFormat(gputypes.TextureFormatDepth24Plus))
type Option func(*options)

type options struct {
	framesInFlight int
	colorFormat    gputypes.TextureFormat
	depthFormat    gputypes.TextureFormat
	events         gpucontext.EventSource
	shaderFormat   ShaderFormat
	gamma          float32
	logger         *slog.Logger
}

func defaultOptions() options {
	return options{
		framesInFlight: DefaultFramesInFlight,
		colorFormat:    gputypes.TextureFormatBGRA8Unorm,
		depthFormat:    gputypes.TextureFormatUndefined,
		shaderFormat:   ShaderFormatWGSL,
	}
}

// WithFramesInFlight sets how many frames the GPU may read while the CPU
// prepares the next one. It must match the host's swapchain depth.
func WithFramesInFlight(n int) Option {
	return func(o *options) {
		o.framesInFlight = n
	}
}

// WithColorFormat sets the format of the render target the GUI is drawn
// into. It defaults to BGRA8Unorm, or to the provider's surface format with
// NewFromProvider.
func WithColorFormat(f gputypes.TextureFormat) Option {
	return func(o *options) {
		o.colorFormat = f
	}
}

// WithDepthFormat enables a depth-stencil stage for render passes that carry
// a depth attachment. The GUI never tests or writes depth.
func WithDepthFormat(f gputypes.TextureFormat) Option {
	return func(o *options) {
		o.depthFormat = f
	}
}

// WithEventSource subscribes the controller to host window events. They are
// forwarded to the GUI on every Update, ahead of the explicit batch.
func WithEventSource(src gpucontext.EventSource) Option {
	return func(o *options) {
		o.events = src
	}
}

// WithShaderFormat selects the shader format.
func WithShaderFormat(f ShaderFormat) Option {
	return func(o *options) {
		o.shaderFormat = f
	}
}

// WithGamma overrides the output gamma. By default it is 2.2 for sRGB color
// formats and 1.0 otherwise.
func WithGamma(g float32) Option {
	return func(o *options) {
		o.gamma = g
	}
}

// WithLogger gives the controller its own logger instead of Logger().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}
