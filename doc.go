// Package imrender renders an immediate-mode GUI with WebGPU.
//
// # Overview
//
// imrender is the backend half of an immediate-mode GUI: the GUI builds
// draw.Data every frame, and a Controller turns it into draw calls on a
// render pass of the host's gogpu/wgpu HAL device. The host owns the device,
// the surface and the frame loop; imrender owns the pipeline, the font
// texture, the per-frame vertex and index buffers and the texture bindings.
//
// # Quick Start
//
//	gui := ui.NewContext(nil)
//	ctrl, err := imrender.New(device, queue, gui, window,
//	    imrender.WithColorFormat(gputypes.TextureFormatBGRA8Unorm))
//	if err != nil {
//	    return err
//	}
//	defer ctrl.Dispose()
//
//	for running {
//	    ctrl.Update(dt, batch)
//	    if gui.Begin("Hello", draw.Vec2{X: 10, Y: 10}, draw.Vec2{X: 200, Y: 100}) {
//	        gui.Text("hello, world")
//	    }
//	    gui.End()
//	    // begin a render pass on the swapchain texture
//	    if err := ctrl.Render(pass); err != nil {
//	        return err
//	    }
//	    // end the pass, submit, present
//	}
//
// # Frames in flight
//
// Vertex and index data are uploaded into one of a ring of buffers, one per
// frame the GPU may still be reading. The ring length is set with
// WithFramesInFlight and must match the host's real in-flight depth; the
// controller never waits on the GPU.
//
// # Host textures
//
// BindTextureView registers a texture view for use from GUI code and
// TextureID returns the draw.TextureID to pass to ui.Context.Image. Bindings
// live until Dispose; nothing is evicted.
//
// # Limitations
//
// Draw command callbacks are carried through draw.Data but never invoked.
// One controller serves one GUI context from one goroutine.
package imrender
