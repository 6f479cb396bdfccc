package imrender

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/gogpu/gpucontext"

	"github.com/gogpu/imrender/draw"
	"github.com/gogpu/imrender/input"
	"github.com/gogpu/imrender/internal/haltest"
	"github.com/gogpu/imrender/ui"
)

var screen = draw.Vec4{X: 0, Y: 0, Z: 800, W: 600}

func white() uint32 { return draw.RGBA(255, 255, 255, 255) }

// list builds a draw list with nv vertices and the given commands.
func list(nv int, idx []draw.Idx, cmds ...draw.Cmd) *draw.List {
	l := &draw.List{Cmds: cmds, IdxBuffer: idx}
	for i := 0; i < nv; i++ {
		l.VtxBuffer = append(l.VtxBuffer, draw.Vert{Pos: draw.Vec2{X: float32(i), Y: float32(i)}, Col: white()})
	}
	return l
}

func dataOf(lists ...*draw.List) draw.Data {
	d := draw.Data{
		Valid:            true,
		Lists:            lists,
		DisplaySize:      draw.Vec2{X: 800, Y: 600},
		FramebufferScale: draw.Vec2{X: 1, Y: 1},
	}
	d.Recount()
	return d
}

// twoLists is a triangle list followed by a quad list.
func twoLists() draw.Data {
	return dataOf(
		list(3, []draw.Idx{0, 1, 2}, draw.Cmd{ClipRect: screen, ElemCount: 3}),
		list(4, []draw.Idx{0, 1, 2, 0, 2, 3}, draw.Cmd{ClipRect: screen, ElemCount: 6}),
	)
}

func TestRenderTwoLists(t *testing.T) {
	gui := newStubGUI()
	gui.data = twoLists()
	f := newFixture(t, gui, nil)
	pass := &haltest.Pass{}

	if err := f.ctrl.Render(pass); err != nil {
		t.Fatal(err)
	}
	want := []haltest.DrawIndexedCall{
		{IndexCount: 3, InstanceCount: 1, FirstIndex: 0, BaseVertex: 0},
		{IndexCount: 6, InstanceCount: 1, FirstIndex: 3, BaseVertex: 3},
	}
	if len(pass.Draws) != len(want) {
		t.Fatalf("draws = %+v", pass.Draws)
	}
	for i := range want {
		if pass.Draws[i] != want[i] {
			t.Errorf("draw %d = %+v, want %+v", i, pass.Draws[i], want[i])
		}
	}

	st := f.ctrl.LastFrameStats()
	if st.DrawCalls != 2 || st.Vertices != 7 || st.Indices != 9 || st.Lists != 2 {
		t.Errorf("stats = %+v", st)
	}
	if pass.Count("SetPipeline") != 1 || pass.Count("SetVertexBuffer") != 1 || pass.Count("SetIndexBuffer") != 1 {
		t.Errorf("calls = %v", pass.Calls)
	}
	if len(pass.Viewports) != 1 || pass.Viewports[0] != (haltest.Viewport{W: 800, H: 600, MaxDepth: 1}) {
		t.Errorf("viewports = %+v", pass.Viewports)
	}
	if pass.BindGroups[0].Index != 0 || pass.BindGroups[0].Group != f.ctrl.res.CommonGroup {
		t.Errorf("first bind group = %+v", pass.BindGroups[0])
	}
	if pass.Ended {
		t.Error("Render ended the pass")
	}
}

func TestRenderUploads(t *testing.T) {
	gui := newStubGUI()
	gui.data = twoLists()
	f := newFixture(t, gui, nil)
	if err := f.ctrl.Render(&haltest.Pass{}); err != nil {
		t.Fatal(err)
	}
	buf := f.ctrl.pool.Active()

	vw := f.queue.WritesTo(buf.Vertex)
	if len(vw) != 1 || len(vw[0].Data) != 7*draw.VertSize {
		t.Fatalf("vertex writes = %d", len(vw))
	}
	// Vertex 4 is the second vertex of the second list.
	var v draw.Vert
	v.Pos.X = float32(1)
	v.Pos.Y = float32(1)
	v.Col = white()
	want := make([]byte, draw.VertSize)
	v.Put(want)
	if string(vw[0].Data[4*draw.VertSize:5*draw.VertSize]) != string(want) {
		t.Error("second list vertices not copied after the first")
	}

	iw := f.queue.WritesTo(buf.Index)
	if len(iw) != 1 {
		t.Fatalf("index writes = %d", len(iw))
	}
	// 9 indices padded to 20 bytes.
	if len(iw[0].Data) != 20 {
		t.Errorf("index bytes = %d, want 20", len(iw[0].Data))
	}
	got := make([]uint16, 10)
	for i := range got {
		got[i] = binary.LittleEndian.Uint16(iw[0].Data[i*2:])
	}
	wantIdx := []uint16{0, 1, 2, 0, 1, 2, 0, 2, 3, 0}
	for i := range wantIdx {
		if got[i] != wantIdx[i] {
			t.Fatalf("indices = %v, want %v", got, wantIdx)
		}
	}

	if uw := f.queue.WritesTo(f.ctrl.res.Uniforms); len(uw) != 1 || len(uw[0].Data) != 80 {
		t.Errorf("uniform writes = %d", len(uw))
	}
}

func TestRenderEmptySkipsBuffers(t *testing.T) {
	gui := newStubGUI()
	gui.data = dataOf(&draw.List{})
	f := newFixture(t, gui, nil)
	pass := &haltest.Pass{}
	if err := f.ctrl.Render(pass); err != nil {
		t.Fatal(err)
	}
	if pass.Count("SetVertexBuffer") != 0 || pass.Count("SetIndexBuffer") != 0 {
		t.Errorf("buffers bound for empty data: %v", pass.Calls)
	}
	if pass.Count("SetPipeline") != 1 {
		t.Error("pipeline not bound")
	}
	if f.queue.WriteCount() != 1 || len(f.queue.WritesTo(f.ctrl.res.Uniforms)) != 1 {
		t.Errorf("writes = %d, want only the uniform upload", f.queue.WriteCount())
	}
	if f.device.Created(haltest.KindBuffer) != 1 {
		t.Error("frame buffers allocated for empty data")
	}
	if f.ctrl.pool.Index() != f.ctrl.pool.Count()-1 {
		t.Error("ring advanced for empty data")
	}
}

func TestRenderZeroFramebuffer(t *testing.T) {
	gui := ui.NewContext(nil)
	f := newFixture(t, gui, gpucontext.NullWindowProvider{W: 0, H: 600})

	f.ctrl.Update(1.0/60, input.Batch{})
	gui.Begin("w", draw.Vec2{}, draw.Vec2{X: 100, Y: 100})
	gui.Text("hidden")
	gui.End()

	pass := &haltest.Pass{}
	if err := f.ctrl.Render(pass); err != nil {
		t.Fatal(err)
	}
	if len(pass.Calls) != 0 {
		t.Errorf("calls = %v, want none", pass.Calls)
	}
	if f.queue.WriteCount() != 0 {
		t.Errorf("buffer writes = %d, want 0", f.queue.WriteCount())
	}
	if !f.ctrl.LastFrameStats().Skipped {
		t.Error("frame not reported as skipped")
	}
}

func TestRenderSkipsDegenerateClip(t *testing.T) {
	gui := newStubGUI()
	idx := []draw.Idx{0, 1, 2, 0, 1, 2, 0, 1, 2}
	gui.data = dataOf(
		list(3, idx,
			draw.Cmd{ClipRect: screen, ElemCount: 3},
			draw.Cmd{ClipRect: draw.Vec4{X: 10, Y: 10, Z: 10, W: 50}, IdxOffset: 3, ElemCount: 3},
			draw.Cmd{ClipRect: draw.Vec4{X: 900, Y: 0, Z: 1000, W: 50}, IdxOffset: 3, ElemCount: 3},
			draw.Cmd{ClipRect: screen, IdxOffset: 6, ElemCount: 3},
		),
		list(3, []draw.Idx{0, 1, 2}, draw.Cmd{ClipRect: screen, ElemCount: 3}),
	)
	f := newFixture(t, gui, nil)
	pass := &haltest.Pass{}
	if err := f.ctrl.Render(pass); err != nil {
		t.Fatal(err)
	}

	if len(pass.Draws) != 3 {
		t.Fatalf("draws = %+v", pass.Draws)
	}
	if pass.Draws[1].FirstIndex != 6 {
		t.Errorf("second draw first index = %d, want 6", pass.Draws[1].FirstIndex)
	}
	// Offsets still advance past the first list.
	if d := pass.Draws[2]; d.FirstIndex != 9 || d.BaseVertex != 3 {
		t.Errorf("third draw = %+v", d)
	}
	if st := f.ctrl.LastFrameStats(); st.ClippedCommands != 2 {
		t.Errorf("clipped = %d, want 2", st.ClippedCommands)
	}
	if len(pass.Scissors) != 3 {
		t.Errorf("scissors = %d", len(pass.Scissors))
	}
}

func TestRenderScalesClip(t *testing.T) {
	gui := newStubGUI()
	d := dataOf(list(3, []draw.Idx{0, 1, 2},
		draw.Cmd{ClipRect: draw.Vec4{X: 10, Y: 20, Z: 110, W: 220}, ElemCount: 3}))
	d.DisplaySize = draw.Vec2{X: 400, Y: 300}
	d.FramebufferScale = draw.Vec2{X: 2, Y: 2}
	gui.data = d
	f := newFixture(t, gui, nil)
	pass := &haltest.Pass{}
	if err := f.ctrl.Render(pass); err != nil {
		t.Fatal(err)
	}
	if want := (haltest.Scissor{X: 20, Y: 40, W: 200, H: 400}); pass.Scissors[0] != want {
		t.Errorf("scissor = %+v, want %+v", pass.Scissors[0], want)
	}
	if vp := pass.Viewports[0]; vp.W != 800 || vp.H != 600 {
		t.Errorf("viewport = %+v", vp)
	}
}

func TestScissor(t *testing.T) {
	one := draw.Vec2{X: 1, Y: 1}
	tests := []struct {
		name       string
		clip       draw.Vec4
		pos, scale draw.Vec2
		want       haltest.Scissor
		ok         bool
	}{
		{"inside", draw.Vec4{X: 1, Y: 2, Z: 11, W: 12}, draw.Vec2{}, one, haltest.Scissor{X: 1, Y: 2, W: 10, H: 10}, true},
		{"clamped", draw.Vec4{X: -50, Y: -50, Z: 900, W: 900}, draw.Vec2{}, one, haltest.Scissor{W: 800, H: 600}, true},
		{"display offset", draw.Vec4{X: 110, Y: 120, Z: 130, W: 140}, draw.Vec2{X: 100, Y: 100}, one, haltest.Scissor{X: 10, Y: 20, W: 20, H: 20}, true},
		{"zero width", draw.Vec4{X: 5, Y: 0, Z: 5, W: 10}, draw.Vec2{}, one, haltest.Scissor{}, false},
		{"inverted", draw.Vec4{X: 0, Y: 10, Z: 10, W: 5}, draw.Vec2{}, one, haltest.Scissor{}, false},
		{"offscreen", draw.Vec4{X: 801, Y: 0, Z: 900, W: 10}, draw.Vec2{}, one, haltest.Scissor{}, false},
		{"sub-pixel", draw.Vec4{X: 1.2, Y: 0, Z: 1.7, W: 10}, draw.Vec2{}, one, haltest.Scissor{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y, w, h, ok := scissor(tt.clip, tt.pos, tt.scale, 800, 600)
			if ok != tt.ok || (haltest.Scissor{X: x, Y: y, W: w, H: h}) != tt.want {
				t.Errorf("scissor = %d,%d %dx%d ok=%v, want %+v ok=%v", x, y, w, h, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestRenderIgnoresCallbacks(t *testing.T) {
	called := false
	cb := func(*draw.List, *draw.Cmd) { called = true }
	gui := newStubGUI()
	gui.data = dataOf(list(3, []draw.Idx{0, 1, 2, 0, 1, 2},
		draw.Cmd{ClipRect: screen, ElemCount: 3},
		draw.Cmd{ClipRect: screen, IdxOffset: 3, Callback: cb},
		draw.Cmd{ClipRect: screen, IdxOffset: 3, ElemCount: 3},
	))
	f := newFixture(t, gui, nil)
	pass := &haltest.Pass{}
	if err := f.ctrl.Render(pass); err != nil {
		t.Fatal(err)
	}
	if called {
		t.Error("callback invoked")
	}
	if len(pass.Draws) != 2 || f.ctrl.LastFrameStats().IgnoredCallbacks != 1 {
		t.Errorf("draws = %d stats = %+v", len(pass.Draws), f.ctrl.LastFrameStats())
	}
}

func TestRenderTextures(t *testing.T) {
	gui := newStubGUI()
	f := newFixture(t, gui, nil)
	view := haltest.NewView(42)
	id, err := f.ctrl.TextureID(view)
	if err != nil {
		t.Fatal(err)
	}
	group, _ := f.ctrl.BindTextureView(view)
	fontGroup, _ := f.ctrl.bindings.Lookup(f.ctrl.FontTextureID())

	font := f.ctrl.FontTextureID()
	gui.data = dataOf(list(3, []draw.Idx{0, 1, 2, 0, 1, 2, 0, 1, 2, 0, 1, 2},
		draw.Cmd{ClipRect: screen, TextureID: font, ElemCount: 3},
		draw.Cmd{ClipRect: screen, TextureID: font, IdxOffset: 3, ElemCount: 3},
		draw.Cmd{ClipRect: screen, TextureID: id, IdxOffset: 6, ElemCount: 3},
		draw.Cmd{ClipRect: screen, TextureID: 999, IdxOffset: 9, ElemCount: 3},
	))
	pass := &haltest.Pass{}
	if err := f.ctrl.Render(pass); err != nil {
		t.Fatal(err)
	}

	var image []haltest.BindGroupCall
	for _, b := range pass.BindGroups {
		if b.Index == 1 {
			image = append(image, b)
		}
	}
	// The font group is bound once up front and not again for the font
	// commands; the unknown id binds nothing.
	if len(image) != 2 || image[0].Group != fontGroup || image[1].Group != group {
		t.Errorf("image bind groups = %+v", image)
	}
	st := f.ctrl.LastFrameStats()
	if st.UnresolvedTextures != 1 || st.DrawCalls != 4 {
		t.Errorf("stats = %+v", st)
	}
}

func TestRenderUntexturedCommandUsesFont(t *testing.T) {
	gui := newStubGUI()
	gui.data = dataOf(list(3, []draw.Idx{0, 1, 2}, draw.Cmd{ClipRect: screen, ElemCount: 3}))
	f := newFixture(t, gui, nil)
	fontGroup, _ := f.ctrl.bindings.Lookup(f.ctrl.FontTextureID())
	pass := &haltest.Pass{}
	if err := f.ctrl.Render(pass); err != nil {
		t.Fatal(err)
	}

	var image []haltest.BindGroupCall
	for _, b := range pass.BindGroups {
		if b.Index == 1 {
			image = append(image, b)
		}
	}
	if len(image) != 1 || image[0].Group != fontGroup {
		t.Fatalf("image bind groups = %+v, want the font group once", image)
	}
	// Both groups must be bound before the draw.
	lastBind, drawAt := -1, -1
	for i, c := range pass.Calls {
		switch c {
		case "SetBindGroup":
			lastBind = i
		case "DrawIndexed":
			drawAt = i
		}
	}
	if drawAt < 0 || pass.Count("SetBindGroup") != 2 || lastBind > drawAt {
		t.Errorf("calls = %v", pass.Calls)
	}
}

func TestRenderRingAdvances(t *testing.T) {
	gui := newStubGUI()
	gui.data = twoLists()
	f := newFixture(t, gui, nil, WithFramesInFlight(2))

	var slots []int
	var vertexBufs []any
	for i := 0; i < 3; i++ {
		if err := f.ctrl.Render(&haltest.Pass{}); err != nil {
			t.Fatal(err)
		}
		slots = append(slots, f.ctrl.pool.Index())
		vertexBufs = append(vertexBufs, f.ctrl.pool.Active().Vertex)
	}
	if slots[0] != 0 || slots[1] != 1 || slots[2] != 0 {
		t.Errorf("slots = %v", slots)
	}
	if vertexBufs[0] == vertexBufs[1] || vertexBufs[0] != vertexBufs[2] {
		t.Error("slots do not own distinct reused buffers")
	}
	// Vertex and index buffer for each of the two slots, plus uniforms.
	if got := f.device.Created(haltest.KindBuffer); got != 5 {
		t.Errorf("buffers created = %d, want 5", got)
	}
}

func TestRenderGrowsOnlyWhenNeeded(t *testing.T) {
	gui := newStubGUI()
	gui.data = twoLists()
	f := newFixture(t, gui, nil, WithFramesInFlight(1))
	if err := f.ctrl.Render(&haltest.Pass{}); err != nil {
		t.Fatal(err)
	}
	gui.data = dataOf(list(3, []draw.Idx{0, 1, 2}, draw.Cmd{ClipRect: screen, ElemCount: 3}))
	if err := f.ctrl.Render(&haltest.Pass{}); err != nil {
		t.Fatal(err)
	}
	if got := f.device.Created(haltest.KindBuffer); got != 3 {
		t.Errorf("buffers created = %d, want 3", got)
	}
	if vc := f.ctrl.pool.Active().VertexCap; vc != 7*draw.VertSize {
		t.Errorf("vertex capacity = %d", vc)
	}
}

func TestRenderUploadFailure(t *testing.T) {
	gui := newStubGUI()
	gui.data = twoLists()
	f := newFixture(t, gui, nil)
	f.queue.FailWrite = errBoom
	pass := &haltest.Pass{}
	if err := f.ctrl.Render(pass); !errors.Is(err, errBoom) {
		t.Errorf("err = %v, want errBoom", err)
	}
	if len(pass.Draws) != 0 {
		t.Error("draws recorded after a failed upload")
	}
}

func TestRenderInvalidData(t *testing.T) {
	gui := newStubGUI()
	gui.data = twoLists()
	gui.data.Valid = false
	f := newFixture(t, gui, nil)
	pass := &haltest.Pass{}
	if err := f.ctrl.Render(pass); err != nil {
		t.Fatal(err)
	}
	if len(pass.Calls) != 0 {
		t.Errorf("calls = %v", pass.Calls)
	}
}

func TestRenderGUIEndToEnd(t *testing.T) {
	gui := ui.NewContext(nil)
	f := newFixture(t, gui, gpucontext.NullWindowProvider{W: 800, H: 600})
	checker, err := f.ctrl.TextureID(haltest.NewView(77))
	if err != nil {
		t.Fatal(err)
	}

	clicked := false
	frameFn := func(b input.Batch) *haltest.Pass {
		f.ctrl.Update(1.0/60, b)
		gui.Begin("Demo", draw.Vec2{X: 10, Y: 10}, draw.Vec2{X: 300, Y: 200})
		if gui.Button("Go") {
			clicked = true
		}
		gui.Image(checker, draw.Vec2{X: 32, Y: 32})
		gui.End()
		pass := &haltest.Pass{}
		if err := f.ctrl.Render(pass); err != nil {
			t.Fatal(err)
		}
		return pass
	}

	var press input.Batch
	press.MouseMove(25, 45)
	press.MouseButton(gpucontext.MouseButtonLeft, true, 25, 45)
	pass := frameFn(press)
	var release input.Batch
	release.MouseButton(gpucontext.MouseButtonLeft, false, 25, 45)
	frameFn(release)

	if !clicked {
		t.Error("button click did not reach the GUI")
	}
	if len(pass.Draws) == 0 {
		t.Fatal("no draws")
	}
	st := f.ctrl.LastFrameStats()
	if st.UnresolvedTextures != 0 || st.DrawCalls == 0 {
		t.Errorf("stats = %+v", st)
	}
	checkerGroup, _ := f.ctrl.bindings.Lookup(checker)
	var sawChecker bool
	for _, b := range pass.BindGroups {
		if b.Index == 1 && b.Group == checkerGroup {
			sawChecker = true
		}
	}
	if !sawChecker {
		t.Error("image texture never bound")
	}
}
