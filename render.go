package imrender

import (
	"encoding/binary"
	"fmt"

	"github.com/chewxy/math32"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/imrender/draw"
	"github.com/gogpu/imrender/internal/frame"
)

// FrameStats describes what one Render did.
type FrameStats struct {
	// Skipped is true when the framebuffer had no area and nothing was
	// recorded.
	Skipped bool

	Lists    int
	Vertices int
	Indices  int

	DrawCalls int
	// ClippedCommands counts commands whose clip rectangle was empty inside
	// the framebuffer.
	ClippedCommands int
	// IgnoredCallbacks counts user callback commands, which are not invoked.
	IgnoredCallbacks int
	// UnresolvedTextures counts commands whose texture id was never bound.
	UnresolvedTextures int
}

// renderDrawData uploads the geometry of data and records its draw calls.
func (c *Controller) renderDrawData(pass hal.RenderPassEncoder, data *draw.Data) (FrameStats, error) {
	var st FrameStats
	if data == nil || !data.Valid {
		st.Skipped = true
		return st, nil
	}
	fbW, fbH := data.FramebufferSize()
	if fbW <= 0 || fbH <= 0 {
		st.Skipped = true
		return st, nil
	}

	st.Lists = len(data.Lists)
	for _, l := range data.Lists {
		st.Vertices += len(l.VtxBuffer)
		st.Indices += len(l.IdxBuffer)
	}

	var buf *frame.Buffer
	if st.Vertices > 0 {
		var err error
		if buf, err = c.upload(data, st.Vertices, st.Indices); err != nil {
			return st, err
		}
	}

	if err := c.res.WriteUniforms(c.queue, data.DisplayPos, data.DisplaySize); err != nil {
		return st, err
	}

	pass.SetPipeline(c.res.Pipeline)
	if buf != nil {
		pass.SetVertexBuffer(0, buf.Vertex, 0)
		pass.SetIndexBuffer(buf.Index, gputypes.IndexFormatUint16, 0)
	}
	pass.SetBindGroup(0, c.res.CommonGroup, nil)
	pass.SetViewport(0, 0, fbW, fbH, 0, 1)
	// Commands without a texture id draw with the font atlas.
	pass.SetBindGroup(1, c.fontGroup, nil)

	var globalVtx, globalIdx uint32
	bound := c.fontID
	for _, l := range data.Lists {
		for i := range l.Cmds {
			cmd := &l.Cmds[i]
			if cmd.HasCallback() {
				st.IgnoredCallbacks++
				continue
			}

			if cmd.TextureID != 0 && cmd.TextureID != bound {
				if group, ok := c.bindings.Lookup(cmd.TextureID); ok {
					pass.SetBindGroup(1, group, nil)
					bound = cmd.TextureID
				} else {
					st.UnresolvedTextures++
				}
			}

			x, y, w, h, ok := scissor(cmd.ClipRect, data.DisplayPos, data.FramebufferScale, fbW, fbH)
			if !ok {
				st.ClippedCommands++
				continue
			}
			if cmd.ElemCount == 0 {
				continue
			}
			pass.SetScissorRect(x, y, w, h)
			pass.DrawIndexed(cmd.ElemCount, 1, cmd.IdxOffset+globalIdx, int32(cmd.VtxOffset+globalVtx), 0) //nolint:gosec // vertex counts fit in int32
			st.DrawCalls++
		}
		globalVtx += uint32(len(l.VtxBuffer)) //nolint:gosec // bounded by the buffer size
		globalIdx += uint32(len(l.IdxBuffer)) //nolint:gosec // bounded by the buffer size
	}
	return st, nil
}

// upload copies every list into the next ring slot and writes it to the GPU.
func (c *Controller) upload(data *draw.Data, vertices, indices int) (*frame.Buffer, error) {
	vtxBytes := uint64(vertices) * draw.VertSize
	idxBytes := frame.Align4(uint64(indices) * draw.IdxSize)

	slot := c.pool.Advance()
	if err := c.pool.EnsureCapacity(slot, vtxBytes, idxBytes); err != nil {
		return nil, fmt.Errorf("grow frame buffers: %w", err)
	}
	buf := c.pool.Active()

	vo, xo := 0, 0
	for _, l := range data.Lists {
		for _, v := range l.VtxBuffer {
			v.Put(buf.VertexStaging[vo:])
			vo += draw.VertSize
		}
		for _, idx := range l.IdxBuffer {
			binary.LittleEndian.PutUint16(buf.IndexStaging[xo:], idx)
			xo += draw.IdxSize
		}
	}
	// Zero the alignment padding left over from an earlier, longer frame.
	clear(buf.IndexStaging[xo:idxBytes])

	buf.SetUsed(vtxBytes, idxBytes)
	if err := buf.Upload(c.queue); err != nil {
		return nil, err
	}
	return buf, nil
}

// scissor converts a clip rectangle in display coordinates to framebuffer
// pixels clamped to the framebuffer. ok is false when nothing is left.
func scissor(clip draw.Vec4, pos, scale draw.Vec2, fbW, fbH float32) (x, y, w, h uint32, ok bool) {
	minX := math32.Max((clip.X-pos.X)*scale.X, 0)
	minY := math32.Max((clip.Y-pos.Y)*scale.Y, 0)
	maxX := math32.Min((clip.Z-pos.X)*scale.X, fbW)
	maxY := math32.Min((clip.W-pos.Y)*scale.Y, fbH)
	if maxX <= minX || maxY <= minY {
		return 0, 0, 0, 0, false
	}
	x, y = uint32(minX), uint32(minY)
	w, h = uint32(maxX)-x, uint32(maxY)-y
	if w == 0 || h == 0 {
		return 0, 0, 0, 0, false
	}
	return x, y, w, h, true
}
