package pipeline

import (
	"encoding/binary"
	"math"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/imrender/draw"
)

// UniformSize is the byte size of the uniform buffer.
// Layout: mvp (mat4x4<f32>) = 64 bytes + gamma (f32) = 4 bytes,
// padded to 80 bytes for 16-byte uniform alignment.
const UniformSize = 80

// Gamma values applied by the fragment shader.
const (
	GammaLinear float32 = 1.0
	GammaSRGB   float32 = 2.2
)

// GammaFor returns the gamma exponent for a color target format: 2.2 for sRGB
// targets, which re-encode on write, and 1.0 otherwise.
func GammaFor(format gputypes.TextureFormat) float32 {
	if format.IsSrgb() {
		return GammaSRGB
	}
	return GammaLinear
}

// Ortho returns the column-major orthographic projection mapping the display
// rectangle at pos with the given size to clip space, origin top-left,
// near -1 and far 1.
func Ortho(pos, size draw.Vec2) [16]float32 {
	l := pos.X
	r := pos.X + size.X
	t := pos.Y
	b := pos.Y + size.Y
	return [16]float32{
		2 / (r - l), 0, 0, 0,
		0, 2 / (t - b), 0, 0,
		0, 0, -1, 0,
		(r + l) / (l - r), (t + b) / (b - t), 0, 1,
	}
}

// EncodeUniforms packs the projection and gamma little-endian.
func EncodeUniforms(mvp [16]float32, gamma float32) [UniformSize]byte {
	var buf [UniformSize]byte
	for i, v := range mvp {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	binary.LittleEndian.PutUint32(buf[64:68], math.Float32bits(gamma))
	return buf
}
