package gfmmaux

import (
	"image/color"

	math "github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
)

var (
	red  = color.RGBA{R: 255, A: 255}
	gray = color.RGBA{R: 128, G: 128, B: 128, A: 255}
)

// ColorConversionInigoQuilez creates a new color conversion using [Inigo Quilez]'s style.
// A good value for characteristic distance is a few cell sizes of the rendered field.
// Returns red for NaN values and gray for infinite values, which mark cells outside the narrow band.
//
// [Inigo Quilez]: https://iquilezles.org/articles/distfunctions2d/
func ColorConversionInigoQuilez(characteristicDistance float32) func(float32) color.Color {
	inv := 1. / characteristicDistance
	return func(d float32) color.Color {
		if math.IsNaN(d) {
			return red
		} else if math.IsInf(d, 0) {
			return gray
		}
		d *= inv
		var c ms3.Vec
		if d > 0 {
			c = ms3.Vec{X: 0.9, Y: 0.6, Z: 0.3}
		} else {
			c = ms3.Vec{X: 0.65, Y: 0.85, Z: 1.0}
		}
		c = ms3.Scale(1-math.Exp(-6*math.Abs(d)), c)
		c = ms3.Scale(0.8+0.2*math.Cos(150*d), c)
		// Blend to white near the zero level set.
		t := 1 - smoothstep(0, 0.01, math.Abs(d))
		c = ms3.Add(c, ms3.Scale(t, ms3.Sub(ms3.Vec{X: 1, Y: 1, Z: 1}, c)))
		return color.RGBA{
			R: uint8(c.X * 255),
			G: uint8(c.Y * 255),
			B: uint8(c.Z * 255),
			A: 255,
		}
	}
}

// ColorConversionSign returns black for negative distances, white for positive,
// and gray outside the narrow band.
func ColorConversionSign(d float32) color.Color {
	switch {
	case math.IsNaN(d):
		return red
	case math.IsInf(d, 0):
		return gray
	case d < 0:
		return color.Black
	}
	return color.White
}

func smoothstep(edge0, edge1, x float32) float32 {
	t := (x - edge0) / (edge1 - edge0)
	t = math.Max(0, math.Min(1, t))
	return t * t * (3 - 2*t)
}

func percentUint64(num, denom uint64) float32 {
	if denom == 0 {
		return 0
	}
	return math.Trunc(10000*float32(num)/float32(denom)) / 100
}
