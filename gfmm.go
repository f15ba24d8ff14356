// Package gfmm implements the triangle geometry primitives used to seed a
// Fast Marching Method signed distance field from a triangle mesh: closest point
// on a triangle, half-space signed distance and deterministic uniform sampling.
//
// All functions are pure. Degenerate triangles (zero area) are not handled and
// produce NaN; use [IsDegenerate] to filter them out beforehand.
package gfmm

import (
	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
)

const (
	// DefaultSampleEpsilon is the target area per sample used by [SampleTriangle].
	DefaultSampleEpsilon = 0.3
	// epstol is used to check for badly conditioned denominators
	// such as lengths used for normalization.
	epstol = 6e-7
)

func nan() float32 { return math32.NaN() }

func nanVec() ms3.Vec {
	return ms3.Vec{X: nan(), Y: nan(), Z: nan()}
}
