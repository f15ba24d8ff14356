package gfmm

import (
	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
)

// Sampler generates deterministic, approximately uniform point samples over triangles.
type Sampler struct {
	// Epsilon is the target triangle area covered by each sample row step.
	// If zero DefaultSampleEpsilon is used.
	Epsilon float32
	// MaxDensity caps the number of subdivisions N along each edge, which caps
	// the amount of samples per triangle to N*(N+1)/2.
	MaxDensity int
}

// SampleTriangle samples t with the default epsilon and at most nmax subdivisions per edge.
func SampleTriangle(t ms3.Triangle, nmax int) []ms3.Vec {
	s := Sampler{MaxDensity: nmax}
	return s.AppendSamples(nil, t)
}

// Density returns N = min(MaxDensity, ceil(sqrt(area/epsilon))), the amount of subdivisions
// per edge used to sample t. It returns 0 for degenerate or non-finite triangles
// and when MaxDensity is less than 1.
func (s Sampler) Density(t ms3.Triangle) int {
	eps := s.Epsilon
	if eps == 0 {
		eps = DefaultSampleEpsilon
	}
	area := Area(t)
	if s.MaxDensity < 1 || !(area > 0) || math32.IsInf(area, 0) || !(eps > 0) {
		return 0
	}
	n := math32.Ceil(math32.Sqrt(area / eps))
	if n >= float32(s.MaxDensity) {
		return s.MaxDensity
	}
	return int(n)
}

// NumSamples returns N*(N+1)/2, the number of points AppendSamples appends for t.
func (s Sampler) NumSamples(t ms3.Triangle) int {
	n := s.Density(t)
	return n * (n + 1) / 2
}

// AppendSamples appends the samples of t to dst and returns the extended buffer.
// The first sample is the centroid of the corner sub-triangle at vertex a.
// Rows then advance along edge ab, the i'th row (1-based) holding i samples spaced along bc.
// Nothing is appended when [Sampler.Density] is zero.
func (s Sampler) AppendSamples(dst []ms3.Vec, t ms3.Triangle) []ms3.Vec {
	n := s.Density(t)
	if n == 0 {
		return dst
	}
	a, b, c := t[0], t[1], t[2]
	invN := 1 / float32(n)
	s1 := ms3.Scale(invN, ms3.Sub(b, a))
	s2 := ms3.Scale(invN, ms3.Sub(c, b))
	s3 := ms3.Scale(invN, ms3.Sub(c, a))
	// Centroid of (a, a+s1, a+s3).
	rowStart := ms3.Add(a, ms3.Scale(1./3, ms3.Add(s1, s3)))
	dst = append(dst, rowStart)
	for i := 2; i <= n; i++ {
		rowStart = ms3.Add(rowStart, s1)
		dst = append(dst, rowStart)
		p := rowStart
		for k := 1; k < i; k++ {
			p = ms3.Add(p, s2)
			dst = append(dst, p)
		}
	}
	return dst
}
