package gleval

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/gfmm"
)

// SDF3 implements a 3D signed distance field in vectorized
// form suitable for running on GPU.
type SDF3 interface {
	// Evaluate evaluates the signed distance field over pos positions.
	// dist and pos must be of same length.  Resulting distances are stored
	// in dist.
	//
	// userData facilitates getting data to the evaluators for use in processing.
	Evaluate(pos []ms3.Vec, dist []float32, userData any) error
	// Bounds returns the SDF's bounding box such that all of the shape is contained within.
	Bounds() ms3.Box
}

var (
	errEmptyBuffers         = errors.New("empty buffers")
	errMismatchBufferLength = errors.New("position and distance buffer length mismatch")
	errZeroInvoc            = errors.New("zero or negative invocation size")
	errNoTriangles          = errors.New("no non-degenerate triangles")
)

// ComputeConfig configures compute shader dispatch.
type ComputeConfig struct {
	// InvocX is the local work group size along x (local_size_x).
	InvocX int
}

// MeshSDF3 evaluates the exact signed distance to a triangle soup by brute force.
// Each position is tested against every triangle; the triangle of least distance
// decides the sign, with ties at shared edges and vertices broken by
// [gfmm.Proximity.Closer]. It is the reference against which
// narrow band fields are checked.
type MeshSDF3 struct {
	tris  []ms3.Triangle
	bb    ms3.Box
	evals uint64
}

// NewMeshSDF3 returns a MeshSDF3 over the triangles of tris whose [gfmm.Area2]
// exceeds minArea2. The triangles are copied.
func NewMeshSDF3(tris []ms3.Triangle, minArea2 float32) (*MeshSDF3, error) {
	m := &MeshSDF3{
		bb: ms3.Box{
			Min: ms3.Vec{X: math32.Inf(1), Y: math32.Inf(1), Z: math32.Inf(1)},
			Max: ms3.Vec{X: math32.Inf(-1), Y: math32.Inf(-1), Z: math32.Inf(-1)},
		},
	}
	for _, t := range tris {
		if gfmm.IsDegenerate(t, minArea2) {
			continue
		}
		m.tris = append(m.tris, t)
		for _, v := range t {
			m.bb.Min = ms3.MinElem(m.bb.Min, v)
			m.bb.Max = ms3.MaxElem(m.bb.Max, v)
		}
	}
	if len(m.tris) == 0 {
		return nil, fmt.Errorf("mesh SDF of %d triangles: %w", len(tris), errNoTriangles)
	}
	return m, nil
}

// Bounds returns the bounding box of the mesh vertices.
func (m *MeshSDF3) Bounds() ms3.Box { return m.bb }

// Triangles returns the amount of triangles kept after filtering degenerates.
func (m *MeshSDF3) Triangles() int { return len(m.tris) }

// Evaluations returns total evaluations performed succesfully during the SDF's lifetime.
func (m *MeshSDF3) Evaluations() uint64 { return m.evals }

// Evaluate implements the [SDF3] interface.
func (m *MeshSDF3) Evaluate(pos []ms3.Vec, dist []float32, userData any) error {
	if len(pos) != len(dist) {
		return errMismatchBufferLength
	} else if len(pos) == 0 {
		return errEmptyBuffers
	}
	for i, p := range pos {
		best := gfmm.Proximity{Dist: math32.Inf(1)}
		for _, t := range m.tris {
			px := gfmm.TriangleProximity(t, p)
			if px.Closer(best) {
				best = px
			}
		}
		dist[i] = best.Value()
	}
	m.evals += uint64(len(pos))
	return nil
}
