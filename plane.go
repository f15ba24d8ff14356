package gfmm

import (
	"github.com/soypat/geometry/ms3"
)

// Plane is the set of points q satisfying N.q = D.
type Plane struct {
	N ms3.Vec
	D float32
}

// NewPlane returns the plane through the vertices of t with t's unit CCW normal.
func NewPlane(t ms3.Triangle) Plane {
	n := Normal(t)
	return Plane{N: n, D: ms3.Dot(n, t[0])}
}

// ClosestPoint projects q onto the plane: q - ((N.q - D)/(N.N))*N.
// N need not be of unit length.
func (pl Plane) ClosestPoint(q ms3.Vec) ms3.Vec {
	k := (ms3.Dot(pl.N, q) - pl.D) / ms3.Dot(pl.N, pl.N)
	return ms3.Sub(q, ms3.Scale(k, pl.N))
}

// Distance returns the signed distance from q to the plane, positive on the side N points to.
func (pl Plane) Distance(q ms3.Vec) float32 {
	return (ms3.Dot(pl.N, q) - pl.D) / ms3.Norm(pl.N)
}
