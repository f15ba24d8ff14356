package gfmm

import (
	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
)

// Normal returns the unit CCW normal of t, normalize((b-a) x (c-a)).
// The result is NaN for degenerate triangles.
func Normal(t ms3.Triangle) ms3.Vec {
	n := cross(t)
	l := ms3.Norm(n)
	if l == 0 {
		return nanVec()
	}
	return ms3.Scale(1/l, n)
}

// Area2 returns the squared length of (b-a) x (c-a), which is four times the squared area of t.
func Area2(t ms3.Triangle) float32 {
	n := cross(t)
	return ms3.Dot(n, n)
}

// Area returns the area of t.
func Area(t ms3.Triangle) float32 {
	return 0.5 * ms3.Norm(cross(t))
}

// IsDegenerate reports whether [Area2] of t is less than or equal to minArea2
// or is not a finite number. A zero minArea2 only rejects exactly degenerate triangles.
func IsDegenerate(t ms3.Triangle, minArea2 float32) bool {
	a2 := Area2(t)
	return !(a2 > minArea2) || math32.IsInf(a2, 0)
}

func cross(t ms3.Triangle) ms3.Vec {
	return ms3.Cross(ms3.Sub(t[1], t[0]), ms3.Sub(t[2], t[0]))
}

// ClosestPoint returns the point on the closed triangle t closest to p.
// Voronoi regions are tested in the order vertex a, b, c, edge ab, bc, ca and
// finally the interior; the first region that contains p wins, so results on
// region boundaries are reproducible.
// See Christer Ericson, Real-Time Collision Detection, section 5.1.5.
func ClosestPoint(t ms3.Triangle, p ms3.Vec) ms3.Vec {
	a, b, c := t[0], t[1], t[2]
	ab := ms3.Sub(b, a)
	ac := ms3.Sub(c, a)
	bc := ms3.Sub(c, b)
	pa := ms3.Sub(p, a)
	pb := ms3.Sub(p, b)
	pc := ms3.Sub(p, c)

	// Parametric positions of p's projection onto ab, ac and bc, unnormalized.
	snom := ms3.Dot(pa, ab)
	sdenom := ms3.Dot(pb, ms3.Sub(a, b))
	tnom := ms3.Dot(pa, ac)
	tdenom := ms3.Dot(pc, ms3.Sub(a, c))
	if snom <= 0 && tnom <= 0 {
		return a
	}
	unom := ms3.Dot(pb, bc)
	udenom := ms3.Dot(pc, ms3.Sub(b, c))
	if sdenom <= 0 && unom <= 0 {
		return b
	}
	if tdenom <= 0 && udenom <= 0 {
		return c
	}

	// Signed areas of sub-triangles formed with p, measured along the triangle normal.
	n := ms3.Cross(ab, ac)
	ap := ms3.Sub(a, p)
	bp := ms3.Sub(b, p)
	cp := ms3.Sub(c, p)
	vc := ms3.Dot(n, ms3.Cross(ap, bp))
	if vc <= 0 && snom >= 0 && sdenom >= 0 {
		return ms3.Add(a, ms3.Scale(snom/(snom+sdenom), ab))
	}
	va := ms3.Dot(n, ms3.Cross(bp, cp))
	if va <= 0 && unom >= 0 && udenom >= 0 {
		return ms3.Add(b, ms3.Scale(unom/(unom+udenom), bc))
	}
	vb := ms3.Dot(n, ms3.Cross(cp, ap))
	if vb <= 0 && tnom >= 0 && tdenom >= 0 {
		return ms3.Add(a, ms3.Scale(tnom/(tnom+tdenom), ac))
	}

	// p projects inside the face.
	sum := va + vb + vc
	u := va / sum
	v := vb / sum
	w := vc / sum
	return ms3.Add(ms3.Add(ms3.Scale(u, a), ms3.Scale(v, b)), ms3.Scale(w, c))
}

// SignedDistance returns the distance from p to the closest point on t and whether
// n.(closest-p) < 0 for the CCW normal n of t. positiveSide is a half-space flag of the
// triangle's plane at the closest point; it does not establish inside or outside of a mesh.
func SignedDistance(t ms3.Triangle, p ms3.Vec) (d float32, positiveSide bool) {
	closest := ClosestPoint(t, p)
	diff := ms3.Sub(closest, p)
	d = ms3.Norm(diff)
	positiveSide = ms3.Dot(Normal(t), diff) < 0
	return d, positiveSide
}

// Barycentric returns the barycentric coordinates (u,v,w) of p with respect to t
// such that p = u*a + v*b + w*c when p lies on the triangle's plane.
func Barycentric(t ms3.Triangle, p ms3.Vec) (u, v, w float32) {
	v0 := ms3.Sub(t[1], t[0])
	v1 := ms3.Sub(t[2], t[0])
	v2 := ms3.Sub(p, t[0])
	d00 := ms3.Dot(v0, v0)
	d01 := ms3.Dot(v0, v1)
	d11 := ms3.Dot(v1, v1)
	d20 := ms3.Dot(v2, v0)
	d21 := ms3.Dot(v2, v1)
	denom := d00*d11 - d01*d01
	if math32.Abs(denom) < epstol*epstol {
		return nan(), nan(), nan()
	}
	v = (d11*d20 - d01*d21) / denom
	w = (d00*d21 - d01*d20) / denom
	u = 1 - v - w
	return u, v, w
}

// SDFValue returns the distance from p to t, negated when p lies behind t,
// that is on the side opposite to t's CCW normal.
func SDFValue(t ms3.Triangle, p ms3.Vec) float32 {
	d, positiveSide := SignedDistance(t, p)
	if !positiveSide {
		return -d
	}
	return d
}

// Proximity describes the position of a query point relative to a triangle.
// It is used to pick the triangle of a mesh that determines a point's signed distance.
type Proximity struct {
	// Dist is the unsigned distance to the closest point on the triangle.
	Dist float32
	// Facing is |n.(closest-p)|/Dist with n the unit normal, in [0,1].
	// It is 1 when the closest point is the foot of the perpendicular and 0
	// when p lies in the triangle's plane beyond an edge.
	Facing float32
	// Positive is the half-space flag returned by [SignedDistance].
	Positive bool
}

// relative tolerance under which two distances are considered tied.
const tieTol = 1e-5

// TriangleProximity returns the proximity of p to t.
func TriangleProximity(t ms3.Triangle, p ms3.Vec) Proximity {
	diff := ms3.Sub(ClosestPoint(t, p), p)
	d := ms3.Norm(diff)
	nd := ms3.Dot(Normal(t), diff)
	facing := float32(1)
	if d > 0 {
		facing = math32.Min(1, math32.Abs(nd)/d)
	}
	return Proximity{Dist: d, Facing: facing, Positive: nd < 0}
}

// Closer reports whether px is a better candidate than best for the nearest triangle.
// Distances equal within a small relative tolerance are tied and the more facing
// candidate wins. Ties occur when the closest point lies on an edge or vertex shared
// by several triangles, where only the triangles facing p carry a reliable sign.
// A NaN distance is never closer. An infinite best distance is beaten by any finite one.
func (px Proximity) Closer(best Proximity) bool {
	if math32.IsNaN(px.Dist) {
		return false
	} else if math32.IsInf(best.Dist, 1) || math32.IsNaN(best.Dist) {
		return !math32.IsInf(px.Dist, 1)
	}
	tol := tieTol * math32.Max(1, best.Dist)
	if px.Dist < best.Dist-tol {
		return true
	} else if px.Dist > best.Dist+tol {
		return false
	}
	return px.Facing > best.Facing
}

// Value returns Dist negated when the query lies behind the triangle, as [SDFValue] does.
func (px Proximity) Value() float32 {
	if !px.Positive {
		return -px.Dist
	}
	return px.Dist
}
