// Package trimesh generates closed triangle meshes with outward facing
// counter-clockwise winding, suitable as input for narrow band initialization.
package trimesh

import (
	"errors"

	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
)

// Box returns the 12 triangles of the axis aligned box bb.
func Box(bb ms3.Box) ([]ms3.Triangle, error) {
	sz := bb.Size()
	switch {
	case !(sz.X > 0) || !(sz.Y > 0) || !(sz.Z > 0):
		return nil, errors.New("box must have positive size")
	case math32.IsInf(sz.X, 0) || math32.IsInf(sz.Y, 0) || math32.IsInf(sz.Z, 0):
		return nil, errors.New("infinite box")
	}
	corner := func(x, y, z int) ms3.Vec {
		v := bb.Min
		if x != 0 {
			v.X = bb.Max.X
		}
		if y != 0 {
			v.Y = bb.Max.Y
		}
		if z != 0 {
			v.Z = bb.Max.Z
		}
		return v
	}
	// Quads wound counter-clockwise as seen from outside.
	quads := [6][4][3]int{
		{{0, 0, 0}, {0, 0, 1}, {0, 1, 1}, {0, 1, 0}}, // -x
		{{1, 0, 0}, {1, 1, 0}, {1, 1, 1}, {1, 0, 1}}, // +x
		{{0, 0, 0}, {1, 0, 0}, {1, 0, 1}, {0, 0, 1}}, // -y
		{{0, 1, 0}, {0, 1, 1}, {1, 1, 1}, {1, 1, 0}}, // +y
		{{0, 0, 0}, {0, 1, 0}, {1, 1, 0}, {1, 0, 0}}, // -z
		{{0, 0, 1}, {1, 0, 1}, {1, 1, 1}, {0, 1, 1}}, // +z
	}
	tris := make([]ms3.Triangle, 0, 12)
	for _, q := range quads {
		var v [4]ms3.Vec
		for i, c := range q {
			v[i] = corner(c[0], c[1], c[2])
		}
		tris = append(tris, ms3.Triangle{v[0], v[1], v[2]}, ms3.Triangle{v[0], v[2], v[3]})
	}
	return tris, nil
}

// Octahedron returns the 8 triangles of a regular octahedron with vertices
// at distance r from center along each axis.
func Octahedron(center ms3.Vec, r float32) ([]ms3.Triangle, error) {
	if !(r > 0) || math32.IsInf(r, 0) {
		return nil, errors.New("octahedron radius must be positive and finite")
	}
	tris := make([]ms3.Triangle, 0, 8)
	for _, sx := range [2]float32{1, -1} {
		for _, sy := range [2]float32{1, -1} {
			for _, sz := range [2]float32{1, -1} {
				a := ms3.Add(center, ms3.Vec{X: sx * r})
				b := ms3.Add(center, ms3.Vec{Y: sy * r})
				c := ms3.Add(center, ms3.Vec{Z: sz * r})
				if sx*sy*sz < 0 {
					b, c = c, b
				}
				tris = append(tris, ms3.Triangle{a, b, c})
			}
		}
	}
	return tris, nil
}

// UVSphere returns a latitude/longitude tessellation of a sphere of radius r
// with nlat rings between the poles and nlon segments around the z axis.
// The mesh has 2*nlon*(nlat-1) triangles.
func UVSphere(center ms3.Vec, r float32, nlat, nlon int) ([]ms3.Triangle, error) {
	switch {
	case !(r > 0) || math32.IsInf(r, 0):
		return nil, errors.New("sphere radius must be positive and finite")
	case nlat < 2:
		return nil, errors.New("sphere needs at least 2 latitude divisions")
	case nlon < 3:
		return nil, errors.New("sphere needs at least 3 longitude divisions")
	}
	vert := func(i, j int) ms3.Vec {
		switch i {
		case 0:
			return ms3.Add(center, ms3.Vec{Z: r})
		case nlat:
			return ms3.Add(center, ms3.Vec{Z: -r})
		}
		theta := math32.Pi * float32(i) / float32(nlat)
		phi := 2 * math32.Pi * float32(j%nlon) / float32(nlon)
		st := math32.Sin(theta)
		return ms3.Add(center, ms3.Vec{
			X: r * st * math32.Cos(phi),
			Y: r * st * math32.Sin(phi),
			Z: r * math32.Cos(theta),
		})
	}
	tris := make([]ms3.Triangle, 0, 2*nlon*(nlat-1))
	for i := 0; i < nlat; i++ {
		for j := 0; j < nlon; j++ {
			a, b, c, d := vert(i, j), vert(i+1, j), vert(i+1, j+1), vert(i, j+1)
			if i != nlat-1 {
				tris = append(tris, ms3.Triangle{a, b, c})
			}
			if i != 0 {
				tris = append(tris, ms3.Triangle{a, c, d})
			}
		}
	}
	return tris, nil
}
