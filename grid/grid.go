// Package grid implements the bijection between linear storage indices and
// 3D lattice coordinates shared by every volumetric buffer in gfmm.
//
// Layout is x-fastest, then y, then z:
//
//	i = x + y*X + z*X*Y
package grid

import (
	"errors"
	"fmt"
	"math"

	"github.com/soypat/geometry/i3"
)

var (
	// ErrOutOfRange is returned when an index or coordinate lies outside an extent.
	ErrOutOfRange = errors.New("out of range")
	// ErrInvalidExtent is returned when an extent has a zero dimension.
	ErrInvalidExtent = errors.New("invalid extent")
	// ErrOverflow is returned when a product of extents does not fit the target integer width.
	ErrOverflow = errors.New("extent overflow")
)

// Extent is the lattice size along each axis.
type Extent struct {
	X, Y, Z uint32
}

// NewExtent returns an extent after checking all dimensions are strictly positive.
func NewExtent(x, y, z int) (Extent, error) {
	if x <= 0 || y <= 0 || z <= 0 {
		return Extent{}, fmt.Errorf("%w: (%d,%d,%d)", ErrInvalidExtent, x, y, z)
	} else if uint64(x) > math.MaxUint32 || uint64(y) > math.MaxUint32 || uint64(z) > math.MaxUint32 {
		return Extent{}, fmt.Errorf("%w: (%d,%d,%d)", ErrOverflow, x, y, z)
	}
	return Extent{X: uint32(x), Y: uint32(y), Z: uint32(z)}, nil
}

// Valid reports whether all dimensions of e are non-zero.
func (e Extent) Valid() bool {
	return e.X != 0 && e.Y != 0 && e.Z != 0
}

// Len returns X*Y*Z. Products are computed in 64 bits.
func (e Extent) Len() int64 {
	return int64(e.X) * int64(e.Y) * int64(e.Z)
}

// Area returns X*Y, the number of cells in one z layer.
func (e Extent) Area() int64 {
	return int64(e.X) * int64(e.Y)
}

// Contains reports whether c lies inside [0,X)x[0,Y)x[0,Z).
func (e Extent) Contains(c i3.Vec) bool {
	return c.X >= 0 && c.Y >= 0 && c.Z >= 0 &&
		int64(c.X) < int64(e.X) && int64(c.Y) < int64(e.Y) && int64(c.Z) < int64(e.Z)
}

// ContainsGhost reports whether c lies inside the extent grown by one cell on every side.
func (e Extent) ContainsGhost(c i3.Vec) bool {
	return c.X >= -1 && c.Y >= -1 && c.Z >= -1 &&
		int64(c.X) <= int64(e.X) && int64(c.Y) <= int64(e.Y) && int64(c.Z) <= int64(e.Z)
}

// Vec returns the extent as an integer vector.
func (e Extent) Vec() i3.Vec {
	return i3.Vec{X: int(e.X), Y: int(e.Y), Z: int(e.Z)}
}

func (e Extent) String() string {
	return fmt.Sprintf("%dx%dx%d", e.X, e.Y, e.Z)
}

// Encode returns the linear index of c within e.
func Encode(c i3.Vec, e Extent) (int, error) {
	if !e.Contains(c) {
		return 0, fmt.Errorf("%w: coordinate (%d,%d,%d) in extent %s", ErrOutOfRange, c.X, c.Y, c.Z, e)
	}
	i := int64(c.X) + int64(c.Y)*int64(e.X) + int64(c.Z)*e.Area()
	return int(i), nil
}

// Decode is the inverse of [Encode].
func Decode(i int, e Extent) (i3.Vec, error) {
	if i < 0 || int64(i) >= e.Len() {
		return i3.Vec{}, fmt.Errorf("%w: index %d in extent %s", ErrOutOfRange, i, e)
	}
	return decode(int64(i), e), nil
}

func decode(i int64, e Extent) i3.Vec {
	area := e.Area()
	z := i / area
	i -= z * area
	y := i / int64(e.X)
	x := i - y*int64(e.X)
	return i3.Vec{X: int(x), Y: int(y), Z: int(z)}
}
