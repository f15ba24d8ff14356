// Package blockgrid builds the ghost-cell index tables of a block-structured 3D grid.
//
// The grid is split into Gx*Gy*Gz blocks of bx*by*bz cells each. Storage is
// block-major: every block occupies a contiguous range of bx*by*bz cells and blocks are
// ordered with the linear layout of package grid, as are cells inside a block.
// A compute kernel reaches a neighbor block's boundary cell by adding a signed offset
// taken from the [Table] hash to its block's base address.
package blockgrid

import (
	"fmt"
	"math"

	"github.com/soypat/geometry/i3"
	"github.com/soypat/gfmm/grid"
)

// Params holds the local block extent and the global block grid extent along with
// the derived face jump constants. Create with [NewParams].
type Params struct {
	local  grid.Extent
	global grid.Extent

	blockSize  int32
	dz, dy, dx int32
}

// NewParams validates the block and block-grid extents and caches derived offsets.
func NewParams(local, global grid.Extent) (Params, error) {
	if !local.Valid() || !global.Valid() {
		return Params{}, fmt.Errorf("%w: local %s global %s", grid.ErrInvalidExtent, local, global)
	}
	bx, by := int64(local.X), int64(local.Y)
	blockSize := local.Len()
	zStride := blockSize * int64(global.X) * int64(global.Y)
	if blockSize > math.MaxInt32 || zStride > math.MaxInt32 {
		return Params{}, fmt.Errorf("%w: block size %d with %dx%d blocks per layer", grid.ErrOverflow, blockSize, global.X, global.Y)
	}
	p := Params{
		local:     local,
		global:    global,
		blockSize: int32(blockSize),
		dz:        int32(zStride - bx*by),
		dy:        int32(blockSize*int64(global.X) - (bx*by - bx)),
		dx:        int32(1 + (blockSize - bx)),
	}
	return p, nil
}

// MakeParams is shorthand for [NewParams] taking plain integers.
func MakeParams(bx, by, bz, gx, gy, gz int) (Params, error) {
	local, err := grid.NewExtent(bx, by, bz)
	if err != nil {
		return Params{}, fmt.Errorf("block extent: %w", err)
	}
	global, err := grid.NewExtent(gx, gy, gz)
	if err != nil {
		return Params{}, fmt.Errorf("block grid extent: %w", err)
	}
	return NewParams(local, global)
}

// Local returns the extent of a single block in cells.
func (p Params) Local() grid.Extent { return p.local }

// Global returns the extent of the block grid in blocks.
func (p Params) Global() grid.Extent { return p.global }

// BlockSize returns bx*by*bz.
func (p Params) BlockSize() int32 { return p.blockSize }

// DzOffset returns block_size*Gx*Gy - bx*by.
func (p Params) DzOffset() int32 { return p.dz }

// DyOffset returns block_size*Gx - (bx*by - bx).
func (p Params) DyOffset() int32 { return p.dy }

// DxOffset returns 1 + (block_size - bx).
func (p Params) DxOffset() int32 { return p.dx }

// NumBlocks returns Gx*Gy*Gz.
func (p Params) NumBlocks() int { return int(p.global.Len()) }

// NumCells returns the total amount of cells stored across all blocks.
func (p Params) NumCells() int { return p.NumBlocks() * int(p.blockSize) }

// CellExtent returns the extent of the whole grid measured in cells.
func (p Params) CellExtent() grid.Extent {
	return grid.Extent{
		X: p.local.X * p.global.X,
		Y: p.local.Y * p.global.Y,
		Z: p.local.Z * p.global.Z,
	}
}

// PaddedExtent returns the local extent grown by one ghost layer on each side.
func (p Params) PaddedExtent() grid.Extent {
	return grid.Extent{X: p.local.X + 2, Y: p.local.Y + 2, Z: p.local.Z + 2}
}

// HashLen returns (bx+2)*(by+2)*(bz+2), the length of the hash table.
func (p Params) HashLen() int { return int(p.PaddedExtent().Len()) }

// HashKey returns the hash table slot for a block-local coordinate which may lie on the ghost layer:
//
//	h = (x+1) + (y+1)*(bx+2) + (z+1)*(bx+2)*(by+2)
func (p Params) HashKey(c i3.Vec) (int, error) {
	return grid.Encode(i3.Vec{X: c.X + 1, Y: c.Y + 1, Z: c.Z + 1}, p.PaddedExtent())
}

// BlockBase returns the storage address of the first cell of block b.
func (p Params) BlockBase(b int) int {
	return b * int(p.blockSize)
}

// Address returns the block-major storage address of global cell c.
func (p Params) Address(c i3.Vec) (int, error) {
	cells := p.CellExtent()
	if !cells.Contains(c) {
		return 0, fmt.Errorf("%w: cell (%d,%d,%d) in grid of %s cells", grid.ErrOutOfRange, c.X, c.Y, c.Z, cells)
	}
	bx, by, bz := int(p.local.X), int(p.local.Y), int(p.local.Z)
	block := i3.Vec{X: c.X / bx, Y: c.Y / by, Z: c.Z / bz}
	local := i3.Vec{X: c.X % bx, Y: c.Y % by, Z: c.Z % bz}
	bi, err := grid.Encode(block, p.global)
	if err != nil {
		return 0, err
	}
	li, err := grid.Encode(local, p.local)
	if err != nil {
		return 0, err
	}
	return p.BlockBase(bi) + li, nil
}

// Cell is the inverse of [Params.Address].
func (p Params) Cell(addr int) (i3.Vec, error) {
	if addr < 0 || addr >= p.NumCells() {
		return i3.Vec{}, fmt.Errorf("%w: address %d with %d cells", grid.ErrOutOfRange, addr, p.NumCells())
	}
	bs := int(p.blockSize)
	block, err := grid.Decode(addr/bs, p.global)
	if err != nil {
		return i3.Vec{}, err
	}
	local, err := grid.Decode(addr%bs, p.local)
	if err != nil {
		return i3.Vec{}, err
	}
	return i3.Vec{
		X: block.X*int(p.local.X) + local.X,
		Y: block.Y*int(p.local.Y) + local.Y,
		Z: block.Z*int(p.local.Z) + local.Z,
	}, nil
}
