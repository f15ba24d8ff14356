package blockgrid

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/cespare/xxhash/v2"
	"github.com/soypat/geometry/i3"
	"github.com/soypat/gfmm/grid"
)

// Face identifies one of the six one-wide ghost layers surrounding a block.
// The numeric order of faces is the order in which they appear in a [Table].
type Face uint8

const (
	FaceNegZ Face = iota
	FacePosZ
	FacePosX
	FaceNegX
	FaceNegY
	FacePosY
	numFaces
)

func (f Face) String() string {
	switch f {
	case FaceNegZ:
		return "-z"
	case FacePosZ:
		return "+z"
	case FacePosX:
		return "+x"
	case FaceNegX:
		return "-x"
	case FaceNegY:
		return "-y"
	case FacePosY:
		return "+y"
	}
	return fmt.Sprintf("Face(%d)", uint8(f))
}

// GhostEntry maps a block-local coordinate to the signed offset, relative to the
// block's base address, of the storage cell it refers to. Its memory layout
// matches a GLSL ivec4.
type GhostEntry struct {
	X, Y, Z int32
	Offset  int32
}

// Coord returns the entry's block-local coordinate.
func (e GhostEntry) Coord() i3.Vec {
	return i3.Vec{X: int(e.X), Y: int(e.Y), Z: int(e.Z)}
}

// Table contains the ghost entries of a block and the dense hash table built from them.
type Table struct {
	// Entries holds all interior entries in linear order followed by the six
	// ghost faces in [Face] order, bx*by entries per face.
	Entries []GhostEntry
	// Hash has one slot per coordinate of the padded (bx+2)*(by+2)*(bz+2) box.
	// Slots never referenced by an entry are zero.
	Hash   []int32
	params Params
}

// Build computes the ghost entry sequence and hash table for p.
// Building is deterministic: equal parameters produce identical tables.
// Blocks must be cubic since every face holds bx*by ghost entries.
func Build(p Params) (*Table, error) {
	if !p.local.Valid() || !p.global.Valid() {
		return nil, fmt.Errorf("%w: uninitialized Params", grid.ErrInvalidExtent)
	} else if p.local.X != p.local.Y || p.local.Y != p.local.Z {
		return nil, fmt.Errorf("%w: ghost table requires cubic blocks, got %s", grid.ErrInvalidExtent, p.local)
	}
	bs := int(p.blockSize)
	faceLen := int(p.local.Area())
	t := &Table{
		Entries: make([]GhostEntry, 0, bs+int(numFaces)*faceLen),
		Hash:    make([]int32, p.HashLen()),
		params:  p,
	}
	for i := 0; i < bs; i++ {
		c, err := grid.Decode(i, p.local)
		if err != nil {
			return nil, err
		}
		t.Entries = append(t.Entries, entry(c, int64(i)))
	}
	for f := FaceNegZ; f < numFaces; f++ {
		for j := 0; j < faceLen; j++ {
			src, off, delta := p.ghostSource(f, j)
			c, err := grid.Decode(src, p.local)
			if err != nil {
				return nil, fmt.Errorf("face %s entry %d: %w", f, j, err)
			}
			if off < math.MinInt32 || off > math.MaxInt32 {
				return nil, fmt.Errorf("%w: face %s entry %d offset %d", grid.ErrOverflow, f, j, off)
			}
			c = i3.Vec{X: c.X + delta.X, Y: c.Y + delta.Y, Z: c.Z + delta.Z}
			t.Entries = append(t.Entries, entry(c, off))
		}
	}
	for _, e := range t.Entries {
		h, err := p.HashKey(e.Coord())
		if err != nil {
			return nil, err
		}
		t.Hash[h] = e.Offset
	}
	return t, nil
}

// BuildIndex is shorthand for [MakeParams] followed by [Build].
func BuildIndex(bx, by, bz, gx, gy, gz int) (*Table, error) {
	p, err := MakeParams(bx, by, bz, gx, gy, gz)
	if err != nil {
		return nil, err
	}
	return Build(p)
}

// ghostSource returns, for the j'th entry of face f, the linear index of the
// interior source cell, the entry's offset and the step from source to ghost coordinate.
func (p Params) ghostSource(f Face, j int) (src int, offset int64, delta i3.Vec) {
	bx, by, bz := int(p.local.X), int(p.local.Y), int(p.local.Z)
	area := bx * by
	dz, dy, dx := int64(p.dz), int64(p.dy), int64(p.dx)
	switch f {
	case FaceNegZ:
		src = j
		return src, dz + int64(j), i3.Vec{Z: -1}
	case FacePosZ:
		src = j + (bz-1)*area
		return src, -dz + int64(j), i3.Vec{Z: 1}
	case FacePosX:
		src = bx*(j+1) - 1
		return src, dx + int64(src), i3.Vec{X: 1}
	case FaceNegX:
		src = bx * j
		return src, -dx + int64(src), i3.Vec{X: -1}
	case FaceNegY:
		src = j%by + (j/by)*area
		return src, -dy + int64(src), i3.Vec{Y: -1}
	case FacePosY:
		src = area - bx + j%by + (j/by)*area
		return src, dy + int64(src), i3.Vec{Y: 1}
	}
	panic("invalid face")
}

func entry(c i3.Vec, offset int64) GhostEntry {
	return GhostEntry{X: int32(c.X), Y: int32(c.Y), Z: int32(c.Z), Offset: int32(offset)}
}

// Params returns the parameters the table was built with.
func (t *Table) Params() Params { return t.params }

// Interior returns the entries covering the block interior.
func (t *Table) Interior() []GhostEntry {
	return t.Entries[:t.params.blockSize]
}

// Face returns the entries of ghost face f.
func (t *Table) Face(f Face) []GhostEntry {
	if f >= numFaces {
		panic("invalid face")
	}
	faceLen := int(t.params.local.Area())
	start := int(t.params.blockSize) + int(f)*faceLen
	return t.Entries[start : start+faceLen]
}

// Lookup returns the offset stored for a block-local coordinate, ghost layer included.
func (t *Table) Lookup(c i3.Vec) (int32, error) {
	h, err := t.params.HashKey(c)
	if err != nil {
		return 0, err
	}
	return t.Hash[h], nil
}

// AppendBinary appends the table as little-endian int32 values: x, y, z, offset
// for every entry followed by every hash slot.
func (t *Table) AppendBinary(dst []byte) []byte {
	for _, e := range t.Entries {
		dst = binary.LittleEndian.AppendUint32(dst, uint32(e.X))
		dst = binary.LittleEndian.AppendUint32(dst, uint32(e.Y))
		dst = binary.LittleEndian.AppendUint32(dst, uint32(e.Z))
		dst = binary.LittleEndian.AppendUint32(dst, uint32(e.Offset))
	}
	for _, h := range t.Hash {
		dst = binary.LittleEndian.AppendUint32(dst, uint32(h))
	}
	return dst
}

// Sum64 returns the xxhash digest of the table's binary representation.
func (t *Table) Sum64() uint64 {
	buf := make([]byte, 0, 4*(4*len(t.Entries)+len(t.Hash)))
	return xxhash.Sum64(t.AppendBinary(buf))
}
