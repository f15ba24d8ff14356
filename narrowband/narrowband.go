// Package narrowband seeds a block-major signed distance field from a triangle
// mesh. Only cells near the surface receive a value; the remaining cells are
// left at +Inf for a Fast Marching Method pass to fill in.
package narrowband

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"
	"github.com/soypat/geometry/i3"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/gfmm"
	"github.com/soypat/gfmm/blockgrid"
	"github.com/soypat/gfmm/gleval"
	"github.com/soypat/gfmm/grid"
)

const (
	// DefaultMaxDensity is the default cap on per-edge triangle subdivisions.
	DefaultMaxDensity = 64
	// DefaultBand is the default Chebyshev radius, in cells, seeded around each sample.
	DefaultBand = 2
)

var (
	errBadCellSize = errors.New("cell size must be positive and finite")
	errBadBand     = errors.New("negative band")
)

// Config defines the grid the field is stored in and how triangles are sampled into it.
type Config struct {
	// Block is the block layout of the grid. Cell (0,0,0) is the cell at Origin.
	Block blockgrid.Params
	// Origin is the minimum corner of the grid in world coordinates.
	Origin ms3.Vec
	// CellSize is the side length of a cubic cell.
	CellSize float32
	// Band is the Chebyshev radius in cells around each sample's cell that gets evaluated.
	Band int
	// MaxDensity caps per-edge subdivisions of each triangle, see [gfmm.Sampler].
	MaxDensity int
	// SampleEpsilon is the target area per sample. Zero selects [gfmm.DefaultSampleEpsilon].
	SampleEpsilon float32
	// MinArea2 is the threshold on |(b-a)x(c-a)|^2 at or below which triangles are skipped.
	MinArea2 float32
}

// Validate checks the configuration is usable by [Initialize].
func (cfg Config) Validate() error {
	switch {
	case cfg.Block.NumBlocks() == 0 || cfg.Block.BlockSize() == 0:
		return fmt.Errorf("%w: uninitialized block parameters", grid.ErrInvalidExtent)
	case !(cfg.CellSize > 0) || math32.IsInf(cfg.CellSize, 0):
		return errBadCellSize
	case cfg.Band < 0:
		return errBadBand
	case cfg.MaxDensity < 1:
		return errors.New("max density must be at least 1")
	case cfg.SampleEpsilon < 0 || math32.IsNaN(cfg.SampleEpsilon):
		return errors.New("negative or NaN sample epsilon")
	case cfg.MinArea2 < 0 || math32.IsNaN(cfg.MinArea2):
		return errors.New("negative or NaN minimum squared area")
	}
	return nil
}

// FitBounds returns a Config with cubic blocks of side blockDim whose grid
// covers bb with band+1 cells of padding on every side, centered on bb.
// Sampling parameters are set to their defaults.
func FitBounds(bb ms3.Box, cellSize float32, blockDim, band int) (Config, error) {
	if !(cellSize > 0) || math32.IsInf(cellSize, 0) {
		return Config{}, errBadCellSize
	} else if band < 0 {
		return Config{}, errBadBand
	} else if blockDim < 1 {
		return Config{}, fmt.Errorf("%w: block dimension %d", grid.ErrInvalidExtent, blockDim)
	}
	sz := bb.Size()
	if !(sz.X >= 0 && sz.Y >= 0 && sz.Z >= 0) || math32.IsInf(sz.X+sz.Y+sz.Z, 0) {
		return Config{}, errors.New("bounds must be finite and non-empty")
	}
	blocks := func(length float32) int {
		cells := int(math32.Ceil(length/cellSize)) + 2*(band+1)
		return (cells + blockDim - 1) / blockDim
	}
	gx, gy, gz := blocks(sz.X), blocks(sz.Y), blocks(sz.Z)
	params, err := blockgrid.MakeParams(blockDim, blockDim, blockDim, gx, gy, gz)
	if err != nil {
		return Config{}, err
	}
	span := ms3.Scale(cellSize*float32(blockDim), ms3.Vec{X: float32(gx), Y: float32(gy), Z: float32(gz)})
	return Config{
		Block:      params,
		Origin:     ms3.Sub(bb.Center(), ms3.Scale(0.5, span)),
		CellSize:   cellSize,
		Band:       band,
		MaxDensity: DefaultMaxDensity,
	}, nil
}

var _ gleval.SDF3 = (*Field)(nil)

// Field is a block-major distance field on a regular grid of cubic cells.
type Field struct {
	params   blockgrid.Params
	cells    grid.Extent
	origin   ms3.Vec
	cellSize float32
	data     []float32
	known    int
	skipped  int
	evals    uint64
}

// Initialize samples every non-degenerate triangle of tris and stores, for each cell within
// cfg.Band cells of a sample's cell, the signed distance from the cell center to the
// triangle of least distance among those evaluated for the cell. The sign follows
// [gfmm.SDFValue] and distance ties are broken by [gfmm.Proximity.Closer].
// Cells never reached hold +Inf.
// Each cell is evaluated at most once per triangle.
func Initialize(cfg Config, tris []ms3.Triangle) (*Field, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, err
	}
	f := &Field{
		params:   cfg.Block,
		cells:    cfg.Block.CellExtent(),
		origin:   cfg.Origin,
		cellSize: cfg.CellSize,
		data:     make([]float32, cfg.Block.NumCells()),
	}
	inf := math32.Inf(1)
	for i := range f.data {
		f.data[i] = inf
	}
	sampler := gfmm.Sampler{Epsilon: cfg.SampleEpsilon, MaxDensity: cfg.MaxDensity}
	// stamp[addr] == gen marks cells already evaluated for the current triangle.
	stamp := make([]uint32, len(f.data))
	// facing[addr] is the Proximity.Facing of the triangle that set data[addr].
	facing := make([]float32, len(f.data))
	var gen uint32
	var samples []ms3.Vec
	band := cfg.Band
	for _, t := range tris {
		if gfmm.IsDegenerate(t, cfg.MinArea2) {
			f.skipped++
			continue
		}
		gen++
		if gen == 0 {
			clear(stamp)
			gen = 1
		}
		samples = sampler.AppendSamples(samples[:0], t)
		for _, s := range samples {
			sc, ok := f.nearCell(s, band)
			if !ok {
				continue
			}
			for dz := -band; dz <= band; dz++ {
				for dy := -band; dy <= band; dy++ {
					for dx := -band; dx <= band; dx++ {
						c := i3.Vec{X: sc.X + dx, Y: sc.Y + dy, Z: sc.Z + dz}
						if !f.cells.Contains(c) {
							continue
						}
						addr, _ := f.params.Address(c)
						if stamp[addr] == gen {
							continue
						}
						stamp[addr] = gen
						px := gfmm.TriangleProximity(t, f.CellCenter(c))
						f.evals++
						best := gfmm.Proximity{Dist: math32.Abs(f.data[addr]), Facing: facing[addr]}
						if px.Closer(best) {
							f.data[addr] = px.Value()
							facing[addr] = px.Facing
						}
					}
				}
			}
		}
	}
	for _, v := range f.data {
		if !math32.IsInf(v, 1) {
			f.known++
		}
	}
	return f, nil
}

// nearCell returns the cell containing p. ok is false when no cell of the
// grid lies within band cells of p.
func (f *Field) nearCell(p ms3.Vec, band int) (c i3.Vec, ok bool) {
	rel := ms3.Scale(1/f.cellSize, ms3.Sub(p, f.origin))
	lo := -float32(band) - 1
	if !(rel.X >= lo && rel.Y >= lo && rel.Z >= lo) ||
		!(rel.X < float32(f.cells.X)+float32(band)+1) ||
		!(rel.Y < float32(f.cells.Y)+float32(band)+1) ||
		!(rel.Z < float32(f.cells.Z)+float32(band)+1) {
		return c, false
	}
	return i3.Vec{
		X: int(math32.Floor(rel.X)),
		Y: int(math32.Floor(rel.Y)),
		Z: int(math32.Floor(rel.Z)),
	}, true
}

// Params returns the block layout of the field.
func (f *Field) Params() blockgrid.Params { return f.params }

// Data returns the block-major field values. Modifying the returned slice modifies the field.
func (f *Field) Data() []float32 { return f.data }

// Len returns the number of cells in the field.
func (f *Field) Len() int { return len(f.data) }

// Known returns the number of cells holding a finite value after initialization.
func (f *Field) Known() int { return f.known }

// Skipped returns the number of degenerate triangles ignored during initialization.
func (f *Field) Skipped() int { return f.skipped }

// Evaluations returns the number of cell-triangle distance evaluations performed during initialization.
func (f *Field) Evaluations() uint64 { return f.evals }

// CellSize returns the side length of a cell.
func (f *Field) CellSize() float32 { return f.cellSize }

// At returns the value stored at global cell c.
func (f *Field) At(c i3.Vec) (float32, error) {
	addr, err := f.params.Address(c)
	if err != nil {
		return 0, err
	}
	return f.data[addr], nil
}

// CellCenter returns the world position of the center of cell c.
func (f *Field) CellCenter(c i3.Vec) ms3.Vec {
	h := f.cellSize
	return ms3.Add(f.origin, ms3.Vec{
		X: (float32(c.X) + 0.5) * h,
		Y: (float32(c.Y) + 0.5) * h,
		Z: (float32(c.Z) + 0.5) * h,
	})
}

// Bounds returns the box spanned by all cells of the field.
func (f *Field) Bounds() ms3.Box {
	ext := ms3.Vec{X: float32(f.cells.X), Y: float32(f.cells.Y), Z: float32(f.cells.Z)}
	return ms3.Box{Min: f.origin, Max: ms3.Add(f.origin, ms3.Scale(f.cellSize, ext))}
}

// Evaluate implements [gleval.SDF3] by returning the value of the cell containing each position.
// Positions outside of the grid evaluate to +Inf.
func (f *Field) Evaluate(pos []ms3.Vec, dist []float32, userData any) error {
	if len(pos) != len(dist) {
		return errors.New("position and distance buffer length mismatch")
	} else if len(pos) == 0 {
		return errors.New("empty buffers")
	}
	inf := math32.Inf(1)
	for i, p := range pos {
		c, ok := f.nearCell(p, 0)
		if !ok || !f.cells.Contains(c) {
			dist[i] = inf
			continue
		}
		addr, _ := f.params.Address(c)
		dist[i] = f.data[addr]
	}
	return nil
}
