package narrowband_test

import (
	"errors"
	"testing"

	"github.com/chewxy/math32"
	"github.com/soypat/geometry/i3"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/gfmm/blockgrid"
	"github.com/soypat/gfmm/forge/trimesh"
	"github.com/soypat/gfmm/gleval"
	"github.com/soypat/gfmm/grid"
	"github.com/soypat/gfmm/narrowband"
)

const tol = 1e-4

// forEachCell calls fn for every cell of the field along with the exact signed distance from its center to the mesh.
func forEachCell(t *testing.T, f *narrowband.Field, ref gleval.SDF3, fn func(c i3.Vec, got, want float32)) {
	t.Helper()
	ext := f.Params().CellExtent()
	n := int(ext.Len())
	pos := make([]ms3.Vec, n)
	cells := make([]i3.Vec, n)
	for i := range pos {
		c, err := grid.Decode(i, ext)
		if err != nil {
			t.Fatal(err)
		}
		cells[i] = c
		pos[i] = f.CellCenter(c)
	}
	want := make([]float32, n)
	err := ref.Evaluate(pos, want, nil)
	if err != nil {
		t.Fatal(err)
	}
	for i, c := range cells {
		got, err := f.At(c)
		if err != nil {
			t.Fatal(err)
		}
		fn(c, got, want[i])
	}
}

func TestInitializeBox(t *testing.T) {
	const (
		cellSize = 0.25
		band     = 2
	)
	bb := ms3.Box{Min: ms3.Vec{X: -1, Y: -1, Z: -1}, Max: ms3.Vec{X: 1, Y: 1, Z: 1}}
	tris, err := trimesh.Box(bb)
	if err != nil {
		t.Fatal(err)
	}
	cfg, err := narrowband.FitBounds(bb, cellSize, 4, band)
	if err != nil {
		t.Fatal(err)
	}
	cfg.SampleEpsilon = 0.001
	f, err := narrowband.Initialize(cfg, tris)
	if err != nil {
		t.Fatal(err)
	}
	ref, err := gleval.NewMeshSDF3(tris, 0)
	if err != nil {
		t.Fatal(err)
	}
	fb := f.Bounds()
	if ms3.MinElem(fb.Min, bb.Min) != fb.Min || ms3.MaxElem(fb.Max, bb.Max) != fb.Max {
		t.Fatalf("field bounds %+v do not contain mesh bounds %+v", fb, bb)
	}
	// Farthest a seeded cell center can be from a sample.
	maxReach := math32.Sqrt(3) * (band + 0.5) * cellSize
	var known int
	forEachCell(t, f, ref, func(c i3.Vec, got, want float32) {
		if math32.IsInf(got, 1) {
			if math32.Abs(want) <= cellSize {
				t.Errorf("cell %+v at distance %f from surface not seeded", c, want)
			}
			return
		}
		known++
		if math32.Abs(want) > maxReach+tol {
			t.Errorf("cell %+v at distance %f seeded beyond band reach %f", c, want, maxReach)
		}
		if math32.Abs(got)+tol < math32.Abs(want) {
			t.Errorf("cell %+v: seeded magnitude %f below exact distance %f", c, got, want)
		}
		if math32.Abs(want) <= cellSize && math32.Abs(got-want) > tol {
			t.Errorf("cell %+v near surface: got %f, want %f", c, got, want)
		}
	})
	if known != f.Known() || known == 0 {
		t.Errorf("counted %d known cells, field reports %d", known, f.Known())
	}
	if f.Skipped() != 0 {
		t.Error("no triangles should be skipped, got", f.Skipped())
	}
}

func TestInitializeBoxEdgeSign(t *testing.T) {
	bb := ms3.Box{Min: ms3.Vec{X: -1, Y: -1, Z: -1}, Max: ms3.Vec{X: 1, Y: 1, Z: 1}}
	tris, err := trimesh.Box(bb)
	if err != nil {
		t.Fatal(err)
	}
	// Cell centers land on the box face planes so several faces tie at edges and corners.
	params, err := blockgrid.MakeParams(3, 3, 3, 3, 3, 3)
	if err != nil {
		t.Fatal(err)
	}
	const cellSize = 0.5
	f, err := narrowband.Initialize(narrowband.Config{
		Block:         params,
		Origin:        ms3.Vec{X: -2.25, Y: -2.25, Z: -2.25},
		CellSize:      cellSize,
		Band:          2,
		MaxDensity:    narrowband.DefaultMaxDensity,
		SampleEpsilon: 0.001,
	}, tris)
	if err != nil {
		t.Fatal(err)
	}
	v, err := f.At(i3.Vec{X: 6, Y: 7, Z: 4}) // Center (1, 1.5, 0).
	if err != nil {
		t.Fatal(err)
	}
	if math32.Abs(v-0.5) > tol {
		t.Errorf("cell beside box edge: got %f, want 0.5", v)
	}
	ref, err := gleval.NewMeshSDF3(tris, 0)
	if err != nil {
		t.Fatal(err)
	}
	forEachCell(t, f, ref, func(c i3.Vec, got, want float32) {
		if math32.IsInf(got, 1) || math32.Abs(want) > cellSize {
			return
		}
		if math32.Abs(got-want) > tol {
			t.Errorf("cell %+v center %+v: got %f, want %f", c, f.CellCenter(c), got, want)
		}
	})
}

func TestInitializeSphereSign(t *testing.T) {
	center := ms3.Vec{X: 0.3, Y: -0.2, Z: 0.1}
	const r = 1
	tris, err := trimesh.UVSphere(center, r, 24, 48)
	if err != nil {
		t.Fatal(err)
	}
	bb := ms3.Box{Min: ms3.Sub(center, ms3.Vec{X: r, Y: r, Z: r}), Max: ms3.Add(center, ms3.Vec{X: r, Y: r, Z: r})}
	cfg, err := narrowband.FitBounds(bb, 0.2, 4, 1)
	if err != nil {
		t.Fatal(err)
	}
	f, err := narrowband.Initialize(cfg, tris)
	if err != nil {
		t.Fatal(err)
	}
	ext := cfg.Block.CellExtent()
	for i := 0; i < int(ext.Len()); i++ {
		c, _ := grid.Decode(i, ext)
		v, _ := f.At(c)
		if math32.IsInf(v, 1) {
			continue
		}
		radial := ms3.Norm(ms3.Sub(f.CellCenter(c), center)) - r
		// Tessellation error of the sphere is well under 0.05 at this resolution.
		if math32.Abs(radial) > 0.05 && (v < 0) != (radial < 0) {
			t.Errorf("cell %+v radial distance %f but seeded %f", c, radial, v)
		}
	}
	if f.Known() == 0 {
		t.Fatal("no cells seeded")
	}
}

func TestInitializeSingleTriangle(t *testing.T) {
	tri := ms3.Triangle{{X: 0.1, Y: 0.1, Z: 0.55}, {X: 1.9, Y: 0.1, Z: 0.55}, {X: 0.1, Y: 1.9, Z: 0.55}}
	params, err := blockgrid.MakeParams(2, 2, 2, 1, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	cfg := narrowband.Config{
		Block:      params,
		CellSize:   1,
		Band:       1,
		MaxDensity: 8,
	}
	f, err := narrowband.Initialize(cfg, []ms3.Triangle{tri, {{}, {X: 1}, {X: 2}}})
	if err != nil {
		t.Fatal(err)
	}
	if f.Skipped() != 1 {
		t.Errorf("want 1 skipped degenerate triangle, got %d", f.Skipped())
	}
	// Every cell of the 2x2x2 grid is within one cell of a sample and is evaluated exactly once.
	if f.Known() != 8 || f.Evaluations() != 8 {
		t.Errorf("want 8 known cells and evaluations, got %d and %d", f.Known(), f.Evaluations())
	}
	v, err := f.At(i3.Vec{Z: 1})
	if err != nil {
		t.Fatal(err)
	}
	if math32.Abs(v-0.95) > tol {
		t.Errorf("cell above triangle: got %f, want 0.95", v)
	}
	v, _ = f.At(i3.Vec{})
	if math32.Abs(v+0.05) > tol {
		t.Errorf("cell below triangle: got %f, want -0.05", v)
	}
	if _, err := f.At(i3.Vec{X: 2}); !errors.Is(err, grid.ErrOutOfRange) {
		t.Error("expected out of range error, got", err)
	}
}

func TestFieldEvaluate(t *testing.T) {
	tri := ms3.Triangle{{X: 0.1, Y: 0.1, Z: 1}, {X: 3.9, Y: 0.1, Z: 1}, {X: 0.1, Y: 3.9, Z: 1}}
	params, err := blockgrid.MakeParams(2, 2, 2, 2, 2, 2)
	if err != nil {
		t.Fatal(err)
	}
	origin := ms3.Vec{X: -1, Y: -1, Z: -1}
	f, err := narrowband.Initialize(narrowband.Config{
		Block: params, Origin: origin, CellSize: 1, Band: 1, MaxDensity: 16,
	}, []ms3.Triangle{tri})
	if err != nil {
		t.Fatal(err)
	}
	wantBounds := ms3.Box{Min: origin, Max: ms3.Vec{X: 3, Y: 3, Z: 3}}
	if f.Bounds() != wantBounds {
		t.Errorf("bounds %+v, want %+v", f.Bounds(), wantBounds)
	}
	pos := []ms3.Vec{
		{X: 0.2, Y: 0.2, Z: 1.9},  // Cell (1,1,2), center z=1.5.
		{X: 0.9, Y: 0.7, Z: 1.1},  // Same cell.
		{X: 0.5, Y: 0.5, Z: 0.2},  // Cell (1,1,1), center z=0.5.
		{X: 5, Y: 0, Z: 0},        // Outside.
		{X: -1.5, Y: 0.5, Z: 0.5}, // Outside.
	}
	dist := make([]float32, len(pos))
	err = f.Evaluate(pos, dist, nil)
	if err != nil {
		t.Fatal(err)
	}
	want := []float32{0.5, 0.5, -0.5, math32.Inf(1), math32.Inf(1)}
	for i := range want {
		if dist[i] != want[i] && math32.Abs(dist[i]-want[i]) > tol {
			t.Errorf("evaluate %+v: got %f, want %f", pos[i], dist[i], want[i])
		}
	}
	if err := f.Evaluate(pos, dist[:2], nil); err == nil {
		t.Error("expected error for mismatched buffers")
	}
}

func TestInitializeDeterministic(t *testing.T) {
	tris, err := trimesh.Octahedron(ms3.Vec{X: 0.1}, 1.3)
	if err != nil {
		t.Fatal(err)
	}
	cfg, err := narrowband.FitBounds(ms3.Box{Min: ms3.Vec{X: -1.3, Y: -1.3, Z: -1.3}, Max: ms3.Vec{X: 1.5, Y: 1.3, Z: 1.3}}, 0.1, 4, 2)
	if err != nil {
		t.Fatal(err)
	}
	f1, err := narrowband.Initialize(cfg, tris)
	if err != nil {
		t.Fatal(err)
	}
	f2, err := narrowband.Initialize(cfg, tris)
	if err != nil {
		t.Fatal(err)
	}
	d1, d2 := f1.Data(), f2.Data()
	for i := range d1 {
		if d1[i] != d2[i] && !(math32.IsInf(d1[i], 1) && math32.IsInf(d2[i], 1)) {
			t.Fatalf("value %d differs between runs: %f != %f", i, d1[i], d2[i])
		}
	}
}

func TestConfigValidate(t *testing.T) {
	params, err := blockgrid.MakeParams(4, 4, 4, 1, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	good := narrowband.Config{Block: params, CellSize: 1, Band: 2, MaxDensity: 4}
	if err := good.Validate(); err != nil {
		t.Fatal(err)
	}
	bad := []func(*narrowband.Config){
		func(c *narrowband.Config) { c.Block = blockgrid.Params{} },
		func(c *narrowband.Config) { c.CellSize = 0 },
		func(c *narrowband.Config) { c.CellSize = math32.Inf(1) },
		func(c *narrowband.Config) { c.Band = -1 },
		func(c *narrowband.Config) { c.MaxDensity = 0 },
		func(c *narrowband.Config) { c.SampleEpsilon = -1 },
		func(c *narrowband.Config) { c.MinArea2 = math32.NaN() },
	}
	for i, mod := range bad {
		cfg := good
		mod(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("case %d: expected validation error", i)
		}
		if _, err := narrowband.Initialize(cfg, nil); err == nil {
			t.Errorf("case %d: expected initialization error", i)
		}
	}
	if _, err := narrowband.FitBounds(ms3.Box{}, 0, 4, 1); err == nil {
		t.Error("expected error for zero cell size")
	}
}
