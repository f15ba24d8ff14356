// Package gfmmaux ties the narrow band pipeline together for command line use:
// configuration loading, mesh input, initialization, ghost gathering and slice rendering.
package gfmmaux

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"time"

	math "github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/gfmm/blockgrid"
	"github.com/soypat/gfmm/gleval"
	"github.com/soypat/gfmm/glrender"
	"github.com/soypat/gfmm/narrowband"
)

// RunConfig configures [Run].
type RunConfig struct {
	Config
	// VisualOutput receives a PNG rendering of a z slice of the field. May be nil.
	VisualOutput io.Writer
	// SliceZ is the height of the rendered slice. If nil the center of the mesh bounds is used.
	SliceZ *float32
	// UseGPU gathers ghost cells with a compute shader instead of the CPU.
	UseGPU bool
	// Silent disables progress logging to stdout.
	Silent bool
}

// Result holds the outputs of [Run].
type Result struct {
	Field *narrowband.Field
	Table *blockgrid.Table
	// Padded holds every block of the field padded with its ghost layer, see [gleval.GatherGhostsCPU].
	Padded []float32
}

// Run is an auxiliary function to aid users in getting setup quickly. It seeds a narrow band
// field from tris, builds the block ghost table, gathers ghost cells and optionally renders a slice.
func Run(tris []ms3.Triangle, cfg RunConfig) (*Result, error) {
	log := func(args ...any) {
		if !cfg.Silent {
			fmt.Println(args...)
		}
	}
	if len(tris) == 0 {
		return nil, errors.New("Run requires at least one triangle")
	}
	cfg.Config = cfg.Config.WithDefaults()
	err := cfg.Config.Validate()
	if err != nil {
		return nil, err
	}
	bb := meshBounds(tris)
	cellSize := cfg.CellSize
	if cellSize == 0 {
		sz := bb.Size()
		cellSize = math.Max(sz.X, math.Max(sz.Y, sz.Z)) / float32(cfg.CellsAcross)
	}
	nbcfg, err := narrowband.FitBounds(bb, cellSize, cfg.BlockDim, cfg.Band)
	if err != nil {
		return nil, err
	}
	nbcfg.MaxDensity = cfg.MaxDensity
	nbcfg.SampleEpsilon = cfg.SampleEpsilon
	nbcfg.MinArea2 = cfg.MinArea2
	log("grid of", nbcfg.Block.Global(), "blocks of", nbcfg.Block.Local(), "cells, cell size", cellSize)

	watch := stopwatch()
	field, err := narrowband.Initialize(nbcfg, tris)
	if err != nil {
		return nil, fmt.Errorf("initializing narrow band: %w", err)
	}
	log("seeded", field.Known(), "of", field.Len(), "cells (", percentUint64(uint64(field.Known()), uint64(field.Len())),
		"percent) with", field.Evaluations(), "evaluations in", watch())
	if field.Skipped() > 0 {
		log("skipped", field.Skipped(), "degenerate triangles")
	}

	watch = stopwatch()
	tbl, err := blockgrid.Build(field.Params())
	if err != nil {
		return nil, fmt.Errorf("building ghost table: %w", err)
	}
	log("built ghost table of", len(tbl.Entries), "entries", fmt.Sprintf("(fingerprint %016x)", tbl.Sum64()), "in", watch())

	padded := make([]float32, gleval.GhostPaddedLen(tbl))
	watch = stopwatch()
	if cfg.UseGPU {
		log("using GPU")
		err = gatherGPU(padded, field.Data(), tbl, cfg.InvocX)
	} else {
		log("using CPU")
		err = gleval.GatherGhostsCPU(padded, field.Data(), tbl)
	}
	if err != nil {
		return nil, fmt.Errorf("gathering ghost cells: %w", err)
	}
	log("gathered", len(padded), "padded block values in", watch())

	if cfg.VisualOutput != nil {
		watch = stopwatch()
		z := bb.Center().Z
		if cfg.SliceZ != nil {
			z = *cfg.SliceZ
		}
		err = renderSlice(cfg.VisualOutput, field, z, cfg.ImageHeight)
		if err != nil {
			return nil, fmt.Errorf("rendering slice: %w", err)
		}
		filename := "slice image"
		if fp, ok := cfg.VisualOutput.(*os.File); ok {
			filename = fp.Name()
		}
		log("wrote", filename, "in", watch())
	}
	return &Result{Field: field, Table: tbl, Padded: padded}, nil
}

// gatherGPU gathers the ghost cells of field into dst with a compute shader
// running on a fresh 1x1 GLFW context.
func gatherGPU(dst, field []float32, tbl *blockgrid.Table, invocX int) error {
	terminate, err := gleval.Init1x1GLFW()
	if err != nil {
		return err
	}
	defer terminate()
	var gather gleval.GhostGatherGPU
	err = gather.Configure(gleval.ComputeConfig{InvocX: invocX}, tbl)
	if err != nil {
		return err
	}
	return gather.Gather(dst, field)
}

// renderSlice renders the plane z of field as a PNG with a label in the top left corner.
// The image width is sized automatically from the height to preserve aspect ratio.
func renderSlice(w io.Writer, field *narrowband.Field, z float32, picHeight int) error {
	sz := field.Bounds().Size()
	picWidth := max(1, int(float32(picHeight)*sz.X/sz.Y))
	img := image.NewRGBA(image.Rect(0, 0, picWidth, picHeight))
	renderer, err := glrender.NewSliceRenderer(max(4096, picHeight), ColorConversionInigoQuilez(4*field.CellSize()))
	if err != nil {
		return err
	}
	err = renderer.Render(field, z, img, nil)
	if err != nil {
		return err
	}
	labeler, err := glrender.NewLabeler(max(10, float64(picHeight)/32), color.Black)
	if err != nil {
		return err
	}
	labeler.Draw(img, 4, 4, fmt.Sprintf("z=%.4g  known %d/%d", z, field.Known(), field.Len()))
	return png.Encode(w, img)
}

// ReadSTLFile reads all triangles of the binary STL file with said filename.
func ReadSTLFile(filename string) ([]ms3.Triangle, error) {
	fp, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer fp.Close()
	sr, err := glrender.NewSTLReader(fp)
	if err != nil {
		return nil, err
	}
	return glrender.ReadAll(sr, nil)
}

func meshBounds(tris []ms3.Triangle) ms3.Box {
	bb := ms3.Box{Min: tris[0][0], Max: tris[0][0]}
	for _, t := range tris {
		for _, v := range t {
			bb.Min = ms3.MinElem(bb.Min, v)
			bb.Max = ms3.MaxElem(bb.Max, v)
		}
	}
	return bb
}

func stopwatch() func() time.Duration {
	start := time.Now()
	return func() time.Duration {
		return time.Since(start)
	}
}
