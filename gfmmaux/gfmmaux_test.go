package gfmmaux

import (
	"bytes"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/gfmm/forge/trimesh"
	"github.com/soypat/gfmm/glrender"
)

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(strings.NewReader("cell_size: 0.05\nband: 0\nblock_dim: 8\n"))
	if err != nil {
		t.Fatal(err)
	}
	want := DefaultConfig()
	want.CellSize = 0.05
	want.Band = 0
	want.BlockDim = 8
	if cfg != want {
		t.Errorf("got %+v, want %+v", cfg, want)
	}
	cfg, err = LoadConfig(strings.NewReader(""))
	if err != nil {
		t.Fatal(err)
	}
	if cfg != DefaultConfig() {
		t.Errorf("empty document: got %+v, want defaults", cfg)
	}
	for _, bad := range []string{
		"cellsize: 1\n",      // Unknown key.
		"band: -1\n",         // Invalid value.
		"block_dim: [1,2]\n", // Wrong type.
	} {
		if _, err := LoadConfig(strings.NewReader(bad)); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}

func TestWithDefaults(t *testing.T) {
	if (Config{}).WithDefaults() != DefaultConfig() {
		t.Error("zero config should yield defaults")
	}
	cfg := Config{CellSize: 0.1}.WithDefaults()
	if cfg.Band != 0 || cfg.BlockDim != DefaultConfig().BlockDim || cfg.CellSize != 0.1 {
		t.Errorf("unexpected defaults %+v", cfg)
	}
}

func TestRun(t *testing.T) {
	tris, err := trimesh.Box(ms3.Box{Min: ms3.Vec{X: -1, Y: -0.5, Z: -0.25}, Max: ms3.Vec{X: 1, Y: 0.5, Z: 0.25}})
	if err != nil {
		t.Fatal(err)
	}
	var stl bytes.Buffer
	_, err = glrender.WriteBinarySTL(&stl, tris)
	if err != nil {
		t.Fatal(err)
	}
	sr, err := glrender.NewSTLReader(&stl)
	if err != nil {
		t.Fatal(err)
	}
	tris, err = glrender.ReadAll(sr, nil)
	if err != nil {
		t.Fatal(err)
	}
	var visual bytes.Buffer
	cfg := RunConfig{
		Config:       Config{CellsAcross: 32, ImageHeight: 64},
		VisualOutput: &visual,
		Silent:       true,
	}
	result, err := Run(tris, cfg)
	if err != nil {
		t.Fatal(err)
	}
	f := result.Field
	if f.Known() == 0 || f.Known() >= f.Len() {
		t.Errorf("expected a partially seeded field, got %d of %d cells", f.Known(), f.Len())
	}
	if len(result.Padded) != f.Params().NumBlocks()*len(result.Table.Hash) {
		t.Error("bad padded buffer length", len(result.Padded))
	}
	img, err := png.Decode(&visual)
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dy() != 64 || img.Bounds().Dx() <= 64 {
		t.Errorf("unexpected image size %v for a mesh wider than tall", img.Bounds())
	}
	if _, err := Run(nil, cfg); err == nil {
		t.Error("expected error for empty mesh")
	}
}

func TestColorConversion(t *testing.T) {
	conv := ColorConversionInigoQuilez(1)
	if conv(math32.NaN()) != red || conv(math32.Inf(1)) != gray {
		t.Error("bad special value colors")
	}
	if c := conv(0).(color.RGBA); c.R != 255 || c.G != 255 || c.B != 255 {
		t.Error("zero level set should be white", c)
	}
	in := conv(-0.5).(color.RGBA)
	out := conv(0.5).(color.RGBA)
	if in.B <= in.R || out.R <= out.B {
		t.Errorf("inside should be blue and outside orange: %v %v", in, out)
	}
	if ColorConversionSign(-1) != color.Black || ColorConversionSign(1) != color.White || ColorConversionSign(math32.Inf(1)) != gray {
		t.Error("bad sign colors")
	}
}
