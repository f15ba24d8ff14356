package gfmmaux

import (
	"errors"
	"fmt"
	"io"

	"github.com/soypat/gfmm"
	"github.com/soypat/gfmm/narrowband"
	"gopkg.in/yaml.v3"
)

// Config holds the file configurable parameters of a narrow band run.
// Zero fields are replaced by defaults, see [Config.WithDefaults].
type Config struct {
	// CellSize is the grid cell side length. If zero it is chosen so that the
	// longest side of the mesh bounds spans CellsAcross cells.
	CellSize    float32 `yaml:"cell_size"`
	CellsAcross int     `yaml:"cells_across"`
	// BlockDim is the side of the cubic blocks the grid is divided into.
	BlockDim      int     `yaml:"block_dim"`
	Band          int     `yaml:"band"`
	MaxDensity    int     `yaml:"max_density"`
	SampleEpsilon float32 `yaml:"sample_epsilon"`
	MinArea2      float32 `yaml:"min_area2"`
	// InvocX is the compute shader work group size used when running on GPU.
	InvocX int `yaml:"invoc_x"`
	// ImageHeight is the height in pixels of the rendered slice.
	ImageHeight int `yaml:"image_height"`
}

// DefaultConfig returns the configuration used for zero fields.
func DefaultConfig() Config {
	return Config{
		CellsAcross:   64,
		BlockDim:      4,
		Band:          narrowband.DefaultBand,
		MaxDensity:    narrowband.DefaultMaxDensity,
		SampleEpsilon: gfmm.DefaultSampleEpsilon,
		InvocX:        64,
		ImageHeight:   512,
	}
}

// WithDefaults returns cfg with zero fields set to their [DefaultConfig] value.
// A zero Band is valid and is only defaulted for the zero Config.
func (cfg Config) WithDefaults() Config {
	def := DefaultConfig()
	if cfg == (Config{}) {
		return def
	}
	if cfg.CellsAcross == 0 {
		cfg.CellsAcross = def.CellsAcross
	}
	if cfg.BlockDim == 0 {
		cfg.BlockDim = def.BlockDim
	}
	if cfg.MaxDensity == 0 {
		cfg.MaxDensity = def.MaxDensity
	}
	if cfg.SampleEpsilon == 0 {
		cfg.SampleEpsilon = def.SampleEpsilon
	}
	if cfg.InvocX == 0 {
		cfg.InvocX = def.InvocX
	}
	if cfg.ImageHeight == 0 {
		cfg.ImageHeight = def.ImageHeight
	}
	return cfg
}

// Validate checks values that can not be fixed by defaults.
func (cfg Config) Validate() error {
	switch {
	case cfg.CellSize < 0:
		return errors.New("negative cell size")
	case cfg.CellsAcross < 1:
		return errors.New("cells across must be at least 1")
	case cfg.BlockDim < 1:
		return errors.New("block dimension must be at least 1")
	case cfg.Band < 0:
		return errors.New("negative band")
	case cfg.InvocX < 1:
		return errors.New("invocation size must be at least 1")
	case cfg.ImageHeight < 1:
		return errors.New("image height must be at least 1")
	}
	return nil
}

// LoadConfig decodes a YAML configuration from r on top of [DefaultConfig],
// so keys missing from the document keep their default. Unknown keys are an error.
func LoadConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	err := dec.Decode(&cfg)
	if err != nil && err != io.EOF {
		return Config{}, fmt.Errorf("decoding YAML config: %w", err)
	}
	err = cfg.Validate()
	if err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
