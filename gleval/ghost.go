package gleval

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"
	"github.com/soypat/gfmm/blockgrid"
)

// GhostPaddedLen returns the length of the destination buffer
// required by [GatherGhostsCPU] and [GhostGatherGPU.Gather] for tbl.
func GhostPaddedLen(tbl *blockgrid.Table) int {
	return tbl.Params().NumBlocks() * len(tbl.Hash)
}

// GatherGhostsCPU copies every block of the block-major field into dst, padded with its ghost layer:
//
//	dst[b*len(tbl.Hash) + h] = field[b*blockSize + tbl.Hash[h]]
//
// Addresses falling outside of field (ghosts of boundary blocks) are stored as NaN.
func GatherGhostsCPU(dst, field []float32, tbl *blockgrid.Table) error {
	err := checkGatherBuffers(dst, field, tbl)
	if err != nil {
		return err
	}
	padLen := len(tbl.Hash)
	bs := int(tbl.Params().BlockSize())
	nan := math32.NaN()
	for b := 0; b < tbl.Params().NumBlocks(); b++ {
		base := b * bs
		out := dst[b*padLen : (b+1)*padLen]
		for h, off := range tbl.Hash {
			addr := base + int(off)
			if addr < 0 || addr >= len(field) {
				out[h] = nan
				continue
			}
			out[h] = field[addr]
		}
	}
	return nil
}

func checkGatherBuffers(dst, field []float32, tbl *blockgrid.Table) error {
	if tbl == nil || len(tbl.Hash) == 0 {
		return errors.New("nil or empty ghost table")
	} else if len(field) == 0 {
		return errEmptyBuffers
	} else if len(field) != tbl.Params().NumCells() {
		return fmt.Errorf("field length %d does not match %d grid cells", len(field), tbl.Params().NumCells())
	} else if len(dst) != GhostPaddedLen(tbl) {
		return fmt.Errorf("destination length %d, want %d", len(dst), GhostPaddedLen(tbl))
	}
	return nil
}

// GhostGatherGPU performs the same gather as [GatherGhostsCPU] on a compute shader.
// A current OpenGL 4.6 context is required, see [Init1x1GLFW].
type GhostGatherGPU struct {
	tbl    *blockgrid.Table
	shader string
	invocX int
}

// Configure prepares the compute shader for tbl. It does not require an OpenGL context.
func (g *GhostGatherGPU) Configure(cfg ComputeConfig, tbl *blockgrid.Table) error {
	if cfg.InvocX < 1 {
		return errZeroInvoc
	} else if tbl == nil || len(tbl.Hash) == 0 {
		return errors.New("nil or empty ghost table")
	}
	g.tbl = tbl
	g.invocX = cfg.InvocX
	g.shader = fmt.Sprintf(ghostGatherShader, cfg.InvocX, tbl.Params().BlockSize()) + "\x00"
	return nil
}

const ghostGatherShader = `#version 430
layout(local_size_x = %d, local_size_y = 1, local_size_z = 1) in;

// Block-major field values.
layout(std430, binding = 0) buffer FieldBuffer {
	float vbo_field[];
};

// Ghost hash table, one offset per padded block coordinate.
layout(std430, binding = 1) buffer HashBuffer {
	int vbo_hash[];
};

// Padded copy of every block.
layout(std430, binding = 2) buffer OutBuffer {
	float vbo_out[];
};

const int BlockSize = %d;

void main() {
	int idx = int( gl_GlobalInvocationID.x );
	if (idx >= vbo_out.length()) {
		return;
	}
	int padLen = vbo_hash.length();
	int block = idx / padLen;
	int addr = block*BlockSize + vbo_hash[idx - block*padLen];
	if (addr < 0 || addr >= vbo_field.length()) {
		vbo_out[idx] = uintBitsToFloat(0x7fc00000u);
		return;
	}
	vbo_out[idx] = vbo_field[addr];
}`
