package glrender

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/soypat/geometry/ms3"
	"github.com/soypat/gfmm"
)

const (
	stlHeaderSize = 80
	// Normal, three vertices and the attribute byte count.
	stlRecordSize = 4*3*4 + 2
)

var errSTLTruncated = errors.New("truncated binary STL")

// STLReader reads triangles from a binary STL stream.
// Stored facet normals are ignored; winding alone determines orientation.
type STLReader struct {
	r      io.Reader
	header [stlHeaderSize]byte
	total  uint32
	read   uint32
	rec    []byte
}

// NewSTLReader reads the binary STL header and triangle count from r.
func NewSTLReader(r io.Reader) (*STLReader, error) {
	sr := &STLReader{r: r}
	_, err := io.ReadFull(r, sr.header[:])
	if err != nil {
		return nil, fmt.Errorf("reading STL header: %w", err)
	}
	var count [4]byte
	_, err = io.ReadFull(r, count[:])
	if err != nil {
		return nil, fmt.Errorf("reading STL triangle count: %w", err)
	}
	sr.total = binary.LittleEndian.Uint32(count[:])
	return sr, nil
}

// Header returns the 80 byte header of the STL file.
func (sr *STLReader) Header() [80]byte { return sr.header }

// NumTriangles returns the triangle count declared in the STL header.
func (sr *STLReader) NumTriangles() int { return int(sr.total) }

// ReadTriangles implements [TriangleReader].
func (sr *STLReader) ReadTriangles(dst []ms3.Triangle, userData any) (n int, err error) {
	remaining := sr.total - sr.read
	if remaining == 0 {
		return 0, io.EOF
	} else if len(dst) == 0 {
		return 0, nil
	}
	if uint64(len(dst)) > uint64(remaining) {
		dst = dst[:remaining]
	}
	need := len(dst) * stlRecordSize
	if cap(sr.rec) < need {
		sr.rec = make([]byte, need)
	}
	buf := sr.rec[:need]
	nb, err := io.ReadFull(sr.r, buf)
	n = nb / stlRecordSize
	for i := 0; i < n; i++ {
		rec := buf[i*stlRecordSize:]
		for v := 0; v < 3; v++ {
			dst[i][v] = readVec(rec[12+12*v:])
		}
	}
	sr.read += uint32(n)
	if err == io.ErrUnexpectedEOF || err == io.EOF {
		return n, fmt.Errorf("%w: read %d of %d triangles", errSTLTruncated, sr.read, sr.total)
	}
	return n, err
}

// WriteBinarySTL writes tris to w as a binary STL. Facet normals are
// recomputed from the CCW winding, degenerate facets get a zero normal.
func WriteBinarySTL(w io.Writer, tris []ms3.Triangle) (int, error) {
	if uint64(len(tris)) > math.MaxUint32 {
		return 0, errors.New("too many triangles for STL")
	}
	var header [stlHeaderSize + 4]byte
	copy(header[:], "binary STL")
	binary.LittleEndian.PutUint32(header[stlHeaderSize:], uint32(len(tris)))
	n, err := w.Write(header[:])
	if err != nil {
		return n, err
	}
	const batch = 256
	buf := make([]byte, 0, batch*stlRecordSize)
	for len(tris) > 0 {
		k := min(batch, len(tris))
		buf = buf[:0]
		for _, t := range tris[:k] {
			normal := gfmm.Normal(t)
			if gfmm.IsDegenerate(t, 0) {
				normal = ms3.Vec{}
			}
			buf = appendVec(buf, normal)
			for _, v := range t {
				buf = appendVec(buf, v)
			}
			buf = append(buf, 0, 0) // Attribute byte count.
		}
		ngot, err := w.Write(buf)
		n += ngot
		if err != nil {
			return n, err
		}
		tris = tris[k:]
	}
	return n, nil
}

func readVec(b []byte) ms3.Vec {
	return ms3.Vec{
		X: math.Float32frombits(binary.LittleEndian.Uint32(b)),
		Y: math.Float32frombits(binary.LittleEndian.Uint32(b[4:])),
		Z: math.Float32frombits(binary.LittleEndian.Uint32(b[8:])),
	}
}

func appendVec(b []byte, v ms3.Vec) []byte {
	b = binary.LittleEndian.AppendUint32(b, math.Float32bits(v.X))
	b = binary.LittleEndian.AppendUint32(b, math.Float32bits(v.Y))
	return binary.LittleEndian.AppendUint32(b, math.Float32bits(v.Z))
}
