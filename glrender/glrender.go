package glrender

import (
	"io"

	"github.com/soypat/geometry/ms3"
)

// TriangleReader streams triangles from a mesh source such as a file.
type TriangleReader interface {
	// ReadTriangles reads up to len(dst) triangles into dst and returns the amount read.
	// It returns io.EOF when the source is exhausted.
	ReadTriangles(dst []ms3.Triangle, userData any) (n int, err error)
}

// ReadAll reads the full contents of a TriangleReader and returns the slice read.
// It does not return error on io.EOF, like the io.ReadAll implementation.
func ReadAll(r TriangleReader, userData any) ([]ms3.Triangle, error) {
	const startSize = 4096
	var err error
	var nt int
	result := make([]ms3.Triangle, 0, startSize)
	buf := make([]ms3.Triangle, startSize)
	for {
		nt, err = r.ReadTriangles(buf, userData)
		if err == nil || err == io.EOF {
			result = append(result, buf[:nt]...)
		}
		if err != nil {
			break
		}
	}
	if err == io.EOF {
		return result, nil
	}
	return result, err
}

// SliceReader is a [TriangleReader] over an in-memory triangle slice.
type SliceReader struct {
	tris []ms3.Triangle
	off  int
}

// NewSliceReader returns a SliceReader reading tris. The slice is not copied.
func NewSliceReader(tris []ms3.Triangle) *SliceReader {
	return &SliceReader{tris: tris}
}

// ReadTriangles implements [TriangleReader].
func (sr *SliceReader) ReadTriangles(dst []ms3.Triangle, userData any) (int, error) {
	if sr.off >= len(sr.tris) {
		return 0, io.EOF
	}
	n := copy(dst, sr.tris[sr.off:])
	sr.off += n
	return n, nil
}
