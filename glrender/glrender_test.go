package glrender

import (
	"bytes"
	"encoding/binary"
	"errors"
	"image"
	"image/color"
	"io"
	"testing"

	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/gfmm/forge/trimesh"
)

func TestSTLRoundTrip(t *testing.T) {
	tris, err := trimesh.UVSphere(ms3.Vec{X: 1}, 2, 9, 13)
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	n, err := WriteBinarySTL(&buf, tris)
	if err != nil {
		t.Fatal(err)
	}
	wantSize := stlHeaderSize + 4 + stlRecordSize*len(tris)
	if n != wantSize || buf.Len() != wantSize {
		t.Fatalf("wrote %d bytes (buffer %d), want %d", n, buf.Len(), wantSize)
	}
	// First facet normal points away from the sphere center.
	rec := buf.Bytes()[stlHeaderSize+4:]
	normal := readVec(rec)
	if ms3.Dot(normal, ms3.Sub(tris[0][0], ms3.Vec{X: 1})) <= 0 {
		t.Error("written normal does not point outward", normal)
	}
	sr, err := NewSTLReader(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if sr.NumTriangles() != len(tris) {
		t.Fatalf("header declares %d triangles, want %d", sr.NumTriangles(), len(tris))
	}
	got, err := ReadAll(sr, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(tris) {
		t.Fatalf("read %d triangles, want %d", len(got), len(tris))
	}
	for i := range tris {
		if got[i] != tris[i] {
			t.Fatalf("triangle %d: got %+v, want %+v", i, got[i], tris[i])
		}
	}
}

func TestSTLReaderSmallBuffer(t *testing.T) {
	tris, err := trimesh.Octahedron(ms3.Vec{}, 1)
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	_, err = WriteBinarySTL(&buf, tris)
	if err != nil {
		t.Fatal(err)
	}
	sr, err := NewSTLReader(&buf)
	if err != nil {
		t.Fatal(err)
	}
	dst := make([]ms3.Triangle, 3)
	var total int
	for {
		n, err := sr.ReadTriangles(dst, nil)
		for i := 0; i < n; i++ {
			if dst[i] != tris[total+i] {
				t.Fatalf("triangle %d mismatch", total+i)
			}
		}
		total += n
		if err == io.EOF {
			break
		} else if err != nil {
			t.Fatal(err)
		}
	}
	if total != len(tris) {
		t.Errorf("read %d triangles in chunks, want %d", total, len(tris))
	}
}

func TestSTLTruncated(t *testing.T) {
	var hdr [stlHeaderSize + 4]byte
	binary.LittleEndian.PutUint32(hdr[stlHeaderSize:], 2)
	data := append(hdr[:], make([]byte, stlRecordSize+10)...)
	sr, err := NewSTLReader(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	got, err := ReadAll(sr, nil)
	if !errors.Is(err, errSTLTruncated) {
		t.Fatal("expected truncation error, got", err)
	}
	if len(got) != 0 {
		// ReadAll discards partial reads on error.
		t.Error("expected no triangles on error, got", len(got))
	}
	if _, err := NewSTLReader(bytes.NewReader(hdr[:40])); err == nil {
		t.Error("expected error for short header")
	}
}

func TestSliceReader(t *testing.T) {
	tris, _ := trimesh.Octahedron(ms3.Vec{}, 1)
	got, err := ReadAll(NewSliceReader(tris), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(tris) {
		t.Errorf("read %d triangles, want %d", len(got), len(tris))
	}
}

type sphereSDF struct {
	r float32
}

func (s sphereSDF) Bounds() ms3.Box {
	return ms3.Box{Min: ms3.Vec{X: -2 * s.r, Y: -2 * s.r, Z: -2 * s.r}, Max: ms3.Vec{X: 2 * s.r, Y: 2 * s.r, Z: 2 * s.r}}
}

func (s sphereSDF) Evaluate(pos []ms3.Vec, dist []float32, userData any) error {
	for i, p := range pos {
		dist[i] = ms3.Norm(p) - s.r
		if p.X > 1.5*s.r {
			dist[i] = math32.Inf(1)
		}
	}
	return nil
}

func TestSliceRenderer(t *testing.T) {
	const dim = 100
	sr, err := NewSliceRenderer(1024, nil)
	if err != nil {
		t.Fatal(err)
	}
	img := image.NewRGBA(image.Rect(0, 0, dim, dim))
	sdf := sphereSDF{r: 1}
	err = sr.Render(sdf, 0, img, nil)
	if err != nil {
		t.Fatal(err)
	}
	var tests = []struct {
		x, y int
		want color.RGBA
	}{
		{x: dim / 2, y: dim / 2, want: color.RGBA{A: 255}},             // Inside.
		{x: 2, y: 2, want: color.RGBA{R: 255, G: 255, B: 255, A: 255}}, // Outside.
		{x: dim - 2, y: dim / 2, want: color.RGBA{R: 255, A: 255}},     // Infinite.
	}
	for _, test := range tests {
		if got := img.RGBAAt(test.x, test.y); got != test.want {
			t.Errorf("pixel (%d,%d): got %v, want %v", test.x, test.y, got, test.want)
		}
	}
	if err := sr.Render(sdf, 5, img, nil); err == nil {
		t.Error("expected error for slice outside bounds")
	}
	if _, err := NewSliceRenderer(8, nil); err == nil {
		t.Error("expected error for small buffer")
	}
}

func TestLabeler(t *testing.T) {
	l, err := NewLabeler(16, color.Black)
	if err != nil {
		t.Fatal(err)
	}
	if l.LineHeight() <= 0 || l.Measure("z=0.25") <= 0 {
		t.Fatal("bad font metrics")
	}
	img := image.NewRGBA(image.Rect(0, 0, 120, 40))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	end := l.Draw(img, 4, 4, "z=0.25")
	if end <= 4 {
		t.Error("text did not advance", end)
	}
	var dark int
	for i := 0; i < len(img.Pix); i += 4 {
		if img.Pix[i] < 128 {
			dark++
		}
	}
	if dark == 0 {
		t.Error("no text drawn")
	}
	if _, err := NewLabeler(0, color.Black); err == nil {
		t.Error("expected error for zero font size")
	}
}
