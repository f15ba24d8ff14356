package glrender

import (
	"errors"
	"image"
	"image/color"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/fixed"
)

// Labeler draws single lines of debug text onto images, such as the slice
// height and cell statistics of a rendered field.
type Labeler struct {
	face font.Face
	src  image.Image
}

// NewLabeler parses the Go Regular font and returns a Labeler drawing text of the given
// point size (at 72 DPI, so one point is one pixel) in color c.
func NewLabeler(size float64, c color.Color) (*Labeler, error) {
	if !(size > 0) {
		return nil, errors.New("font size must be positive")
	}
	ttf, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, err
	}
	face := truetype.NewFace(ttf, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	return &Labeler{face: face, src: image.NewUniform(c)}, nil
}

// LineHeight returns the recommended distance in pixels between two consecutive lines.
func (l *Labeler) LineHeight() int {
	return l.face.Metrics().Height.Ceil()
}

// Measure returns the width in pixels of text.
func (l *Labeler) Measure(text string) int {
	return font.MeasureString(l.face, text).Ceil()
}

// Draw draws text onto dst with the top left corner of the line at (x,y)
// and returns the x coordinate where the text ends.
func (l *Labeler) Draw(dst setImage, x, y int, text string) int {
	d := font.Drawer{
		Dst:  dst,
		Src:  l.src,
		Face: l.face,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y) + l.face.Metrics().Ascent},
	}
	d.DrawString(text)
	return d.Dot.X.Ceil()
}
