package glrender

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/gfmm/gleval"
)

type setImage = interface {
	image.Image
	Set(x, y int, c color.Color)
}

// SliceRenderer renders planes of constant z of 3D SDFs to images.
type SliceRenderer struct {
	conv func(f float32) color.Color
	pos  []ms3.Vec
	dist []float32
}

// NewSliceRenderer instances a new [SliceRenderer]. A nil float->color conversion
// function results in a simple black-white color scheme where black is the interior of the SDF (negative distance)
// and red marks NaN or infinite distances, such as cells a narrow band never reached.
func NewSliceRenderer(evalBufferSize int, conversion func(float32) color.Color) (*SliceRenderer, error) {
	if evalBufferSize <= 64 {
		return nil, errors.New("too small evaluation buffer size")
	}
	if conversion == nil {
		conversion = func(f float32) color.Color {
			switch {
			case math32.IsNaN(f) || math32.IsInf(f, 0):
				return color.RGBA{R: 255, A: 255}
			case f > 0:
				return color.White
			default:
				return color.Black
			}
		}
	}
	sr := &SliceRenderer{
		conv: conversion,
		pos:  make([]ms3.Vec, evalBufferSize),
		dist: make([]float32, evalBufferSize),
	}
	return sr, nil
}

// Render maps the xy extent of the SDF bounds at height z onto img, one evaluation per pixel center.
// Image rows grow along +y. It uses userData as an argument to all [gleval.SDF3.Evaluate] calls.
func (sr *SliceRenderer) Render(sdf gleval.SDF3, z float32, img setImage, userData any) error {
	imgBB := img.Bounds()
	dxi := imgBB.Dx()
	dyi := imgBB.Dy()
	if len(sr.dist) < dyi {
		return fmt.Errorf("require evaluation buffer (%d) to be at least of length of image rows (%d)", len(sr.dist), dyi)
	}
	bb := sdf.Bounds()
	if z < bb.Min.Z || z > bb.Max.Z {
		return fmt.Errorf("slice z=%g outside of SDF bounds [%g, %g]", z, bb.Min.Z, bb.Max.Z)
	}
	sz := bb.Size()
	dx := sz.X / float32(dxi)
	dy := sz.Y / float32(dyi)
	xmin := bb.Min.X + dx/2 // Offset to pixel centers.
	ymin := bb.Min.Y + dy/2
	for i := 0; i < dxi; i++ {
		x := float32(i)*dx + xmin
		err := sr.renderColumn(sdf, i, x, ymin, dy, z, imgBB, img, userData)
		if err != nil {
			return err
		}
	}
	return nil
}

func (sr *SliceRenderer) renderColumn(sdf gleval.SDF3, col int, x, ymin, dy, z float32, imgBB image.Rectangle, img setImage, userData any) error {
	dyi := imgBB.Dy()
	for j := 0; j < dyi; j++ {
		y := float32(j)*dy + ymin
		sr.pos[j] = ms3.Vec{X: x, Y: y, Z: z}
	}
	err := sdf.Evaluate(sr.pos[:dyi], sr.dist[:dyi], userData)
	if err != nil {
		return err
	}
	conv := sr.conv
	for j := 0; j < dyi; j++ {
		img.Set(col+imgBB.Min.X, j+imgBB.Min.Y, conv(sr.dist[j]))
	}
	return nil
}
