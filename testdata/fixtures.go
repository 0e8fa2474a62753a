// Package testdata builds synthetic camera frames for tests that need a
// pipeline without a real device.
package testdata

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

// Frame returns a width x height BGR frame with a light rectangle in the
// middle so it is not uniformly black.
func Frame(width, height int) *gocv.Mat {
	mat := gocv.NewMatWithSize(height, width, gocv.MatTypeCV8UC3)
	gocv.Rectangle(&mat, image.Rect(width/4, height/4, 3*width/4, 3*height/4), color.RGBA{R: 200, G: 180, B: 160}, -1)
	return &mat
}

// Sequence returns n frames of the given size.
func Sequence(n, width, height int) []*gocv.Mat {
	frames := make([]*gocv.Mat, 0, n)
	for i := 0; i < n; i++ {
		frames = append(frames, Frame(width, height))
	}
	return frames
}

// Close releases every frame in frames.
func Close(frames []*gocv.Mat) {
	for _, f := range frames {
		f.Close()
	}
}
