// Package compose blends the segmented foreground over the virtual
// background using the post-processed mask as per-pixel alpha.
package compose

import (
	"gocv.io/x/gocv"
)

// Composite alpha-blends frame over background per color channel:
//
//	out = frame*w + background*(1-w)
//
// weights is the single-channel CV_32F output of mask.PostProcess with
// values in [0,1]; frame and background are 8-bit BGR. All three must
// share dimensions, which the pipeline guarantees by construction. The
// caller owns the returned Mat.
func Composite(frame, weights, background gocv.Mat) gocv.Mat {
	rows, cols := frame.Rows(), frame.Cols()

	fg := gocv.NewMat()
	defer fg.Close()
	frame.ConvertTo(&fg, gocv.MatTypeCV32FC3)

	bg := gocv.NewMat()
	defer bg.Close()
	background.ConvertTo(&bg, gocv.MatTypeCV32FC3)

	// Broadcast the weights across the three channels.
	w3 := gocv.NewMat()
	defer w3.Close()
	gocv.Merge([]gocv.Mat{weights, weights, weights}, &w3)

	ones := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(1, 1, 1, 0), rows, cols, gocv.MatTypeCV32FC3)
	defer ones.Close()
	inv := gocv.NewMat()
	defer inv.Close()
	gocv.Subtract(ones, w3, &inv)

	fgWeighted := gocv.NewMat()
	defer fgWeighted.Close()
	gocv.Multiply(fg, w3, &fgWeighted)

	bgWeighted := gocv.NewMat()
	defer bgWeighted.Close()
	gocv.Multiply(bg, inv, &bgWeighted)

	blended := gocv.NewMat()
	defer blended.Close()
	gocv.Add(fgWeighted, bgWeighted, &blended)

	out := gocv.NewMat()
	blended.ConvertTo(&out, gocv.MatTypeCV8UC3)
	return out
}
