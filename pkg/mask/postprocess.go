package mask

import (
	"image"

	"gocv.io/x/gocv"
)

// Post-processing kernel sizes. The dilation closes small holes the
// segmentation leaves in the subject; the box blur feathers the mask so
// the composite edge doesn't look like a hard cutout.
const (
	dilateKernelSize = 10
	blurKernelSize   = 30
)

// PostProcess turns a raw 8-bit service mask into per-pixel blend
// weights: dilate with a 10x10 rectangular kernel, scale to [0,1]
// float, then soften with a 30x30 box blur. The result is a
// single-channel CV_32F Mat of the same dimensions; the caller owns it.
// Deterministic, and the identity on uniform masks.
func PostProcess(raw gocv.Mat) gocv.Mat {
	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(dilateKernelSize, dilateKernelSize))
	defer kernel.Close()

	dilated := gocv.NewMat()
	defer dilated.Close()
	gocv.Dilate(raw, &dilated, kernel)

	weights := gocv.NewMat()
	defer weights.Close()
	dilated.ConvertToWithParams(&weights, gocv.MatTypeCV32F, 1.0/255.0, 0)

	softened := gocv.NewMat()
	gocv.Blur(weights, &softened, image.Pt(blurKernelSize, blurKernelSize))
	return softened
}
