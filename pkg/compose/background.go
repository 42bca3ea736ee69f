package compose

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// Privacy blur parameters. A very large kernel so nothing in the room
// is recognizable when no virtual background is configured.
const (
	privacyBlurKernel = 221
	privacyBlurSigma  = 20
)

// Background is a virtual background image, loaded from disk and
// resized exactly once to the output resolution so every blend sees
// matching dimensions. It lives across frames until reconfigured.
type Background struct {
	path string
	img  gocv.Mat
}

// LoadBackground reads the image at path and resizes it to width x
// height. Resizing happens here and nowhere else; the returned Mat is
// guaranteed to be exactly the requested size.
func LoadBackground(path string, width, height int) (*Background, error) {
	src := gocv.IMRead(path, gocv.IMReadColor)
	if src.Empty() {
		return nil, fmt.Errorf("compose: read background %s: no decodable image", path)
	}
	defer src.Close()

	scaled := gocv.NewMat()
	gocv.Resize(src, &scaled, image.Pt(width, height), 0, 0, gocv.InterpolationLinear)

	return &Background{path: path, img: scaled}, nil
}

// Mat returns the resized background. The Background retains ownership.
func (b *Background) Mat() gocv.Mat {
	return b.img
}

// Path returns the file the background was loaded from.
func (b *Background) Path() string {
	return b.path
}

// Close releases the background image.
func (b *Background) Close() error {
	return b.img.Close()
}

// PrivacyBlur produces the fallback background used when none is
// configured: a heavy Gaussian blur of the live frame itself. The
// caller owns the result.
func PrivacyBlur(frame gocv.Mat) gocv.Mat {
	blurred := gocv.NewMat()
	gocv.GaussianBlur(frame, &blurred,
		image.Pt(privacyBlurKernel, privacyBlurKernel),
		privacyBlurSigma, privacyBlurSigma, gocv.BorderDefault)
	return blurred
}
