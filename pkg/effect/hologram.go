// Package effect implements the stylized hologram look applied to the
// foreground before compositing.
package effect

import (
	"image"
	"math/rand"
	"time"

	"gocv.io/x/gocv"
)

// Band geometry and blend weights of the hologram look. The final
// blend weights intentionally sum above 1.0; OpenCV saturates at 255,
// which produces the oversaturated sci-fi glow.
const (
	bandLength = 2
	bandGap    = 3
	ghostShift = 5
)

// Hologram renders a flickering blue "holographic projection" version
// of a frame: a winter colormap, darkened scanline bands, and two
// diagonally shifted ghost copies blended back over the original.
//
// The band darkening is the only randomness in the whole pipeline; the
// source is injected so tests can fix the seed and assert byte-exact
// output.
type Hologram struct {
	rnd *rand.Rand
}

// NewHologram creates the effect stage. A nil source seeds from the
// current time.
func NewHologram(rnd *rand.Rand) *Hologram {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Hologram{rnd: rnd}
}

// Apply renders the effect on a BGR frame and returns a new Mat of the
// same dimensions and type. The input is left untouched; the caller
// owns the result.
func (h *Hologram) Apply(frame gocv.Mat) gocv.Mat {
	holo := gocv.NewMat()
	defer holo.Close()
	gocv.ApplyColorMap(frame, &holo, gocv.ColormapWinter)

	// Darken horizontal bands by a fresh random factor each frame for
	// the halftone flicker.
	rows := holo.Rows()
	for y := 0; y < rows; y += bandLength + bandGap {
		end := y + bandLength
		if end > rows {
			end = rows
		}
		factor := 0.1 + h.rnd.Float64()*0.2
		band := holo.RowRange(y, end)
		band.MultiplyFloat(float32(factor))
		band.Close()
	}

	// Ghosting trail: two diagonally shifted copies folded back in.
	down := shiftImage(holo, ghostShift, ghostShift)
	defer down.Close()
	ghosted := gocv.NewMat()
	defer ghosted.Close()
	gocv.AddWeighted(holo, 0.2, down, 0.8, 0, &ghosted)

	up := shiftImage(holo, -ghostShift, -ghostShift)
	defer up.Close()
	trailed := gocv.NewMat()
	defer trailed.Close()
	gocv.AddWeighted(ghosted, 0.4, up, 0.6, 0, &trailed)

	out := gocv.NewMat()
	gocv.AddWeighted(frame, 0.5, trailed, 0.6, 0, &out)
	return out
}

// shiftImage translates src by (dx, dy) pixels, filling the vacated
// edges with zeros. Positive dx shifts right, positive dy shifts down.
func shiftImage(src gocv.Mat, dx, dy int) gocv.Mat {
	rows, cols := src.Rows(), src.Cols()
	dst := gocv.Zeros(rows, cols, src.Type())

	w := cols - abs(dx)
	hgt := rows - abs(dy)
	if w <= 0 || hgt <= 0 {
		return dst
	}

	srcX, dstX := max(0, -dx), max(0, dx)
	srcY, dstY := max(0, -dy), max(0, dy)

	srcView := src.Region(image.Rect(srcX, srcY, srcX+w, srcY+hgt))
	defer srcView.Close()
	dstView := dst.Region(image.Rect(dstX, dstY, dstX+w, dstY+hgt))
	defer dstView.Close()
	srcView.CopyTo(&dstView)

	return dst
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
