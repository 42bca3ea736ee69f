// bggen - renders a simple virtual-background image
// Useful for a first run of fakecam before the user picks a real
// photo: a dark gradient with a faint grid and an optional caption.
package main

import (
	"flag"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	"github.com/fogleman/gg"
)

func main() {
	width := flag.Int("width", 1280, "Image width")
	height := flag.Int("height", 720, "Image height")
	caption := flag.String("caption", "", "Caption drawn near the bottom edge")
	out := flag.String("o", "background.png", "Output path (.png or .jpg)")
	flag.Parse()

	if err := render(*width, *height, *caption, *out); err != nil {
		fmt.Fprintf(os.Stderr, "bggen: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("wrote %s (%dx%d)\n", *out, *width, *height)
}

func render(width, height int, caption, out string) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid size %dx%d", width, height)
	}

	dc := gg.NewContext(width, height)

	// Deep blue vertical gradient.
	grad := gg.NewLinearGradient(0, 0, 0, float64(height))
	grad.AddColorStop(0, color.RGBA{R: 0x0b, G: 0x1d, B: 0x33, A: 0xff})
	grad.AddColorStop(1, color.RGBA{R: 0x1f, G: 0x3a, B: 0x5c, A: 0xff})
	dc.SetFillStyle(grad)
	dc.DrawRectangle(0, 0, float64(width), float64(height))
	dc.Fill()

	// Faint grid so motion at the composite edge reads as depth.
	dc.SetRGBA(1, 1, 1, 0.05)
	dc.SetLineWidth(1)
	const cell = 64.0
	for x := cell; x < float64(width); x += cell {
		dc.DrawLine(x, 0, x, float64(height))
		dc.Stroke()
	}
	for y := cell; y < float64(height); y += cell {
		dc.DrawLine(0, y, float64(width), y)
		dc.Stroke()
	}

	if caption != "" {
		dc.SetRGBA(1, 1, 1, 0.35)
		dc.DrawStringAnchored(caption, float64(width)/2, float64(height)-24, 0.5, 0.5)
	}

	switch strings.ToLower(filepath.Ext(out)) {
	case ".jpg", ".jpeg":
		return gg.SaveJPG(out, dc.Image(), 92)
	default:
		return dc.SavePNG(out)
	}
}
