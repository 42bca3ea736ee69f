// Package camera reads frames from the physical webcam through OpenCV's
// V4L2 backend.
package camera

import (
	"errors"
	"fmt"

	"gocv.io/x/gocv"

	"github.com/fakecam/go-fakecam/internal/log"
)

// Errors returned by the device.
var (
	// ErrReadFailed is returned when the camera produced no frame.
	ErrReadFailed = errors.New("camera: frame read failed")

	// ErrClosed is returned when reading from a closed device.
	ErrClosed = errors.New("camera: device closed")
)

// Device wraps an open webcam. It is owned by a single goroutine (the
// capture loop) and is not safe for concurrent use.
type Device struct {
	path   string
	cap    *gocv.VideoCapture
	width  int
	height int
}

// Open opens the webcam at path via V4L2. If width and height are non-zero
// the capture resolution is overridden (width first, matching the
// user-facing WIDTHxHEIGHT convention); otherwise the camera's native
// resolution is kept. The effective resolution is read back from the
// device so that every downstream stage sees the dimensions the hardware
// actually delivers.
func Open(path string, width, height int) (*Device, error) {
	cap, err := gocv.OpenVideoCaptureWithAPI(path, gocv.VideoCaptureV4L2)
	if err != nil {
		return nil, fmt.Errorf("camera: open %s: %w", path, err)
	}
	if !cap.IsOpened() {
		cap.Close()
		return nil, fmt.Errorf("camera: open %s: device not available", path)
	}

	native := fmt.Sprintf("%.0fx%.0f",
		cap.Get(gocv.VideoCaptureFrameWidth),
		cap.Get(gocv.VideoCaptureFrameHeight))

	if width > 0 && height > 0 {
		cap.Set(gocv.VideoCaptureFrameHeight, float64(height))
		cap.Set(gocv.VideoCaptureFrameWidth, float64(width))
	}

	// The driver may refuse the requested mode; trust what it reports.
	effW := int(cap.Get(gocv.VideoCaptureFrameWidth))
	effH := int(cap.Get(gocv.VideoCaptureFrameHeight))
	if effW <= 0 || effH <= 0 {
		cap.Close()
		return nil, fmt.Errorf("camera: open %s: driver reported %dx%d", path, effW, effH)
	}
	if width > 0 && height > 0 && (effW != width || effH != height) {
		log.Component("camera").Warn("requested resolution not honored",
			"requested", fmt.Sprintf("%dx%d", width, height),
			"effective", fmt.Sprintf("%dx%d", effW, effH),
		)
	}

	log.Component("camera").Info("camera opened",
		"device", path,
		"native", native,
		"capture", fmt.Sprintf("%dx%d", effW, effH),
	)

	return &Device{
		path:   path,
		cap:    cap,
		width:  effW,
		height: effH,
	}, nil
}

// Read captures one frame into dst (BGR, 8-bit, 3 channels).
func (d *Device) Read(dst *gocv.Mat) error {
	if d.cap == nil {
		return ErrClosed
	}
	if ok := d.cap.Read(dst); !ok || dst.Empty() {
		return ErrReadFailed
	}
	return nil
}

// Size returns the effective capture resolution, width first.
func (d *Device) Size() (width, height int) {
	return d.width, d.height
}

// Path returns the device path the camera was opened with.
func (d *Device) Path() string {
	return d.path
}

// Close releases the camera handle.
func (d *Device) Close() error {
	if d.cap == nil {
		return nil
	}
	err := d.cap.Close()
	d.cap = nil
	return err
}
