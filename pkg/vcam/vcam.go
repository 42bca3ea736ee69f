// Package vcam writes finished frames to a v4l2loopback virtual camera
// so other applications can consume the stream as a regular webcam.
package vcam

import (
	"errors"

	"gocv.io/x/gocv"
)

// DefaultDevice is the conventional v4l2loopback output node.
const DefaultDevice = "/dev/video20"

// Errors returned by the sink.
var (
	// ErrFrameSize is returned when a frame does not match the
	// resolution the device was opened with.
	ErrFrameSize = errors.New("vcam: frame does not match device resolution")

	// ErrClosed is returned when writing to a closed device.
	ErrClosed = errors.New("vcam: device closed")
)

// Writer accepts finished frames for the virtual device. Frames must be
// 8-bit 3-channel Mats in RGB byte order at the resolution the writer
// was opened with; the pipeline converts from BGR before writing.
type Writer interface {
	// Write pushes one frame to the device.
	Write(frame gocv.Mat) error

	// Close releases the device handle.
	Close() error
}

// Open opens the virtual camera at path for width x height RGB24
// output. Open failures are fatal to the daemon; there is no degraded
// mode without a device to publish to.
func Open(path string, width, height int) (Writer, error) {
	return openDevice(path, width, height)
}
