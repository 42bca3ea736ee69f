//go:build linux

package vcam

import (
	"fmt"
	"unsafe"

	"gocv.io/x/gocv"
	"golang.org/x/sys/unix"

	"github.com/fakecam/go-fakecam/internal/log"
)

// V4L2 constants for configuring the loopback output node. The ioctl
// numbers encode sizeof(struct v4l2_format) == 208 on 64-bit Linux.
const (
	vidiocGFmt = 0xc0d05604 // VIDIOC_G_FMT
	vidiocSFmt = 0xc0d05605 // VIDIOC_S_FMT

	v4l2BufTypeVideoOutput = 2
	v4l2FieldNone          = 1
	v4l2ColorspaceSRGB     = 8

	// 'RGB3': packed 24-bit RGB.
	v4l2PixFmtRGB24 = 'R' | 'G'<<8 | 'B'<<16 | '3'<<24
)

// v4l2PixFormat mirrors struct v4l2_pix_format.
type v4l2PixFormat struct {
	Width        uint32
	Height       uint32
	PixelFormat  uint32
	Field        uint32
	BytesPerLine uint32
	SizeImage    uint32
	Colorspace   uint32
	Priv         uint32
	Flags        uint32
	YcbcrEnc     uint32
	Quantization uint32
	XferFunc     uint32
}

// v4l2Format mirrors struct v4l2_format: the type discriminator plus a
// 200-byte union, 8-byte aligned, of which we only use the pix member.
type v4l2Format struct {
	Type uint32
	_    uint32
	Pix  v4l2PixFormat
	_    [200 - unsafe.Sizeof(v4l2PixFormat{})]byte
}

// device is the Linux v4l2loopback writer.
type device struct {
	path      string
	fd        int
	width     int
	height    int
	frameSize int
}

func openDevice(path string, width, height int) (Writer, error) {
	fd, err := unix.Open(path, unix.O_WRONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("vcam: open %s: %w", path, err)
	}

	var format v4l2Format
	format.Type = v4l2BufTypeVideoOutput
	if err := ioctl(fd, vidiocGFmt, unsafe.Pointer(&format)); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("vcam: query format on %s: %w", path, err)
	}

	frameSize := width * height * 3
	format.Pix.Width = uint32(width)
	format.Pix.Height = uint32(height)
	format.Pix.PixelFormat = v4l2PixFmtRGB24
	format.Pix.Field = v4l2FieldNone
	format.Pix.BytesPerLine = uint32(width * 3)
	format.Pix.SizeImage = uint32(frameSize)
	format.Pix.Colorspace = v4l2ColorspaceSRGB
	if err := ioctl(fd, vidiocSFmt, unsafe.Pointer(&format)); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("vcam: set %dx%d RGB24 on %s: %w", width, height, path, err)
	}

	log.Component("vcam").Info("virtual camera opened",
		"device", path,
		"resolution", fmt.Sprintf("%dx%d", width, height),
	)

	return &device{
		path:      path,
		fd:        fd,
		width:     width,
		height:    height,
		frameSize: frameSize,
	}, nil
}

// Write pushes one RGB frame to the loopback device.
func (d *device) Write(frame gocv.Mat) error {
	if d.fd < 0 {
		return ErrClosed
	}
	if frame.Cols() != d.width || frame.Rows() != d.height {
		return fmt.Errorf("%w: got %dx%d, device is %dx%d",
			ErrFrameSize, frame.Cols(), frame.Rows(), d.width, d.height)
	}

	data := frame.ToBytes()
	if len(data) != d.frameSize {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrFrameSize, len(data), d.frameSize)
	}
	if _, err := unix.Write(d.fd, data); err != nil {
		return fmt.Errorf("vcam: write frame to %s: %w", d.path, err)
	}
	return nil
}

// Close releases the device handle.
func (d *device) Close() error {
	if d.fd < 0 {
		return nil
	}
	err := unix.Close(d.fd)
	d.fd = -1
	return err
}

func ioctl(fd int, req uintptr, arg unsafe.Pointer) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), req, uintptr(arg))
	if errno != 0 {
		return errno
	}
	return nil
}
