//go:build !linux

package vcam

import "fmt"

// openDevice returns an error on non-Linux platforms; v4l2loopback is a
// Linux kernel module.
func openDevice(path string, width, height int) (Writer, error) {
	return nil, fmt.Errorf("vcam: virtual camera output is only available on Linux (v4l2loopback)")
}
