package control

import (
	"bufio"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
)

// streamInterval paces the MJPEG stream. The preview doesn't need to
// run at full capture rate.
const streamInterval = 66 * time.Millisecond

// handleStream serves the composited output as Motion JPEG, so the
// preview can be opened in any browser tab without a WebSocket client.
func (s *Server) handleStream(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, "multipart/x-mixed-replace; boundary=frame")
	c.Set(fiber.HeaderCacheControl, "no-cache")

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		ticker := time.NewTicker(streamInterval)
		defer ticker.Stop()

		var lastSent []byte
		for range ticker.C {
			frame := s.snapshot()
			if len(frame) == 0 || sliceStart(frame) == sliceStart(lastSent) {
				continue
			}
			lastSent = frame

			if _, err := fmt.Fprintf(w,
				"--frame\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n",
				len(frame)); err != nil {
				return
			}
			if _, err := w.Write(frame); err != nil {
				return
			}
			if _, err := w.WriteString("\r\n"); err != nil {
				return
			}
			if err := w.Flush(); err != nil {
				return
			}
		}
	})

	return nil
}

// sliceStart identifies a frame buffer by its backing array so repeat
// frames are skipped without comparing contents.
func sliceStart(b []byte) *byte {
	if len(b) == 0 {
		return nil
	}
	return &b[0]
}
