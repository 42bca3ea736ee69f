package control

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/fakecam/go-fakecam/pkg/hub"
)

// registerViewerWS mounts the broadcast-only viewer endpoints: JSON
// state snapshots on /ws/status, binary JPEG frames on /ws/preview.
func (s *Server) registerViewerWS(app *fiber.App) {
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/status", websocket.New(func(c *websocket.Conn) {
		hub.NewClient(s.statusHub, c).Run()
	}))
	app.Get("/ws/preview", websocket.New(func(c *websocket.Conn) {
		// Send the most recent frame so the viewer isn't blank until
		// the next broadcast.
		if frame := s.snapshot(); frame != nil {
			c.WriteMessage(websocket.BinaryMessage, frame)
		}
		hub.NewClient(s.previewHub, c).Run()
	}))
}
