package control

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"github.com/fakecam/go-fakecam/internal/log"
	"github.com/fakecam/go-fakecam/pkg/pipeline"
	"github.com/fakecam/go-fakecam/pkg/protocol"
)

// registerControlWS mounts the bidirectional controller endpoint. A
// controller pushes config messages and receives state snapshots and
// pongs in return.
func (s *Server) registerControlWS(app *fiber.App) {
	app.Use("/ws/control", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/control", websocket.New(s.handleControlWS))
}

func (s *Server) handleControlWS(c *websocket.Conn) {
	logger := log.Component("control").With("remote", c.RemoteAddr().String())
	logger.Info("controller connected")
	defer logger.Info("controller disconnected")

	// Greet with the current state so the controller can render
	// immediately.
	s.sendState(c)

	for {
		_, raw, err := c.ReadMessage()
		if err != nil {
			return
		}

		msg, err := protocol.ParseMessage(raw)
		if err != nil {
			logger.Warn("unparseable control message", "error", err)
			continue
		}

		switch msg.Type {
		case protocol.TypeConfig:
			var update protocol.ConfigUpdate
			if err := msg.ParseData(&update); err != nil {
				logger.Warn("bad config data", "error", err)
				continue
			}
			if err := s.queue.Push(pipeline.Update{
				Background: update.Background,
				Hologram:   update.Hologram,
				Mirror:     update.Mirror,
			}); err != nil {
				logger.Warn("config rejected", "error", err)
			}
			s.sendState(c)

		case protocol.TypePing:
			var ping protocol.PingData
			if err := msg.ParseData(&ping); err != nil {
				continue
			}
			if pong, err := protocol.NewPongMessage(ping); err == nil {
				s.send(c, pong)
			}

		default:
			logger.Debug("ignoring message", "type", msg.Type)
		}
	}
}

func (s *Server) sendState(c *websocket.Conn) {
	msg, err := protocol.NewStateMessage(s.stateData())
	if err != nil {
		return
	}
	s.send(c, msg)
}

func (s *Server) send(c *websocket.Conn, msg *protocol.Message) {
	raw, err := msg.Bytes()
	if err != nil {
		return
	}
	c.WriteMessage(websocket.TextMessage, raw)
}
