package control

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/fakecam/go-fakecam/pkg/camera"
	"github.com/fakecam/go-fakecam/pkg/pipeline"
	"github.com/fakecam/go-fakecam/pkg/protocol"
)

// handleState returns the current pipeline state.
func (s *Server) handleState(c *fiber.Ctx) error {
	return c.JSON(s.stateData())
}

// handleConfig queues a live configuration update for the capture loop.
// The update replaces the whole live config; partial updates are the
// controller's job (read state, modify, post back).
func (s *Server) handleConfig(c *fiber.Ctx) error {
	var update protocol.ConfigUpdate
	if err := c.BodyParser(&update); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid config payload: " + err.Error(),
		})
	}

	err := s.queue.Push(pipeline.Update{
		Background: update.Background,
		Hologram:   update.Hologram,
		Mirror:     update.Mirror,
	})
	if errors.Is(err, pipeline.ErrQueueFull) {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "config queue full, retry later",
		})
	}

	return c.JSON(fiber.Map{"queued": true})
}

// handlePresets lists the known capture resolutions.
func (s *Server) handlePresets(c *fiber.Ctx) error {
	return c.JSON(camera.Presets())
}
