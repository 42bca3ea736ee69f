// Package control exposes the daemon's control plane: a small REST API
// for state and configuration, WebSocket endpoints for controllers and
// viewers, and an MJPEG preview stream.
//
// The server is the producer side of the live config channel; the
// capture loop polls it once per frame and is never blocked by anything
// here.
package control

import (
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"github.com/fakecam/go-fakecam/internal/log"
	"github.com/fakecam/go-fakecam/pkg/hub"
	"github.com/fakecam/go-fakecam/pkg/pipeline"
	"github.com/fakecam/go-fakecam/pkg/protocol"
)

// Server is the control-plane HTTP server.
type Server struct {
	app  *fiber.App
	addr string

	queue  *pipeline.Queue
	status func() pipeline.Status

	statusHub  *hub.Hub
	previewHub *hub.Hub

	// Latest JPEG output frame, for the MJPEG stream and late joiners.
	frameMu   sync.RWMutex
	lastFrame []byte
}

// NewServer wires the control plane to a pipeline's config queue and
// status snapshot.
func NewServer(addr string, queue *pipeline.Queue, status func() pipeline.Status) *Server {
	s := &Server{
		addr:       addr,
		queue:      queue,
		status:     status,
		statusHub:  hub.New("status"),
		previewHub: hub.New("preview"),
	}

	app := fiber.New(fiber.Config{
		AppName:               "fakecam control",
		DisableStartupMessage: true,
	})

	// CORS for browser-based controllers
	app.Use(cors.New())

	api := app.Group("/api")
	api.Get("/state", s.handleState)
	api.Post("/config", s.handleConfig)
	api.Get("/presets", s.handlePresets)

	app.Get("/stream", s.handleStream)

	s.registerControlWS(app)
	s.registerViewerWS(app)

	s.app = app
	return s
}

// Start runs the hubs and serves until the listener fails.
func (s *Server) Start() error {
	go s.statusHub.Run()
	go s.previewHub.Run()

	log.Component("control").Info("control server listening", "addr", s.addr)
	return s.app.Listen(s.addr)
}

// StartAsync starts the server in a goroutine. Listener errors are
// logged; the pipeline keeps streaming without a control plane.
func (s *Server) StartAsync() {
	go func() {
		if err := s.Start(); err != nil {
			log.Component("control").Error("control server failed", "error", err)
		}
	}()
}

// Shutdown stops accepting connections.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// PublishFrame feeds one output JPEG to the preview surfaces. Called
// from the capture loop's frame tap; never blocks.
func (s *Server) PublishFrame(jpeg []byte) {
	s.frameMu.Lock()
	s.lastFrame = jpeg
	s.frameMu.Unlock()

	if s.previewHub.ClientCount() > 0 {
		s.previewHub.BroadcastBinary(jpeg)
	}
}

// PublishStatus broadcasts a state snapshot to status subscribers.
func (s *Server) PublishStatus() {
	msg, err := protocol.NewStateMessage(s.stateData())
	if err != nil {
		return
	}
	raw, err := msg.Bytes()
	if err != nil {
		return
	}
	s.statusHub.Broadcast(hub.NewJSONMessage(raw))
}

// snapshot returns the most recent preview frame, or nil before the
// first frame lands.
func (s *Server) snapshot() []byte {
	s.frameMu.RLock()
	defer s.frameMu.RUnlock()
	return s.lastFrame
}

func (s *Server) stateData() protocol.StateData {
	st := s.status()
	return protocol.StateData{
		Width:      st.Width,
		Height:     st.Height,
		Frames:     st.Frames,
		FPS:        st.FPS,
		Background: st.Background,
		Hologram:   st.Hologram,
		Mirror:     st.Mirror,
		Viewers:    s.previewHub.ClientCount(),
	}
}
