// Package pipeline owns the capture loop: real camera in, composited
// frames out to the virtual camera, one frame at a time on a single
// goroutine.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/fakecam/go-fakecam/internal/log"
	"github.com/fakecam/go-fakecam/pkg/compose"
	"github.com/fakecam/go-fakecam/pkg/effect"
	"github.com/fakecam/go-fakecam/pkg/mask"
)

// ErrNotConfigured is returned by New when a required collaborator is
// missing.
var ErrNotConfigured = errors.New("pipeline: source, masker and sink are required")

// Source produces camera frames. Satisfied by *camera.Device.
type Source interface {
	// Read captures one BGR frame into dst.
	Read(dst *gocv.Mat) error

	// Size returns the capture resolution, width first.
	Size() (width, height int)
}

// Masker produces a raw segmentation mask for a frame, blocking under
// its retry policy until one is available. Satisfied by *mask.Client.
type Masker interface {
	GetWithRetry(ctx context.Context, frame gocv.Mat) (gocv.Mat, error)
}

// Sink consumes finished RGB frames. Satisfied by vcam.Writer.
type Sink interface {
	Write(frame gocv.Mat) error
}

// Options wires a pipeline together. Source, Masker and Sink are
// required; everything else has a sensible zero value.
type Options struct {
	Source Source
	Masker Masker
	Sink   Sink

	// Queue is the live config channel. When nil the pipeline creates
	// its own, reachable via ConfigQueue.
	Queue *Queue

	// Effect renders the hologram look. When nil a time-seeded stage
	// is created.
	Effect *effect.Hologram

	// Initial is the configuration for the first frame.
	Initial LiveConfig

	// OnFrame, when set, receives a JPEG encoding of every output
	// frame (pre mirror-independent color conversion, i.e. what a
	// preview should show). It runs on the loop goroutine and must
	// return quickly.
	OnFrame func(jpeg []byte)
}

// Status is a point-in-time snapshot of the loop for the control plane.
type Status struct {
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	Frames     uint64  `json:"frames"`
	FPS        float64 `json:"fps"`
	Background string  `json:"background,omitempty"`
	Hologram   bool    `json:"hologram"`
	Mirror     bool    `json:"mirror"`
}

// Pipeline runs the per-frame compositing loop. All stages execute
// sequentially on the goroutine that calls Run; Status and the config
// queue are the only concurrent touch points.
type Pipeline struct {
	src    Source
	masker Masker
	sink   Sink
	queue  *Queue
	holo   *effect.Hologram
	tap    func([]byte)

	width  int
	height int

	cfg LiveConfig
	bg  *compose.Background

	mu     sync.RWMutex
	status Status

	lastFrame time.Time
}

// New validates the wiring and loads the starting background. The
// background is resized to the output resolution here, once, so every
// later blend sees matching dimensions without per-frame checks.
func New(opts Options) (*Pipeline, error) {
	if opts.Source == nil || opts.Masker == nil || opts.Sink == nil {
		return nil, ErrNotConfigured
	}
	if opts.Queue == nil {
		opts.Queue = NewQueue(0)
	}
	if opts.Effect == nil {
		opts.Effect = effect.NewHologram(nil)
	}

	w, h := opts.Source.Size()
	p := &Pipeline{
		src:    opts.Source,
		masker: opts.Masker,
		sink:   opts.Sink,
		queue:  opts.Queue,
		holo:   opts.Effect,
		tap:    opts.OnFrame,
		width:  w,
		height: h,
		cfg:    opts.Initial,
	}

	if p.cfg.BackgroundPath != "" {
		bg, err := compose.LoadBackground(p.cfg.BackgroundPath, w, h)
		if err != nil {
			return nil, fmt.Errorf("pipeline: initial background: %w", err)
		}
		p.bg = bg
	}

	p.publishStatus()
	return p, nil
}

// ConfigQueue returns the live config channel; the control plane is its
// producer.
func (p *Pipeline) ConfigQueue() *Queue {
	return p.queue
}

// Status returns a snapshot for the control plane. Safe for concurrent
// use.
func (p *Pipeline) Status() Status {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.status
}

// Run executes the capture loop until ctx is canceled. Camera and
// device failures are fatal and propagate; mask retrieval blocks under
// the masker's retry policy but always observes ctx.
func (p *Pipeline) Run(ctx context.Context) error {
	logger := log.Component("pipeline")
	logger.Info("streaming",
		"resolution", fmt.Sprintf("%dx%d", p.width, p.height),
		"background", p.cfg.BackgroundPath,
		"hologram", p.cfg.Hologram,
		"mirror", p.cfg.Mirror,
	)

	defer func() {
		if p.bg != nil {
			p.bg.Close()
			p.bg = nil
		}
	}()

	frame := gocv.NewMat()
	defer frame.Close()

	for {
		if err := ctx.Err(); err != nil {
			logger.Info("streaming stopped", "frames", p.Status().Frames)
			return err
		}

		if err := p.src.Read(&frame); err != nil {
			return fmt.Errorf("pipeline: capture: %w", err)
		}

		if err := p.iterate(ctx, frame); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				logger.Info("streaming stopped", "frames", p.Status().Frames)
				return err
			}
			return err
		}

		if u, ok := p.queue.Poll(); ok {
			p.apply(u)
		}
	}
}

// iterate runs the per-frame stages on one captured frame.
func (p *Pipeline) iterate(ctx context.Context, frame gocv.Mat) error {
	raw, err := p.masker.GetWithRetry(ctx, frame)
	if err != nil {
		return err
	}
	weights := mask.PostProcess(raw)
	raw.Close()
	defer weights.Close()

	var background gocv.Mat
	if p.bg != nil {
		background = p.bg.Mat()
	} else {
		blurred := compose.PrivacyBlur(frame)
		defer blurred.Close()
		background = blurred
	}

	foreground := frame
	if p.cfg.Hologram {
		styled := p.holo.Apply(frame)
		defer styled.Close()
		foreground = styled
	}

	out := compose.Composite(foreground, weights, background)
	defer out.Close()

	if p.cfg.Mirror {
		mirrored := gocv.NewMat()
		gocv.Flip(out, &mirrored, 1)
		out.Close()
		out = mirrored
	}

	if p.tap != nil {
		if buf, err := gocv.IMEncode(gocv.JPEGFileExt, out); err == nil {
			jpeg := make([]byte, len(buf.GetBytes()))
			copy(jpeg, buf.GetBytes())
			buf.Close()
			p.tap(jpeg)
		}
	}

	rgb := gocv.NewMat()
	defer rgb.Close()
	gocv.CvtColor(out, &rgb, gocv.ColorBGRToRGB)

	if err := p.sink.Write(rgb); err != nil {
		return fmt.Errorf("pipeline: publish: %w", err)
	}

	p.recordFrame()
	return nil
}

// apply consumes one live config update. The background is reloaded and
// resized immediately so the dimension invariant keeps holding; a path
// that fails to load keeps the previous background rather than tearing
// the stream down.
func (p *Pipeline) apply(u Update) {
	logger := log.Component("pipeline")

	newPath := ""
	if u.Background != nil {
		newPath = *u.Background
	}

	if newPath != p.cfg.BackgroundPath {
		if newPath == "" {
			if p.bg != nil {
				p.bg.Close()
				p.bg = nil
			}
			p.cfg.BackgroundPath = ""
		} else {
			bg, err := compose.LoadBackground(newPath, p.width, p.height)
			if err != nil {
				logger.Error("background rejected", "path", newPath, "error", err)
			} else {
				if p.bg != nil {
					p.bg.Close()
				}
				p.bg = bg
				p.cfg.BackgroundPath = newPath
			}
		}
	}

	p.cfg.Hologram = u.Hologram
	p.cfg.Mirror = u.Mirror
	p.publishStatus()

	logger.Info("config applied",
		"background", p.cfg.BackgroundPath,
		"hologram", p.cfg.Hologram,
		"mirror", p.cfg.Mirror,
	)
}

// recordFrame updates the frame counter and a smoothed FPS estimate.
func (p *Pipeline) recordFrame() {
	now := time.Now()

	p.mu.Lock()
	p.status.Frames++
	if !p.lastFrame.IsZero() {
		if dt := now.Sub(p.lastFrame).Seconds(); dt > 0 {
			inst := 1.0 / dt
			if p.status.FPS == 0 {
				p.status.FPS = inst
			} else {
				p.status.FPS = 0.9*p.status.FPS + 0.1*inst
			}
		}
	}
	p.lastFrame = now
	p.mu.Unlock()
}

func (p *Pipeline) publishStatus() {
	p.mu.Lock()
	p.status.Width = p.width
	p.status.Height = p.height
	p.status.Background = p.cfg.BackgroundPath
	p.status.Hologram = p.cfg.Hologram
	p.status.Mirror = p.cfg.Mirror
	p.mu.Unlock()
}
