// fakecam - virtual webcam daemon
// Reads the real webcam, swaps the background for the segmented
// subject, and publishes the result to a v4l2loopback device.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fakecam/go-fakecam/internal/config"
	"github.com/fakecam/go-fakecam/internal/log"
	"github.com/fakecam/go-fakecam/pkg/camera"
	"github.com/fakecam/go-fakecam/pkg/control"
	"github.com/fakecam/go-fakecam/pkg/effect"
	"github.com/fakecam/go-fakecam/pkg/mask"
	"github.com/fakecam/go-fakecam/pkg/pipeline"
	"github.com/fakecam/go-fakecam/pkg/vcam"
)

// options is the fully resolved daemon configuration: defaults, then
// FAKECAM_* environment, then flags.
type options struct {
	camera        string
	vcamPath      string
	background    string
	hologram      bool
	mirror        bool
	resolution    string
	controlAddr   string
	maskURL       string
	retryInterval time.Duration
	retryMax      int
	logLevel      string
	seed          int64
}

func main() {
	opts, err := parseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "fakecam: %v\n", err)
		os.Exit(2)
	}
	log.Init(opts.logLevel)

	if err := run(opts); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("fakecam failed", "error", err)
		os.Exit(1)
	}
}

func run(opts options) error {
	width, height, err := config.ParseResolution(opts.resolution)
	if err != nil {
		return err
	}

	// The mask service is supervised externally; we only dial it.
	cam, err := camera.Open(opts.camera, width, height)
	if err != nil {
		return err
	}
	defer cam.Close()

	outW, outH := cam.Size()
	sink, err := vcam.Open(opts.vcamPath, outW, outH)
	if err != nil {
		return err
	}
	defer sink.Close()

	masker := mask.NewClient(mask.Config{
		BaseURL: opts.maskURL,
		Retry: mask.RetryPolicy{
			Interval:    opts.retryInterval,
			MaxAttempts: opts.retryMax,
		},
	})

	var rnd *rand.Rand
	if opts.seed != 0 {
		rnd = rand.New(rand.NewSource(opts.seed))
	}

	// The server needs the pipeline's status and the pipeline needs
	// the server's frame tap; break the cycle with a late-bound
	// snapshot function. The pointer is set before anything runs.
	queue := pipeline.NewQueue(0)
	var p *pipeline.Pipeline
	srv := control.NewServer(opts.controlAddr, queue, func() pipeline.Status {
		if p == nil {
			return pipeline.Status{}
		}
		return p.Status()
	})

	p, err = pipeline.New(pipeline.Options{
		Source: cam,
		Masker: masker,
		Sink:   sink,
		Queue:  queue,
		Effect: effect.NewHologram(rnd),
		Initial: pipeline.LiveConfig{
			BackgroundPath: opts.background,
			Hologram:       opts.hologram,
			Mirror:         opts.mirror,
		},
		OnFrame: srv.PublishFrame,
	})
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	srv.StartAsync()
	defer srv.Shutdown()

	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				srv.PublishStatus()
			}
		}
	}()

	return p.Run(ctx)
}

// parseFlags resolves the daemon configuration from FAKECAM_*
// environment variables and command line flags, flags winning.
func parseFlags() (options, error) {
	env, err := config.FromEnv()
	if err != nil {
		return options{}, err
	}

	opts := options{
		camera:      config.DefaultCamera,
		vcamPath:    config.DefaultVirtualCam,
		maskURL:     config.DefaultMaskURL,
		controlAddr: config.DefaultControlAddr,
		logLevel:    env.LogLevel,
	}
	if env.Camera != "" {
		opts.camera = env.Camera
	}
	if env.VirtualCam != "" {
		opts.vcamPath = env.VirtualCam
	}
	if env.MaskURL != "" {
		opts.maskURL = env.MaskURL
	}
	if env.ControlAddr != "" {
		opts.controlAddr = env.ControlAddr
	}
	opts.background = env.Background
	opts.resolution = env.Resolution
	opts.hologram = env.Hologram
	opts.mirror = env.Mirror

	flag.StringVar(&opts.camera, "camera", opts.camera, "Real webcam device path")
	flag.StringVar(&opts.vcamPath, "vcam", opts.vcamPath, "v4l2loopback output device path")
	flag.StringVar(&opts.background, "background", opts.background, "Virtual background image (empty = privacy blur)")
	flag.BoolVar(&opts.hologram, "hologram", opts.hologram, "Enable the hologram effect")
	flag.BoolVar(&opts.mirror, "mirror", opts.mirror, "Mirror the output horizontally")
	flag.StringVar(&opts.resolution, "resolution", opts.resolution, "Capture resolution WIDTHxHEIGHT (empty = camera native)")
	flag.StringVar(&opts.controlAddr, "control-addr", opts.controlAddr, "Control API listen address")
	flag.StringVar(&opts.maskURL, "mask-url", opts.maskURL, "Segmentation service base URL")
	flag.DurationVar(&opts.retryInterval, "retry-interval", 50*time.Millisecond, "Pause between mask retries (0 = hot loop)")
	flag.IntVar(&opts.retryMax, "retry-max", 0, "Max mask attempts per frame (0 = retry forever)")
	flag.StringVar(&opts.logLevel, "log-level", opts.logLevel, "Log level: debug, info, warn, error")
	flag.Int64Var(&opts.seed, "seed", 0, "Hologram random seed (0 = time-seeded)")
	flag.Parse()

	return opts, nil
}
