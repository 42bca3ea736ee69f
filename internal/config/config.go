// Package config provides configuration for the go-fakecam commands.
// Flags are parsed in the cmd mains; this package owns the environment
// layer and the defaults shared between the daemon and the controller.
package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Defaults shared across commands.
const (
	DefaultCamera      = "/dev/video0"
	DefaultVirtualCam  = "/dev/video20"
	DefaultMaskURL     = "http://localhost:13165"
	DefaultControlAddr = "127.0.0.1:9282"
)

// Env holds the environment-variable layer of the daemon configuration.
// Flags parsed in cmd/fakecam override these values.
type Env struct {
	Camera      string `env:"FAKECAM_CAMERA"`
	VirtualCam  string `env:"FAKECAM_VCAM"`
	MaskURL     string `env:"FAKECAM_MASK_URL"`
	ControlAddr string `env:"FAKECAM_CONTROL_ADDR"`
	Background  string `env:"FAKECAM_BACKGROUND"`
	Resolution  string `env:"FAKECAM_RESOLUTION"`
	Hologram    bool   `env:"FAKECAM_HOLOGRAM"`
	Mirror      bool   `env:"FAKECAM_MIRROR"`
	LogLevel    string `env:"FAKECAM_LOG_LEVEL" envDefault:"info"`
}

// FromEnv parses the FAKECAM_* environment variables.
func FromEnv() (Env, error) {
	var e Env
	if err := env.Parse(&e); err != nil {
		return Env{}, fmt.Errorf("parse env: %w", err)
	}
	return e, nil
}

// ControlURL returns the controller base URL for a control address,
// honoring the FAKECAM_CONTROL_ADDR environment variable when addr is empty.
func ControlURL(addr string) string {
	if addr == "" {
		addr = DefaultControlAddr
	}
	if strings.Contains(addr, "://") {
		return strings.TrimSuffix(addr, "/")
	}
	return "http://" + addr
}

// ParseResolution parses a "WIDTHxHEIGHT" string, width first.
// An empty string means "use the camera's native resolution" and returns
// (0, 0, nil).
func ParseResolution(s string) (width, height int, err error) {
	if s == "" {
		return 0, 0, nil
	}
	parts := strings.SplitN(strings.ToLower(s), "x", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("resolution %q: want WIDTHxHEIGHT", s)
	}
	width, err = strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("resolution %q: bad width: %w", s, err)
	}
	height, err = strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, fmt.Errorf("resolution %q: bad height: %w", s, err)
	}
	if width <= 0 || height <= 0 {
		return 0, 0, fmt.Errorf("resolution %q: dimensions must be positive", s)
	}
	return width, height, nil
}
