package config

import "testing"

func TestParseResolution(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		width   int
		height  int
		wantErr bool
	}{
		{name: "empty means native", in: "", width: 0, height: 0},
		{name: "hd", in: "1280x720", width: 1280, height: 720},
		{name: "fhd", in: "1920x1080", width: 1920, height: 1080},
		{name: "uppercase separator", in: "720X480", width: 720, height: 480},
		{name: "spaces tolerated", in: "640 x 480", width: 640, height: 480},
		{name: "missing separator", in: "1280720", wantErr: true},
		{name: "bad width", in: "wx720", wantErr: true},
		{name: "bad height", in: "1280xh", wantErr: true},
		{name: "zero width", in: "0x720", wantErr: true},
		{name: "negative height", in: "1280x-720", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h, err := ParseResolution(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseResolution(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if w != tt.width || h != tt.height {
				t.Errorf("ParseResolution(%q) = %dx%d, want %dx%d", tt.in, w, h, tt.width, tt.height)
			}
		})
	}
}

func TestControlURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "", want: "http://" + DefaultControlAddr},
		{in: "127.0.0.1:9282", want: "http://127.0.0.1:9282"},
		{in: "http://cam.local:9282", want: "http://cam.local:9282"},
		{in: "http://cam.local:9282/", want: "http://cam.local:9282"},
	}

	for _, tt := range tests {
		if got := ControlURL(tt.in); got != tt.want {
			t.Errorf("ControlURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("FAKECAM_CAMERA", "/dev/video2")
	t.Setenv("FAKECAM_HOLOGRAM", "true")
	t.Setenv("FAKECAM_RESOLUTION", "1280x720")

	e, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv() error = %v", err)
	}
	if e.Camera != "/dev/video2" {
		t.Errorf("Camera = %q, want /dev/video2", e.Camera)
	}
	if !e.Hologram {
		t.Error("Hologram = false, want true")
	}
	if e.Resolution != "1280x720" {
		t.Errorf("Resolution = %q, want 1280x720", e.Resolution)
	}
	if e.LogLevel != "info" {
		t.Errorf("LogLevel default = %q, want info", e.LogLevel)
	}
}
