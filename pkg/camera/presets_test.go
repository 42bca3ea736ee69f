package camera

import "testing"

func TestPresetByName(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		want   Preset
		wantOK bool
	}{
		{name: "fhd", in: "fhd", want: FHD, wantOK: true},
		{name: "case insensitive", in: "HD", want: HD, wantOK: true},
		{name: "ntsc", in: "ntsc", want: NTSC, wantOK: true},
		{name: "unknown", in: "8k", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := PresetByName(tt.in)
			if ok != tt.wantOK {
				t.Fatalf("PresetByName(%q) ok = %v, want %v", tt.in, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("PresetByName(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestPresetsOrdering(t *testing.T) {
	ps := Presets()
	if len(ps) != 3 {
		t.Fatalf("Presets() returned %d entries, want 3", len(ps))
	}
	for i := 1; i < len(ps); i++ {
		if ps[i].Width >= ps[i-1].Width {
			t.Errorf("presets not ordered largest first: %v before %v", ps[i-1], ps[i])
		}
	}
}
