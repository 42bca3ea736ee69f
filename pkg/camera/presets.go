package camera

import "strings"

// Preset is a named capture resolution, width first.
type Preset struct {
	Name   string `json:"name"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Common capture resolutions.
var (
	FHD  = Preset{Name: "fhd", Width: 1920, Height: 1080}
	HD   = Preset{Name: "hd", Width: 1280, Height: 720}
	NTSC = Preset{Name: "ntsc", Width: 720, Height: 480}
)

// Presets returns the known presets, largest first.
func Presets() []Preset {
	return []Preset{FHD, HD, NTSC}
}

// PresetByName looks up a preset by its case-insensitive name.
func PresetByName(name string) (Preset, bool) {
	for _, p := range Presets() {
		if strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	return Preset{}, false
}
