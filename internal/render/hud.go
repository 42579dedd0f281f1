package render

import (
	"fmt"
	"math"
	"strings"
)

const (
	volumeBarWidth   = 20
	activeVolume     = 0.1
	deviceLabelWidth = 30
)

// HUD is the one-line status drawn above the frame.
type HUD struct {
	Device string
	Volume float64
	State  string
	FPS    float64
	// ShowVU appends the block level in dBFS.
	ShowVU bool
	Level  float64
	// Pulse in [0, 1] flashes the line after a beat.
	Pulse float64
}

// Active reports whether the input level is high enough to draw the HUD green.
func (h HUD) Active() bool {
	return h.Volume > activeVolume
}

// Text renders the HUD without styling.
func (h HUD) Text() string {
	n := int(math.Min(volumeBarWidth, math.Max(0, h.Volume)))
	bar := strings.Repeat("#", n)

	var b strings.Builder
	fmt.Fprintf(&b, "DEVICE: %-*s | VOL: %-*s | STATE: %s | FPS %.0f",
		deviceLabelWidth, h.Device, volumeBarWidth, bar, h.State, h.FPS)
	if h.ShowVU {
		level := h.Level
		if math.IsInf(level, -1) || math.IsNaN(level) || level < -99 {
			level = -99
		}
		fmt.Fprintf(&b, " | VU %5.1f dB", level)
	}
	return b.String()
}

// fit pads or cuts s to exactly width runes.
func fit(s string, width int) string {
	if width <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) >= width {
		return string(r[:width])
	}
	return s + strings.Repeat(" ", width-len(r))
}
