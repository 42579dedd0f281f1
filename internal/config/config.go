// Package config holds the typed settings record read by the visualizer every frame.
package config

import (
	"math"
	"strings"
	"time"
)

// RGB is an 8-bit per channel color.
type RGB [3]uint8

// Style selects how bars and the background image are painted.
type Style int

const (
	// StyleChar draws bars with glyphs and the background image as glyphs.
	StyleChar Style = iota
	// StyleBlock draws bars and the background image as background colors.
	StyleBlock
	// StyleCharOnColor draws bars with glyphs over a colored background image.
	StyleCharOnColor
)

// Color modes for bars.
const (
	ColorModeTheme    = "theme"
	ColorModeSolid    = "solid"
	ColorModeGradient = "gradient"
)

// DeviceNone clears the device selector and idles the audio worker.
const DeviceNone = "none"

// Config is one immutable snapshot of every visual and audio setting.
type Config struct {
	Device string `json:"dev_name" toml:"dev_name" yaml:"dev_name"`

	Sensitivity   float64 `json:"sens" toml:"sens" yaml:"sens"`
	AutoGain      bool    `json:"auto_gain" toml:"auto_gain" yaml:"auto_gain"`
	NoiseFloor    float64 `json:"noise_floor" toml:"noise_floor" yaml:"noise_floor"`
	Smoothing     float64 `json:"smoothing" toml:"smoothing" yaml:"smoothing"`
	Gravity       float64 `json:"gravity" toml:"gravity" yaml:"gravity"`
	PeakGravity   float64 `json:"peak_gravity" toml:"peak_gravity" yaml:"peak_gravity"`
	Peaks         bool    `json:"peaks_on" toml:"peaks_on" yaml:"peaks_on"`
	BeatEnabled   bool    `json:"beat_on" toml:"beat_on" yaml:"beat_on"`
	BeatThreshold float64 `json:"beat_thresh" toml:"beat_thresh" yaml:"beat_thresh"`
	FPS           float64 `json:"fps" toml:"fps" yaml:"fps"`

	Style      Style   `json:"style" toml:"style" yaml:"style"`
	Mirror     bool    `json:"mirror" toml:"mirror" yaml:"mirror"`
	Glitch     float64 `json:"glitch" toml:"glitch" yaml:"glitch"`
	ColorMode  string  `json:"color_mode" toml:"color_mode" yaml:"color_mode"`
	SolidColor RGB     `json:"solid_color" toml:"solid_color" yaml:"solid_color"`
	GradStart  RGB     `json:"grad_start" toml:"grad_start" yaml:"grad_start"`
	GradEnd    RGB     `json:"grad_end" toml:"grad_end" yaml:"grad_end"`
	Theme      string  `json:"theme_name" toml:"theme_name" yaml:"theme_name"`
	BarChars   string  `json:"bar_chars" toml:"bar_chars" yaml:"bar_chars"`
	Stars      bool    `json:"stars" toml:"stars" yaml:"stars"`
	ShowVU     bool    `json:"show_vu" toml:"show_vu" yaml:"show_vu"`

	TextOn     bool    `json:"text_on" toml:"text_on" yaml:"text_on"`
	TextStr    string  `json:"text_str" toml:"text_str" yaml:"text_str"`
	TextFont   string  `json:"text_font" toml:"text_font" yaml:"text_font"`
	TextScroll bool    `json:"text_scroll" toml:"text_scroll" yaml:"text_scroll"`
	TextGlitch bool    `json:"text_glitch" toml:"text_glitch" yaml:"text_glitch"`
	TextPosY   float64 `json:"text_pos_y" toml:"text_pos_y" yaml:"text_pos_y"`

	AFKEnabled bool    `json:"afk_enabled" toml:"afk_enabled" yaml:"afk_enabled"`
	AFKTimeout float64 `json:"afk_timeout" toml:"afk_timeout" yaml:"afk_timeout"`
	AFKText    string  `json:"afk_text" toml:"afk_text" yaml:"afk_text"`
	ForceAFK   bool    `json:"force_afk" toml:"force_afk" yaml:"force_afk"`

	ImgBgPath string `json:"img_bg_path" toml:"img_bg_path" yaml:"img_bg_path"`
	ImgBgOn   bool   `json:"img_bg_on" toml:"img_bg_on" yaml:"img_bg_on"`
	ImgBgFlip bool   `json:"img_bg_flip" toml:"img_bg_flip" yaml:"img_bg_flip"`
	ImgFgPath string `json:"img_fg_path" toml:"img_fg_path" yaml:"img_fg_path"`
	ImgFgOn   bool   `json:"img_fg_on" toml:"img_fg_on" yaml:"img_fg_on"`
	ImgFgFlip bool   `json:"img_fg_flip" toml:"img_fg_flip" yaml:"img_fg_flip"`
	ImgChars  string `json:"img_chars" toml:"img_chars" yaml:"img_chars"`

	Life      bool `json:"life_mode" toml:"life_mode" yaml:"life_mode"`
	Rain      bool `json:"matrix_rain" toml:"matrix_rain" yaml:"matrix_rain"`
	Pong      bool `json:"pong_mode" toml:"pong_mode" yaml:"pong_mode"`
	PhasePlot bool `json:"lissajous_mode" toml:"lissajous_mode" yaml:"lissajous_mode"`
	Waterfall bool `json:"waterfall_mode" toml:"waterfall_mode" yaml:"waterfall_mode"`
	Scope     bool `json:"scope_mode" toml:"scope_mode" yaml:"scope_mode"`
}

// Defaults returns the settings used when no record is available.
func Defaults() Config {
	return Config{
		Device:        "Default",
		Sensitivity:   1.0,
		AutoGain:      true,
		NoiseFloor:    -60,
		Smoothing:     0.15,
		Gravity:       0.25,
		PeakGravity:   0.15,
		Peaks:         true,
		BeatEnabled:   true,
		BeatThreshold: 1.4,
		FPS:           30,

		Style:      StyleCharOnColor,
		ColorMode:  ColorModeTheme,
		SolidColor: RGB{0, 255, 128},
		GradStart:  RGB{0, 0, 255},
		GradEnd:    RGB{0, 255, 255},
		Theme:      DefaultTheme,
		BarChars:   "  ▂▃▄▅▆▇█",
		Stars:      true,

		TextOn:   true,
		TextStr:  "SYSTEM\nONLINE",
		TextFont: "Standard",
		TextPosY: 0.5,

		AFKEnabled: true,
		AFKTimeout: 30,
		AFKText:    "brb",

		ImgChars: "ASCII",
	}
}

// DeviceCleared reports whether the device selector asks for no device.
func (c Config) DeviceCleared() bool {
	return strings.EqualFold(strings.TrimSpace(c.Device), DeviceNone)
}

// FrameDuration converts FPS into the frame period.
func (c Config) FrameDuration() time.Duration {
	fps := c.FPS
	if math.IsNaN(fps) || math.IsInf(fps, 0) || fps <= 0 {
		fps = Defaults().FPS
	}
	return time.Duration(float64(time.Second) / fps)
}

// ThemeColors returns the gradient for the configured color mode.
func (c Config) ThemeColors() Theme {
	switch strings.ToLower(c.ColorMode) {
	case ColorModeSolid:
		return Theme{Start: c.SolidColor, End: c.SolidColor}
	case ColorModeGradient:
		return Theme{Start: c.GradStart, End: c.GradEnd}
	}
	if t, ok := LookupTheme(c.Theme); ok {
		return t
	}
	t, _ := LookupTheme(DefaultTheme)
	return t
}

// BarRunes returns the resolved bar character set as runes.
func (c Config) BarRunes() []rune {
	set := []rune(CharSet(c.BarChars))
	if len(set) == 0 {
		set = []rune(CharSet("Blocks"))
	}
	return set
}

// ImageRunes returns the resolved background image character set as runes.
func (c Config) ImageRunes() []rune {
	set := []rune(CharSet(c.ImgChars))
	if len(set) == 0 {
		set = []rune(".")
	}
	return set
}
