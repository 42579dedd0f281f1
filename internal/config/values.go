package config

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// FieldError reports a single setting that could not be used. The field keeps
// its previous value.
type FieldError struct {
	Key    string
	Value  any
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("config field %q (%v): %s", e.Key, e.Value, e.Reason)
}

type setter func(c *Config, v any) error

var fields = map[string]setter{
	"dev_name": stringField(func(c *Config, v string) { c.Device = v }),

	"sens":         floatField(0.01, 50, func(c *Config, v float64) { c.Sensitivity = v }),
	"auto_gain":    boolField(func(c *Config, v bool) { c.AutoGain = v }),
	"noise_floor":  floatField(-200, 0, func(c *Config, v float64) { c.NoiseFloor = v }),
	"smoothing":    floatField(0, 0.99, func(c *Config, v float64) { c.Smoothing = v }),
	"gravity":      floatField(0, 100, func(c *Config, v float64) { c.Gravity = v }),
	"peak_gravity": floatField(0, 100, func(c *Config, v float64) { c.PeakGravity = v }),
	"peaks_on":     boolField(func(c *Config, v bool) { c.Peaks = v }),
	"beat_on":      boolField(func(c *Config, v bool) { c.BeatEnabled = v }),
	"beat_thresh":  floatField(1, 10, func(c *Config, v float64) { c.BeatThreshold = v }),
	"fps":          floatField(1, 240, func(c *Config, v float64) { c.FPS = v }),

	"style":       intField(int(StyleChar), int(StyleCharOnColor), func(c *Config, v int) { c.Style = Style(v) }),
	"mirror":      boolField(func(c *Config, v bool) { c.Mirror = v }),
	"glitch":      floatField(0, 1, func(c *Config, v float64) { c.Glitch = v }),
	"color_mode":  colorModeField,
	"solid_color": rgbField(func(c *Config, v RGB) { c.SolidColor = v }),
	"grad_start":  rgbField(func(c *Config, v RGB) { c.GradStart = v }),
	"grad_end":    rgbField(func(c *Config, v RGB) { c.GradEnd = v }),
	"theme_name":  themeField,
	"bar_chars":   nonEmptyStringField(func(c *Config, v string) { c.BarChars = v }),
	"stars":       boolField(func(c *Config, v bool) { c.Stars = v }),
	"show_vu":     boolField(func(c *Config, v bool) { c.ShowVU = v }),

	"text_on":     boolField(func(c *Config, v bool) { c.TextOn = v }),
	"text_str":    stringField(func(c *Config, v string) { c.TextStr = v }),
	"text_font":   stringField(func(c *Config, v string) { c.TextFont = v }),
	"text_scroll": boolField(func(c *Config, v bool) { c.TextScroll = v }),
	"text_glitch": boolField(func(c *Config, v bool) { c.TextGlitch = v }),
	"text_pos_y":  floatField(0, 1, func(c *Config, v float64) { c.TextPosY = v }),

	"afk_enabled": boolField(func(c *Config, v bool) { c.AFKEnabled = v }),
	"afk_timeout": floatField(0, 86400, func(c *Config, v float64) { c.AFKTimeout = v }),
	"afk_text":    stringField(func(c *Config, v string) { c.AFKText = v }),
	"force_afk":   boolField(func(c *Config, v bool) { c.ForceAFK = v }),

	"img_bg_path": stringField(func(c *Config, v string) { c.ImgBgPath = v }),
	"img_bg_on":   boolField(func(c *Config, v bool) { c.ImgBgOn = v }),
	"img_bg_flip": boolField(func(c *Config, v bool) { c.ImgBgFlip = v }),
	"img_fg_path": stringField(func(c *Config, v string) { c.ImgFgPath = v }),
	"img_fg_on":   boolField(func(c *Config, v bool) { c.ImgFgOn = v }),
	"img_fg_flip": boolField(func(c *Config, v bool) { c.ImgFgFlip = v }),
	"img_chars":   nonEmptyStringField(func(c *Config, v string) { c.ImgChars = v }),

	"life_mode":      boolField(func(c *Config, v bool) { c.Life = v }),
	"matrix_rain":    boolField(func(c *Config, v bool) { c.Rain = v }),
	"pong_mode":      boolField(func(c *Config, v bool) { c.Pong = v }),
	"lissajous_mode": boolField(func(c *Config, v bool) { c.PhasePlot = v }),
	"waterfall_mode": boolField(func(c *Config, v bool) { c.Waterfall = v }),
	"scope_mode":     boolField(func(c *Config, v bool) { c.Scope = v }),
}

// Keys returns every known setting name, sorted.
func Keys() []string {
	return sortedKeys(fields)
}

// FromValues builds a Config from Defaults, overlaid with values.
func FromValues(values map[string]any) (Config, []error) {
	return Apply(Defaults(), values)
}

// Apply overlays values onto base. Each malformed or unknown field produces an
// error in the returned slice and leaves the corresponding setting untouched.
func Apply(base Config, values map[string]any) (Config, []error) {
	cfg := base
	var errs []error

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		set, ok := fields[key]
		if !ok {
			errs = append(errs, &FieldError{Key: key, Value: values[key], Reason: "unknown setting"})
			continue
		}
		// setters may write before they fail
		next := cfg
		if err := set(&next, values[key]); err != nil {
			errs = append(errs, &FieldError{Key: key, Value: values[key], Reason: err.Error()})
			continue
		}
		cfg = next
	}
	return cfg, errs
}

// Values converts cfg into the flat key/value record.
func Values(cfg Config) map[string]any {
	data, err := json.Marshal(cfg)
	if err != nil {
		return map[string]any{}
	}
	out := map[string]any{}
	if err := json.Unmarshal(data, &out); err != nil {
		return map[string]any{}
	}
	return out
}

func stringField(apply func(*Config, string)) setter {
	return func(c *Config, v any) error {
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("expected string, got %T", v)
		}
		apply(c, s)
		return nil
	}
}

func nonEmptyStringField(apply func(*Config, string)) setter {
	return func(c *Config, v any) error {
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("expected string, got %T", v)
		}
		if s == "" {
			return fmt.Errorf("must not be empty")
		}
		apply(c, s)
		return nil
	}
}

func boolField(apply func(*Config, bool)) setter {
	return func(c *Config, v any) error {
		switch b := v.(type) {
		case bool:
			apply(c, b)
			return nil
		case string:
			parsed, err := strconv.ParseBool(b)
			if err != nil {
				return fmt.Errorf("expected bool, got %q", b)
			}
			apply(c, parsed)
			return nil
		}
		return fmt.Errorf("expected bool, got %T", v)
	}
}

func floatField(minVal, maxVal float64, apply func(*Config, float64)) setter {
	return func(c *Config, v any) error {
		f, err := asFloat(v)
		if err != nil {
			return err
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("expected finite number, got %g", f)
		}
		if f < minVal || f > maxVal {
			return fmt.Errorf("out of range [%g, %g]", minVal, maxVal)
		}
		apply(c, f)
		return nil
	}
}

func intField(minVal, maxVal int, apply func(*Config, int)) setter {
	return func(c *Config, v any) error {
		f, err := asFloat(v)
		if err != nil {
			return err
		}
		if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
			return fmt.Errorf("expected integer, got %g", f)
		}
		n := int(f)
		if n < minVal || n > maxVal {
			return fmt.Errorf("out of range [%d, %d]", minVal, maxVal)
		}
		apply(c, n)
		return nil
	}
}

func rgbField(apply func(*Config, RGB)) setter {
	return func(c *Config, v any) error {
		var items []any
		switch list := v.(type) {
		case []any:
			items = list
		case []float64:
			for _, x := range list {
				items = append(items, x)
			}
		case []int64:
			for _, x := range list {
				items = append(items, x)
			}
		case []int:
			for _, x := range list {
				items = append(items, x)
			}
		default:
			return fmt.Errorf("expected [r, g, b], got %T", v)
		}
		if len(items) != 3 {
			return fmt.Errorf("expected 3 components, got %d", len(items))
		}
		var out RGB
		for i, item := range items {
			f, err := asFloat(item)
			if err != nil {
				return err
			}
			if math.IsNaN(f) || f < 0 || f > 255 {
				return fmt.Errorf("component %d out of range [0, 255]", i)
			}
			out[i] = uint8(f)
		}
		apply(c, out)
		return nil
	}
}

func colorModeField(c *Config, v any) error {
	s, ok := v.(string)
	if !ok {
		return fmt.Errorf("expected string, got %T", v)
	}
	mode := strings.ToLower(strings.TrimSpace(s))
	switch mode {
	case ColorModeTheme, ColorModeSolid, ColorModeGradient:
		c.ColorMode = mode
		return nil
	}
	return fmt.Errorf("unknown color mode %q", s)
}

func themeField(c *Config, v any) error {
	s, ok := v.(string)
	if !ok {
		return fmt.Errorf("expected string, got %T", v)
	}
	if _, ok := LookupTheme(s); !ok {
		return fmt.Errorf("unknown theme %q", s)
	}
	c.Theme = s
	return nil
}

func asFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case uint8:
		return float64(n), nil
	case json.Number:
		return n.Float64()
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, fmt.Errorf("expected number, got %q", n)
		}
		return f, nil
	}
	return 0, fmt.Errorf("expected number, got %T", v)
}
