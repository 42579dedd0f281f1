// Package bands turns a fixed-length dB spectrum into per-column bar heights
// and falling peak markers.
package bands

import (
	"math"

	"github.com/guidoenr/barviz/internal/analyzer"
)

const (
	// MaxGain caps the auto-gain multiplier.
	MaxGain = 5.0

	gainEpsilon  = 1e-6
	floorEpsilon = -1e-6
)

// Params is the per-frame subset of the configuration the processor reads.
type Params struct {
	NoiseFloor  float64
	Smoothing   float64
	AutoGain    bool
	Sensitivity float64
	Gravity     float64
	// PeakGravity is the per-frame fall of a peak marker. Zero holds peaks.
	PeakGravity float64
}

// Result is one frame of bar geometry. The slices belong to the processor and
// are only valid until the next call to Process.
type Result struct {
	Heights []float64
	Peaks   []float64
	Levels  []float64
	Gain    float64
	// Resized is set on the frame the column count changed.
	Resized bool
}

// Processor keeps the smoothed band levels and peak markers between frames.
type Processor struct {
	width   int
	levels  []float64
	peaks   []float64
	heights []float64
	scratch []float64
}

// New creates a processor with no columns. The first Process call sizes it.
func New() *Processor {
	return &Processor{}
}

// Width returns the current column count.
func (p *Processor) Width() int { return p.width }

// Resize reallocates every per-column array to width columns, zeroed. It
// reports whether the width actually changed.
func (p *Processor) Resize(width int) bool {
	if width < 0 {
		width = 0
	}
	if width == p.width && p.levels != nil {
		return false
	}
	p.width = width
	p.levels = make([]float64, width)
	p.peaks = make([]float64, width)
	p.heights = make([]float64, width)
	p.scratch = make([]float64, width)
	return true
}

// Process advances one frame for a width x height bar area.
func (p *Processor) Process(spectrum []float64, width, height int, params Params) Result {
	resized := p.Resize(width)
	if width == 0 {
		return Result{Resized: resized}
	}
	if len(spectrum) != analyzer.Bins {
		spectrum = silence
	}

	norm := ResampleInto(p.scratch, spectrum)
	for i, db := range norm {
		norm[i] = Normalize(db, params.NoiseFloor)
	}

	s := clamp(finite(params.Smoothing, 0), 0, 1)
	peak := 0.0
	for i := range p.levels {
		// keep NaN out of the recurrence
		p.levels[i] = finite(p.levels[i]*s+norm[i]*(1-s), 0)
		if p.levels[i] > peak {
			peak = p.levels[i]
		}
	}

	gain := 1.0
	if params.AutoGain {
		gain = AutoGain(peak)
	}

	sens := finite(params.Sensitivity, 1)
	if sens <= 0 {
		sens = 1
	}
	h := float64(height)
	if h < 0 {
		h = 0
	}

	gravity := max(finite(params.PeakGravity, 0), 0)

	for i, level := range p.levels {
		target := clamp(level*h*gain*sens, 0, h)
		p.heights[i] = target
		p.peaks[i] = StepPeak(p.peaks[i], target, gravity)
	}

	return Result{
		Heights: p.heights,
		Peaks:   p.peaks,
		Levels:  p.levels,
		Gain:    gain,
		Resized: resized,
	}
}

var silence = func() []float64 {
	out := make([]float64, analyzer.Bins)
	for i := range out {
		out[i] = analyzer.SilenceDB
	}
	return out
}()

// Resample picks width values from src by nearest index across the full
// range, first and last bins included.
func Resample(src []float64, width int) []float64 {
	if width <= 0 {
		return nil
	}
	return ResampleInto(make([]float64, width), src)
}

// ResampleInto is Resample writing into dst, whose length sets the width.
func ResampleInto(dst, src []float64) []float64 {
	w, n := len(dst), len(src)
	if n == 0 {
		for i := range dst {
			dst[i] = 0
		}
		return dst
	}
	for i := range dst {
		idx := 0
		if w > 1 {
			idx = i * (n - 1) / (w - 1)
		}
		dst[i] = src[idx]
	}
	return dst
}

// Normalize maps db onto [0, 1] between floor and 0 dB. A floor at or above
// 0 is treated as a tiny negative value.
func Normalize(db, floor float64) float64 {
	if floor >= 0 {
		floor = floorEpsilon
	}
	return clamp((db-floor)/(0-floor), 0, 1)
}

// AutoGain returns the multiplier that lifts peak towards full scale. The
// result is always in (0, MaxGain].
func AutoGain(peak float64) float64 {
	if peak < gainEpsilon {
		peak = gainEpsilon
	}
	g := 1 / peak
	if g > MaxGain {
		return MaxGain
	}
	return g
}

// StepPeak snaps the peak up to target or lets it fall by gravity, never
// below zero.
func StepPeak(peak, target, gravity float64) float64 {
	if target >= peak {
		return target
	}
	peak -= gravity
	if peak < 0 {
		return 0
	}
	return peak
}

func finite(v, fallback float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return v
}

func clamp(v, minVal, maxVal float64) float64 {
	if v < minVal {
		return minVal
	}
	if v > maxVal {
		return maxVal
	}
	return v
}
