package effects

import (
	"github.com/guidoenr/barviz/internal/bands"
	"github.com/guidoenr/barviz/internal/config"
	"github.com/guidoenr/barviz/internal/render"
)

const (
	phasePointBudget = 1000
	phaseScale       = 0.4

	waterfallDepth = 200
	waterfallFloor = -60.0
)

var scopeStyle = render.FgBg(render.Green, render.Black)

// PhasePlot draws the left channel against the right one, colored from
// blue to red along the sample window.
type PhasePlot struct {
	left, right []float64
}

func NewPhasePlot() *PhasePlot { return &PhasePlot{} }

func (p *PhasePlot) Name() string { return "phase" }

func (p *PhasePlot) Enabled(cfg config.Config) bool { return cfg.PhasePlot }

func (p *PhasePlot) Update(in *Input) {
	p.left, p.right = in.Audio.PCMLeft, in.Audio.PCMRight
}

func (p *PhasePlot) Draw(f *render.Frame) {
	n := min(len(p.left), len(p.right))
	if n == 0 {
		return
	}
	step := max(1, n/phasePointBudget)
	cx, cy := f.Width/2, f.Height/2
	w, h := float64(f.Width), float64(f.Height)

	for i := 0; i < n; i += step {
		x := int(float64(cx) + p.left[i]*w*phaseScale)
		y := int(float64(cy) - p.right[i]*h*phaseScale)
		fade := float64(i) / float64(n)
		col := render.Color{R: uint8(255 * fade), B: uint8(255 * (1 - fade))}
		f.Set(x, y, '+', render.FgBg(col, render.Black))
	}
}

// Waterfall scrolls past spectra down the screen, newest on top, colored
// by a heat map.
type Waterfall struct {
	history [][]float64
	row     []float64
}

func NewWaterfall() *Waterfall { return &Waterfall{} }

func (w *Waterfall) Name() string { return "waterfall" }

func (w *Waterfall) Enabled(cfg config.Config) bool { return cfg.Waterfall }

// Depth returns the number of stored spectra.
func (w *Waterfall) Depth() int { return len(w.history) }

func (w *Waterfall) Update(in *Input) {
	spec := in.Audio.Spectrum
	if len(spec) == 0 {
		return
	}
	if len(w.history) < waterfallDepth {
		w.history = append(w.history, nil)
	}
	copy(w.history[1:], w.history)
	w.history[0] = spec
}

func (w *Waterfall) Draw(f *render.Frame) {
	if cap(w.row) < f.Width {
		w.row = make([]float64, f.Width)
	}
	row := w.row[:f.Width]

	for y := 0; y < f.Height && y < len(w.history); y++ {
		bands.ResampleInto(row, w.history[y])
		for x, db := range row {
			norm := (db - waterfallFloor) / -waterfallFloor
			norm = max(0, min(1, norm))
			if norm <= 0.1 {
				continue
			}
			ch := ' '
			switch {
			case norm > 0.8:
				ch = '#'
			case norm > 0.5:
				ch = ':'
			case norm > 0.2:
				ch = '.'
			}
			f.Set(x, y, ch, render.FgBg(render.Heat(norm), render.Black))
		}
	}
}

// Scope is an oscilloscope of the mono window with vertical fill between
// neighboring samples.
type Scope struct {
	pcm []float64
	row []float64
}

func NewScope() *Scope { return &Scope{} }

func (s *Scope) Name() string { return "scope" }

func (s *Scope) Enabled(cfg config.Config) bool { return cfg.Scope }

func (s *Scope) Update(in *Input) { s.pcm = in.Audio.PCM }

func (s *Scope) Draw(f *render.Frame) {
	if len(s.pcm) == 0 || f.Height == 0 {
		return
	}
	if cap(s.row) < f.Width {
		s.row = make([]float64, f.Width)
	}
	view := bands.ResampleInto(s.row[:f.Width], s.pcm)

	h := f.Height
	prev := h / 2
	for x, sample := range view {
		y := int((sample*-0.5 + 0.5) * float64(h))
		y = max(0, min(h-1, y))
		for dy := min(prev, y); dy <= max(prev, y); dy++ {
			ch := '|'
			if dy == y {
				ch = '-'
			}
			f.Set(x, dy, ch, scopeStyle)
		}
		prev = y
	}
}
