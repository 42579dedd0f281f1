// Package effects paints one frame of the visualization. Each effect keeps
// its own state and is driven through the same Update/Draw contract, in a
// fixed composition order.
package effects

import (
	"fmt"
	"math/rand"
	"runtime/debug"
	"time"

	"github.com/rs/zerolog"

	"github.com/guidoenr/barviz/internal/audio"
	"github.com/guidoenr/barviz/internal/bands"
	"github.com/guidoenr/barviz/internal/banner"
	"github.com/guidoenr/barviz/internal/config"
	"github.com/guidoenr/barviz/internal/render"
)

// Input is everything an effect may read for one frame.
type Input struct {
	Config config.Config
	Audio  audio.State
	Bands  bands.Result
	Width  int
	Height int
	Frame  uint64
	Now    time.Time
}

// Effect is one layer of the frame. Update advances state and must not draw;
// Draw paints into the frame and is only called after Update.
type Effect interface {
	Name() string
	Enabled(cfg config.Config) bool
	Update(in *Input)
	Draw(f *render.Frame)
}

// Options configures NewEngine.
type Options struct {
	Logger *zerolog.Logger
	// Seed for every effect's random source. Zero seeds from the clock.
	Seed   int64
	Banner *banner.Renderer
}

// Engine runs the effects in order and applies the mirror post-process.
type Engine struct {
	effects  []Effect
	logger   *zerolog.Logger
	pulse    Pulse
	failures map[string]uint64
}

// NewEngine builds the engine with the standard layers: background image,
// starfield, bars, the mode effects, text overlay and glitch last.
func NewEngine(opts Options) *Engine {
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	next := func() *rand.Rand {
		seed++
		return rand.New(rand.NewSource(seed))
	}
	if opts.Banner == nil {
		opts.Banner = banner.NewRenderer(0)
	}

	return New(opts.Logger,
		NewBackground(opts.Logger),
		NewStarfield(next()),
		NewBars(opts.Logger),
		NewLife(next()),
		NewRain(next()),
		NewPong(next()),
		NewPhasePlot(),
		NewWaterfall(),
		NewScope(),
		NewText(opts.Banner, opts.Logger, next()),
		NewGlitch(next()),
	)
}

// New builds an engine running effects in the given order.
func New(logger *zerolog.Logger, effects ...Effect) *Engine {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Engine{
		effects:  effects,
		logger:   logger,
		failures: make(map[string]uint64),
	}
}

// Effects returns the pipeline in composition order.
func (e *Engine) Effects() []Effect { return e.effects }

// Pulse returns the beat flash intensity of the last frame.
func (e *Engine) Pulse() float64 { return e.pulse.Level() }

// Failures returns how often the named effect has panicked.
func (e *Engine) Failures(name string) uint64 { return e.failures[name] }

// Render clears f and paints every enabled effect into it.
func (e *Engine) Render(f *render.Frame, in *Input) {
	f.Clear()
	in.Width, in.Height = f.Width, f.Height
	e.pulse.Update(in.Audio.Beat)

	for _, fx := range e.effects {
		if !fx.Enabled(in.Config) {
			continue
		}
		e.run(fx, f, in)
	}

	if in.Config.Mirror {
		f.Mirror()
	}
}

// run isolates one effect. A panic skips the rest of that effect for this
// frame only.
func (e *Engine) run(fx Effect, f *render.Frame, in *Input) {
	defer func() {
		rec := recover()
		if rec == nil {
			return
		}
		name := fx.Name()
		e.failures[name]++
		n := e.failures[name]
		if n == 1 || n%100 == 0 {
			e.logger.Error().
				Str("effect", name).
				Uint64("failures", n).
				Str("stack", string(debug.Stack())).
				Err(fmt.Errorf("%v", rec)).
				Msg("effect panicked")
		}
	}()
	fx.Update(in)
	fx.Draw(f)
}

// Pulse is a beat flash envelope: full on a beat, then decaying.
type Pulse struct {
	level float64
}

const (
	pulseDecay = 0.85
	pulseFloor = 0.01
)

// Update advances the envelope one frame.
func (p *Pulse) Update(beat bool) float64 {
	if beat {
		p.level = 1
	} else {
		p.level *= pulseDecay
	}
	if p.level < pulseFloor {
		p.level = 0
	}
	return p.level
}

// Level returns the current intensity.
func (p *Pulse) Level() float64 { return p.level }

func colorOf(rgb config.RGB) render.Color {
	return render.Color{R: rgb[0], G: rgb[1], B: rgb[2]}
}

// randInt returns an int in [lo, hi].
func randInt(rng *rand.Rand, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + rng.Intn(hi-lo+1)
}

func randUniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

func randColor(rng *rand.Rand) render.Color {
	return render.Color{R: uint8(rng.Intn(256)), G: uint8(rng.Intn(256)), B: uint8(rng.Intn(256))}
}

func pick(rng *rand.Rand, set []rune) rune {
	return set[rng.Intn(len(set))]
}
