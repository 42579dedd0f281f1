package effects

import (
	"math/rand"

	"github.com/guidoenr/barviz/internal/config"
	"github.com/guidoenr/barviz/internal/render"
)

const (
	glitchFrames   = 3
	glitchCoverage = 0.05
	glitchBase     = 0.05
	glitchBeat     = 0.6
)

// Glitch corrupts random cells for a few frames. It triggers with a chance
// scaled by the configured intensity and spikes on beats. It runs last so
// every other layer can be corrupted.
type Glitch struct {
	rng       *rand.Rand
	remaining int
	active    bool
}

func NewGlitch(rng *rand.Rand) *Glitch {
	return &Glitch{rng: rng}
}

func (g *Glitch) Name() string { return "glitch" }

func (g *Glitch) Enabled(cfg config.Config) bool { return cfg.Glitch > 0 }

// Active reports whether the current frame is corrupted.
func (g *Glitch) Active() bool { return g.active }

func (g *Glitch) Update(in *Input) {
	chance := in.Config.Glitch * glitchBase
	if in.Audio.Beat {
		chance += in.Config.Glitch * glitchBeat
	}
	if g.remaining == 0 && g.rng.Float64() < chance {
		g.trigger()
	}
	g.active = g.remaining > 0
	if g.active {
		g.remaining--
	}
}

func (g *Glitch) trigger() { g.remaining = glitchFrames }

func (g *Glitch) Draw(f *render.Frame) {
	if !g.active || f.Width == 0 || f.Height == 0 {
		return
	}
	n := int(float64(f.Width*f.Height) * glitchCoverage)
	for i := 0; i < n; i++ {
		x, y := g.rng.Intn(f.Width), g.rng.Intn(f.Height)
		f.Set(x, y, pick(g.rng, glyphPool), render.Fg(randColor(g.rng)))
	}
}
