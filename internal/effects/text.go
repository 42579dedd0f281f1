package effects

import (
	"math/rand"
	"time"

	"github.com/rs/zerolog"

	"github.com/guidoenr/barviz/internal/banner"
	"github.com/guidoenr/barviz/internal/config"
	"github.com/guidoenr/barviz/internal/render"
)

const (
	afkVolume        = 0.1
	textGlitchChance = 0.05
	textGlitchBeat   = 0.25
)

var (
	glyphPool = []rune("!@#$%^&*()_+")
	textStyle = render.FgBg(render.White, render.Black)
)

// Text draws the banner overlay. When away mode triggers, after the input
// stayed quiet for the configured timeout or when forced, the away text
// replaces the regular one.
type Text struct {
	banner *banner.Renderer
	logger *zerolog.Logger
	rng    *rand.Rand

	lines  []string
	posY   float64
	scroll bool
	offset int
	glitch float64

	quietSince time.Time
	afk        bool
	failed     string
}

func NewText(r *banner.Renderer, logger *zerolog.Logger, rng *rand.Rand) *Text {
	if r == nil {
		r = banner.NewRenderer(0)
	}
	return &Text{banner: r, logger: logger, rng: rng}
}

func (t *Text) Name() string { return "text" }

func (t *Text) Enabled(cfg config.Config) bool {
	return cfg.TextOn || cfg.AFKEnabled || cfg.ForceAFK
}

// Away reports whether the away text is showing.
func (t *Text) Away() bool { return t.afk }

// Lines returns the banner drawn on the last frame.
func (t *Text) Lines() []string { return t.lines }

func (t *Text) Update(in *Input) {
	cfg := in.Config
	now := in.Now
	if now.IsZero() {
		now = time.Now()
	}

	if in.Audio.Volume < afkVolume {
		if t.quietSince.IsZero() {
			t.quietSince = now
		}
	} else {
		t.quietSince = time.Time{}
	}
	timeout := time.Duration(cfg.AFKTimeout * float64(time.Second))
	t.afk = cfg.ForceAFK ||
		(cfg.AFKEnabled && !t.quietSince.IsZero() && now.Sub(t.quietSince) >= timeout)

	var text string
	switch {
	case t.afk:
		text = cfg.AFKText
	case cfg.TextOn:
		text = cfg.TextStr
	}
	if text == "" {
		t.lines = nil
		return
	}

	font := config.FontID(cfg.TextFont)
	lines, err := t.banner.Render(text, font)
	if err != nil {
		if key := font + "\x00" + text; key != t.failed && t.logger != nil {
			t.logger.Warn().Err(err).Str("font", font).Msg("banner fell back to plain text")
			t.failed = key
		}
	}
	t.lines = lines
	t.posY = cfg.TextPosY

	t.scroll = cfg.TextScroll
	if t.scroll {
		t.offset++
	} else {
		t.offset = 0
	}

	t.glitch = 0
	if cfg.TextGlitch {
		t.glitch = textGlitchChance
		if in.Audio.Beat {
			t.glitch += textGlitchBeat
		}
	}
}

func (t *Text) Draw(f *render.Frame) {
	if len(t.lines) == 0 {
		return
	}
	w, h := f.Width, f.Height
	sy := int(t.posY * float64(h-len(t.lines)))
	block := banner.Width(t.lines)

	for i, line := range t.lines {
		runes := []rune(line)
		x0 := (w - len(runes)) / 2
		if t.scroll && w+block > 0 {
			x0 = w - t.offset%(w+block) + (block-len(runes))/2
		}
		for j, c := range runes {
			if c == ' ' {
				continue
			}
			if t.glitch > 0 && t.rng.Float64() < t.glitch {
				c = pick(t.rng, glyphPool)
			}
			f.Set(x0+j, sy+i, c, textStyle)
		}
	}
}
