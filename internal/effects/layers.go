package effects

import (
	"math"
	"math/rand"

	"github.com/rs/zerolog"

	"github.com/guidoenr/barviz/internal/config"
	"github.com/guidoenr/barviz/internal/imageload"
	"github.com/guidoenr/barviz/internal/render"
)

// imageLayer loads an image for the current grid size and logs a failure
// once per (path, size) key.
type imageLayer struct {
	cache  imageload.Cache
	logger *zerolog.Logger
	layer  string
}

func (l *imageLayer) load(path string, width, height int, flip bool) *imageload.Image {
	img, fresh, err := l.cache.Get(path, width, height, flip)
	if fresh && err != nil && l.logger != nil {
		l.logger.Warn().Err(err).Str("layer", l.layer).Msg("image unavailable")
	}
	return img
}

// Background paints the background image. Block styles use its colors as
// cell backgrounds; the char style maps luminance onto the image glyphs.
type Background struct {
	imageLayer
	img   *imageload.Image
	frame int
	style config.Style
	runes []rune
}

func NewBackground(logger *zerolog.Logger) *Background {
	return &Background{imageLayer: imageLayer{logger: logger, layer: "background"}}
}

func (b *Background) Name() string { return "background" }

func (b *Background) Enabled(cfg config.Config) bool {
	return cfg.ImgBgOn && cfg.ImgBgPath != ""
}

func (b *Background) Update(in *Input) {
	b.img = b.load(in.Config.ImgBgPath, in.Width, in.Height, in.Config.ImgBgFlip)
	b.frame = int(in.Frame % math.MaxInt32)
	b.style = in.Config.Style
	b.runes = in.Config.ImageRunes()
}

func (b *Background) Draw(f *render.Frame) {
	if b.img == nil {
		return
	}
	last := float64(len(b.runes) - 1)
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			c := b.img.At(b.frame, x, y)
			if b.style != config.StyleChar {
				f.Set(x, y, ' ', render.Bg(c))
				continue
			}
			f.Set(x, y, b.runes[int(render.Luma(c)*last)], render.Fg(c))
		}
	}
}

const (
	starCount     = 100
	starBaseSpeed = 0.02
	starVolSpeed  = 0.01
	starNearZ     = 0.05
	starFarZ      = 2.0
)

type star struct {
	x, y, z float64
}

// Starfield flies white dots towards the viewer, faster when the input is
// loud. Stars only land on blank cells.
type Starfield struct {
	rng   *rand.Rand
	stars []star
}

func NewStarfield(rng *rand.Rand) *Starfield {
	s := &Starfield{rng: rng, stars: make([]star, starCount)}
	for i := range s.stars {
		s.reset(&s.stars[i], true)
	}
	return s
}

func (s *Starfield) reset(st *star, randomDepth bool) {
	st.x = (s.rng.Float64() - 0.5) * 2
	st.y = (s.rng.Float64() - 0.5) * 2
	st.z = starFarZ
	if randomDepth {
		st.z = s.rng.Float64() * starFarZ
	}
}

func (s *Starfield) Name() string { return "starfield" }

func (s *Starfield) Enabled(cfg config.Config) bool { return cfg.Stars }

func (s *Starfield) Update(in *Input) {
	speed := starBaseSpeed + in.Audio.Volume*starVolSpeed
	for i := range s.stars {
		st := &s.stars[i]
		st.z -= speed
		if st.z <= starNearZ {
			s.reset(st, false)
		}
	}
}

func (s *Starfield) Draw(f *render.Frame) {
	w, h := float64(f.Width), float64(f.Height)
	for _, st := range s.stars {
		if st.z <= 0 {
			continue
		}
		fx := int(st.x/st.z*w*0.5 + w/2)
		fy := int(st.y/st.z*h*0.5 + h/2)
		if f.InBounds(fx, fy) && f.Char(fx, fy) == ' ' {
			f.Set(fx, fy, '.', render.Fg(render.White))
		}
	}
}

// Bars draws one vertical bar per column with a bottom-to-top color
// gradient and the falling peak markers.
type Bars struct {
	fg imageLayer

	heights []float64
	peaks   []float64
	peaksOn bool
	style   config.Style
	theme   config.Theme
	runes   []rune
	texture *imageload.Image
	frame   int
}

func NewBars(logger *zerolog.Logger) *Bars {
	return &Bars{fg: imageLayer{logger: logger, layer: "foreground"}}
}

func (b *Bars) Name() string { return "bars" }

func (b *Bars) Enabled(config.Config) bool { return true }

func (b *Bars) Update(in *Input) {
	cfg := in.Config
	b.heights = in.Bands.Heights
	b.peaks = in.Bands.Peaks
	b.peaksOn = cfg.Peaks
	b.style = cfg.Style
	b.theme = cfg.ThemeColors()
	b.runes = cfg.BarRunes()
	b.frame = int(in.Frame % math.MaxInt32)

	b.texture = nil
	if cfg.ImgFgOn && cfg.ImgFgPath != "" {
		b.texture = b.fg.load(cfg.ImgFgPath, in.Width, in.Height, cfg.ImgFgFlip)
	}
}

func (b *Bars) Draw(f *render.Frame) {
	h := f.Height
	start, end := colorOf(b.theme.Start), colorOf(b.theme.End)
	last := float64(len(b.runes) - 1)
	cols := min(f.Width, len(b.heights))

	for y := 0; y < h; y++ {
		invY := h - 1 - y
		row := render.Gradient(start, end, invY, h)

		for x := 0; x < cols; x++ {
			bar := b.heights[x]
			if float64(invY) < bar {
				c := row
				if b.texture != nil {
					c = b.texture.At(b.frame, x, y)
				}
				if b.style == config.StyleBlock {
					f.Set(x, y, ' ', render.Bg(c))
				} else {
					idx := int(float64(invY) / math.Max(bar, 1) * last)
					idx = max(0, min(idx, len(b.runes)-1))
					f.Set(x, y, b.runes[idx], render.Fg(c))
				}
			}

			if b.peaksOn && x < len(b.peaks) && b.peaks[x] > 0 && invY == int(b.peaks[x]) {
				f.Set(x, y, ' ', render.Bg(render.White))
			}
		}
	}
}
