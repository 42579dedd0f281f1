package effects

import (
	"math/rand"

	"github.com/guidoenr/barviz/internal/config"
	"github.com/guidoenr/barviz/internal/render"
)

var (
	rainDigits = []rune("0123456789")
	rainFlips  = []rune("01XYZ<>*")
	rainHeads  = []rune("ABCDEFGHIJKLMNOPQRSTUVWXYZ")

	rainHead  = render.Color{R: 150, G: 255, B: 150}
	rainTrail = render.Color{G: 255}
)

const (
	rainFlipChance = 0.05
	rainBeatFlash  = 50
)

type column struct {
	y      float64
	speed  float64
	length int
	chars  []rune
}

// Rain drops one falling glyph column per screen column. The head is a
// bright random letter, the trail fades out, and the fall speeds up with the
// volume and on beats.
type Rain struct {
	rng    *rand.Rand
	cols   []column
	height int
	volume float64
	beat   bool
}

func NewRain(rng *rand.Rand) *Rain {
	return &Rain{rng: rng}
}

func (r *Rain) Name() string { return "rain" }

func (r *Rain) Enabled(cfg config.Config) bool { return cfg.Rain }

func (r *Rain) newColumn(h int) column {
	c := column{
		y:      float64(randInt(r.rng, -h, 0)),
		speed:  randUniform(r.rng, 0.2, 0.5),
		length: randInt(r.rng, 5, 20),
		chars:  make([]rune, h+20),
	}
	for i := range c.chars {
		c.chars[i] = pick(r.rng, rainDigits)
	}
	return c
}

func (r *Rain) Update(in *Input) {
	if len(r.cols) != in.Width || r.height != in.Height {
		r.height = in.Height
		r.cols = make([]column, in.Width)
		for x := range r.cols {
			r.cols[x] = r.newColumn(in.Height)
		}
	}
	r.volume = in.Audio.Volume
	r.beat = in.Audio.Beat

	mult := 1 + r.volume*0.2
	if r.beat {
		mult *= 1.5
	}
	for x := range r.cols {
		c := &r.cols[x]
		c.y += c.speed * mult
		if c.y-float64(c.length) > float64(r.height) {
			c.y = float64(randInt(r.rng, -10, -1))
			c.speed = randUniform(r.rng, 0.2, 0.5)
			c.length = randInt(r.rng, 5, 20)
		}
	}
}

func (r *Rain) Draw(f *render.Frame) {
	for x := range r.cols {
		c := &r.cols[x]
		head := int(c.y)
		for i := 0; i < c.length; i++ {
			y := head - i
			if y < 0 || y >= f.Height || y >= len(c.chars) {
				continue
			}
			if r.rng.Float64() < rainFlipChance {
				c.chars[y] = pick(r.rng, rainFlips)
			}
			ch := c.chars[y]

			var col render.Color
			switch {
			case i == 0:
				col = rainHead
				ch = pick(r.rng, rainHeads)
			case i < 3:
				col = rainTrail
			default:
				fade := 1 - float64(i)/float64(c.length)
				col = render.Color{G: uint8(255 * fade * 0.5)}
			}
			if r.beat {
				col = render.Brighten(col, rainBeatFlash)
			}
			f.Set(x, y, ch, render.FgBg(col, render.Black))
		}
	}
}
