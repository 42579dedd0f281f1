package effects

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/guidoenr/barviz/internal/config"
	"github.com/guidoenr/barviz/internal/render"
)

const (
	pongSpeedX     = 0.015
	pongSpeedY     = 0.01
	pongPaddle     = 0.2
	pongPaddleLag  = 0.15
	pongLeftEdge   = 0.02
	pongRightEdge  = 0.98
	pongVolumeGain = 0.1
	pongBeatSpeed  = 2.0
)

var pongBallHit = render.Color{R: 255, G: 50, B: 50}

// Pong plays itself: the ball moves in unit coordinates, both paddles chase
// it with a first-order lag, and a miss scores and serves again from the
// center.
type Pong struct {
	rng            *rand.Rand
	bx, by         float64
	vx, vy         float64
	left, right    float64
	scoreL, scoreR int
	beat           bool
}

func NewPong(rng *rand.Rand) *Pong {
	return &Pong{
		rng:   rng,
		bx:    0.5,
		by:    0.5,
		vx:    pongSpeedX,
		vy:    pongSpeedY,
		left:  0.5,
		right: 0.5,
	}
}

func (p *Pong) Name() string { return "pong" }

func (p *Pong) Enabled(cfg config.Config) bool { return cfg.Pong }

// Score returns the left and right scores.
func (p *Pong) Score() (int, int) { return p.scoreL, p.scoreR }

func (p *Pong) Update(in *Input) {
	p.beat = in.Audio.Beat
	mult := 1 + in.Audio.Volume*pongVolumeGain
	if p.beat {
		mult = pongBeatSpeed
	}
	p.step(mult)
}

func (p *Pong) step(mult float64) {
	p.bx += p.vx * mult
	p.by += p.vy * mult

	if p.by <= 0 {
		p.by = 0
		p.vy = -p.vy
	} else if p.by >= 1 {
		p.by = 1
		p.vy = -p.vy
	}

	p.left += (p.by - p.left) * pongPaddleLag
	p.right += (p.by - p.right) * pongPaddleLag

	if p.bx <= pongLeftEdge {
		if math.Abs(p.left-p.by) < pongPaddle/2 {
			p.vx = math.Abs(p.vx)
			p.bx = pongLeftEdge
		} else if p.bx < 0 {
			p.scoreR++
			p.serve()
		}
	}
	if p.bx >= pongRightEdge {
		if math.Abs(p.right-p.by) < pongPaddle/2 {
			p.vx = -math.Abs(p.vx)
			p.bx = pongRightEdge
		} else if p.bx > 1 {
			p.scoreL++
			p.serve()
		}
	}
}

func (p *Pong) serve() {
	p.bx, p.by = 0.5, 0.5
	p.vx = pongSpeedX
	if p.rng.Intn(2) == 0 {
		p.vx = -pongSpeedX
	}
	p.vy = randUniform(p.rng, -pongSpeedY, pongSpeedY)
}

func (p *Pong) Draw(f *render.Frame) {
	w, h := f.Width, f.Height
	if w < 3 || h < 2 {
		return
	}
	piece := render.FgBg(render.White, render.Black)

	mid := w / 2
	for y := 0; y < h; y += 2 {
		f.Set(mid, y, '|', render.FgBg(render.Gray, render.Black))
	}

	ph := int(float64(h) * pongPaddle)
	paddle := func(x int, pos float64) {
		top := max(0, int(pos*float64(h))-ph/2)
		for y := top; y < min(h, top+ph); y++ {
			f.Set(x, y, '█', piece)
		}
	}
	paddle(1, p.left)
	paddle(w-2, p.right)

	ball := piece
	if p.beat {
		ball = render.FgBg(pongBallHit, render.Black)
	}
	f.Set(int(p.bx*float64(w)), int(p.by*float64(h)), '●', ball)

	score := fmt.Sprintf("%d  %d", p.scoreL, p.scoreR)
	if sx := (w - len(score)) / 2; sx >= 0 {
		f.WriteString(sx, 1, score, piece)
	}
}
