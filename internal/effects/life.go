package effects

import (
	"math/rand"

	"github.com/guidoenr/barviz/internal/config"
	"github.com/guidoenr/barviz/internal/render"
)

const (
	lifeSeedDensity = 0.2
	lifeStepEvery   = 3
	lifeBeatCells   = 20
)

var lifeColor = render.FgBg(render.Color{R: 255, G: 255}, render.Black)

// Life runs Conway's game of life over the whole grid. The grid is reseeded
// when the size changes, steps every third frame and gets fresh cells on
// every beat.
type Life struct {
	rng   *rand.Rand
	w, h  int
	cells []bool
	next  []bool
	skip  int
}

func NewLife(rng *rand.Rand) *Life {
	return &Life{rng: rng}
}

func (l *Life) Name() string { return "life" }

func (l *Life) Enabled(cfg config.Config) bool { return cfg.Life }

func (l *Life) Update(in *Input) {
	if in.Width != l.w || in.Height != l.h {
		l.seed(in.Width, in.Height)
	}
	if in.Audio.Beat && len(l.cells) > 0 {
		for i := 0; i < lifeBeatCells; i++ {
			l.cells[l.rng.Intn(l.h)*l.w+l.rng.Intn(l.w)] = true
		}
	}
	l.skip++
	if l.skip >= lifeStepEvery {
		l.step()
		l.skip = 0
	}
}

func (l *Life) seed(w, h int) {
	l.w, l.h = w, h
	l.cells = make([]bool, w*h)
	l.next = make([]bool, w*h)
	for i := range l.cells {
		l.cells[i] = l.rng.Float64() < lifeSeedDensity
	}
}

func (l *Life) alive(x, y int) bool {
	if x < 0 || y < 0 || x >= l.w || y >= l.h {
		return false
	}
	return l.cells[y*l.w+x]
}

func (l *Life) neighbors(x, y int) int {
	n := 0
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if (dx != 0 || dy != 0) && l.alive(x+dx, y+dy) {
				n++
			}
		}
	}
	return n
}

// step applies B3/S23 with dead cells beyond the edges.
func (l *Life) step() {
	for y := 0; y < l.h; y++ {
		for x := 0; x < l.w; x++ {
			n := l.neighbors(x, y)
			l.next[y*l.w+x] = n == 3 || (n == 2 && l.cells[y*l.w+x])
		}
	}
	l.cells, l.next = l.next, l.cells
}

func (l *Life) Draw(f *render.Frame) {
	for y := 0; y < l.h; y++ {
		for x := 0; x < l.w; x++ {
			if l.cells[y*l.w+x] {
				f.Set(x, y, 'o', lifeColor)
			}
		}
	}
}
