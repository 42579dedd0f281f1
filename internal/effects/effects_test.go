package effects

import (
	"image"
	"image/color"
	"image/png"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guidoenr/barviz/internal/banner"
	"github.com/guidoenr/barviz/internal/bands"
	"github.com/guidoenr/barviz/internal/config"
	"github.com/guidoenr/barviz/internal/render"
)

func seeded() *rand.Rand { return rand.New(rand.NewSource(7)) }

func solidPNG(t *testing.T, c color.RGBA) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, c)
		}
	}
	path := filepath.Join(t.TempDir(), "solid.png")
	file, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(file, img))
	require.NoError(t, file.Close())
	return path
}

func barConfig() config.Config {
	cfg := config.Defaults()
	cfg.BarChars = "abc"
	cfg.Style = config.StyleChar
	cfg.ColorMode = config.ColorModeSolid
	cfg.SolidColor = config.RGB{1, 2, 3}
	cfg.Peaks = false
	return cfg
}

func TestBarsCharStyle(t *testing.T) {
	in := newInput(barConfig(), 2, 4)
	in.Bands = bands.Result{Heights: []float64{3, 0}, Peaks: []float64{3, 0}}
	f := render.NewFrame(2, 4)

	b := NewBars(nil)
	b.Update(in)
	b.Draw(f)

	assert.Equal(t, []string{"  ", "b ", "a ", "a "}, f.Lines())
	_, st := f.At(0, 3)
	assert.Equal(t, render.Fg(render.Color{R: 1, G: 2, B: 3}), st)
}

func TestBarsBlockStyleAndPeaks(t *testing.T) {
	cfg := barConfig()
	cfg.Style = config.StyleBlock
	cfg.Peaks = true
	in := newInput(cfg, 2, 5)
	in.Bands = bands.Result{Heights: []float64{2, 0}, Peaks: []float64{3.5, 0}}
	f := render.NewFrame(2, 5)

	b := NewBars(nil)
	b.Update(in)
	b.Draw(f)

	_, st := f.At(0, 4)
	assert.Equal(t, render.Bg(render.Color{R: 1, G: 2, B: 3}), st)
	_, st = f.At(0, 2)
	assert.Equal(t, render.Style{}, st)
	// peak at 3.5 marks the row four cells up
	_, st = f.At(0, 1)
	assert.Equal(t, render.Bg(render.White), st)
	// a zero peak draws nothing
	_, st = f.At(1, 4)
	assert.Equal(t, render.Style{}, st)
}

func TestBarsThemeGradient(t *testing.T) {
	cfg := barConfig()
	cfg.ColorMode = config.ColorModeGradient
	cfg.GradStart = config.RGB{0, 0, 0}
	cfg.GradEnd = config.RGB{200, 0, 0}
	in := newInput(cfg, 1, 2)
	in.Bands = bands.Result{Heights: []float64{2}}
	f := render.NewFrame(1, 2)

	b := NewBars(nil)
	b.Update(in)
	b.Draw(f)

	_, bottom := f.At(0, 1)
	_, top := f.At(0, 0)
	assert.Equal(t, render.Color{}, bottom.FG)
	assert.Equal(t, render.Color{R: 100}, top.FG)
}

func TestBarsForegroundTexture(t *testing.T) {
	cfg := barConfig()
	cfg.ImgFgOn = true
	cfg.ImgFgPath = solidPNG(t, color.RGBA{0, 0, 255, 255})
	in := newInput(cfg, 2, 2)
	in.Bands = bands.Result{Heights: []float64{2, 0}}
	f := render.NewFrame(2, 2)

	b := NewBars(nil)
	b.Update(in)
	b.Draw(f)

	_, st := f.At(0, 1)
	assert.Equal(t, render.Fg(render.Color{B: 255}), st)
}

func TestBackgroundStyles(t *testing.T) {
	cfg := config.Defaults()
	cfg.ImgBgOn = true
	cfg.ImgBgPath = solidPNG(t, color.RGBA{255, 0, 0, 255})
	cfg.Style = config.StyleBlock
	bg := NewBackground(nil)
	require.True(t, bg.Enabled(cfg))

	f := render.NewFrame(3, 2)
	bg.Update(newInput(cfg, 3, 2))
	bg.Draw(f)
	for y := 0; y < 2; y++ {
		for x := 0; x < 3; x++ {
			ch, st := f.At(x, y)
			assert.Equal(t, ' ', ch)
			assert.Equal(t, render.Bg(render.Red), st)
		}
	}

	cfg.Style = config.StyleChar
	cfg.ImgChars = "ab"
	f.Clear()
	bg.Update(newInput(cfg, 3, 2))
	bg.Draw(f)
	ch, st := f.At(1, 1)
	assert.Equal(t, 'a', ch)
	assert.Equal(t, render.Fg(render.Red), st)
}

func TestBackgroundMissingImage(t *testing.T) {
	cfg := config.Defaults()
	cfg.ImgBgOn = true
	cfg.ImgBgPath = filepath.Join(t.TempDir(), "nope.png")
	bg := NewBackground(nil)
	f := render.NewFrame(3, 2)
	require.NotPanics(t, func() {
		bg.Update(newInput(cfg, 3, 2))
		bg.Draw(f)
	})
	assert.Equal(t, []string{"   ", "   "}, f.Lines())

	cfg.ImgBgPath = ""
	assert.False(t, bg.Enabled(cfg))
}

func TestStarfieldOnlyUsesBlankCells(t *testing.T) {
	s := NewStarfield(seeded())
	in := newInput(config.Defaults(), 40, 20)

	full := render.NewFrame(40, 20)
	for i := range full.Chars {
		full.Chars[i] = 'x'
	}
	s.Update(in)
	s.Draw(full)
	assert.NotContains(t, strings.Join(full.Lines(), ""), ".")

	blank := render.NewFrame(40, 20)
	for i := 0; i < 10; i++ {
		s.Update(in)
	}
	s.Draw(blank)
	assert.Contains(t, strings.Join(blank.Lines(), ""), ".")
	for _, st := range s.stars {
		assert.Greater(t, st.z, starNearZ)
	}
}

func TestLifeBlinker(t *testing.T) {
	l := NewLife(seeded())
	l.seed(5, 5)
	for i := range l.cells {
		l.cells[i] = false
	}
	for y := 1; y <= 3; y++ {
		l.cells[y*5+2] = true
	}

	in := newInput(config.Defaults(), 5, 5)
	l.Update(in)
	l.Update(in)
	f := render.NewFrame(5, 5)
	l.Draw(f)
	assert.Equal(t, "  o  ", f.Lines()[1], "no step before the third frame")

	l.Update(in)
	f.Clear()
	l.Draw(f)
	assert.Equal(t, []string{"     ", "     ", " ooo ", "     ", "     "}, f.Lines())
	_, st := f.At(1, 2)
	assert.Equal(t, lifeColor, st)
}

func TestLifeBeatSpawnsCells(t *testing.T) {
	l := NewLife(seeded())
	l.seed(10, 10)
	for i := range l.cells {
		l.cells[i] = false
	}
	in := newInput(config.Defaults(), 10, 10)
	in.Audio.Beat = true
	l.Update(in)

	alive := 0
	for _, c := range l.cells {
		if c {
			alive++
		}
	}
	assert.Greater(t, alive, 0)
	assert.LessOrEqual(t, alive, lifeBeatCells)
}

func TestLifeReseedsOnResize(t *testing.T) {
	l := NewLife(seeded())
	l.Update(newInput(config.Defaults(), 30, 10))
	assert.Len(t, l.cells, 300)
	l.Update(newInput(config.Defaults(), 20, 10))
	assert.Len(t, l.cells, 200)
}

func TestRainColumnColors(t *testing.T) {
	r := NewRain(seeded())
	in := newInput(config.Defaults(), 1, 10)
	r.Update(in)
	require.Len(t, r.cols, 1)

	r.cols[0] = column{y: 5, speed: 0, length: 4, chars: []rune(strings.Repeat("7", 30))}
	r.Update(in)
	f := render.NewFrame(1, 10)
	r.Draw(f)

	head, st := f.At(0, 5)
	assert.True(t, unicode.IsUpper(head))
	assert.Equal(t, render.FgBg(rainHead, render.Black), st)
	_, st = f.At(0, 4)
	assert.Equal(t, rainTrail, st.FG)
	_, st = f.At(0, 2)
	assert.Equal(t, render.Color{G: 31}, st.FG)
	assert.Equal(t, ' ', f.Char(0, 1))
}

func TestRainBeatFlashAndRecycle(t *testing.T) {
	r := NewRain(seeded())
	in := newInput(config.Defaults(), 1, 10)
	r.Update(in)

	r.cols[0] = column{y: 5, speed: 0, length: 4, chars: []rune(strings.Repeat("7", 30))}
	in.Audio.Beat = true
	r.Update(in)
	f := render.NewFrame(1, 10)
	r.Draw(f)
	_, st := f.At(0, 5)
	assert.Equal(t, render.Color{R: 200, G: 255, B: 200}, st.FG)

	r.cols[0] = column{y: 20, speed: 0.3, length: 5, chars: []rune(strings.Repeat("7", 30))}
	in.Audio.Beat = false
	r.Update(in)
	assert.Less(t, r.cols[0].y, 0.0)
	assert.GreaterOrEqual(t, r.cols[0].length, 5)
	assert.LessOrEqual(t, r.cols[0].length, 20)
}

func TestPongBouncesOffWalls(t *testing.T) {
	p := NewPong(seeded())
	p.by, p.vy = 0.005, -0.01
	p.step(1)
	assert.Equal(t, 0.0, p.by)
	assert.Equal(t, 0.01, p.vy)
}

func TestPongPaddleReturnsBall(t *testing.T) {
	p := NewPong(seeded())
	p.bx, p.vx = 0.01, -0.015
	p.by, p.vy = 0.5, 0
	p.step(1)
	assert.Equal(t, pongLeftEdge, p.bx)
	assert.Greater(t, p.vx, 0.0)
}

func TestPongMissScores(t *testing.T) {
	p := NewPong(seeded())
	p.bx, p.vx = 0.001, -0.015
	p.by, p.vy = 0.5, 0
	p.left = 0.95
	p.step(1)
	l, r := p.Score()
	assert.Equal(t, 0, l)
	assert.Equal(t, 1, r)
	assert.Equal(t, 0.5, p.bx)
	assert.Equal(t, pongSpeedX, abs(p.vx))
}

func TestPongDraw(t *testing.T) {
	p := NewPong(seeded())
	p.scoreL, p.scoreR = 3, 4
	f := render.NewFrame(20, 10)
	in := newInput(config.Defaults(), 20, 10)
	in.Audio.Beat = true
	p.Update(in)
	p.Draw(f)

	assert.Equal(t, "3  4", strings.TrimSpace(f.Lines()[1])[:4])
	assert.Equal(t, '|', f.Char(10, 0))
	assert.Equal(t, '█', f.Char(1, 5))
	assert.Equal(t, '█', f.Char(18, 5))

	x, y := int(p.bx*20), int(p.by*10)
	ch, st := f.At(x, y)
	assert.Equal(t, '●', ch)
	assert.Equal(t, pongBallHit, st.FG)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func TestPhasePlotCenter(t *testing.T) {
	p := NewPhasePlot()
	in := newInput(config.Defaults(), 11, 7)
	in.Audio.PCMLeft = []float64{0}
	in.Audio.PCMRight = []float64{0}
	p.Update(in)
	f := render.NewFrame(11, 7)
	p.Draw(f)

	ch, st := f.At(5, 3)
	assert.Equal(t, '+', ch)
	assert.Equal(t, render.FgBg(render.Color{B: 255}, render.Black), st)
}

func TestPhasePlotWithoutStereo(t *testing.T) {
	p := NewPhasePlot()
	p.Update(newInput(config.Defaults(), 4, 4))
	f := render.NewFrame(4, 4)
	p.Draw(f)
	assert.Equal(t, []string{"    ", "    ", "    ", "    "}, f.Lines())
}

func spectrumOf(db float64) []float64 {
	out := make([]float64, 1024)
	for i := range out {
		out[i] = db
	}
	return out
}

func TestWaterfallHistory(t *testing.T) {
	w := NewWaterfall()
	in := newInput(config.Defaults(), 4, 3)
	for i := 0; i < waterfallDepth+50; i++ {
		w.Update(in)
	}
	assert.Equal(t, waterfallDepth, w.Depth())

	loud := spectrumOf(0)
	in.Audio.Spectrum = loud
	w.Update(in)
	assert.Equal(t, loud, w.history[0])
	assert.Equal(t, waterfallDepth, w.Depth())
}

func TestWaterfallDraw(t *testing.T) {
	w := NewWaterfall()
	in := newInput(config.Defaults(), 4, 3)
	w.Update(in) // silent row
	in.Audio.Spectrum = spectrumOf(-21)
	w.Update(in)
	in.Audio.Spectrum = spectrumOf(0)
	w.Update(in)

	f := render.NewFrame(4, 3)
	w.Draw(f)
	assert.Equal(t, []string{"####", "::::", "    "}, f.Lines())
	_, st := f.At(0, 0)
	assert.Equal(t, render.FgBg(render.Heat(1), render.Black), st)
}

func TestScopeFlatLine(t *testing.T) {
	s := NewScope()
	in := newInput(config.Defaults(), 5, 6)
	in.Audio.PCM = make([]float64, 64)
	s.Update(in)
	f := render.NewFrame(5, 6)
	s.Draw(f)
	assert.Equal(t, "-----", f.Lines()[3])
	assert.Equal(t, "     ", f.Lines()[2])
}

func TestScopeVerticalFill(t *testing.T) {
	s := NewScope()
	in := newInput(config.Defaults(), 1, 6)
	in.Audio.PCM = []float64{1}
	s.Update(in)
	f := render.NewFrame(1, 6)
	s.Draw(f)
	assert.Equal(t, []string{"-", "|", "|", "|", " ", " "}, f.Lines())
}

func TestTextCentersBanner(t *testing.T) {
	cfg := config.Defaults()
	cfg.TextStr = "HI"
	cfg.TextPosY = 0
	cfg.AFKEnabled = false
	want, err := banner.Render("HI", config.FontID(cfg.TextFont))
	require.NoError(t, err)

	txt := NewText(nil, nil, seeded())
	in := newInput(cfg, 40, 12)
	in.Audio.Volume = 1
	txt.Update(in)
	f := render.NewFrame(40, 12)
	txt.Draw(f)

	require.Equal(t, want, txt.Lines())
	row := []rune(want[0])
	x0 := (40 - len(row)) / 2
	for j, c := range row {
		if c == ' ' {
			continue
		}
		ch, st := f.At(x0+j, 0)
		assert.Equal(t, c, ch)
		assert.Equal(t, textStyle, st)
	}
}

func TestTextAwayAfterQuietTimeout(t *testing.T) {
	cfg := config.Defaults()
	cfg.AFKEnabled = true
	cfg.AFKTimeout = 30
	cfg.AFKText = "brb"
	txt := NewText(nil, nil, seeded())

	start := time.Unix(1000, 0)
	in := newInput(cfg, 40, 12)
	in.Now = start
	txt.Update(in)
	assert.False(t, txt.Away())

	in.Now = start.Add(29 * time.Second)
	txt.Update(in)
	assert.False(t, txt.Away())

	in.Now = start.Add(31 * time.Second)
	txt.Update(in)
	assert.True(t, txt.Away())
	want, err := banner.Render("brb", config.FontID(cfg.TextFont))
	require.NoError(t, err)
	assert.Equal(t, want, txt.Lines())

	in.Audio.Volume = 2
	txt.Update(in)
	assert.False(t, txt.Away())
}

func TestTextForcedAway(t *testing.T) {
	cfg := config.Defaults()
	cfg.TextOn = false
	cfg.AFKEnabled = false
	cfg.ForceAFK = true
	txt := NewText(nil, nil, seeded())
	require.True(t, txt.Enabled(cfg))

	in := newInput(cfg, 40, 12)
	in.Audio.Volume = 5
	txt.Update(in)
	assert.True(t, txt.Away())
	assert.NotEmpty(t, txt.Lines())
}

func TestTextScrollMovesLeft(t *testing.T) {
	cfg := config.Defaults()
	cfg.TextScroll = true
	cfg.AFKEnabled = false
	txt := NewText(nil, nil, seeded())
	in := newInput(cfg, 30, 12)
	in.Audio.Volume = 1

	txt.Update(in)
	assert.Equal(t, 1, txt.offset)
	txt.Update(in)
	assert.Equal(t, 2, txt.offset)

	cfg.TextScroll = false
	in.Config = cfg
	txt.Update(in)
	assert.Equal(t, 0, txt.offset)
}

func TestTextGlitchCorrupts(t *testing.T) {
	cfg := config.Defaults()
	cfg.TextGlitch = true
	cfg.AFKEnabled = false
	txt := NewText(nil, nil, seeded())
	in := newInput(cfg, 80, 20)
	in.Audio.Volume = 1
	in.Audio.Beat = true
	txt.Update(in)
	assert.InDelta(t, textGlitchChance+textGlitchBeat, txt.glitch, 1e-12)
}

func TestGlitchLastsThreeFrames(t *testing.T) {
	g := NewGlitch(seeded())
	cfg := config.Defaults()
	assert.False(t, g.Enabled(cfg))
	cfg.Glitch = 1e-15
	require.True(t, g.Enabled(cfg))

	in := newInput(cfg, 20, 10)
	g.trigger()
	var active []bool
	for i := 0; i < 4; i++ {
		g.Update(in)
		active = append(active, g.Active())
	}
	assert.Equal(t, []bool{true, true, true, false}, active)
}

func TestGlitchDrawsPoolGlyphs(t *testing.T) {
	g := NewGlitch(seeded())
	cfg := config.Defaults()
	cfg.Glitch = 1e-15
	g.trigger()
	g.Update(newInput(cfg, 20, 10))

	f := render.NewFrame(20, 10)
	g.Draw(f)
	changed := 0
	for _, c := range f.Chars {
		if c != ' ' {
			changed++
			assert.Contains(t, string(glyphPool), string(c))
		}
	}
	assert.Greater(t, changed, 0)
	assert.LessOrEqual(t, changed, 10)
}
