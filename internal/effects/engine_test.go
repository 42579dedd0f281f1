package effects

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guidoenr/barviz/internal/audio"
	"github.com/guidoenr/barviz/internal/config"
	"github.com/guidoenr/barviz/internal/render"
)

type probe struct {
	name    string
	enabled bool
	panics  bool
	updates int
	draw    func(f *render.Frame)
}

func (p *probe) Name() string               { return p.name }
func (p *probe) Enabled(config.Config) bool { return p.enabled }
func (p *probe) Update(*Input)              { p.updates++ }
func (p *probe) Draw(f *render.Frame) {
	if p.panics {
		panic("boom")
	}
	if p.draw != nil {
		p.draw(f)
	}
}

func newInput(cfg config.Config, w, h int) *Input {
	return &Input{Config: cfg, Audio: *audio.InitialState(), Width: w, Height: h}
}

func TestEngineOrder(t *testing.T) {
	e := NewEngine(Options{Seed: 1})
	var names []string
	for _, fx := range e.Effects() {
		names = append(names, fx.Name())
	}
	assert.Equal(t, []string{
		"background", "starfield", "bars",
		"life", "rain", "pong", "phase", "waterfall", "scope",
		"text", "glitch",
	}, names)
}

func TestEngineIsolatesPanics(t *testing.T) {
	boom := &probe{name: "boom", enabled: true, panics: true}
	after := &probe{name: "after", enabled: true, draw: func(f *render.Frame) {
		f.Set(0, 0, 'k', render.Style{})
	}}
	e := New(nil, boom, after)
	f := render.NewFrame(4, 2)

	require.NotPanics(t, func() { e.Render(f, newInput(config.Defaults(), 4, 2)) })
	assert.Equal(t, 'k', f.Char(0, 0))
	assert.Equal(t, uint64(1), e.Failures("boom"))

	e.Render(f, newInput(config.Defaults(), 4, 2))
	assert.Equal(t, uint64(2), e.Failures("boom"))
	assert.Equal(t, 2, after.updates)
}

func TestEngineSkipsDisabled(t *testing.T) {
	off := &probe{name: "off"}
	e := New(nil, off)
	e.Render(render.NewFrame(2, 2), newInput(config.Defaults(), 2, 2))
	assert.Zero(t, off.updates)
}

func TestEngineMirrorsAfterDrawing(t *testing.T) {
	paint := &probe{name: "paint", enabled: true, draw: func(f *render.Frame) {
		f.Set(0, 0, 'a', render.Fg(render.Red))
		f.Set(1, 0, 'b', render.Style{})
	}}
	e := New(nil, paint)
	cfg := config.Defaults()
	cfg.Mirror = true
	f := render.NewFrame(5, 1)

	e.Render(f, newInput(cfg, 5, 1))
	assert.Equal(t, []string{"ab ba"}, f.Lines())
	_, st := f.At(4, 0)
	assert.Equal(t, render.Fg(render.Red), st)
}

func TestEngineClearsAndSizesInput(t *testing.T) {
	var seen *Input
	p := &probe{name: "size", enabled: true}
	e := New(nil, p, &inputSpy{seen: &seen})
	f := render.NewFrame(7, 3)
	f.Set(2, 2, 'z', render.Style{})

	in := &Input{Config: config.Defaults()}
	e.Render(f, in)
	require.NotNil(t, seen)
	assert.Equal(t, 7, seen.Width)
	assert.Equal(t, 3, seen.Height)
	assert.Equal(t, ' ', f.Char(2, 2))
}

type inputSpy struct{ seen **Input }

func (s *inputSpy) Name() string               { return "spy" }
func (s *inputSpy) Enabled(config.Config) bool { return true }
func (s *inputSpy) Update(in *Input)           { *s.seen = in }
func (s *inputSpy) Draw(*render.Frame)         {}

func TestPulseEnvelope(t *testing.T) {
	var p Pulse
	assert.Equal(t, 1.0, p.Update(true))
	assert.InDelta(t, 0.85, p.Update(false), 1e-12)
	assert.InDelta(t, 0.7225, p.Update(false), 1e-12)
	for i := 0; i < 40; i++ {
		p.Update(false)
	}
	assert.Equal(t, 0.0, p.Level())
}

func TestEnginePulseFollowsBeat(t *testing.T) {
	e := New(nil)
	in := newInput(config.Defaults(), 1, 1)
	in.Audio.Beat = true
	e.Render(render.NewFrame(1, 1), in)
	assert.Equal(t, 1.0, e.Pulse())
}
