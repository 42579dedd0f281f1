// Package app runs the frame loop: it reads the latest audio snapshot and
// settings, turns them into bars and effects, and presents the frame.
package app

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"runtime/debug"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/eiannone/keyboard"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/floats"

	"github.com/guidoenr/barviz/internal/audio"
	"github.com/guidoenr/barviz/internal/bands"
	"github.com/guidoenr/barviz/internal/config"
	"github.com/guidoenr/barviz/internal/effects"
	"github.com/guidoenr/barviz/internal/render"
)

// DefaultErrorPause is how long the error frame stays up after a failed frame.
const DefaultErrorPause = 500 * time.Millisecond

// Config wires the application runtime.
type Config struct {
	Store       *config.Store
	Worker      *audio.Worker
	Surface     render.Surface
	Logger      *zerolog.Logger
	ProfilePath string
	// Keyboard enables the single-key controls on the controlling terminal.
	Keyboard   bool
	Seed       int64
	ErrorPause time.Duration
}

// RenderError is a frame that panicked. The loop shows it and carries on.
type RenderError struct {
	Value any
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render error: %v", e.Value)
}

// Status is the externally visible state of the running loop.
type Status struct {
	FPS    float64     `json:"fps"`
	Frame  uint64      `json:"frame"`
	Width  int         `json:"width"`
	Height int         `json:"height"`
	Pulse  float64     `json:"pulse"`
	Audio  AudioStatus `json:"audio"`
}

// AudioStatus summarizes an audio snapshot.
type AudioStatus struct {
	Device         string  `json:"device"`
	State          string  `json:"state"`
	Volume         float64 `json:"volume"`
	Beat           bool    `json:"beat"`
	BeatConfidence float64 `json:"beat_confidence"`
	SampleRate     float64 `json:"sample_rate"`
	Channels       int     `json:"channels"`
	Overflows      uint64  `json:"overflows"`
}

type inputEvent int

const (
	inputEventQuit inputEvent = iota
	inputEventRandomize
	inputEventMirror
	inputEventStyle
)

// App ties together the audio worker, the band processor, the effects and
// the output surface.
type App struct {
	store      *config.Store
	worker     *audio.Worker
	surface    render.Surface
	log        *zerolog.Logger
	engine     *effects.Engine
	bands      *bands.Processor
	frame      *render.Frame
	prof       *profiler
	keyboard   bool
	errorPause time.Duration
	rng        *rand.Rand

	inputEvents chan inputEvent
	frames      uint64
	last        time.Time
	fps         float64
	status      atomic.Pointer[Status]
}

// New constructs the application using the provided configuration.
func New(cfg Config) (*App, error) {
	if cfg.Store == nil {
		return nil, errors.New("app: nil config store")
	}
	if cfg.Worker == nil {
		return nil, errors.New("app: nil audio worker")
	}
	if cfg.Surface == nil {
		return nil, errors.New("app: nil surface")
	}
	if cfg.Logger == nil {
		nop := zerolog.Nop()
		cfg.Logger = &nop
	}
	if cfg.ErrorPause <= 0 {
		cfg.ErrorPause = DefaultErrorPause
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	a := &App{
		store:      cfg.Store,
		worker:     cfg.Worker,
		surface:    cfg.Surface,
		log:        cfg.Logger,
		engine:     effects.NewEngine(effects.Options{Logger: cfg.Logger, Seed: seed}),
		bands:      bands.New(),
		frame:      render.NewFrame(0, 0),
		prof:       newProfiler(cfg.ProfilePath, cfg.Logger),
		keyboard:   cfg.Keyboard,
		errorPause: cfg.ErrorPause,
		rng:        rand.New(rand.NewSource(seed)),
	}
	a.status.Store(&Status{})
	return a, nil
}

// Status returns the state published after the last frame.
func (a *App) Status() Status { return *a.status.Load() }

// Run starts the worker and the render loop until ctx is cancelled or the
// user quits.
func (a *App) Run(ctx context.Context) error {
	a.bindWorker()
	a.worker.Start(ctx)
	defer a.worker.Stop()

	period := a.store.Current().FrameDuration()
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	inputCtx, cancelInput := context.WithCancel(ctx)
	defer cancelInput()
	if a.keyboard {
		a.startInputListener(inputCtx)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case evt, ok := <-a.inputEvents:
			if !ok {
				a.inputEvents = nil
				continue
			}
			if evt == inputEventQuit {
				return nil
			}
			a.handleEvent(evt)
		case <-ticker.C:
			if err := a.step(ctx); err != nil {
				if errors.Is(err, render.ErrQuit) {
					return nil
				}
				return err
			}
			if next := a.store.Current().FrameDuration(); next != period {
				period = next
				ticker.Reset(period)
				a.log.Debug().Dur("period", period).Msg("frame rate changed")
			}
		}
	}
}

// Close releases held resources.
func (a *App) Close() error {
	return a.prof.Close()
}

// bindWorker pushes the device and beat settings to the worker now and on
// every settings change.
func (a *App) bindWorker() {
	apply := func(c config.Config) {
		a.worker.SetBeat(c.BeatEnabled, c.BeatThreshold)
		a.worker.SetDevice(c.Device)
	}
	apply(a.store.Current())
	a.store.Subscribe(apply)
}

// step renders one frame. A panic anywhere in the frame is shown as an
// error frame and the loop resumes after a short pause.
func (a *App) step(ctx context.Context) (err error) {
	defer func() {
		rec := recover()
		if rec == nil {
			return
		}
		rerr := &RenderError{Value: rec}
		a.log.Error().Err(rerr).Str("stack", string(debug.Stack())).Msg("frame failed")
		err = a.showError(ctx, rerr)
	}()
	return a.renderFrame()
}

func (a *App) renderFrame() error {
	cfg := a.store.Current()
	snap := a.worker.Snapshot()
	now := time.Now()
	a.frames++
	a.updateFPS(now, cfg)
	a.prof.beginFrame(a.frames, cfg.FrameDuration())

	w, h := a.surface.Size()
	a.frame.Resize(w, h)
	res := a.bands.Process(snap.Spectrum, w, h, bands.Params{
		NoiseFloor:  cfg.NoiseFloor,
		Smoothing:   cfg.Smoothing,
		AutoGain:    cfg.AutoGain,
		Sensitivity: cfg.Sensitivity,
		Gravity:     cfg.Gravity,
		PeakGravity: cfg.PeakGravity,
	})
	if res.Resized {
		a.log.Debug().Int("width", w).Int("height", h).Msg("grid resized")
	}
	a.prof.mark("bands")

	a.engine.Render(a.frame, &effects.Input{
		Config: cfg,
		Audio:  snap,
		Bands:  res,
		Frame:  a.frames,
		Now:    now,
	})
	a.prof.mark("effects")

	err := a.surface.Present(a.frame, render.HUD{
		Device: snap.DeviceLabel(),
		Volume: snap.Volume,
		State:  snap.StatusText(),
		FPS:    a.fps,
		ShowVU: cfg.ShowVU,
		Level:  levelDB(snap.PCM),
		Pulse:  a.engine.Pulse(),
	})
	a.prof.mark("present")
	a.prof.endFrame()

	a.publish(snap, w, h)
	return err
}

func (a *App) showError(ctx context.Context, rerr *RenderError) error {
	w, h := a.surface.Size()
	frame := render.NewFrame(w, h)
	frame.WriteString(0, 0, rerr.Error(), render.Fg(render.Red))
	err := a.surface.Present(frame, render.HUD{
		Device: "none",
		State:  "Error",
		FPS:    a.fps,
	})

	timer := time.NewTimer(a.errorPause)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
	return err
}

func (a *App) updateFPS(now time.Time, cfg config.Config) {
	if a.last.IsZero() {
		a.fps = cfg.FPS
	} else if delta := now.Sub(a.last).Seconds(); delta > 0 {
		a.fps = a.fps*0.9 + (1/delta)*0.1
	}
	a.last = now
}

func (a *App) publish(snap audio.State, w, h int) {
	a.status.Store(&Status{
		FPS:    a.fps,
		Frame:  a.frames,
		Width:  w,
		Height: h,
		Pulse:  a.engine.Pulse(),
		Audio: AudioStatus{
			Device:         snap.DeviceLabel(),
			State:          snap.StatusText(),
			Volume:         snap.Volume,
			Beat:           snap.Beat,
			BeatConfidence: snap.BeatConfidence,
			SampleRate:     snap.SampleRate,
			Channels:       snap.Channels,
			Overflows:      snap.Overflows,
		},
	})
}

// levelDB is the RMS level of the block in dBFS.
func levelDB(pcm []float64) float64 {
	if len(pcm) == 0 {
		return math.Inf(-1)
	}
	rms := floats.Norm(pcm, 2) / math.Sqrt(float64(len(pcm)))
	if rms <= 0 {
		return math.Inf(-1)
	}
	return 20 * math.Log10(rms)
}

func (a *App) handleEvent(evt inputEvent) {
	switch evt {
	case inputEventRandomize:
		a.randomizeTheme()
	case inputEventMirror:
		cfg := a.store.Update(func(c *config.Config) { c.Mirror = !c.Mirror })
		a.log.Info().Bool("mirror", cfg.Mirror).Msg("mirror toggled")
	case inputEventStyle:
		cfg := a.store.Update(func(c *config.Config) {
			c.Style = (c.Style + 1) % (config.StyleCharOnColor + 1)
		})
		a.log.Info().Int("style", int(cfg.Style)).Msg("style changed")
	}
}

func (a *App) randomizeTheme() {
	current := a.store.Current().Theme
	theme := pickRandom(config.ThemeNames(), current, a.rng)
	a.store.Update(func(c *config.Config) {
		c.Theme = theme
		c.ColorMode = config.ColorModeTheme
	})
	a.log.Info().Str("theme", theme).Msg("randomize theme")
}

func (a *App) startInputListener(ctx context.Context) {
	if err := keyboard.Open(); err != nil {
		a.log.Warn().Err(err).Msg("keyboard input disabled")
		a.inputEvents = nil
		return
	}

	events := make(chan inputEvent, 16)
	a.inputEvents = events

	closeOnce := &sync.Once{}
	go func() {
		<-ctx.Done()
		closeOnce.Do(func() {
			_ = keyboard.Close()
		})
	}()

	go func() {
		defer close(events)
		defer closeOnce.Do(func() {
			_ = keyboard.Close()
		})
		for {
			char, key, err := keyboard.GetKey()
			if err != nil {
				return
			}
			select {
			case <-ctx.Done():
				return
			default:
			}
			evt, ok := keyEvent(char, key)
			if !ok {
				continue
			}
			if evt == inputEventQuit {
				events <- evt
				return
			}
			select {
			case events <- evt:
			default:
			}
		}
	}()
}

func keyEvent(char rune, key keyboard.Key) (inputEvent, bool) {
	if key == keyboard.KeyEsc || key == keyboard.KeyCtrlC {
		return inputEventQuit, true
	}
	switch char {
	case 'q', 'Q':
		return inputEventQuit, true
	case 'r', 'R':
		return inputEventRandomize, true
	case 'm', 'M':
		return inputEventMirror, true
	case 's', 'S':
		return inputEventStyle, true
	}
	return 0, false
}

func pickRandom(options []string, current string, rng *rand.Rand) string {
	if len(options) == 0 {
		return current
	}
	if len(options) == 1 {
		return options[0]
	}
	var choice string
	for attempts := 0; attempts < 4; attempts++ {
		choice = options[rng.Intn(len(options))]
		if !strings.EqualFold(choice, current) {
			return choice
		}
	}
	return options[rng.Intn(len(options))]
}
