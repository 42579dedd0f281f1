package audio

import (
	"context"
	"math"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/floats"

	"github.com/guidoenr/barviz/internal/analyzer"
)

const (
	DefaultBlockSize   = 2048
	DefaultCooldown    = 2 * time.Second
	DefaultReadTimeout = 2 * time.Second
	DefaultStopTimeout = time.Second

	// SilenceThreshold is the amplitude under which every sample must sit for
	// a block to count as silent.
	SilenceThreshold = 1e-7

	volumeScale     = 10.0
	maxReasonLength = 48
	idlePoll        = 250 * time.Millisecond
)

var errSelectionChanged = errors.New("device selection changed")

// WorkerConfig controls a Worker. Zero fields take the package defaults.
type WorkerConfig struct {
	Backend       Backend
	Logger        *zerolog.Logger
	BlockSize     int
	Cooldown      time.Duration
	ReadTimeout   time.Duration
	BeatEnabled   bool
	BeatThreshold float64
	Now           func() time.Time
}

// Worker owns the device lifecycle. It resolves the selected device, reads
// blocks from it, analyses each block and publishes a State snapshot. It only
// stops when its context is cancelled.
type Worker struct {
	backend     Backend
	logger      *zerolog.Logger
	blockSize   int
	cooldown    time.Duration
	readTimeout time.Duration
	now         func() time.Time

	state atomic.Pointer[State]

	mu         sync.Mutex
	target     string
	selected   bool
	generation uint64
	wake       chan struct{}

	beatEnabled   atomic.Bool
	beatThreshold atomic.Uint64

	beat *analyzer.BeatDetector

	runMu  sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewWorker creates an idle worker. Call SetDevice to give it a target.
func NewWorker(cfg WorkerConfig) *Worker {
	if cfg.BlockSize <= 0 {
		cfg.BlockSize = DefaultBlockSize
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = DefaultCooldown
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		nop := zerolog.Nop()
		cfg.Logger = &nop
	}
	if cfg.BeatThreshold <= 0 {
		cfg.BeatThreshold = analyzer.DefaultBeatThreshold
	}

	w := &Worker{
		backend:     cfg.Backend,
		logger:      cfg.Logger,
		blockSize:   cfg.BlockSize,
		cooldown:    cfg.Cooldown,
		readTimeout: cfg.ReadTimeout,
		now:         cfg.Now,
		wake:        make(chan struct{}, 1),
		beat:        analyzer.NewBeatDetector(analyzer.BeatConfig{Threshold: cfg.BeatThreshold}),
	}
	w.state.Store(InitialState())
	w.SetBeat(cfg.BeatEnabled, cfg.BeatThreshold)
	return w
}

// Snapshot returns the latest published state without blocking.
func (w *Worker) Snapshot() State {
	return *w.state.Load()
}

// SetDevice selects the device target. Setting the same target again is a
// no-op; a cleared selector ("none") idles the worker.
func (w *Worker) SetDevice(target string) {
	if strings.EqualFold(strings.TrimSpace(target), "none") {
		w.ClearDevice()
		return
	}
	w.mu.Lock()
	if w.selected && w.target == target {
		w.mu.Unlock()
		return
	}
	w.target = target
	w.selected = true
	w.generation++
	w.mu.Unlock()
	w.signal()
}

// ClearDevice drops the selection. The worker closes its stream and idles.
func (w *Worker) ClearDevice() {
	w.mu.Lock()
	if !w.selected {
		w.mu.Unlock()
		return
	}
	w.target = ""
	w.selected = false
	w.generation++
	w.mu.Unlock()
	w.signal()
}

// SetBeat toggles beat detection and sets the energy ratio threshold.
func (w *Worker) SetBeat(enabled bool, threshold float64) {
	w.beatEnabled.Store(enabled)
	if threshold > 0 {
		w.beatThreshold.Store(math.Float64bits(threshold))
	}
}

func (w *Worker) selection() (string, uint64, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.target, w.generation, w.selected
}

func (w *Worker) currentGeneration() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.generation
}

func (w *Worker) signal() {
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// Start runs the worker loop in a new goroutine.
func (w *Worker) Start(ctx context.Context) {
	w.runMu.Lock()
	defer w.runMu.Unlock()
	if w.done != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.done = make(chan struct{})
	go func(done chan struct{}) {
		defer close(done)
		w.Run(ctx)
	}(w.done)
}

// Stop cancels the loop and waits up to DefaultStopTimeout for it to exit.
// It reports false when the goroutine was abandoned still running.
func (w *Worker) Stop() bool {
	w.runMu.Lock()
	cancel, done := w.cancel, w.done
	w.cancel, w.done = nil, nil
	w.runMu.Unlock()
	if cancel == nil {
		return true
	}
	cancel()
	select {
	case <-done:
		return true
	case <-time.After(DefaultStopTimeout):
		w.logger.Warn().Msg("audio worker did not stop in time")
		return false
	}
}

// Run is the worker loop. It returns when ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	for ctx.Err() == nil {
		// drop wakeups already covered by the selection read below
		select {
		case <-w.wake:
		default:
		}

		target, gen, ok := w.selection()
		if !ok {
			w.publishStatus(StatusIdle, "")
			w.wait(ctx, idlePoll)
			continue
		}

		err := w.session(ctx, target, gen)
		if ctx.Err() != nil {
			return
		}
		if err == nil || errors.Is(err, errSelectionChanged) {
			continue
		}

		w.logger.Warn().Err(err).Str("kind", KindOf(err).String()).Str("target", target).Msg("audio session failed")
		w.publishStatus(StatusError, truncate(err.Error(), maxReasonLength))
		w.wait(ctx, w.cooldown)
	}
}

// wait sleeps for d, waking early on cancellation or a selection change.
func (w *Worker) wait(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-w.wake:
	case <-timer.C:
	}
}

func (w *Worker) session(ctx context.Context, target string, gen uint64) error {
	w.publishStatus(StatusConnecting, "")

	dev, err := Resolve(w.backend, target)
	if err != nil {
		return err
	}

	channels := 1
	if dev.MaxInput >= 2 {
		channels = 2
	}
	stream, err := w.backend.Open(dev, channels, w.blockSize)
	if err != nil {
		return streamFailure("open "+dev.Name, err)
	}
	defer func() {
		if err := stream.Close(); err != nil {
			w.logger.Debug().Err(err).Msg("close stream")
		}
	}()

	w.beat.Reset()
	w.publish(func(s *State) {
		s.Status = StatusConnected
		s.Reason = ""
		s.Device = dev.Label()
		s.SampleRate = dev.DefaultSampleHz
		s.Channels = channels
	})
	w.logger.Info().Str("device", dev.Label()).Int("channels", channels).Float64("rate", dev.DefaultSampleHz).Msg("audio connected")

	buf := make([]float32, w.blockSize*channels)
	for {
		if ctx.Err() != nil {
			return nil
		}
		if w.currentGeneration() != gen {
			return errSelectionChanged
		}

		readCtx, cancel := context.WithTimeout(ctx, w.readTimeout)
		err := stream.Read(readCtx, buf)
		cancel()

		switch {
		case err == nil:
		case errors.Is(err, ErrInputOverflowed):
			w.publish(func(s *State) { s.Overflows++ })
			w.logger.Debug().Msg("input overflowed")
		case ctx.Err() != nil:
			return nil
		default:
			return streamFailure("read "+dev.Name, err)
		}

		w.process(buf, channels)
	}
}

// process analyses one interleaved block and publishes the result.
func (w *Worker) process(buf []float32, channels int) {
	mono, left, right := split(buf, channels)
	now := w.now()

	if isSilent(mono) {
		w.publish(func(s *State) {
			s.PCM, s.PCMLeft, s.PCMRight = mono, left, right
			s.Volume = 0
			s.Beat = false
			s.BeatConfidence = w.beat.Decay()
			s.Updated = now
		})
		return
	}

	volume := volumeScale * floats.Norm(mono, 2)

	beat := false
	confidence := 0.0
	if w.beatEnabled.Load() {
		w.beat.SetThreshold(math.Float64frombits(w.beatThreshold.Load()))
		// coarse full-band energy
		beat, confidence = w.beat.Observe(floats.Norm(mono, 1), now)
	} else {
		confidence = w.beat.Decay()
	}

	spectrum := analyzer.Spectrum(mono)
	specLeft, specRight := spectrum, spectrum
	if left != nil {
		specLeft = analyzer.Spectrum(left)
		specRight = analyzer.Spectrum(right)
	}

	w.publish(func(s *State) {
		s.Spectrum, s.SpectrumLeft, s.SpectrumRight = spectrum, specLeft, specRight
		s.PCM, s.PCMLeft, s.PCMRight = mono, left, right
		s.Volume = volume
		s.Beat = beat
		s.BeatConfidence = confidence
		s.Updated = now
	})
}

// publish copies the current snapshot, applies fn and swaps it in. Only the
// worker goroutine publishes.
func (w *Worker) publish(fn func(*State)) {
	next := *w.state.Load()
	fn(&next)
	w.state.Store(&next)
}

// publishStatus moves to a non-connected status, dropping the device and
// zeroing the level.
func (w *Worker) publishStatus(status Status, reason string) {
	if cur := w.state.Load(); cur.Status == status && cur.Reason == reason {
		return
	}
	w.publish(func(s *State) {
		s.Status = status
		s.Reason = reason
		s.Device = ""
		s.Volume = 0
		s.Beat = false
	})
}

func split(buf []float32, channels int) (mono, left, right []float64) {
	if channels <= 0 {
		channels = 1
	}
	frames := len(buf) / channels
	mono = make([]float64, frames)
	if channels >= 2 {
		left = make([]float64, frames)
		right = make([]float64, frames)
	}
	for i := 0; i < frames; i++ {
		base := i * channels
		sum := 0.0
		for ch := 0; ch < channels; ch++ {
			sum += float64(buf[base+ch])
		}
		mono[i] = sum / float64(channels)
		if channels >= 2 {
			left[i] = float64(buf[base])
			right[i] = float64(buf[base+1])
		}
	}
	return mono, left, right
}

func isSilent(samples []float64) bool {
	for _, v := range samples {
		if math.Abs(v) >= SilenceThreshold {
			return false
		}
	}
	return true
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
