package audio

import (
	"context"
	"math"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guidoenr/barviz/internal/analyzer"
)

type fakeStream struct {
	amplitude float32
	failAfter int
	reads     int
	closed    atomic.Bool
}

func (s *fakeStream) Read(ctx context.Context, buf []float32) error {
	select {
	case <-ctx.Done():
		return ErrReadTimedOut
	case <-time.After(time.Millisecond):
	}
	s.reads++
	if s.failAfter > 0 && s.reads > s.failAfter {
		return errors.New("device unplugged")
	}
	for i := range buf {
		buf[i] = s.amplitude * float32(math.Sin(float64(i)/7))
	}
	return nil
}

func (s *fakeStream) Close() error {
	s.closed.Store(true)
	return nil
}

type fakeBackend struct {
	fakeLister
	mu        sync.Mutex
	opens     int
	failAfter int
	channels  []int
}

func (b *fakeBackend) Open(dev Device, channels, frames int) (Stream, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.opens++
	b.channels = append(b.channels, channels)
	return &fakeStream{amplitude: 0.5, failAfter: b.failAfter}, nil
}

func (b *fakeBackend) openCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.opens
}

func newTestBackend() *fakeBackend {
	return &fakeBackend{fakeLister: fakeLister{devices: testDevices(), defaultIdx: 2}}
}

func constantBlock(frames, channels int, v float32) []float32 {
	buf := make([]float32, frames*channels)
	for i := range buf {
		buf[i] = v
	}
	return buf
}

func TestProcessSilenceKeepsSpectrum(t *testing.T) {
	w := NewWorker(WorkerConfig{Backend: newTestBackend(), BeatEnabled: true})

	w.process(constantBlock(2048, 2, 0.25), 2)
	loud := w.Snapshot()
	require.Greater(t, loud.Volume, 0.0)

	w.process(make([]float32, 4096), 2)
	quiet := w.Snapshot()
	assert.Equal(t, 0.0, quiet.Volume)
	assert.False(t, quiet.Beat)
	assert.Equal(t, loud.Spectrum, quiet.Spectrum)
	assert.Len(t, quiet.PCM, 2048)
}

func TestProcessTinySamplesCountAsSilence(t *testing.T) {
	w := NewWorker(WorkerConfig{Backend: newTestBackend()})
	w.process(constantBlock(2048, 1, 1e-8), 1)
	s := w.Snapshot()
	assert.Equal(t, 0.0, s.Volume)
	assert.False(t, s.Beat)
	assert.Equal(t, analyzer.SilenceDB, s.Spectrum[10])
}

func TestProcessVolumeAndStereoSplit(t *testing.T) {
	w := NewWorker(WorkerConfig{Backend: newTestBackend()})
	buf := make([]float32, 2048*2)
	for i := 0; i < 2048; i++ {
		buf[2*i] = 0.5
		buf[2*i+1] = -0.5
	}
	w.process(buf, 2)

	s := w.Snapshot()
	// channels cancel out in the mono mix
	assert.Equal(t, 0.0, s.Volume)

	for i := 0; i < 2048; i++ {
		buf[2*i] = 0.5
		buf[2*i+1] = 0.5
	}
	w.process(buf, 2)
	s = w.Snapshot()
	assert.InDelta(t, 10*0.5*math.Sqrt(2048), s.Volume, 1e-9)
	require.Len(t, s.PCMLeft, 2048)
	require.Len(t, s.PCMRight, 2048)
	require.Len(t, s.SpectrumLeft, analyzer.Bins)
}

func TestProcessDetectsBeat(t *testing.T) {
	now := time.Unix(0, 0)
	clock := func() time.Time { return now }
	w := NewWorker(WorkerConfig{Backend: newTestBackend(), BeatEnabled: true, BeatThreshold: 1.4, Now: clock})

	for i := 0; i < 4; i++ {
		w.process(constantBlock(2048, 1, 0.1), 1)
		assert.False(t, w.Snapshot().Beat)
		now = now.Add(50 * time.Millisecond)
	}
	w.process(constantBlock(2048, 1, 0.2), 1)
	s := w.Snapshot()
	assert.True(t, s.Beat)
	assert.Greater(t, s.BeatConfidence, 0.0)
	assert.LessOrEqual(t, s.BeatConfidence, 1.0)

	// disabled detection never fires and lets confidence decay
	w.SetBeat(false, 1.4)
	before := s.BeatConfidence
	w.process(constantBlock(2048, 1, 0.9), 1)
	s = w.Snapshot()
	assert.False(t, s.Beat)
	assert.InDelta(t, before*0.8, s.BeatConfidence, 1e-9)
}

func TestWorkerConnectsWithNegotiatedChannels(t *testing.T) {
	backend := newTestBackend()
	w := NewWorker(WorkerConfig{Backend: backend})
	w.SetDevice("built-in")
	w.Start(context.Background())
	defer w.Stop()

	require.Eventually(t, func() bool {
		s := w.Snapshot()
		return s.Status == StatusConnected && s.Volume > 0
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, "[0] Built-in Mic", w.Snapshot().Device)

	w.SetDevice("usb mic")
	require.Eventually(t, func() bool {
		return w.Snapshot().Device == "[2] USB Mic Pro"
	}, 2*time.Second, 5*time.Millisecond)

	backend.mu.Lock()
	defer backend.mu.Unlock()
	assert.Equal(t, []int{1, 2}, backend.channels)
}

func TestWorkerErrorCooldownAndRetry(t *testing.T) {
	backend := newTestBackend()
	backend.failAfter = 3
	w := NewWorker(WorkerConfig{Backend: backend, Cooldown: 150 * time.Millisecond})
	w.SetDevice("Default")
	w.Start(context.Background())
	defer w.Stop()

	require.Eventually(t, func() bool {
		s := w.Snapshot()
		return s.Status == StatusError && strings.Contains(s.Reason, "unplugged")
	}, 2*time.Second, 2*time.Millisecond)
	s := w.Snapshot()
	assert.Equal(t, 0.0, s.Volume)
	assert.Equal(t, "none", s.DeviceLabel())

	require.Eventually(t, func() bool {
		return backend.openCount() >= 2
	}, 2*time.Second, 5*time.Millisecond)
}

func TestWorkerUnresolvedDeviceReportsError(t *testing.T) {
	w := NewWorker(WorkerConfig{Backend: newTestBackend(), Cooldown: time.Hour})
	w.SetDevice("Nothing Like It")
	w.Start(context.Background())
	defer w.Stop()

	require.Eventually(t, func() bool {
		return w.Snapshot().Status == StatusError
	}, 2*time.Second, 5*time.Millisecond)
	assert.True(t, strings.HasPrefix(w.Snapshot().StatusText(), "Error: "))
	assert.LessOrEqual(t, len([]rune(w.Snapshot().Reason)), maxReasonLength)

	// a new selection skips the cooldown
	w.SetDevice("usb")
	require.Eventually(t, func() bool {
		return w.Snapshot().Status == StatusConnected
	}, 2*time.Second, 5*time.Millisecond)
}

func TestWorkerClearDeviceIdles(t *testing.T) {
	w := NewWorker(WorkerConfig{Backend: newTestBackend()})
	assert.Equal(t, StatusIdle, w.Snapshot().Status)

	w.SetDevice("usb")
	w.Start(context.Background())
	defer w.Stop()
	require.Eventually(t, func() bool {
		return w.Snapshot().Status == StatusConnected
	}, 2*time.Second, 5*time.Millisecond)

	w.SetDevice("None")
	require.Eventually(t, func() bool {
		s := w.Snapshot()
		return s.Status == StatusIdle && s.Device == "" && s.Volume == 0
	}, 2*time.Second, 5*time.Millisecond)
}

func TestWorkerStopsPromptly(t *testing.T) {
	w := NewWorker(WorkerConfig{Backend: newTestBackend()})
	w.SetDevice("usb")
	w.Start(context.Background())
	time.Sleep(20 * time.Millisecond)

	start := time.Now()
	assert.True(t, w.Stop())
	assert.Less(t, time.Since(start), DefaultStopTimeout)
	assert.True(t, w.Stop())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
}
