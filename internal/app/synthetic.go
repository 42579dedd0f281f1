package app

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/guidoenr/barviz/internal/audio"
)

const (
	syntheticRate  = 44100.0
	syntheticName  = "Synthetic Tone"
	syntheticBPM   = 120.0
	kickFrequency  = 55.0
	kickDecay      = 18.0
	noiseAmplitude = 0.02
)

var syntheticDevice = audio.Device{
	Index:           0,
	Name:            syntheticName,
	HostAPI:         "synthetic",
	MaxInput:        2,
	DefaultSampleHz: syntheticRate,
	IsDefaultInput:  true,
}

// Synthetic is an audio backend without hardware. Its single stereo device
// plays three drifting tones and a kick drum on every beat, paced in real
// time, so the full capture pipeline runs under --no-audio.
type Synthetic struct {
	Seed int64
}

// NewSynthetic returns a backend seeded from the clock.
func NewSynthetic() *Synthetic {
	return &Synthetic{Seed: time.Now().UnixNano()}
}

func (s *Synthetic) Devices() ([]audio.Device, error) {
	return []audio.Device{syntheticDevice}, nil
}

func (s *Synthetic) DefaultInput() (audio.Device, error) {
	return syntheticDevice, nil
}

func (s *Synthetic) Open(dev audio.Device, channels, frames int) (audio.Stream, error) {
	return newToneStream(s.Seed, channels, frames, syntheticRate), nil
}

type toneStream struct {
	mu       sync.Mutex
	rng      *rand.Rand
	channels int
	frames   int
	rate     float64
	block    time.Duration
	next     time.Time
	sample   int64

	phaseBass float64
	phaseMid  float64
	phaseHigh float64
}

func newToneStream(seed int64, channels, frames int, rate float64) *toneStream {
	if channels < 1 {
		channels = 1
	}
	return &toneStream{
		rng:      rand.New(rand.NewSource(seed)),
		channels: channels,
		frames:   frames,
		rate:     rate,
		block:    time.Duration(float64(frames) / rate * float64(time.Second)),
	}
}

// Read waits for the next block boundary, then synthesizes one block.
func (t *toneStream) Read(ctx context.Context, buf []float32) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now()
	if t.next.IsZero() || now.Sub(t.next) > t.block {
		t.next = now
	}
	if wait := t.next.Sub(now); wait > 0 {
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return audio.ErrReadTimedOut
		case <-timer.C:
		}
	}
	t.next = t.next.Add(t.block)
	t.fill(buf)
	return nil
}

// fill writes interleaved samples. The slow envelopes follow the bass, mid
// and high phases; left and right get the tones in different mixes.
func (t *toneStream) fill(buf []float32) {
	dt := float64(t.frames) / t.rate
	t.phaseBass += dt * 0.7
	t.phaseMid += dt * 1.2
	t.phaseHigh += dt * 2.1

	bass := 0.25 + 0.2*math.Sin(t.phaseBass)
	mid := 0.15 + 0.12*math.Sin(t.phaseMid+0.5)
	high := 0.08 + 0.06*math.Sin(t.phaseHigh+1.0)
	beatLen := int64(t.rate * 60 / syntheticBPM)

	frames := len(buf) / t.channels
	for i := 0; i < frames; i++ {
		n := t.sample + int64(i)
		ts := float64(n) / t.rate

		low := bass * math.Sin(2*math.Pi*110*ts)
		center := mid * math.Sin(2*math.Pi*440*ts)
		top := high * math.Sin(2*math.Pi*1760*ts)

		since := float64(n%beatLen) / t.rate
		kick := 0.8 * math.Exp(-since*kickDecay) * math.Sin(2*math.Pi*kickFrequency*since)
		noise := (t.rng.Float64()*2 - 1) * noiseAmplitude

		left := low + center + 0.5*top + kick + noise
		right := low + 0.5*center + top + kick + noise

		if t.channels == 1 {
			buf[i] = float32(clampUnit((left + right) / 2))
			continue
		}
		buf[i*t.channels] = float32(clampUnit(left))
		buf[i*t.channels+1] = float32(clampUnit(right))
	}
	t.sample += int64(frames)
}

func (t *toneStream) Close() error { return nil }

func clampUnit(v float64) float64 {
	if v < -1 {
		return -1
	}
	if v > 1 {
		return 1
	}
	return v
}
