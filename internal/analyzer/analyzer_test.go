package analyzer

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpectrumOfSilence(t *testing.T) {
	out := Spectrum(make([]float64, 2048))
	require.Len(t, out, Bins)
	want := 20 * math.Log10(Epsilon)
	for i, v := range out {
		if math.Abs(v-want) > 1e-9 {
			t.Fatalf("bin %d = %f want %f", i, v, want)
		}
	}
	assert.InDelta(t, -180.0, SilenceDB, 1e-9)
}

func TestSpectrumPadsShortInput(t *testing.T) {
	samples := make([]float64, 256)
	for i := range samples {
		samples[i] = math.Sin(2 * math.Pi * float64(i) / 16)
	}
	out := Spectrum(samples)
	require.Len(t, out, Bins)
	// 256 samples only populate 129 bins
	assert.InDelta(t, SilenceDB, out[200], 1e-9)
	// tone sits at bin 256/16 = 16
	peak := 0
	for i := 1; i < 129; i++ {
		if out[i] > out[peak] {
			peak = i
		}
	}
	assert.Equal(t, 16, peak)
}

func TestSpectrumDoesNotMutateInput(t *testing.T) {
	samples := []float64{1, 1, 1, 1}
	_ = Spectrum(samples)
	assert.Equal(t, []float64{1, 1, 1, 1}, samples)
}

func TestEmptySpectrumIsSilent(t *testing.T) {
	out := Spectrum(nil)
	require.Len(t, out, Bins)
	assert.Equal(t, SilenceDB, out[0])
}

func TestEnergyHistoryEvictsOldest(t *testing.T) {
	h := NewEnergyHistory(3)
	for _, v := range []float64{1, 2, 3, 4, 5} {
		h.Push(v)
	}
	assert.Equal(t, 3, h.Len())
	assert.Equal(t, []float64{3, 4, 5}, h.Values())
	assert.InDelta(t, 4.0, h.Mean(), 1e-9)
}

func TestEnergyHistoryPartialMean(t *testing.T) {
	h := NewEnergyHistory(40)
	h.Push(2)
	h.Push(4)
	assert.InDelta(t, 3.0, h.Mean(), 1e-9)
	h.Reset()
	assert.Equal(t, 0.0, h.Mean())
}

func TestBeatFiresOnSpike(t *testing.T) {
	d := NewBeatDetector(BeatConfig{Threshold: 1.4})
	start := time.Unix(0, 0)
	for i := 0; i < 4; i++ {
		beat, _ := d.Observe(10, start.Add(time.Duration(i)*time.Second))
		assert.False(t, beat)
	}

	beat, conf := d.Observe(20, start.Add(10*time.Second))
	require.True(t, beat)
	// mean includes the spike: (4*10+20)/5 = 12
	assert.InDelta(t, 20.0/(12.0+meanEpsilon)-1.0, conf, 1e-9)
}

func TestBeatRefractory(t *testing.T) {
	d := NewBeatDetector(BeatConfig{})
	now := time.Unix(100, 0)
	for i := 0; i < 10; i++ {
		d.Observe(1, now)
	}

	var beats []time.Time
	for i := 0; i < 200; i++ {
		ts := now.Add(time.Duration(i) * 23 * time.Millisecond)
		energy := 1.0
		if i%3 == 0 {
			energy = 50
		}
		if beat, _ := d.Observe(energy, ts); beat {
			beats = append(beats, ts)
		}
	}
	require.NotEmpty(t, beats)
	for i := 1; i < len(beats); i++ {
		assert.GreaterOrEqual(t, beats[i].Sub(beats[i-1]), DefaultRefractory)
	}
}

func TestBeatConfidenceDecays(t *testing.T) {
	d := NewBeatDetector(BeatConfig{})
	now := time.Unix(0, 0)
	for i := 0; i < 10; i++ {
		d.Observe(1, now)
	}
	beat, conf := d.Observe(100, now.Add(time.Second))
	require.True(t, beat)
	assert.Equal(t, 1.0, conf)

	_, next := d.Observe(1, now.Add(time.Second+10*time.Millisecond))
	assert.InDelta(t, 0.8, next, 1e-9)
	assert.InDelta(t, 0.64, d.Decay(), 1e-9)
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 1.0, clamp(2, 0, 1))
	assert.Equal(t, 0.0, clamp(-1, 0, 1))
	assert.Equal(t, 0.5, clamp(0.5, 0, 1))
}
