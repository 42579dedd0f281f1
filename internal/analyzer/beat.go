package analyzer

import (
	"time"

	"gonum.org/v1/gonum/floats"
)

const (
	// DefaultHistorySize is roughly one to two seconds of 2048-sample blocks.
	DefaultHistorySize = 40
	// DefaultBeatThreshold is the energy ratio over the running mean that counts as a beat.
	DefaultBeatThreshold = 1.4
	// DefaultRefractory is the minimum spacing between two accepted beats.
	DefaultRefractory = 300 * time.Millisecond

	confidenceDecay = 0.8
	meanEpsilon     = 1e-5
)

// EnergyHistory is a fixed-capacity ring of recent block energies.
type EnergyHistory struct {
	values []float64
	head   int
	count  int
}

// NewEnergyHistory creates a ring holding at most size entries.
func NewEnergyHistory(size int) *EnergyHistory {
	if size <= 0 {
		size = DefaultHistorySize
	}
	return &EnergyHistory{values: make([]float64, size)}
}

// Push appends v, evicting the oldest entry when the ring is full.
func (h *EnergyHistory) Push(v float64) {
	h.values[h.head] = v
	h.head = (h.head + 1) % len(h.values)
	if h.count < len(h.values) {
		h.count++
	}
}

// Len returns the number of stored entries.
func (h *EnergyHistory) Len() int { return h.count }

// Cap returns the ring capacity.
func (h *EnergyHistory) Cap() int { return len(h.values) }

// Values returns the stored entries oldest first.
func (h *EnergyHistory) Values() []float64 {
	out := make([]float64, 0, h.count)
	start := (h.head - h.count + len(h.values)) % len(h.values)
	for i := 0; i < h.count; i++ {
		out = append(out, h.values[(start+i)%len(h.values)])
	}
	return out
}

// Mean returns the average of the stored entries, or 0 when empty.
func (h *EnergyHistory) Mean() float64 {
	if h.count == 0 {
		return 0
	}
	if h.count == len(h.values) {
		return floats.Sum(h.values) / float64(h.count)
	}
	return floats.Sum(h.Values()) / float64(h.count)
}

// Reset drops every stored entry.
func (h *EnergyHistory) Reset() {
	h.head = 0
	h.count = 0
}

// BeatConfig controls BeatDetector.
type BeatConfig struct {
	HistorySize int
	Threshold   float64
	Refractory  time.Duration
}

// BeatDetector flags energy spikes against a running average.
type BeatDetector struct {
	history    *EnergyHistory
	threshold  float64
	refractory time.Duration
	lastBeat   time.Time
	confidence float64
}

// NewBeatDetector creates a detector, filling zero fields with defaults.
func NewBeatDetector(cfg BeatConfig) *BeatDetector {
	if cfg.Threshold <= 0 {
		cfg.Threshold = DefaultBeatThreshold
	}
	if cfg.Refractory <= 0 {
		cfg.Refractory = DefaultRefractory
	}
	return &BeatDetector{
		history:    NewEnergyHistory(cfg.HistorySize),
		threshold:  cfg.Threshold,
		refractory: cfg.Refractory,
	}
}

// SetThreshold changes the energy ratio used for detection.
func (d *BeatDetector) SetThreshold(v float64) {
	if v > 0 {
		d.threshold = v
	}
}

// Threshold returns the active energy ratio.
func (d *BeatDetector) Threshold() float64 { return d.threshold }

// History exposes the energy ring.
func (d *BeatDetector) History() *EnergyHistory { return d.history }

// Confidence returns the current, possibly decayed, beat confidence.
func (d *BeatDetector) Confidence() float64 { return d.confidence }

// Observe records the energy of one block taken at now and reports whether it
// is a beat together with the beat confidence.
//
// The energy is pushed before the mean is taken, so the mean includes the
// current block. A beat needs energy above mean*threshold and at least the
// refractory interval since the previous beat. Outside beats the confidence
// decays geometrically.
func (d *BeatDetector) Observe(energy float64, now time.Time) (bool, float64) {
	d.history.Push(energy)
	mean := d.history.Mean()

	elapsed := d.lastBeat.IsZero() || now.Sub(d.lastBeat) >= d.refractory
	if energy > mean*d.threshold && elapsed {
		d.lastBeat = now
		d.confidence = clamp(energy/(mean+meanEpsilon)-1.0, 0, 1)
		return true, d.confidence
	}

	d.confidence *= confidenceDecay
	return false, d.confidence
}

// Decay applies one step of confidence decay without recording energy.
func (d *BeatDetector) Decay() float64 {
	d.confidence *= confidenceDecay
	return d.confidence
}

// Reset clears the history, the last beat time and the confidence.
func (d *BeatDetector) Reset() {
	d.history.Reset()
	d.lastBeat = time.Time{}
	d.confidence = 0
}
