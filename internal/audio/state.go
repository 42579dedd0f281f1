package audio

import (
	"time"

	"github.com/guidoenr/barviz/internal/analyzer"
)

// Status is the connection state of the audio worker.
type Status int

const (
	StatusIdle Status = iota
	StatusConnecting
	StatusConnected
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "Idle"
	case StatusConnecting:
		return "Connecting"
	case StatusConnected:
		return "Connected"
	case StatusError:
		return "Error"
	default:
		return "Unknown"
	}
}

// State is one published snapshot of the worker output. A snapshot is never
// mutated after publication; its slices may be shared between snapshots.
type State struct {
	Spectrum      []float64
	SpectrumLeft  []float64
	SpectrumRight []float64

	PCM      []float64
	PCMLeft  []float64
	PCMRight []float64

	Volume         float64
	Beat           bool
	BeatConfidence float64

	Status     Status
	Reason     string
	Device     string
	SampleRate float64
	Channels   int
	Overflows  uint64
	Updated    time.Time
}

// Stereo reports whether per-channel data is present.
func (s State) Stereo() bool {
	return s.Channels >= 2 && len(s.PCMLeft) > 0 && len(s.PCMRight) > 0
}

// StatusText renders the status with its reason, e.g. "Error: read timed out".
func (s State) StatusText() string {
	if s.Status == StatusError && s.Reason != "" {
		return s.Status.String() + ": " + s.Reason
	}
	return s.Status.String()
}

// DeviceLabel returns the connected device or a placeholder.
func (s State) DeviceLabel() string {
	if s.Device == "" {
		return "none"
	}
	return s.Device
}

func silentSpectrum() []float64 {
	out := make([]float64, analyzer.Bins)
	for i := range out {
		out[i] = analyzer.SilenceDB
	}
	return out
}

// InitialState is what the worker publishes before any block.
func InitialState() *State {
	spec := silentSpectrum()
	return &State{
		Spectrum:      spec,
		SpectrumLeft:  spec,
		SpectrumRight: spec,
		Status:        StatusIdle,
	}
}
