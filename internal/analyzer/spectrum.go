package analyzer

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
)

const (
	// Bins is the fixed length of every spectrum produced by Spectrum.
	Bins = 1024
	// Epsilon keeps log10 finite for zero magnitudes.
	Epsilon = 1e-9
)

// SilenceDB is the value every bin takes for an all-zero window.
var SilenceDB = 20 * math.Log10(Epsilon)

// Spectrum returns the log-magnitude spectrum of samples in decibels.
//
// The input is copied, Hann-windowed and transformed with a real FFT. The
// magnitudes are truncated or zero padded to Bins entries before the dB
// conversion, so the result always has length Bins. Spectrum keeps no state
// and is safe to call from several goroutines.
func Spectrum(samples []float64) []float64 {
	out := make([]float64, Bins)
	if len(samples) == 0 {
		for i := range out {
			out[i] = SilenceDB
		}
		return out
	}

	buf := make([]float64, len(samples))
	copy(buf, samples)
	window.Apply(buf, window.Hann)

	coeffs := fft.FFTReal(buf)
	// real input: only the first n/2+1 coefficients are unique
	unique := len(coeffs)/2 + 1

	for i := range out {
		mag := 0.0
		if i < unique {
			mag = cmplx.Abs(coeffs[i])
		}
		out[i] = 20 * math.Log10(mag+Epsilon)
	}
	return out
}

func clamp(v, minVal, maxVal float64) float64 {
	if v < minVal {
		return minVal
	}
	if v > maxVal {
		return maxVal
	}
	return v
}
