package effects

import "math"

type (
	// FilterType selects which output of the state-variable filter is used.
	FilterType int

	// SVF is a zero-delay-feedback state-variable filter. Unlike the
	// classic Chamberlin form it stays stable up to the Nyquist frequency.
	SVF struct {
		ic1, ic2   float64
		a1, a2, a3 float64
		k          float64
	}
)

const (
	Lowpass FilterType = iota
	Highpass
	Bandpass
)

// FilterTypes lists the filter type names in the order of their values.
var FilterTypes = []string{"lowpass", "highpass", "bandpass"}

func (t FilterType) String() string {
	if t < 0 || int(t) >= len(FilterTypes) {
		return "unknown"
	}
	return FilterTypes[t]
}

// Set computes the coefficients for the cutoff frequency in Hz and the
// resonance q; q = 0.707 gives a Butterworth response.
func (f *SVF) Set(cutoff, q, sampleRate float64) {
	cutoff = min(max(cutoff, 1), 0.49*sampleRate)
	g := math.Tan(math.Pi * cutoff / sampleRate)
	f.k = 1 / q
	f.a1 = 1 / (1 + g*(g+f.k))
	f.a2 = g * f.a1
	f.a3 = g * f.a2
}

// Process filters one sample.
func (f *SVF) Process(x float64, t FilterType) float64 {
	low, band, high := f.Outputs(x)
	return t.pick(low, band, high)
}

// Outputs filters one sample and returns all three responses.
func (f *SVF) Outputs(x float64) (low, band, high float64) {
	v3 := x - f.ic2
	v1 := f.a1*f.ic1 + f.a2*v3
	v2 := f.ic2 + f.a2*f.ic1 + f.a3*v3
	f.ic1 = 2*v1 - f.ic1
	f.ic2 = 2*v2 - f.ic2
	return v2, v1, x - f.k*v1 - v2
}

func (t FilterType) pick(low, band, high float64) float64 {
	switch t {
	case Highpass:
		return high
	case Bandpass:
		return band
	default:
		return low
	}
}

// Reset clears the filter state but keeps the coefficients.
func (f *SVF) Reset() {
	f.ic1, f.ic2 = 0, 0
}
