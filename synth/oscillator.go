package synth

import (
	"math"

	"github.com/trancebox/trancebox"
)

// oscillator is a phase accumulator producing the basic waveforms. Sawtooth
// and square use polyBLEP corrections to keep aliasing down.
type oscillator struct {
	phase float64 // [0, 1)
	inc   float64
}

func (o *oscillator) setFreq(freq, sampleRate float64) {
	o.inc = freq / sampleRate
}

func (o *oscillator) next(w trancebox.Waveform) float32 {
	v := o.value(w)
	o.advance()
	return v
}

// value returns the waveform at the current phase without advancing it.
func (o *oscillator) value(w trancebox.Waveform) float32 {
	p, dt := o.phase, o.inc
	var v float64
	switch w {
	case trancebox.Square:
		v = 1
		if p >= 0.5 {
			v = -1
		}
		v += polyBLEP(p, dt)
		v -= polyBLEP(math.Mod(p+0.5, 1), dt)
	case trancebox.Triangle:
		v = 4*math.Abs(p-0.5) - 1
	case trancebox.Sine:
		v = math.Sin(2 * math.Pi * p)
	default:
		v = 2*p - 1 - polyBLEP(p, dt)
	}
	return float32(v)
}

func (o *oscillator) advance() {
	o.phase += o.inc
	if o.phase >= 1 {
		o.phase -= math.Floor(o.phase)
	}
}

func polyBLEP(t, dt float64) float64 {
	switch {
	case dt <= 0:
		return 0
	case t < dt:
		t /= dt
		return t + t - t*t - 1
	case t > 1-dt:
		t = (t - 1) / dt
		return t*t + t + t + 1
	}
	return 0
}

// noise is a xorshift generator; it is deterministic so renders can be
// compared.
type noise uint32

func (n *noise) next() float32 {
	x := uint32(*n)
	x ^= x << 13
	x ^= x >> 17
	x ^= x << 5
	*n = noise(x)
	return float32(int32(x)) / math.MaxInt32
}
