package trancebox

import (
	"fmt"
)

type (
	// Envelope is an ADSR amplitude envelope. Attack, Decay and Release are
	// in seconds, Sustain is a linear level in [0, 1]. A zero attack means an
	// instant onset.
	Envelope struct {
		Attack  float64 `yaml:"attack"`
		Decay   float64 `yaml:"decay"`
		Sustain float64 `yaml:"sustain"`
		Release float64 `yaml:"release"`
	}

	// Waveform is the basic shape of an oscillator.
	Waveform int
)

const (
	Sawtooth Waveform = iota
	Square
	Triangle
	Sine
)

// Waveforms lists the waveform names in the order of their values.
var Waveforms = []string{"sawtooth", "square", "triangle", "sine"}

func (w Waveform) String() string {
	if w < 0 || int(w) >= len(Waveforms) {
		return fmt.Sprintf("Waveform(%d)", int(w))
	}
	return Waveforms[w]
}

// ParseWaveform returns the waveform with the given name.
func ParseWaveform(s string) (Waveform, error) {
	for i, name := range Waveforms {
		if name == s {
			return Waveform(i), nil
		}
	}
	return 0, fmt.Errorf("unknown waveform %q", s)
}

// Validate checks that all stage times are non-negative and the sustain level
// is within [0, 1].
func (e Envelope) Validate() error {
	if e.Attack < 0 || e.Decay < 0 || e.Release < 0 {
		return fmt.Errorf("envelope stage times must be non-negative: %+v", e)
	}
	if e.Sustain < 0 || e.Sustain > 1 {
		return fmt.Errorf("envelope sustain %v not in [0, 1]", e.Sustain)
	}
	return nil
}

// Length returns attack+decay+release: the time from a trigger until the voice
// has gone silent, when the note is released before reaching sustain.
func (e Envelope) Length() float64 {
	return e.Attack + e.Decay + e.Release
}
