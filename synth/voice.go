package synth

import (
	"math"

	"github.com/trancebox/trancebox"
	"gitlab.com/gomidi/midi/v2"
)

type (
	// Stage is the current phase of a voice's envelope.
	Stage int

	// Voice is one sounding note: a Generator shaped by an ADSR envelope. The
	// gate counts down the frames until the release starts; once the release
	// has faded out the voice goes Idle by itself.
	Voice struct {
		gen        Generator
		env        trancebox.Envelope
		sampleRate float64

		stage    Stage
		level    float64
		rate     float64 // per-frame level change of the current stage
		pitch    midi.Note
		velocity float32
		gate     int64
		age      int64
	}
)

const (
	Idle Stage = iota
	Attack
	Decay
	Sustain
	Release
)

func (s Stage) String() string {
	switch s {
	case Attack:
		return "attack"
	case Decay:
		return "decay"
	case Sustain:
		return "sustain"
	case Release:
		return "release"
	}
	return "idle"
}

// NewVoice returns an idle voice.
func NewVoice(gen Generator, env trancebox.Envelope, sampleRate float64) *Voice {
	return &Voice{gen: gen, env: env, sampleRate: sampleRate}
}

// Trigger starts the note. If the voice is still sounding, the envelope
// re-attacks from its current level instead of restarting from zero.
func (v *Voice) Trigger(pitch midi.Note, velocity float32, gate int64) {
	retrigger := v.stage != Idle
	v.pitch = pitch
	v.velocity = velocity
	v.gate = max(gate, 1)
	v.age = 0
	if !retrigger {
		v.level = 0
	}
	v.gen.Start(trancebox.Frequency(pitch), retrigger)
	v.enter(Attack)
}

// Release starts the release stage now, regardless of the gate.
func (v *Voice) Release() {
	if v.stage == Idle || v.stage == Release {
		return
	}
	v.enter(Release)
}

// FastRelease fades the voice out over the given number of frames, or sooner
// if it is already releasing faster.
func (v *Voice) FastRelease(frames int64) {
	if v.stage == Idle {
		return
	}
	frames = max(frames, 1)
	rate := -v.level / float64(frames)
	if v.stage == Release && v.rate < rate {
		return
	}
	v.stage = Release
	v.rate = rate
	v.gate = 0
	if v.level <= 0 {
		v.stage = Idle
	}
}

func (v *Voice) Stage() Stage                 { return v.stage }
func (v *Voice) Active() bool                 { return v.stage != Idle }
func (v *Voice) Pitch() midi.Note             { return v.pitch }
func (v *Voice) Age() int64                   { return v.age }
func (v *Voice) Level() float64               { return v.level }
func (v *Voice) Releasing() bool              { return v.stage == Release }
func (v *Voice) Envelope() trancebox.Envelope { return v.env }

// Render adds the voice to out and advances its envelope.
func (v *Voice) Render(out []float32) {
	if v.stage == Idle {
		return
	}
	v.gen.Begin()
	vel := v.velocity
	for i := range out {
		if v.gate > 0 {
			v.gate--
			if v.gate == 0 && v.stage != Release {
				v.enter(Release)
			}
		}
		v.level += v.rate
		switch v.stage {
		case Attack:
			if v.level >= 1 {
				v.level = 1
				v.enter(Decay)
			}
		case Decay:
			if v.level <= v.env.Sustain {
				v.level = v.env.Sustain
				v.enter(Sustain)
			}
		case Release:
			if v.level <= 0 {
				v.level = 0
				v.stage = Idle
			}
		}
		env := float32(v.level)
		out[i] += v.gen.Next(env) * env * vel
		v.age++
		if v.stage == Idle {
			return
		}
	}
}

func (v *Voice) enter(s Stage) {
	v.stage = s
	switch s {
	case Attack:
		v.rate = v.slope(1-v.level, v.env.Attack)
		if v.rate == 0 {
			v.level = 1
			v.enter(Decay)
		}
	case Decay:
		v.rate = -v.slope(1-v.env.Sustain, v.env.Decay)
		if v.rate == 0 {
			v.level = v.env.Sustain
			v.stage = Sustain
		}
	case Sustain:
		v.rate = 0
	case Release:
		v.rate = -v.slope(v.level, v.env.Release)
		if v.rate == 0 {
			v.level = 0
			v.stage = Idle
		}
	}
}

// slope returns the per-frame change that covers distance in the given
// number of seconds; zero if the stage is instant or there is nothing to
// cover.
func (v *Voice) slope(distance, seconds float64) float64 {
	frames := math.Round(seconds * v.sampleRate)
	if frames < 1 || distance <= 0 {
		return 0
	}
	return distance / frames
}
