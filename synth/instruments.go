package synth

import (
	"math"

	"github.com/trancebox/trancebox"
	"github.com/trancebox/trancebox/effects"
	"gitlab.com/gomidi/midi/v2"
)

type (
	// Instrument is one kind of track sound. Each kind knows its envelope,
	// how many voices it may play at once and how to build the oscillator of
	// a voice.
	Instrument interface {
		Name() string
		Envelope() trancebox.Envelope
		Polyphony() int
		DefaultPitch() midi.Note
		NewGenerator(sampleRate float64) Generator
	}

	// Generator is the signal source of one voice.
	Generator interface {
		// Start is called on every trigger. retrigger is true if the voice
		// was still sounding, in which case the phase should continue.
		Start(freq float64, retrigger bool)
		// Begin is called once before every rendered block.
		Begin()
		// Next returns the next sample; env is the current envelope level,
		// which some kinds use to sweep a filter.
		Next(env float32) float32
	}

	// Bass is a monophonic sawtooth through a lowpass filter that opens with
	// the envelope.
	Bass struct{}

	// Lead is a monophonic oscillator whose waveform can be switched while
	// playing.
	Lead struct {
		Waveform *trancebox.Param
	}

	// Pad plays sine chords, one voice per pitch.
	Pad struct {
		Voices int
	}

	// Arp is a short monophonic square pluck.
	Arp struct{}

	// Kick is a membrane sound: a sine whose pitch drops from four times the
	// note frequency to the note frequency.
	Kick struct{}

	// Hihat is a metallic sound made of inharmonic square partials through a
	// highpass filter.
	Hihat struct{}
)

func (Bass) Name() string { return "bass" }
func (Bass) Envelope() trancebox.Envelope {
	return trancebox.Envelope{Attack: 0.01, Decay: 0.2, Sustain: 0.3, Release: 0.8}
}
func (Bass) Polyphony() int          { return 1 }
func (Bass) DefaultPitch() midi.Note { return 33 } // A1
func (Bass) NewGenerator(sampleRate float64) Generator {
	return &bassGenerator{sampleRate: sampleRate}
}

type bassGenerator struct {
	osc        oscillator
	filter     effects.SVF
	sampleRate float64
	cutoff     float32
}

const (
	bassFilterBase    = 200
	bassFilterOctaves = 3
	bassFilterQ       = 1
)

func (g *bassGenerator) Start(freq float64, retrigger bool) {
	if !retrigger {
		g.osc.phase = 0
		g.filter.Reset()
	}
	g.osc.setFreq(freq, g.sampleRate)
}

func (g *bassGenerator) Begin() {}

func (g *bassGenerator) Next(env float32) float32 {
	if env != g.cutoff {
		g.cutoff = env
		g.filter.Set(bassFilterBase*math.Exp2(bassFilterOctaves*float64(env)), bassFilterQ, g.sampleRate)
	}
	return float32(g.filter.Process(float64(g.osc.next(trancebox.Sawtooth)), effects.Lowpass))
}

// NewLead returns a Lead with its own "lead.waveform" parameter, initially a
// sawtooth.
func NewLead() *Lead {
	return &Lead{Waveform: trancebox.NewParam(trancebox.ParamSpec{
		Target:  "lead",
		Name:    "waveform",
		Kind:    trancebox.EnumParam,
		Choices: trancebox.Waveforms,
		Default: "sawtooth",
	})}
}

// Params returns the parameters the lead adds to its track.
func (l *Lead) Params() []*trancebox.Param {
	if l.Waveform == nil {
		return nil
	}
	return []*trancebox.Param{l.Waveform}
}

func (l *Lead) Name() string { return "lead" }
func (l *Lead) Envelope() trancebox.Envelope {
	return trancebox.Envelope{Attack: 0.005, Decay: 0.1, Sustain: 0.3, Release: 1}
}
func (l *Lead) Polyphony() int          { return 1 }
func (l *Lead) DefaultPitch() midi.Note { return 64 } // E4
func (l *Lead) NewGenerator(sampleRate float64) Generator {
	g := &waveGenerator{
		sampleRate: sampleRate,
		waveform:   l.Waveform,
		fadeLen:    max(int(waveformFade*sampleRate), 1),
	}
	if l.Waveform != nil {
		g.shape = trancebox.Waveform(l.Waveform.Index())
	}
	return g
}

// waveformFade is the crossfade time in seconds when the waveform parameter
// changes under a sounding note.
const waveformFade = 0.01

// waveGenerator plays a plain waveform. If waveform is set, the shape is
// read from it at the start of every block and a change crossfades from the
// old shape to the new one.
type waveGenerator struct {
	osc        oscillator
	sampleRate float64
	shape      trancebox.Waveform
	waveform   *trancebox.Param

	prev          trancebox.Waveform
	fade, fadeLen int
}

func (g *waveGenerator) Start(freq float64, retrigger bool) {
	if !retrigger {
		g.osc.phase = 0
	}
	g.osc.setFreq(freq, g.sampleRate)
}

func (g *waveGenerator) Begin() {
	if g.waveform == nil {
		return
	}
	if w := trancebox.Waveform(g.waveform.Index()); w != g.shape {
		// a change during a fade restarts it from the shape being faded in
		g.prev, g.shape = g.shape, w
		g.fade = g.fadeLen
	}
}

func (g *waveGenerator) Next(float32) float32 {
	v := g.osc.value(g.shape)
	if g.fade > 0 {
		w := float32(g.fade) / float32(g.fadeLen)
		v += w * (g.osc.value(g.prev) - v)
		g.fade--
	}
	g.osc.advance()
	return v
}

func (p Pad) Name() string { return "pad" }
func (p Pad) Envelope() trancebox.Envelope {
	return trancebox.Envelope{Attack: 0.8, Decay: 0.2, Sustain: 0.7, Release: 2}
}
func (p Pad) Polyphony() int          { return max(p.Voices, 1) }
func (p Pad) DefaultPitch() midi.Note { return 45 } // A2
func (p Pad) NewGenerator(sampleRate float64) Generator {
	return &waveGenerator{sampleRate: sampleRate, shape: trancebox.Sine}
}

func (Arp) Name() string { return "arp" }
func (Arp) Envelope() trancebox.Envelope {
	return trancebox.Envelope{Attack: 0.001, Decay: 0.1, Sustain: 0, Release: 0.1}
}
func (Arp) Polyphony() int          { return 1 }
func (Arp) DefaultPitch() midi.Note { return 57 } // A3
func (Arp) NewGenerator(sampleRate float64) Generator {
	return &waveGenerator{sampleRate: sampleRate, shape: trancebox.Square}
}

func (Kick) Name() string { return "kick" }
func (Kick) Envelope() trancebox.Envelope {
	return trancebox.Envelope{Attack: 0.001, Decay: 0.4, Sustain: 0.01, Release: 0.4}
}
func (Kick) Polyphony() int          { return 1 }
func (Kick) DefaultPitch() midi.Note { return 24 } // C1
func (Kick) NewGenerator(sampleRate float64) Generator {
	return &kickGenerator{sampleRate: sampleRate}
}

const (
	kickPitchDecay = 0.05
	kickOctaves    = 4
)

type kickGenerator struct {
	osc        oscillator
	sampleRate float64
	freq       float64
	target     float64
	drop       float64 // per-frame frequency ratio during the sweep
}

func (g *kickGenerator) Start(freq float64, retrigger bool) {
	g.osc.phase = 0
	g.target = freq
	g.freq = freq * kickOctaves
	g.drop = math.Pow(1.0/kickOctaves, 1/(kickPitchDecay*g.sampleRate))
	g.osc.setFreq(g.freq, g.sampleRate)
}

func (g *kickGenerator) Begin() {}

func (g *kickGenerator) Next(float32) float32 {
	if g.freq > g.target {
		g.freq = max(g.freq*g.drop, g.target)
		g.osc.setFreq(g.freq, g.sampleRate)
	}
	return g.osc.next(trancebox.Sine)
}

func (Hihat) Name() string { return "hihat" }
func (Hihat) Envelope() trancebox.Envelope {
	return trancebox.Envelope{Attack: 0.001, Decay: 0.1, Sustain: 0, Release: 0.01}
}
func (Hihat) Polyphony() int          { return 1 }
func (Hihat) DefaultPitch() midi.Note { return 55 } // ~200 Hz base of the partials
func (Hihat) NewGenerator(sampleRate float64) Generator {
	return &hihatGenerator{sampleRate: sampleRate, noise: 0x9e3779b9}
}

// ratios of the six partials of a struck metal plate
var metalRatios = [6]float64{1, 1.483, 1.932, 2.546, 2.630, 3.897}

const (
	hihatHarmonicity = 5.1
	hihatModIndex    = 32
	hihatResonance   = 4000
	hihatOctaves     = 1.5
	hihatNoise       = 0.2
)

type hihatGenerator struct {
	carriers   [6]oscillator
	modulators [6]oscillator
	filter     effects.SVF
	noise      noise
	sampleRate float64
	cutoff     float32
}

func (g *hihatGenerator) Start(freq float64, retrigger bool) {
	for i, r := range metalRatios {
		g.carriers[i].phase = 0
		g.modulators[i].phase = 0
		g.carriers[i].setFreq(freq*r, g.sampleRate)
		g.modulators[i].setFreq(freq*r*hihatHarmonicity, g.sampleRate)
	}
	g.filter.Reset()
	g.cutoff = -1
}

func (g *hihatGenerator) Begin() {}

func (g *hihatGenerator) Next(env float32) float32 {
	if env != g.cutoff {
		g.cutoff = env
		g.filter.Set(hihatResonance*math.Exp2(hihatOctaves*float64(env)), 1, g.sampleRate)
	}
	var sum float64
	for i := range g.carriers {
		m := float64(g.modulators[i].next(trancebox.Square))
		// phase modulation: shift the carrier by a fraction of a cycle
		c := &g.carriers[i]
		saved := c.phase
		c.phase = math.Mod(c.phase+hihatModIndex*m/(2*math.Pi)+8, 1)
		sum += float64(c.next(trancebox.Square))
		c.phase = saved + c.inc
		if c.phase >= 1 {
			c.phase -= 1
		}
	}
	x := sum/6 + hihatNoise*float64(g.noise.next())
	return float32(g.filter.Process(x, effects.Highpass))
}
