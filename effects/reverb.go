package effects

import (
	"math"

	"github.com/trancebox/trancebox"
)

type (
	// Reverb is a Schroeder-Moorer reverb: eight parallel damped comb
	// filters followed by four allpass filters per channel, with the comb
	// feedback chosen so that the tail decays by 60 dB in the decay time.
	Reverb struct {
		Decay  *trancebox.Param
		Mix    *trancebox.Param
		Active *trancebox.Param

		sampleRate float64
		combs      [2][len(combTuning)]comb
		allpasses  [2][len(allpassTuning)]allpass
		decay      Ramp
		mix        Ramp
		computed   float64
	}

	comb struct {
		buf      []float32
		pos      int
		feedback float32
		store    float32
	}

	allpass struct {
		buf []float32
		pos int
	}
)

// delay line lengths in samples at 44100 Hz
var combTuning = [...]int{1116, 1188, 1277, 1356, 1422, 1491, 1557, 1617}
var allpassTuning = [...]int{556, 441, 341, 225}

const (
	stereoSpread    = 23
	reverbInputGain = 0.015
	reverbWetGain   = 3
	reverbDamp      = 0.2
	allpassFeedback = 0.5
)

func NewReverb(sampleRate float64, smoothing int) *Reverb {
	r := &Reverb{
		Decay:      trancebox.NewParam(trancebox.ParamSpec{Target: "reverb", Name: "decay", Min: 0.5, Max: 10, Unit: "s", Default: 3.0}),
		Mix:        trancebox.NewParam(trancebox.ParamSpec{Target: "reverb", Name: "mix", Min: 0, Max: 1, Default: 0.3}),
		Active:     trancebox.NewParam(trancebox.ParamSpec{Target: "reverb", Name: "active", Kind: trancebox.BoolParam, Default: true}),
		sampleRate: sampleRate,
		decay:      NewRamp(0, smoothing),
		mix:        NewRamp(0, smoothing),
	}
	scale := sampleRate / 44100
	for ch := range 2 {
		for i, l := range combTuning {
			r.combs[ch][i].buf = make([]float32, max(int(float64(l+ch*stereoSpread)*scale), 1))
		}
		for i, l := range allpassTuning {
			r.allpasses[ch][i].buf = make([]float32, max(int(float64(l+ch*stereoSpread)*scale), 1))
		}
	}
	r.decay.Jump(r.Decay.Load())
	r.mix.Jump(r.wetTarget())
	r.setFeedback(r.decay.Value)
	return r
}

func (r *Reverb) Name() string { return "reverb" }

func (r *Reverb) Params() []*trancebox.Param {
	return []*trancebox.Param{r.Decay, r.Mix, r.Active}
}

func (r *Reverb) Process(buf trancebox.AudioBuffer) {
	r.decay.Set(r.Decay.Load())
	r.mix.Set(r.wetTarget())
	// the decay glides once per block; the comb gains change in tiny steps
	if d := r.decay.Skip(len(buf)); d != r.computed {
		r.setFeedback(d)
	}
	for i := range buf {
		mix := float32(r.mix.Next())
		in := (buf[i][0] + buf[i][1]) * reverbInputGain
		for ch := range 2 {
			var wet float32
			for c := range r.combs[ch] {
				wet += r.combs[ch][c].process(in)
			}
			for a := range r.allpasses[ch] {
				wet = r.allpasses[ch][a].process(wet)
			}
			buf[i][ch] = buf[i][ch]*(1-mix) + wet*reverbWetGain*mix
		}
	}
}

func (r *Reverb) Reset() {
	for ch := range 2 {
		for c := range r.combs[ch] {
			clear(r.combs[ch][c].buf)
			r.combs[ch][c].store = 0
		}
		for a := range r.allpasses[ch] {
			clear(r.allpasses[ch][a].buf)
		}
	}
}

func (r *Reverb) setFeedback(decay float64) {
	for ch := range 2 {
		for c := range r.combs[ch] {
			l := float64(len(r.combs[ch][c].buf))
			r.combs[ch][c].feedback = float32(math.Pow(10, -3*l/(decay*r.sampleRate)))
		}
	}
	r.computed = decay
}

func (r *Reverb) wetTarget() float64 {
	if !r.Active.Bool() {
		return 0
	}
	return r.Mix.Load()
}

func (c *comb) process(x float32) float32 {
	y := c.buf[c.pos]
	c.store = y*(1-reverbDamp) + c.store*reverbDamp
	c.buf[c.pos] = x + c.store*c.feedback
	c.pos++
	if c.pos >= len(c.buf) {
		c.pos = 0
	}
	return y
}

func (a *allpass) process(x float32) float32 {
	b := a.buf[a.pos]
	a.buf[a.pos] = x + b*allpassFeedback
	a.pos++
	if a.pos >= len(a.buf) {
		a.pos = 0
	}
	return b - x
}
