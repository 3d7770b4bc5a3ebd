package effects

import (
	"github.com/trancebox/trancebox"
)

// Filter is the first node of the chain.
type Filter struct {
	Cutoff *trancebox.Param
	Type   *trancebox.Param
	Active *trancebox.Param

	sampleRate float64
	svf        [2]SVF
	cutoff     Ramp
	mix        Ramp
	computed   float64

	// a type change crossfades from prev to kind while morph goes 0 to 1
	kind, prev FilterType
	morph      Ramp
}

const filterQ = 0.707

func NewFilter(sampleRate float64, smoothing int) *Filter {
	f := &Filter{
		Cutoff:     trancebox.NewParam(trancebox.ParamSpec{Target: "filter", Name: "cutoff", Min: 200, Max: 10000, Unit: "Hz", Default: 5000.0}),
		Type:       trancebox.NewParam(trancebox.ParamSpec{Target: "filter", Name: "type", Kind: trancebox.EnumParam, Choices: FilterTypes, Default: "lowpass"}),
		Active:     trancebox.NewParam(trancebox.ParamSpec{Target: "filter", Name: "active", Kind: trancebox.BoolParam, Default: true}),
		sampleRate: sampleRate,
		cutoff:     NewRamp(5000, smoothing),
		mix:        NewRamp(1, smoothing),
		morph:      NewRamp(1, smoothing),
	}
	f.kind = FilterType(f.Type.Index())
	f.prev = f.kind
	f.cutoff.Jump(f.Cutoff.Load())
	f.mix.Jump(boolToFloat(f.Active.Bool()))
	f.setCoefficients(f.cutoff.Value)
	return f
}

func (f *Filter) Name() string { return "filter" }

func (f *Filter) Params() []*trancebox.Param {
	return []*trancebox.Param{f.Cutoff, f.Type, f.Active}
}

func (f *Filter) Process(buf trancebox.AudioBuffer) {
	f.cutoff.Set(f.Cutoff.Load())
	f.mix.Set(boolToFloat(f.Active.Bool()))
	if t := FilterType(f.Type.Index()); t != f.kind {
		f.prev, f.kind = f.kind, t
		f.morph.Jump(0)
		f.morph.Set(1)
	}
	for i := range buf {
		if c := f.cutoff.Next(); c != f.computed {
			f.setCoefficients(c)
		}
		mix := float32(f.mix.Next())
		morph := f.morph.Next()
		for ch := range 2 {
			dry := buf[i][ch]
			low, band, high := f.svf[ch].Outputs(float64(dry))
			w := f.kind.pick(low, band, high)
			if morph < 1 {
				old := f.prev.pick(low, band, high)
				w = old + morph*(w-old)
			}
			wet := float32(w)
			buf[i][ch] = dry + mix*(wet-dry)
		}
	}
}

func (f *Filter) Reset() {
	f.svf[0].Reset()
	f.svf[1].Reset()
}

func (f *Filter) setCoefficients(cutoff float64) {
	for ch := range f.svf {
		f.svf[ch].Set(cutoff, filterQ, f.sampleRate)
	}
	f.computed = cutoff
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
