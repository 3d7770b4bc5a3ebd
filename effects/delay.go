package effects

import (
	"github.com/trancebox/trancebox"
)

// MaxDelayTime is the longest delay time in seconds.
const MaxDelayTime = 1.0

// Delay is a stereo feedback delay. The read position is interpolated, so
// changing the time glides the pitch of the repeats instead of clicking.
type Delay struct {
	Time     *trancebox.Param
	Feedback *trancebox.Param
	Mix      *trancebox.Param
	Active   *trancebox.Param

	sampleRate float64
	line       trancebox.AudioBuffer
	pos        int
	time       Ramp
	feedback   Ramp
	mix        Ramp
}

func NewDelay(sampleRate float64, smoothing int) *Delay {
	d := &Delay{
		Time:       trancebox.NewParam(trancebox.ParamSpec{Target: "delay", Name: "time", Min: 0.1, Max: MaxDelayTime, Unit: "s", Default: 0.25}),
		Feedback:   trancebox.NewParam(trancebox.ParamSpec{Target: "delay", Name: "feedback", Min: 0, Max: 0.95, Default: 0.4}),
		Mix:        trancebox.NewParam(trancebox.ParamSpec{Target: "delay", Name: "mix", Min: 0, Max: 1, Default: 0.2}),
		Active:     trancebox.NewParam(trancebox.ParamSpec{Target: "delay", Name: "active", Kind: trancebox.BoolParam, Default: true}),
		sampleRate: sampleRate,
		line:       make(trancebox.AudioBuffer, int(MaxDelayTime*sampleRate)+2),
		time:       NewRamp(0, smoothing),
		feedback:   NewRamp(0, smoothing),
		mix:        NewRamp(0, smoothing),
	}
	d.time.Jump(d.Time.Load())
	d.feedback.Jump(d.Feedback.Load())
	d.mix.Jump(d.wetTarget())
	return d
}

func (d *Delay) Name() string { return "delay" }

func (d *Delay) Params() []*trancebox.Param {
	return []*trancebox.Param{d.Time, d.Feedback, d.Mix, d.Active}
}

func (d *Delay) Process(buf trancebox.AudioBuffer) {
	d.time.Set(d.Time.Load())
	d.feedback.Set(d.Feedback.Load())
	d.mix.Set(d.wetTarget())
	n := len(d.line)
	for i := range buf {
		r := float64(d.pos) - d.time.Next()*d.sampleRate
		if r < 0 {
			r += float64(n)
		}
		i0 := int(r)
		frac := float32(r - float64(i0))
		i1 := i0 + 1
		if i1 >= n {
			i1 -= n
		}
		fb := float32(d.feedback.Next())
		mix := float32(d.mix.Next())
		for ch := range 2 {
			delayed := d.line[i0][ch]*(1-frac) + d.line[i1][ch]*frac
			dry := buf[i][ch]
			d.line[d.pos][ch] = dry + fb*delayed
			buf[i][ch] = dry*(1-mix) + delayed*mix
		}
		d.pos++
		if d.pos >= n {
			d.pos = 0
		}
	}
}

func (d *Delay) Reset() {
	clear(d.line)
	d.pos = 0
}

func (d *Delay) wetTarget() float64 {
	if !d.Active.Bool() {
		return 0
	}
	return d.Mix.Load()
}
