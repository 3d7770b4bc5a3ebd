package sequencer

import (
	"fmt"
	"math"
	"sync/atomic"

	"github.com/trancebox/trancebox"
	"github.com/trancebox/trancebox/synth"
)

type (
	// Track plays a Pattern through a voice pool. The step index belongs to
	// the audio context; the activation flag and the volume are parameters
	// that can be changed from anywhere.
	Track struct {
		name    string
		pattern trancebox.Pattern
		pool    *synth.Pool
		active  *trancebox.Param
		volume  *trancebox.Param
		params  []*trancebox.Param

		index  int
		last   atomic.Int32
		steals int64
	}

	// TrackSpec is everything needed to build a Track.
	TrackSpec struct {
		Name       string
		Instrument synth.Instrument
		Pattern    trancebox.Pattern
		// Volume describes the volume parameter, in dB.
		Volume trancebox.ParamSpec
	}
)

// NewTrack validates the pattern and builds the track and its voice pool.
// The Volume option of opts is replaced by the track's volume parameter.
func NewTrack(spec TrackSpec, opts synth.PoolOptions) (*Track, error) {
	if err := spec.Pattern.Validate(); err != nil {
		return nil, fmt.Errorf("track %s: %w", spec.Name, err)
	}
	t := &Track{
		name:    spec.Name,
		pattern: spec.Pattern,
		active: trancebox.NewParam(trancebox.ParamSpec{
			Target:  spec.Name,
			Name:    "active",
			Kind:    trancebox.BoolParam,
			Default: true,
		}),
		volume: trancebox.NewParam(spec.Volume),
	}
	opts.Volume = &t.volume.Cell
	t.pool = synth.NewPool(spec.Instrument, opts)
	t.params = []*trancebox.Param{t.active, t.volume}
	if p, ok := spec.Instrument.(interface{ Params() []*trancebox.Param }); ok {
		t.params = append(t.params, p.Params()...)
	}
	t.last.Store(-1)
	return t, nil
}

func (t *Track) Name() string               { return t.name }
func (t *Track) Pattern() trancebox.Pattern { return t.pattern }
func (t *Track) Pool() *synth.Pool          { return t.pool }

// Params returns the parameters of the track: active, volume and whatever
// the instrument adds.
func (t *Track) Params() []*trancebox.Param { return t.params }

// SetActive arms or disarms the track. A disarmed track keeps advancing
// through its pattern silently, so it stays in phase.
func (t *Track) SetActive(active bool) {
	t.active.Store(boolCell(active))
}

func (t *Track) Active() bool { return t.active.Bool() }

// SetVolume sets the track volume in dB.
func (t *Track) SetVolume(db float64) error {
	return t.volume.Set(db)
}

func (t *Track) Volume() float64 { return t.volume.Load() }

// Step returns the index of the step scheduled last, or -1 if the track has
// not been advanced since it was reset.
func (t *Track) Step() int { return int(t.last.Load()) }

func (t *Track) StepTicks() int { return t.pattern.Division.Ticks() }

// Advance consumes the current step, triggering its notes at the boundary
// frame if the track is active.
func (t *Track) Advance(b Boundary) {
	i := t.index
	t.index = (t.index + 1) % len(t.pattern.Steps)
	t.last.Store(int32(i))
	if !t.active.Bool() {
		return
	}
	step := t.pattern.At(i)
	if step.Kind == trancebox.Empty {
		return
	}
	t.pool.Trigger(synth.Event{
		Pitches:    step.Pitches,
		Velocity:   step.Velocity,
		Gate:       int64(math.Round(float64(t.pattern.Gate.Ticks()) * b.FramesPerTick)),
		At:         b.At,
		Generation: b.Generation,
	})
}

// Reset rewinds the track to its first step.
func (t *Track) Reset() {
	t.index = 0
	t.last.Store(-1)
}

// newSteals returns how many voices the pool stole since the last call.
// Audio context only.
func (t *Track) newSteals() int64 {
	s := t.pool.Steals()
	d := s - t.steals
	t.steals = s
	return d
}

func boolCell(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
