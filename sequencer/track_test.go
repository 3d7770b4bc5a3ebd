package sequencer_test

import (
	"errors"
	"testing"

	"github.com/trancebox/trancebox"
	"github.com/trancebox/trancebox/sequencer"
	"github.com/trancebox/trancebox/synth"
)

func newKickTrack(t *testing.T, steps ...string) *sequencer.Track {
	t.Helper()
	pattern, err := trancebox.ParsePattern(trancebox.Quarter, trancebox.Eighth, 24, steps...)
	if err != nil {
		t.Fatalf("ParsePattern: %v", err)
	}
	track, err := sequencer.NewTrack(sequencer.TrackSpec{
		Name:       "kick",
		Instrument: synth.Kick{},
		Pattern:    pattern,
		Volume:     trancebox.ParamSpec{Target: "kick", Name: "volume", Min: -30, Max: 0, Default: -8.0},
	}, synth.PoolOptions{SampleRate: sampleRate, BlockSize: 256})
	if err != nil {
		t.Fatalf("NewTrack: %v", err)
	}
	return track
}

func TestTrackKeepsPhaseWhileInactive(t *testing.T) {
	track := newKickTrack(t, "x", "-", "x", "x")
	boundary := func(i int) sequencer.Boundary {
		return sequencer.Boundary{At: int64(i) * 1000, Tick: int64(i) * 4, FramesPerTick: 100, Generation: 1}
	}
	if track.Step() != -1 {
		t.Fatalf("new track is at step %d, want -1", track.Step())
	}
	track.Advance(boundary(0))
	if got := track.Pool().Pending(); got != 1 {
		t.Fatalf("after the first step %d events are pending, want 1", got)
	}
	track.SetActive(false)
	track.Advance(boundary(1))
	track.Advance(boundary(2))
	if got := track.Pool().Pending(); got != 1 {
		t.Errorf("an inactive track queued %d events", got-1)
	}
	if got := track.Step(); got != 2 {
		t.Errorf("inactive track is at step %d, want 2", got)
	}
	track.SetActive(true)
	track.Advance(boundary(3))
	if got := track.Pool().Pending(); got != 2 {
		t.Errorf("after reactivating, %d events are pending, want 2", got)
	}
	track.Advance(boundary(4))
	if got := track.Step(); got != 0 {
		t.Errorf("track did not wrap around: at step %d, want 0", got)
	}
	track.Reset()
	if got := track.Step(); got != -1 {
		t.Errorf("after Reset the track is at step %d, want -1", got)
	}
}

func TestTrackRejectsInvalidPattern(t *testing.T) {
	_, err := sequencer.NewTrack(sequencer.TrackSpec{
		Name:       "kick",
		Instrument: synth.Kick{},
		Volume:     trancebox.ParamSpec{Target: "kick", Name: "volume", Min: -30, Max: 0, Default: -8.0},
	}, synth.PoolOptions{SampleRate: sampleRate, BlockSize: 256})
	if !errors.Is(err, trancebox.ErrInvalidPattern) {
		t.Fatalf("NewTrack with no steps: got %v, want ErrInvalidPattern", err)
	}
}

func TestDefaultTracks(t *testing.T) {
	specs := sequencer.DefaultTracks(16)
	if len(specs) != len(sequencer.TrackNames) {
		t.Fatalf("got %d default tracks, want %d", len(specs), len(sequencer.TrackNames))
	}
	for i, spec := range specs {
		if spec.Name != sequencer.TrackNames[i] {
			t.Errorf("track %d is %q, want %q", i, spec.Name, sequencer.TrackNames[i])
		}
		if err := spec.Pattern.Validate(); err != nil {
			t.Errorf("track %s: %v", spec.Name, err)
		}
		if spec.Instrument.Name() != spec.Name {
			t.Errorf("track %s plays instrument %s", spec.Name, spec.Instrument.Name())
		}
	}
	pad := specs[2]
	if pad.Pattern.Steps[0].Kind != trancebox.Chord || len(pad.Pattern.Steps[0].Pitches) != 3 {
		t.Errorf("pad starts with %v, want a three note chord", pad.Pattern.Steps[0])
	}
}

func TestOverridePattern(t *testing.T) {
	specs := sequencer.DefaultTracks(16)
	err := sequencer.OverridePattern(specs, "hihat", trancebox.PatternConfig{
		Division: trancebox.Sixteenth,
		Gate:     trancebox.Sixteenth,
		Steps:    []string{"x", "-", "x@0.5", "-"},
	})
	if err != nil {
		t.Fatalf("OverridePattern: %v", err)
	}
	p := specs[5].Pattern
	if p.Division != trancebox.Sixteenth || len(p.Steps) != 4 {
		t.Errorf("hihat pattern is %v with %d steps", p.Division, len(p.Steps))
	}
	if got := p.Steps[0].Pitches[0]; got != (synth.Hihat{}).DefaultPitch() {
		t.Errorf("hit plays pitch %d, want the hihat's default pitch", got)
	}
	err = sequencer.OverridePattern(specs, "cowbell", trancebox.PatternConfig{Division: trancebox.Quarter, Gate: trancebox.Quarter, Steps: []string{"x"}})
	if !errors.Is(err, trancebox.ErrInvalidPattern) {
		t.Errorf("override of an unknown track: got %v, want ErrInvalidPattern", err)
	}
	err = sequencer.OverridePattern(specs, "bass", trancebox.PatternConfig{Division: trancebox.Quarter, Gate: trancebox.Quarter, Steps: []string{"H9"}})
	if !errors.Is(err, trancebox.ErrInvalidPattern) {
		t.Errorf("override with a bad note: got %v, want ErrInvalidPattern", err)
	}
}
