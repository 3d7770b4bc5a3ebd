package sequencer

import (
	"fmt"

	"github.com/trancebox/trancebox"
	"github.com/trancebox/trancebox/synth"
)

// TrackNames lists the tracks in registration order, which is also the
// order they are mixed in.
var TrackNames = []string{"bass", "lead", "pad", "arp", "kick", "hihat"}

// DefaultTracks returns the built-in six-track trance loop. padVoices is the
// polyphony of the pad.
func DefaultTracks(padVoices int) []TrackSpec {
	bass, lead, pad := synth.Bass{}, synth.NewLead(), synth.Pad{Voices: padVoices}
	arp, kick, hihat := synth.Arp{}, synth.Kick{}, synth.Hihat{}
	return []TrackSpec{
		{
			Name:       "bass",
			Instrument: bass,
			Pattern: mustPattern(bass, trancebox.Sixteenth, trancebox.Eighth,
				"A1", "A1", "-", "A1", "-", "A1", "A1", "-",
				"G1", "G1", "-", "G1", "-", "G1", "G1", "-"),
			Volume: volumeSpec("bass", -10, -30),
		},
		{
			Name:       "lead",
			Instrument: lead,
			Pattern: mustPattern(lead, trancebox.Eighth, trancebox.Quarter,
				"E4", "-", "D4", "-", "C4", "-", "D4", "-",
				"E4", "-", "G4", "-", "A4", "-", "G4", "-"),
			Volume: volumeSpec("lead", -15, -30),
		},
		{
			Name:       "pad",
			Instrument: pad,
			Pattern: mustPattern(pad, trancebox.Half, trancebox.Half,
				"A2 C3 E3", "-", "G2 B2 D3", "-", "F2 A2 C3", "-", "G2 B2 D3", "-"),
			Volume: volumeSpec("pad", -20, -40),
		},
		{
			Name:       "arp",
			Instrument: arp,
			Pattern: mustPattern(arp, trancebox.Sixteenth, trancebox.Sixteenth,
				"A3", "C4", "E4", "A4", "A3", "C4", "E4", "A4",
				"G3", "B3", "D4", "G4", "G3", "B3", "D4", "G4"),
			Volume: volumeSpec("arp", -18, -40),
		},
		{
			Name:       "kick",
			Instrument: kick,
			Pattern:    mustPattern(kick, trancebox.Quarter, trancebox.Eighth, "x", "x", "x", "x"),
			Volume:     volumeSpec("kick", -8, -30),
		},
		{
			Name:       "hihat",
			Instrument: hihat,
			Pattern: mustPattern(hihat, trancebox.Eighth, trancebox.Sixteenth,
				"x@0.3", "x@0.6", "x@0.3", "x@0.6", "x@0.3", "x@0.6", "x@0.3", "x@0.6"),
			Volume: volumeSpec("hihat", -12, -30),
		},
	}
}

// OverridePattern replaces the pattern of the named track with one parsed
// from c. Steps without an explicit pitch use the track's default pitch.
func OverridePattern(specs []TrackSpec, name string, c trancebox.PatternConfig) error {
	for i := range specs {
		if specs[i].Name != name {
			continue
		}
		p, err := trancebox.ParsePattern(c.Division, c.Gate, specs[i].Instrument.DefaultPitch(), c.Steps...)
		if err != nil {
			return fmt.Errorf("pattern %s: %w", name, err)
		}
		specs[i].Pattern = p
		return nil
	}
	return fmt.Errorf("pattern %s: no such track: %w", name, trancebox.ErrInvalidPattern)
}

func volumeSpec(track string, def, floor float64) trancebox.ParamSpec {
	return trancebox.ParamSpec{
		Target:  track,
		Name:    "volume",
		Kind:    trancebox.FloatParam,
		Min:     floor,
		Max:     0,
		Unit:    "dB",
		Default: def,
	}
}

func mustPattern(instrument synth.Instrument, division, gate trancebox.Division, steps ...string) trancebox.Pattern {
	p, err := trancebox.ParsePattern(division, gate, instrument.DefaultPitch(), steps...)
	if err != nil {
		panic(fmt.Sprintf("built-in pattern: %v", err))
	}
	return p
}
