package trancebox_test

import (
	"errors"
	"testing"

	"github.com/trancebox/trancebox"
	"gitlab.com/gomidi/midi/v2"
)

func TestParsePitch(t *testing.T) {
	cases := []struct {
		name string
		want midi.Note
	}{
		{"C4", 60},
		{"A4", 69},
		{"A1", 33},
		{"G1", 31},
		{"C#4", 61},
		{"Bb2", 46},
		{"C-1", 0},
	}
	for _, c := range cases {
		got, err := trancebox.ParsePitch(c.name)
		if err != nil {
			t.Fatalf("ParsePitch(%q) failed: %v", c.name, err)
		}
		if got != c.want {
			t.Errorf("ParsePitch(%q) = %v, want %v", c.name, got, c.want)
		}
	}
	for _, bad := range []string{"", "H2", "A", "Ax", "G10"} {
		if _, err := trancebox.ParsePitch(bad); err == nil {
			t.Errorf("ParsePitch(%q) should have failed", bad)
		}
	}
}

func TestPitchNameRoundTrip(t *testing.T) {
	for n := 0; n < 128; n++ {
		name := trancebox.PitchName(midi.Note(n))
		got, err := trancebox.ParsePitch(name)
		if err != nil {
			t.Fatalf("ParsePitch(%q) failed: %v", name, err)
		}
		if int(got) != n {
			t.Fatalf("ParsePitch(PitchName(%d)) = %d", n, got)
		}
	}
}

func TestPitchName(t *testing.T) {
	cases := []struct {
		note midi.Note
		want string
	}{
		{0, "C-1"},
		{33, "A1"},
		{60, "C4"},
		{61, "Db4"},
		{70, "Bb4"},
		{127, "G9"},
	}
	for _, c := range cases {
		if got := trancebox.PitchName(c.note); got != c.want {
			t.Errorf("PitchName(%d) = %q, want %q", c.note, got, c.want)
		}
	}
}

func TestFrequency(t *testing.T) {
	if f := trancebox.Frequency(69); f != 440 {
		t.Errorf("A4 = %v Hz, want 440", f)
	}
	if f := trancebox.Frequency(33); f < 54.99 || f > 55.01 {
		t.Errorf("A1 = %v Hz, want 55", f)
	}
}

func TestParseStep(t *testing.T) {
	cases := []struct {
		text     string
		kind     trancebox.StepKind
		pitches  int
		velocity float32
	}{
		{"-", trancebox.Empty, 0, 0},
		{"", trancebox.Empty, 0, 0},
		{"A1", trancebox.Single, 1, 1},
		{"A2 C3 E3", trancebox.Chord, 3, 1},
		{"A2+C3+E3@0.5", trancebox.Chord, 3, 0.5},
		{"x@0.3", trancebox.Single, 1, 0.3},
	}
	for _, c := range cases {
		s, err := trancebox.ParseStep(c.text, 36)
		if err != nil {
			t.Fatalf("ParseStep(%q) failed: %v", c.text, err)
		}
		if s.Kind != c.kind || len(s.Pitches) != c.pitches || s.Velocity != c.velocity {
			t.Errorf("ParseStep(%q) = %+v, want kind %v with %d pitches at velocity %v", c.text, s, c.kind, c.pitches, c.velocity)
		}
	}
	s, _ := trancebox.ParseStep("x", 36)
	if s.Pitches[0] != 36 {
		t.Errorf("hit step should use the default pitch, got %v", s.Pitches[0])
	}
	for _, bad := range []string{"A1@2", "A1@-0.1", "@0.5", "Q3", "A1@loud"} {
		if _, err := trancebox.ParseStep(bad, 36); !errors.Is(err, trancebox.ErrInvalidPattern) {
			t.Errorf("ParseStep(%q) error = %v, want ErrInvalidPattern", bad, err)
		}
	}
}

func TestStepString(t *testing.T) {
	for _, text := range []string{"-", "A1", "A2 C3 E3", "C1@0.5"} {
		s, err := trancebox.ParseStep(text, 24)
		if err != nil {
			t.Fatalf("ParseStep(%q) failed: %v", text, err)
		}
		if got := s.String(); got != text {
			t.Errorf("ParseStep(%q).String() = %q", text, got)
		}
	}
}

func TestParsePattern(t *testing.T) {
	p, err := trancebox.ParsePattern(trancebox.Half, trancebox.Half, 0, "A2 C3 E3", "-", "G2 B2 D3", "-")
	if err != nil {
		t.Fatalf("ParsePattern failed: %v", err)
	}
	if len(p.Steps) != 4 {
		t.Fatalf("pattern has %d steps, want 4", len(p.Steps))
	}
	if p.At(4).Kind != trancebox.Chord || p.At(-1).Kind != trancebox.Empty {
		t.Errorf("At should wrap around the pattern length")
	}
	if _, err := trancebox.ParsePattern(trancebox.Quarter, trancebox.Eighth, 0); !errors.Is(err, trancebox.ErrInvalidPattern) {
		t.Errorf("empty pattern error = %v, want ErrInvalidPattern", err)
	}
	if _, err := trancebox.ParsePattern(trancebox.Division(3), trancebox.Eighth, 0, "x"); !errors.Is(err, trancebox.ErrInvalidPattern) {
		t.Errorf("pattern with a step of 3 ticks error = %v, want ErrInvalidPattern", err)
	}
}

func TestNewPatternRejectsInconsistentSteps(t *testing.T) {
	bad := []trancebox.Step{
		{Kind: trancebox.Empty, Pitches: []midi.Note{60}},
		{Kind: trancebox.Single},
		{Kind: trancebox.Chord, Pitches: []midi.Note{60}, Velocity: 1},
		{Kind: trancebox.Single, Pitches: []midi.Note{60}, Velocity: 1.5},
	}
	for _, s := range bad {
		if _, err := trancebox.NewPattern(trancebox.Sixteenth, trancebox.Sixteenth, s); !errors.Is(err, trancebox.ErrInvalidPattern) {
			t.Errorf("NewPattern(%+v) error = %v, want ErrInvalidPattern", s, err)
		}
	}
}

func TestDivision(t *testing.T) {
	for _, name := range []string{"16n", "8n", "4n", "2n", "1n"} {
		d, err := trancebox.ParseDivision(name)
		if err != nil {
			t.Fatalf("ParseDivision(%q) failed: %v", name, err)
		}
		if d.String() != name {
			t.Errorf("ParseDivision(%q).String() = %q", name, d.String())
		}
	}
	if got := trancebox.Quarter.Seconds(120); got != 0.5 {
		t.Errorf("quarter note at 120 BPM = %v s, want 0.5", got)
	}
	if got := trancebox.Sixteenth.Seconds(150); got != 0.1 {
		t.Errorf("sixteenth note at 150 BPM = %v s, want 0.1", got)
	}
}
