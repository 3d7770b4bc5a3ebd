package trancebox

import (
	"fmt"
	"strconv"
	"strings"

	"gitlab.com/gomidi/midi/v2"
	"gopkg.in/yaml.v3"
)

type (
	// Division is a note length expressed in grid ticks. The grid has
	// Resolution ticks per beat, so every Division is a whole number of ticks
	// and the shorter ones divide the beat evenly.
	Division int

	// StepKind tells what a Step emits when it is reached.
	StepKind int

	// Step is one cell of a Pattern.
	Step struct {
		Kind     StepKind
		Pitches  []midi.Note
		Velocity float32
	}

	// Pattern is a fixed, cyclic sequence of Steps. Each step lasts Division
	// and every note it triggers is held for Gate.
	Pattern struct {
		Steps    []Step
		Division Division
		Gate     Division
	}
)

// Resolution is the number of grid ticks in one beat (quarter note).
const Resolution = 4

const (
	Sixteenth Division = 1
	Eighth    Division = 2
	Quarter   Division = 4
	Half      Division = 8
	Whole     Division = 16
)

const (
	Empty StepKind = iota
	Single
	Chord
)

var divisionNames = map[Division]string{
	Sixteenth: "16n",
	Eighth:    "8n",
	Quarter:   "4n",
	Half:      "2n",
	Whole:     "1n",
}

// ParseDivision parses the usual note length names "16n", "8n", "4n", "2n"
// and "1n".
func ParseDivision(s string) (Division, error) {
	for d, name := range divisionNames {
		if name == s {
			return d, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown division %q", ErrInvalidPattern, s)
}

func (d Division) String() string {
	if name, ok := divisionNames[d]; ok {
		return name
	}
	return fmt.Sprintf("Division(%d)", int(d))
}

// Valid reports whether d is one of the supported note lengths.
func (d Division) Valid() bool {
	_, ok := divisionNames[d]
	return ok
}

// Ticks returns the length of the division in grid ticks.
func (d Division) Ticks() int {
	return int(d)
}

// Seconds returns the length of the division at the given tempo.
func (d Division) Seconds(bpm float64) float64 {
	return 60 / bpm * float64(d) / Resolution
}

func (d *Division) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseDivision(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Division) MarshalYAML() (any, error) {
	return d.String(), nil
}

// ParseStep parses the textual form of a step: "-" or "" for an empty step,
// a note name like "A1" for a single note, several note names separated by
// spaces or '+' for a chord and "x" for a hit at the default pitch. An
// optional "@velocity" suffix sets the velocity, which defaults to 1.
func ParseStep(s string, def midi.Note) (Step, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "-" {
		return Step{}, nil
	}
	velocity := float32(1)
	if i := strings.LastIndexByte(s, '@'); i >= 0 {
		v, err := strconv.ParseFloat(s[i+1:], 32)
		if err != nil || v < 0 || v > 1 {
			return Step{}, fmt.Errorf("%w: velocity in %q must be a number in [0, 1]", ErrInvalidPattern, s)
		}
		velocity = float32(v)
		s = strings.TrimSpace(s[:i])
	}
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ' ' || r == '+' || r == '\t' })
	if len(fields) == 0 {
		return Step{}, fmt.Errorf("%w: step %q has a velocity but no notes", ErrInvalidPattern, s)
	}
	pitches := make([]midi.Note, 0, len(fields))
	for _, f := range fields {
		if f == "x" || f == "X" {
			pitches = append(pitches, def)
			continue
		}
		p, err := ParsePitch(f)
		if err != nil {
			return Step{}, fmt.Errorf("%w: %v", ErrInvalidPattern, err)
		}
		pitches = append(pitches, p)
	}
	kind := Single
	if len(pitches) > 1 {
		kind = Chord
	}
	return Step{Kind: kind, Pitches: pitches, Velocity: velocity}, nil
}

// String formats the step back to its textual form.
func (s Step) String() string {
	if s.Kind == Empty {
		return "-"
	}
	names := make([]string, len(s.Pitches))
	for i, p := range s.Pitches {
		names[i] = PitchName(p)
	}
	ret := strings.Join(names, " ")
	if s.Velocity != 1 {
		ret += "@" + strconv.FormatFloat(float64(s.Velocity), 'g', -1, 32)
	}
	return ret
}

// NewPattern validates the steps and returns a Pattern.
func NewPattern(division, gate Division, steps ...Step) (Pattern, error) {
	p := Pattern{Steps: steps, Division: division, Gate: gate}
	if err := p.Validate(); err != nil {
		return Pattern{}, err
	}
	return p, nil
}

// ParsePattern parses every step with ParseStep and returns the Pattern.
func ParsePattern(division, gate Division, def midi.Note, steps ...string) (Pattern, error) {
	parsed := make([]Step, len(steps))
	for i, s := range steps {
		var err error
		if parsed[i], err = ParseStep(s, def); err != nil {
			return Pattern{}, fmt.Errorf("step %d: %w", i, err)
		}
	}
	return NewPattern(division, gate, parsed...)
}

// Validate checks the invariants the renderer relies on: a non-empty step
// list, valid divisions and steps whose kind matches their pitches.
func (p Pattern) Validate() error {
	if len(p.Steps) == 0 {
		return fmt.Errorf("%w: no steps", ErrInvalidPattern)
	}
	if !p.Division.Valid() {
		return fmt.Errorf("%w: step length %v does not divide the beat grid", ErrInvalidPattern, p.Division)
	}
	if !p.Gate.Valid() {
		return fmt.Errorf("%w: invalid gate length %v", ErrInvalidPattern, p.Gate)
	}
	for i, s := range p.Steps {
		if s.Velocity < 0 || s.Velocity > 1 {
			return fmt.Errorf("%w: step %d: velocity %v not in [0, 1]", ErrInvalidPattern, i, s.Velocity)
		}
		switch {
		case s.Kind == Empty && len(s.Pitches) != 0,
			s.Kind == Single && len(s.Pitches) != 1,
			s.Kind == Chord && len(s.Pitches) < 2,
			s.Kind > Chord || s.Kind < Empty:
			return fmt.Errorf("%w: step %d: kind %d with %d pitches", ErrInvalidPattern, i, s.Kind, len(s.Pitches))
		}
	}
	return nil
}

// At returns the step at index i, wrapping around the pattern length.
func (p Pattern) At(i int) Step {
	i %= len(p.Steps)
	if i < 0 {
		i += len(p.Steps)
	}
	return p.Steps[i]
}
