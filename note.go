package trancebox

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"gitlab.com/gomidi/midi/v2"
)

var noteOffsets = map[byte]int{'C': 0, 'D': 2, 'E': 4, 'F': 5, 'G': 7, 'A': 9, 'B': 11}

// ParsePitch parses a note name in scientific pitch notation, e.g. "A1",
// "C#4" or "Bb2". C4 is MIDI note 60.
func ParsePitch(s string) (midi.Note, error) {
	if len(s) < 2 {
		return 0, fmt.Errorf("invalid note name %q", s)
	}
	offset, ok := noteOffsets[strings.ToUpper(s[:1])[0]]
	if !ok {
		return 0, fmt.Errorf("invalid note name %q", s)
	}
	rest := s[1:]
	switch {
	case strings.HasPrefix(rest, "#"):
		offset++
		rest = rest[1:]
	case strings.HasPrefix(rest, "b"):
		offset--
		rest = rest[1:]
	}
	octave, err := strconv.Atoi(rest)
	if err != nil {
		return 0, fmt.Errorf("invalid octave in note name %q", s)
	}
	n := (octave+1)*12 + offset
	if n < 0 || n > 127 {
		return 0, fmt.Errorf("note %q is outside the MIDI range", s)
	}
	return midi.Note(n), nil
}

// PitchName formats a note in scientific pitch notation, using flats.
// gomidi counts octaves from MIDI note 0, one higher than scientific pitch
// notation, so its octave is shifted down by one.
func PitchName(n midi.Note) string {
	return n.Name() + strconv.Itoa(int(n.Octave())-1)
}

// Frequency returns the equal temperament frequency of the note in Hz, with
// A4 = 440 Hz.
func Frequency(n midi.Note) float64 {
	return 440 * math.Exp2((float64(n)-69)/12)
}
