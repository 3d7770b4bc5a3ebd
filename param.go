package trancebox

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync/atomic"
)

type (
	// ParamKind tells how the value of a parameter is interpreted.
	ParamKind int

	// ParamSpec describes one parameter of the control surface. Float
	// parameters have a closed range [Min, Max]; enum parameters take one of
	// Choices; booleans take true or false.
	ParamSpec struct {
		Target  string
		Name    string
		Kind    ParamKind
		Min     float64
		Max     float64
		Unit    string
		Choices []string
		Default any
	}

	// Cell is a float64 that can be stored from the control goroutine and
	// loaded from the audio goroutine without locks.
	Cell struct {
		bits atomic.Uint64
	}

	// Param is a parameter together with the cell holding its current value.
	// Booleans are stored as 0 or 1, enums as the index of the choice.
	Param struct {
		Spec ParamSpec
		Cell
	}

	// ParamError is returned when setting a parameter fails.
	ParamError struct {
		Path  string
		Value any
		Spec  *ParamSpec
		Err   error
	}
)

const (
	FloatParam ParamKind = iota
	BoolParam
	EnumParam
)

func (c *Cell) Load() float64   { return math.Float64frombits(c.bits.Load()) }
func (c *Cell) Store(v float64) { c.bits.Store(math.Float64bits(v)) }

// Path returns the dotted name of the parameter, e.g. "filter.cutoff".
func (s *ParamSpec) Path() string {
	return s.Target + "." + s.Name
}

// Normalize converts v to the float64 stored in the parameter cell. Floats
// accept any Go number type; booleans accept bool; enums accept the choice
// name or its index. Values outside the declared range fail with an error
// wrapping ErrOutOfRange.
func (s *ParamSpec) Normalize(v any) (float64, error) {
	switch s.Kind {
	case BoolParam:
		b, ok := v.(bool)
		if !ok {
			return 0, s.errorf(v, "expected a bool, got %T", v)
		}
		if b {
			return 1, nil
		}
		return 0, nil
	case EnumParam:
		switch c := v.(type) {
		case string:
			for i, name := range s.Choices {
				if name == c {
					return float64(i), nil
				}
			}
			return 0, &ParamError{Path: s.Path(), Value: v, Spec: s, Err: ErrOutOfRange}
		case fmt.Stringer:
			return s.Normalize(c.String())
		}
		f, ok := toFloat(v)
		if !ok {
			return 0, s.errorf(v, "expected a choice name, got %T", v)
		}
		if f != math.Trunc(f) || f < 0 || int(f) >= len(s.Choices) {
			return 0, &ParamError{Path: s.Path(), Value: v, Spec: s, Err: ErrOutOfRange}
		}
		return f, nil
	default:
		f, ok := toFloat(v)
		if !ok {
			return 0, s.errorf(v, "expected a number, got %T", v)
		}
		if math.IsNaN(f) || f < s.Min || f > s.Max {
			return 0, &ParamError{Path: s.Path(), Value: v, Spec: s, Err: ErrOutOfRange}
		}
		return f, nil
	}
}

// Value converts a cell value back to the natural Go type of the parameter:
// float64, bool or the choice name.
func (s *ParamSpec) Value(x float64) any {
	switch s.Kind {
	case BoolParam:
		return x != 0
	case EnumParam:
		i := int(x)
		if i < 0 || i >= len(s.Choices) {
			return ""
		}
		return s.Choices[i]
	default:
		return x
	}
}

// Parse converts the textual form of a value, as typed on a command line, to
// the cell value.
func (s *ParamSpec) Parse(text string) (float64, error) {
	text = strings.TrimSpace(text)
	switch s.Kind {
	case BoolParam:
		b, err := strconv.ParseBool(text)
		if err != nil {
			switch strings.ToLower(text) {
			case "on", "yes":
				b = true
			case "off", "no":
				b = false
			default:
				return 0, s.errorf(text, "not a boolean")
			}
		}
		return s.Normalize(b)
	case EnumParam:
		return s.Normalize(text)
	default:
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return 0, s.errorf(text, "not a number")
		}
		return s.Normalize(f)
	}
}

// Range returns a human readable description of the accepted values.
func (s *ParamSpec) Range() string {
	switch s.Kind {
	case BoolParam:
		return "true|false"
	case EnumParam:
		return strings.Join(s.Choices, "|")
	default:
		return fmt.Sprintf("[%v, %v]", s.Min, s.Max)
	}
}

func (s *ParamSpec) errorf(v any, format string, args ...any) error {
	return &ParamError{Path: s.Path(), Value: v, Spec: s, Err: fmt.Errorf(format, args...)}
}

// NewParam returns a parameter whose cell holds the default value. It panics
// if the default itself is invalid, as that is a programming error.
func NewParam(spec ParamSpec) *Param {
	p := &Param{Spec: spec}
	x, err := p.Spec.Normalize(spec.Default)
	if err != nil {
		panic(fmt.Sprintf("parameter %s: invalid default: %v", spec.Path(), err))
	}
	p.Store(x)
	return p
}

// Set validates v and stores it. On error the previous value is kept.
func (p *Param) Set(v any) error {
	x, err := p.Spec.Normalize(v)
	if err != nil {
		return err
	}
	p.Store(x)
	return nil
}

// SetString parses text and stores it. On error the previous value is kept.
func (p *Param) SetString(text string) error {
	x, err := p.Spec.Parse(text)
	if err != nil {
		return err
	}
	p.Store(x)
	return nil
}

// Get returns the current value in its natural Go type.
func (p *Param) Get() any {
	return p.Spec.Value(p.Load())
}

// Bool returns the current value of a boolean parameter.
func (p *Param) Bool() bool {
	return p.Load() != 0
}

// Index returns the current choice index of an enum parameter.
func (p *Param) Index() int {
	return int(p.Load())
}

func (e *ParamError) Error() string {
	if e.Err == ErrOutOfRange && e.Spec != nil {
		return fmt.Sprintf("%s: %v not in %s: %v", e.Path, e.Value, e.Spec.Range(), e.Err)
	}
	return fmt.Sprintf("%s: %v: %v", e.Path, e.Value, e.Err)
}

func (e *ParamError) Unwrap() error { return e.Err }

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}
