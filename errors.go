package trancebox

import "errors"

var (
	// ErrOutOfRange is returned when a parameter value lies outside the
	// declared range of the parameter. The previous value stays in effect.
	ErrOutOfRange = errors.New("parameter out of range")
	// ErrUnknownParameter is returned for a target or name that does not exist.
	ErrUnknownParameter = errors.New("unknown parameter")
	// ErrDeviceUnavailable is returned when the audio output cannot be acquired.
	ErrDeviceUnavailable = errors.New("audio device unavailable")
	// ErrVoiceAllocationExhausted is reported when a voice pool runs out of
	// voices and has to steal one.
	ErrVoiceAllocationExhausted = errors.New("voice allocation exhausted")
	// ErrInvalidState is returned for operations the engine cannot perform in
	// its current state, e.g. after it has been closed.
	ErrInvalidState = errors.New("invalid state")
	// ErrInvalidPattern is returned when a pattern cannot be constructed.
	ErrInvalidPattern = errors.New("invalid pattern")
)
