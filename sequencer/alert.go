package sequencer

import (
	"fmt"

	"github.com/trancebox/trancebox"
)

type (
	// Alert is something the audio context wants the operator to know about.
	// It holds no formatted text, so the audio context can build one without
	// allocating; the message is formatted by whoever logs it.
	Alert struct {
		Name     string
		Priority AlertPriority
		Track    string
		Count    int64
		Err      error
	}

	AlertPriority int
)

const (
	Info AlertPriority = iota
	Warning
	Error
)

func (p AlertPriority) String() string {
	switch p {
	case Info:
		return "info"
	case Warning:
		return "warning"
	case Error:
		return "error"
	}
	return fmt.Sprintf("priority(%d)", int(p))
}

// stealAlert reports that a track had to steal count voices since the last
// report.
func stealAlert(track string, count int64) Alert {
	return Alert{
		Name:     "VoiceAllocationExhausted",
		Priority: Warning,
		Track:    track,
		Count:    count,
		Err:      trancebox.ErrVoiceAllocationExhausted,
	}
}

func (a Alert) String() string {
	switch {
	case a.Track != "" && a.Err != nil:
		return fmt.Sprintf("%s: %s: %s (%d)", a.Priority, a.Track, a.Err, a.Count)
	case a.Err != nil:
		return fmt.Sprintf("%s: %s: %s", a.Priority, a.Name, a.Err)
	}
	return fmt.Sprintf("%s: %s", a.Priority, a.Name)
}
