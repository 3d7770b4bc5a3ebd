package sequencer

import (
	"math"
	"sync/atomic"
	"time"

	"github.com/trancebox/trancebox"
)

type (
	// Stepper is anything the Transport notifies on the step boundaries of
	// its division. The Transport calls it from the audio context only.
	Stepper interface {
		// Advance is called on every boundary whose tick is a multiple of
		// StepTicks, before the boundary is reached.
		Advance(b Boundary)
		// StepTicks is the step length in grid ticks.
		StepTicks() int
		// Reset rewinds to the first step. It is called when the transport
		// starts.
		Reset()
	}

	// Boundary is one scheduled grid tick.
	Boundary struct {
		// At is the frame the boundary falls on.
		At int64
		// Tick counts grid ticks since the transport started.
		Tick int64
		// FramesPerTick is the tick length at the tempo the boundary was
		// scheduled with.
		FramesPerTick float64
		// Generation identifies the transport run the boundary belongs to.
		Generation uint64
	}

	// Transport is the master clock. Start and Stop may be called from any
	// goroutine; Tick is called by the audio context once per render block.
	//
	// Commands travel in a single atomic word: the low bit is the running
	// flag, and every Start or Stop increments the word, so its value also
	// serves as a generation counter.
	Transport struct {
		Tempo *trancebox.Param

		cmd      atomic.Uint64
		position atomic.Int64

		// owned by the audio context
		applied    uint64
		sampleRate float64
		lookahead  int64
		steppers   []Stepper
		origin     float64
		originTick int64
		next       int64
		bpm        float64
	}
)

// TempoSpec describes the tempo parameter.
var TempoSpec = trancebox.ParamSpec{
	Target:  "transport",
	Name:    "tempo",
	Kind:    trancebox.FloatParam,
	Min:     120,
	Max:     150,
	Unit:    "BPM",
	Default: 138.0,
}

// NewTransport returns a stopped transport. lookahead is how many frames
// past the end of the current block boundaries are scheduled.
func NewTransport(sampleRate int, lookahead int) *Transport {
	t := &Transport{
		Tempo:      trancebox.NewParam(TempoSpec),
		sampleRate: float64(sampleRate),
		lookahead:  int64(max(lookahead, 0)),
	}
	t.position.Store(-1)
	return t
}

// Register adds a stepper. Steppers are notified in the order they were
// registered. Register must not be called after audio has started.
func (t *Transport) Register(s Stepper) {
	t.steppers = append(t.steppers, s)
}

// Start transitions Stopped → Running. Time zero is the first frame of the
// next render block. It reports false if the transport was already running.
func (t *Transport) Start() bool {
	for {
		c := t.cmd.Load()
		if c&1 == 1 {
			return false
		}
		if t.cmd.CompareAndSwap(c, c+1) {
			return true
		}
	}
}

// Stop transitions Running → Stopped. Events already scheduled are
// cancelled as soon as Stop returns. It reports false if the transport was
// not running.
func (t *Transport) Stop() bool {
	for {
		c := t.cmd.Load()
		if c&1 == 0 {
			return false
		}
		if t.cmd.CompareAndSwap(c, c+1) {
			return true
		}
	}
}

// Running reports the state last commanded.
func (t *Transport) Running() bool {
	return t.cmd.Load()&1 == 1
}

// Generation returns the cell events are checked against when dispatched.
func (t *Transport) Generation() *atomic.Uint64 {
	return &t.cmd
}

// SetTempo changes the tempo from the next boundary that has not been
// scheduled yet.
func (t *Transport) SetTempo(bpm float64) error {
	return t.Tempo.Set(bpm)
}

// Position returns the last scheduled grid tick, or -1 if nothing has been
// scheduled since the transport started.
func (t *Transport) Position() int64 {
	return t.position.Load()
}

// Tick applies pending transport commands and schedules every boundary
// before frame+frames+lookahead. frame is the first frame of the block
// about to be rendered. It reports whether the transport stopped (or
// restarted) since the previous call.
//
// Tick is Apply followed by Schedule. Callers that release sounding notes
// on a stop must do so between the two, or they would also cancel the
// first steps of a restarted run.
func (t *Transport) Tick(frame int64, frames int) (stopped bool) {
	stopped = t.Apply(frame)
	t.Schedule(frame, frames)
	return stopped
}

// Apply applies pending transport commands. On a start the steppers are
// rewound and time zero is set to frame. It reports whether the transport
// was running before, i.e. whether notes of the previous run may still be
// sounding. Audio context only.
func (t *Transport) Apply(frame int64) (stopped bool) {
	c := t.cmd.Load()
	if c == t.applied {
		return false
	}
	stopped = t.applied&1 == 1
	t.applied = c
	if c&1 == 1 {
		t.origin = float64(frame)
		t.originTick = 0
		t.next = 0
		t.bpm = t.Tempo.Load()
		t.position.Store(-1)
		for _, s := range t.steppers {
			s.Reset()
		}
	}
	return stopped
}

// Schedule notifies the steppers of every boundary before
// frame+frames+lookahead that has not been scheduled yet. Audio context
// only.
func (t *Transport) Schedule(frame int64, frames int) {
	if t.applied&1 == 0 {
		return
	}
	if bpm := t.Tempo.Load(); bpm != t.bpm {
		t.origin = t.frameOf(t.next)
		t.originTick = t.next
		t.bpm = bpm
	}
	fpt := t.framesPerTick()
	horizon := frame + int64(frames) + t.lookahead
	for {
		at := int64(math.Round(t.frameOf(t.next)))
		if at >= horizon {
			break
		}
		b := Boundary{At: at, Tick: t.next, FramesPerTick: fpt, Generation: t.applied}
		for _, s := range t.steppers {
			if n := int64(s.StepTicks()); n > 0 && t.next%n == 0 {
				s.Advance(b)
			}
		}
		t.position.Store(t.next)
		t.next++
	}
}

func (t *Transport) framesPerTick() float64 {
	return t.sampleRate * 60 / (t.bpm * trancebox.Resolution)
}

func (t *Transport) frameOf(tick int64) float64 {
	return t.origin + float64(tick-t.originTick)*t.framesPerTick()
}

// StepDuration is the length of one step of division d at bpm.
func StepDuration(bpm float64, d trancebox.Division) time.Duration {
	return time.Duration(d.Seconds(bpm) * float64(time.Second))
}
