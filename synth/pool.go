package synth

import (
	"math"
	"sync/atomic"

	"github.com/trancebox/trancebox"
	"gitlab.com/gomidi/midi/v2"
)

type (
	// Event is a note (or chord) to start at an absolute frame. Generation is
	// the transport generation the event was scheduled in; the pool drops the
	// event if the generation has changed by the time it is due.
	Event struct {
		Pitches    []midi.Note
		Velocity   float32
		Gate       int64
		At         int64
		Generation uint64
	}

	// Pool owns the voices of one track. Monophonic pools have exactly one
	// voice and retrigger it; polyphonic pools give each pitch its own voice
	// and steal the oldest one when they run out.
	Pool struct {
		instrument Instrument
		voices     []*Voice
		mono       bool

		pending     [maxPending]Event
		first, size int

		volume      *trancebox.Cell
		gain        float64
		smoothing   float64
		fastRelease int64
		scratch     []float32

		active      atomic.Int32
		allocations atomic.Int64
		retriggers  atomic.Int64
		steals      atomic.Int64
		dropped     atomic.Int64
	}

	// PoolOptions configures a Pool.
	PoolOptions struct {
		SampleRate float64
		// BlockSize is the longest buffer Render is called with.
		BlockSize int
		// Volume is a cell holding the track volume in dB. If nil, the pool
		// plays at unity gain.
		Volume *trancebox.Cell
		// Smoothing is the time constant of volume changes in frames.
		Smoothing int
		// FastRelease is the fade-out length of StopAll in frames.
		FastRelease int
	}
)

// maxPending bounds the number of events waiting for their frame. The
// scheduling lookahead covers only a few steps, so this is never reached in
// practice; Trigger reports false if it is.
const maxPending = 64

// NewPool allocates all the voices of the instrument up front, so that
// triggering a note never allocates.
func NewPool(instrument Instrument, opts PoolOptions) *Pool {
	p := &Pool{
		instrument:  instrument,
		mono:        instrument.Polyphony() == 1,
		volume:      opts.Volume,
		fastRelease: int64(max(opts.FastRelease, 1)),
		scratch:     make([]float32, max(opts.BlockSize, 1)),
		smoothing:   1,
	}
	if opts.Smoothing > 0 {
		p.smoothing = 1 - math.Exp(-1/float64(opts.Smoothing))
	}
	for range instrument.Polyphony() {
		p.voices = append(p.voices, NewVoice(instrument.NewGenerator(opts.SampleRate), instrument.Envelope(), opts.SampleRate))
	}
	p.gain = p.targetGain()
	return p
}

func (p *Pool) Instrument() Instrument { return p.instrument }

// Trigger queues an event. Events must be queued in the order of their
// frames. It returns false if the queue is full.
func (p *Pool) Trigger(e Event) bool {
	if p.size == len(p.pending) {
		p.dropped.Add(1)
		return false
	}
	p.pending[(p.first+p.size)%len(p.pending)] = e
	p.size++
	return true
}

// Play starts the event right now.
func (p *Pool) Play(e Event) {
	if p.mono {
		if len(e.Pitches) == 0 {
			return
		}
		v := p.voices[0]
		if v.Active() {
			p.retriggers.Add(1)
		} else {
			p.allocations.Add(1)
		}
		v.Trigger(e.Pitches[0], e.Velocity, e.Gate)
		return
	}
	for _, pitch := range e.Pitches {
		v := p.voiceFor(pitch)
		v.Trigger(pitch, e.Velocity, e.Gate)
	}
}

// voiceFor picks the voice for a new note: the voice already playing the
// pitch, else an idle voice, else the oldest voice, preferring ones that are
// already releasing.
func (p *Pool) voiceFor(pitch midi.Note) *Voice {
	var idle, oldest *Voice
	for _, v := range p.voices {
		if !v.Active() {
			if idle == nil {
				idle = v
			}
			continue
		}
		if v.Pitch() == pitch && !v.Releasing() {
			p.retriggers.Add(1)
			return v
		}
		if oldest == nil || older(v, oldest) {
			oldest = v
		}
	}
	if idle != nil {
		p.allocations.Add(1)
		return idle
	}
	p.steals.Add(1)
	return oldest
}

func older(a, b *Voice) bool {
	if a.Releasing() != b.Releasing() {
		return a.Releasing()
	}
	return a.Age() > b.Age()
}

// Render adds the pool's output to buf, whose first frame is frame. Pending
// events are started at their exact frame; events of a generation other than
// live are dropped. len(buf) must not exceed the BlockSize option.
func (p *Pool) Render(buf trancebox.AudioBuffer, frame int64, live *atomic.Uint64) {
	out := p.scratch[:len(buf)]
	clear(out)
	pos := 0
	for pos < len(out) {
		end := len(out)
		for p.size > 0 {
			e := &p.pending[p.first]
			offset := e.At - frame
			if offset > int64(pos) {
				end = int(min(offset, int64(end)))
				break
			}
			if live == nil || e.Generation == live.Load() {
				p.Play(*e)
			}
			*e = Event{}
			p.first = (p.first + 1) % len(p.pending)
			p.size--
		}
		for _, v := range p.voices {
			v.Render(out[pos:end])
		}
		pos = end
	}
	target := p.targetGain()
	count := int32(0)
	for _, v := range p.voices {
		if v.Active() {
			count++
		}
	}
	p.active.Store(count)
	for i, s := range out {
		p.gain += (target - p.gain) * p.smoothing
		g := float32(p.gain) * s
		buf[i][0] += g
		buf[i][1] += g
	}
}

// StopAll fades out every voice quickly and forgets pending events.
func (p *Pool) StopAll() {
	for p.size > 0 {
		p.pending[p.first] = Event{}
		p.first = (p.first + 1) % len(p.pending)
		p.size--
	}
	for _, v := range p.voices {
		v.FastRelease(p.fastRelease)
	}
}

// Pending returns the number of queued events.
func (p *Pool) Pending() int { return p.size }

// Voices returns the voices of the pool.
func (p *Pool) Voices() []*Voice { return p.voices }

// The counters below may be read from any goroutine. ActiveVoices is updated
// at the end of every Render.

func (p *Pool) ActiveVoices() int  { return int(p.active.Load()) }
func (p *Pool) Allocations() int64 { return p.allocations.Load() }
func (p *Pool) Retriggers() int64  { return p.retriggers.Load() }
func (p *Pool) Steals() int64      { return p.steals.Load() }
func (p *Pool) Dropped() int64     { return p.dropped.Load() }

// Onsets is the number of notes started: every allocation, retrigger and
// steal starts exactly one.
func (p *Pool) Onsets() int64 {
	return p.allocations.Load() + p.retriggers.Load() + p.steals.Load()
}

func (p *Pool) targetGain() float64 {
	if p.volume == nil {
		return 1
	}
	return math.Pow(10, p.volume.Load()/20)
}
