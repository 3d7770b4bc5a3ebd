package sequencer

import (
	"math"
	"time"

	"github.com/viterin/vek/vek32"
)

type (
	// Feed turns the master output into level snapshots for a visualizer.
	// Run it in its own goroutine; it reads audio blocks from the broker and
	// publishes a Snapshot every interval on a channel that holds only the
	// latest one.
	Feed struct {
		broker   *Broker
		out      chan Snapshot
		interval time.Duration
		buckets  int

		playing bool
		ring    RingBuffer[float32]
		tmp     []float32
		tmp2    []float32
	}

	// Snapshot is the level of the most recent interval of output, split
	// into equal segments. Levels are in [0, 1]: 0 is -60 dBFS or below, 1 is
	// 0 dBFS.
	Snapshot struct {
		Playing bool
		Levels  []float32
		// Peak is the largest absolute sample of the window.
		Peak float32
	}

	// RingBuffer keeps the last len(Buffer) values written to it. Cursor is
	// the position the next value goes to, so the oldest value is at Cursor.
	RingBuffer[T any] struct {
		Buffer []T
		Cursor int
	}
)

// FloorDB is the level mapped to 0 in a Snapshot.
const FloorDB = -60

// NewFeed returns a feed that keeps window frames of audio and splits them
// into the given number of buckets.
func NewFeed(b *Broker, window int, interval time.Duration, buckets int) *Feed {
	window = max(window, buckets, 1)
	return &Feed{
		broker:   b,
		out:      make(chan Snapshot, 1),
		interval: interval,
		buckets:  max(buckets, 1),
		ring:     RingBuffer[float32]{Buffer: make([]float32, window)},
		tmp:      make([]float32, window),
		tmp2:     make([]float32, window),
	}
}

// Snapshots returns the channel the snapshots are published on.
func (f *Feed) Snapshots() <-chan Snapshot { return f.out }

// Run processes messages until CloseFeed is signalled.
func (f *Feed) Run() {
	defer close(f.broker.FinishedFeed)
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()
	for {
		select {
		case <-f.broker.CloseFeed:
			return
		case msg := <-f.broker.ToFeed:
			f.Update(msg)
		case <-ticker.C:
			f.publish(f.Snapshot())
		}
	}
}

// Update adds a block of output to the window and returns its buffer to the
// broker.
func (f *Feed) Update(msg MsgToFeed) {
	if msg.Playing && !f.playing {
		clear(f.ring.Buffer)
	}
	f.playing = msg.Playing
	if msg.Data == nil {
		return
	}
	buf := *msg.Data
	for len(buf) > 0 {
		n := min(len(buf), len(f.tmp))
		for i, s := range buf[:n] {
			f.tmp[i] = (s[0] + s[1]) / 2
		}
		f.ring.WriteWrap(f.tmp[:n])
		buf = buf[n:]
	}
	f.broker.PutAudioBuffer(msg.Data)
}

// Snapshot computes the levels of the current window. While the transport
// is stopped, every level is zero.
func (f *Feed) Snapshot() Snapshot {
	ret := Snapshot{Playing: f.playing, Levels: make([]float32, f.buckets)}
	if !f.playing {
		return ret
	}
	window := f.ring.Ordered(f.tmp)
	ret.Peak = vek32.Max(vek32.Abs_Into(f.tmp2, window))
	size := len(window) / f.buckets
	for i := range ret.Levels {
		segment := window[i*size : (i+1)*size]
		power := vek32.Mean(vek32.Mul_Into(f.tmp2[:len(segment)], segment, segment))
		ret.Levels[i] = level(power)
	}
	return ret
}

// publish replaces any snapshot nobody has taken yet.
func (f *Feed) publish(s Snapshot) {
	select {
	case <-f.out:
	default:
	}
	TrySend(f.out, s)
}

// level maps a mean square power to [0, 1] on a decibel scale.
func level(power float32) float32 {
	if power <= 0 {
		return 0
	}
	db := 10 * math.Log10(float64(power))
	return float32(min(max((db-FloorDB)/-FloorDB, 0), 1))
}

// WriteWrap writes values to the ring, overwriting the oldest ones.
func (r *RingBuffer[T]) WriteWrap(values []T) {
	r.Cursor = (r.Cursor + len(values)) % len(r.Buffer)
	a := min(len(values), r.Cursor)                 // how many values to copy before the cursor
	b := min(len(values)-a, len(r.Buffer)-r.Cursor) // how many values to copy to the end of the buffer
	copy(r.Buffer[r.Cursor-a:r.Cursor], values[len(values)-a:])
	copy(r.Buffer[len(r.Buffer)-b:], values[len(values)-a-b:])
}

// Ordered copies the contents from oldest to newest into dst, which must be
// at least as long as the buffer, and returns the filled part.
func (r *RingBuffer[T]) Ordered(dst []T) []T {
	n := copy(dst, r.Buffer[r.Cursor:])
	copy(dst[n:], r.Buffer[:r.Cursor])
	return dst[:len(r.Buffer)]
}
