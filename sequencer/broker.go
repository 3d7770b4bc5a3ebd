package sequencer

import (
	"sync"
	"time"

	"github.com/trancebox/trancebox"
)

type (
	// Broker is the message hub between the audio context and the rest of
	// the engine. Every recipient has one bounded channel. Additionally, the
	// broker has a sync.Pool of *trancebox.AudioBuffers, from which the
	// player borrows the buffers it hands to the feed, so that copying the
	// master output does not allocate in the audio context.
	//
	// For closing goroutines, the broker has two channels for each goroutine:
	// CloseXXX and FinishedXXX. CloseXXX has a capacity of 1, so an empty
	// message can always be sent to it without blocking; if it is full,
	// someone has already requested the closure. FinishedXXX is closed by the
	// goroutine when it has cleaned up. Wait for it with a timeout:
	//
	//	select {
	//	case <-FinishedXXX:
	//	case <-time.After(3 * time.Second):
	//	}
	Broker struct {
		ToEngine chan MsgToEngine
		ToFeed   chan MsgToFeed

		CloseEngine chan struct{}
		CloseFeed   chan struct{}

		FinishedEngine chan struct{}
		FinishedFeed   chan struct{}

		bufferPool sync.Pool
	}

	// MsgToEngine is a message from the audio context to the engine. Alerts
	// are not boxed, so that sending one does not allocate.
	MsgToEngine struct {
		HasAlert bool
		Alert    Alert
	}

	// MsgToFeed carries a block of master output to the visualizer feed.
	// Data is borrowed from the broker and must be returned to it with
	// PutAudioBuffer.
	MsgToFeed struct {
		Playing bool
		Data    *trancebox.AudioBuffer
	}
)

func NewBroker() *Broker {
	return &Broker{
		ToEngine:       make(chan MsgToEngine, 1024),
		ToFeed:         make(chan MsgToFeed, 1024),
		CloseEngine:    make(chan struct{}, 1),
		CloseFeed:      make(chan struct{}, 1),
		FinishedEngine: make(chan struct{}),
		FinishedFeed:   make(chan struct{}),
		bufferPool:     sync.Pool{New: func() any { return &trancebox.AudioBuffer{} }},
	}
}

// GetAudioBuffer returns an empty audio buffer from the buffer pool. After
// use, it should be returned with PutAudioBuffer.
func (b *Broker) GetAudioBuffer() *trancebox.AudioBuffer {
	return b.bufferPool.Get().(*trancebox.AudioBuffer)
}

// PutAudioBuffer returns an audio buffer to the pool, truncated to zero
// length but keeping its capacity.
func (b *Broker) PutAudioBuffer(buf *trancebox.AudioBuffer) {
	if len(*buf) > 0 {
		*buf = (*buf)[:0]
	}
	b.bufferPool.Put(buf)
}

// TrySend is a helper function to send a value to a channel if it is not full.
// It is guaranteed to be non-blocking. Return true if the value was sent, false
// otherwise.
func TrySend[T any](c chan<- T, v T) bool {
	select {
	case c <- v:
	default:
		return false
	}
	return true
}

// TimeoutReceive blocks until a value is received from c, or t has passed.
// ok will be false if the timeout occurred or if the channel is closed.
func TimeoutReceive[T any](c <-chan T, t time.Duration) (v T, ok bool) {
	select {
	case v, ok = <-c:
		return v, ok
	case <-time.After(t):
		return v, false
	}
}

// closeAndWait asks a goroutine to stop and waits for it, giving up after t.
func closeAndWait(closeCh chan<- struct{}, finished <-chan struct{}, t time.Duration) bool {
	TrySend(closeCh, struct{}{})
	select {
	case <-finished:
		return true
	case <-time.After(t):
		return false
	}
}
