package trancebox

import (
	"errors"
	"sync"
)

type (
	// AudioBuffer is a buffer of stereo audio samples of variable length
	AudioBuffer [][2]float32

	// AudioContext represents the low-level audio drivers. There should be at
	// most one AudioContext at a time. Play starts pulling audio from the
	// render function, which is called from the audio goroutine and must never
	// block.
	AudioContext interface {
		Play(render func(buf AudioBuffer) error) (CloserWaiter, error)
		Close() error
	}

	// CloserWaiter is a stream that can be closed, and waited until the last
	// buffer has been handed to the device.
	CloserWaiter interface {
		Close() error
		Wait()
	}

	// OfflineContext is an AudioContext that renders only when Render is
	// called. It is used for rendering to files and in tests, where nothing
	// should touch the audio hardware.
	OfflineContext struct {
		mutex  sync.Mutex
		render func(buf AudioBuffer) error
		closed bool
		done   chan struct{}
	}
)

var errNothingPlaying = errors.New("offline context: nothing is playing")

// Fill zeroes the buffer.
func (buffer AudioBuffer) Fill() {
	clear(buffer)
}

// NewOfflineContext returns an OfflineContext with nothing playing.
func NewOfflineContext() *OfflineContext {
	return &OfflineContext{}
}

func (c *OfflineContext) Play(render func(buf AudioBuffer) error) (CloserWaiter, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.closed {
		return nil, errors.New("offline context: closed")
	}
	if c.render != nil {
		return nil, errors.New("offline context: already playing")
	}
	c.render = render
	c.done = make(chan struct{})
	return offlineStream{c: c, done: c.done}, nil
}

// Render fills buf by calling the render function of the current stream.
func (c *OfflineContext) Render(buf AudioBuffer) error {
	c.mutex.Lock()
	render := c.render
	c.mutex.Unlock()
	if render == nil {
		return errNothingPlaying
	}
	return render(buf)
}

// Playing reports whether a stream is attached to the context.
func (c *OfflineContext) Playing() bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.render != nil
}

func (c *OfflineContext) Close() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.closed = true
	c.stop()
	return nil
}

func (c *OfflineContext) stop() {
	if c.render != nil {
		c.render = nil
		close(c.done)
	}
}

type offlineStream struct {
	c    *OfflineContext
	done chan struct{}
}

func (s offlineStream) Close() error {
	s.c.mutex.Lock()
	defer s.c.mutex.Unlock()
	if s.c.done == s.done {
		s.c.stop()
	}
	return nil
}

func (s offlineStream) Wait() {
	<-s.done
}
