// Package oto plays audio on the default output device using
// github.com/ebitengine/oto/v3.
package oto

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ebitengine/oto/v3"
	"github.com/trancebox/trancebox"
)

type (
	// Context is a trancebox.AudioContext on the default output device.
	Context struct {
		mutex  sync.Mutex
		ctx    *oto.Context
		stream *stream
		closed bool
	}

	stream struct {
		c      *Context
		player *oto.Player
		done   chan struct{}
		once   sync.Once
	}

	// reader pulls audio from the render function whenever the device asks
	// for more.
	reader struct {
		render func(buf trancebox.AudioBuffer) error
		buf    trancebox.AudioBuffer
		failed bool
	}
)

// oto allows only one context per process, so it is created once and shared
// by every Context.
var shared struct {
	mutex      sync.Mutex
	ctx        *oto.Context
	ready      chan struct{}
	sampleRate int
}

// Open acquires the default output device with the sample rate and buffer
// length of cfg. It has the signature of sequencer.Opener. Errors wrap
// trancebox.ErrDeviceUnavailable.
func Open(ctx context.Context, cfg trancebox.Config) (trancebox.AudioContext, error) {
	c, err := NewContext(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// NewContext returns a Context once the device is ready, or fails when ctx
// is done first.
func NewContext(ctx context.Context, cfg trancebox.Config) (*Context, error) {
	shared.mutex.Lock()
	defer shared.mutex.Unlock()
	if shared.ctx == nil {
		otoCtx, ready, err := oto.NewContext(&oto.NewContextOptions{
			SampleRate:   cfg.SampleRate,
			ChannelCount: 2,
			Format:       oto.FormatFloat32LE,
			BufferSize:   cfg.DeviceBuffer,
		})
		if err != nil {
			return nil, fmt.Errorf("cannot create oto context: %w: %w", trancebox.ErrDeviceUnavailable, err)
		}
		shared.ctx, shared.ready, shared.sampleRate = otoCtx, ready, cfg.SampleRate
	} else if shared.sampleRate != cfg.SampleRate {
		return nil, fmt.Errorf("oto context already runs at %d Hz, cannot switch to %d Hz: %w", shared.sampleRate, cfg.SampleRate, trancebox.ErrDeviceUnavailable)
	}
	select {
	case <-shared.ready:
	case <-ctx.Done():
		return nil, fmt.Errorf("waiting for the audio device: %w: %w", trancebox.ErrDeviceUnavailable, ctx.Err())
	}
	if err := shared.ctx.Resume(); err != nil {
		return nil, fmt.Errorf("cannot resume oto context: %w: %w", trancebox.ErrDeviceUnavailable, err)
	}
	return &Context{ctx: shared.ctx}, nil
}

// Play starts pulling audio from render. Only one stream can play at a
// time.
func (c *Context) Play(render func(buf trancebox.AudioBuffer) error) (trancebox.CloserWaiter, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.closed {
		return nil, errors.New("oto: context closed")
	}
	if c.stream != nil {
		return nil, errors.New("oto: already playing")
	}
	s := &stream{c: c, done: make(chan struct{})}
	s.player = c.ctx.NewPlayer(&reader{render: render})
	s.player.Play()
	c.stream = s
	return s, nil
}

// Close stops the current stream and suspends the device.
func (c *Context) Close() error {
	c.mutex.Lock()
	s := c.stream
	c.closed = true
	c.mutex.Unlock()
	var errs []error
	if s != nil {
		errs = append(errs, s.Close())
	}
	if err := c.ctx.Suspend(); err != nil {
		errs = append(errs, fmt.Errorf("cannot suspend oto context: %w", err))
	}
	return errors.Join(errs...)
}

func (s *stream) Close() error {
	s.once.Do(func() {
		s.player.Pause()
		s.player.Close()
		s.c.mutex.Lock()
		if s.c.stream == s {
			s.c.stream = nil
		}
		s.c.mutex.Unlock()
		close(s.done)
	})
	return nil
}

func (s *stream) Wait() {
	<-s.done
}

// Read renders exactly as many frames as fit in p. If the render function
// fails, the stream goes silent.
func (r *reader) Read(p []byte) (int, error) {
	frames := len(p) / bytesPerFrame
	if cap(r.buf) < frames {
		r.buf = make(trancebox.AudioBuffer, frames)
	}
	buf := r.buf[:frames]
	if r.failed || r.render(buf) != nil {
		r.failed = true
		clear(buf)
	}
	return PutFloat32LE(p, buf), nil
}
