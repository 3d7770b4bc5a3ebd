package sequencer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"slices"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/trancebox/trancebox"
	"github.com/trancebox/trancebox/effects"
	"github.com/trancebox/trancebox/synth"
)

type (
	// Engine is the control context of the sequencer. All of its methods are
	// safe to call from any goroutine. It owns the audio output, which it
	// acquires lazily on the first Initialize or Play.
	Engine struct {
		config    trancebox.Config
		logger    *log.Logger
		opener    Opener
		broker    *Broker
		transport *Transport
		tracks    []*Track
		graph     *effects.Graph
		player    *Player
		feed      *Feed

		params map[string]*trancebox.Param
		order  []*trancebox.Param

		mutex   sync.Mutex // guards context and stream
		context trancebox.AudioContext
		stream  trancebox.CloserWaiter
		closed  atomic.Bool
	}

	// Opener acquires the audio output. It is called at most once per
	// successful initialization.
	Opener func(ctx context.Context, cfg trancebox.Config) (trancebox.AudioContext, error)

	// Option configures an Engine.
	Option func(*Engine)

	// Status is a snapshot of the engine for status displays.
	Status struct {
		Initialized bool
		Playing     bool
		Tempo       float64
		Position    int64
		Tracks      []TrackStatus
	}

	TrackStatus struct {
		Name         string
		Active       bool
		Volume       float64
		Step         int
		Steps        int
		ActiveVoices int
		Onsets       int64
		Steals       int64
	}
)

// WithOpener sets the function used to acquire the audio output.
func WithOpener(o Opener) Option {
	return func(e *Engine) { e.opener = o }
}

// WithLogger sets the logger that alerts and lifecycle events are written to.
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// New builds the tracks, the effects graph and the player from cfg and
// starts the engine's background goroutines. The audio output is not
// touched until Initialize or Play.
func New(cfg trancebox.Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{
		config: cfg,
		logger: log.New(os.Stderr, "trancebox: ", log.LstdFlags),
		broker: NewBroker(),
		params: map[string]*trancebox.Param{},
	}
	for _, o := range opts {
		o(e)
	}
	specs := DefaultTracks(cfg.PadVoices)
	names := make([]string, 0, len(cfg.Patterns))
	for name := range cfg.Patterns {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := OverridePattern(specs, name, cfg.Patterns[name]); err != nil {
			return nil, err
		}
	}
	poolOpts := synth.PoolOptions{
		SampleRate:  float64(cfg.SampleRate),
		BlockSize:   cfg.BlockSize,
		Smoothing:   cfg.Frames(cfg.Smoothing),
		FastRelease: cfg.Frames(cfg.FastRelease),
	}
	e.transport = NewTransport(cfg.SampleRate, cfg.Frames(cfg.Lookahead))
	e.addParams(e.transport.Tempo)
	for _, spec := range specs {
		t, err := NewTrack(spec, poolOpts)
		if err != nil {
			return nil, err
		}
		e.tracks = append(e.tracks, t)
		e.transport.Register(t)
		e.addParams(t.Params()...)
	}
	e.graph = effects.NewGraph(float64(cfg.SampleRate), cfg.Frames(cfg.Smoothing))
	e.addParams(e.graph.Params()...)
	paths := make([]string, 0, len(cfg.Params))
	for path := range cfg.Params {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	for _, path := range paths {
		if err := e.setString(path, cfg.Params[path]); err != nil {
			return nil, fmt.Errorf("config params: %w", err)
		}
	}
	e.player = NewPlayer(e.broker, e.transport, e.tracks, e.graph, cfg.BlockSize)
	e.feed = NewFeed(e.broker, cfg.Frames(cfg.FeedInterval), cfg.FeedInterval, cfg.FeedBuckets)
	go e.feed.Run()
	go e.run()
	return e, nil
}

func (e *Engine) addParams(params ...*trancebox.Param) {
	for _, p := range params {
		e.params[p.Spec.Path()] = p
		e.order = append(e.order, p)
	}
}

// Initialize acquires the audio output and starts rendering. It is
// idempotent: concurrent and repeated calls open the output only once. If
// the output cannot be acquired, the error wraps ErrDeviceUnavailable and
// the engine stays uninitialized, so a later call can try again.
func (e *Engine) Initialize(ctx context.Context) error {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	if e.closed.Load() {
		return fmt.Errorf("initialize: %w", trancebox.ErrInvalidState)
	}
	if e.stream != nil {
		return nil
	}
	if e.opener == nil {
		return fmt.Errorf("initialize: no audio output configured: %w", trancebox.ErrDeviceUnavailable)
	}
	ac, err := e.opener(ctx, e.config)
	if err != nil {
		if errors.Is(err, trancebox.ErrDeviceUnavailable) {
			return fmt.Errorf("initialize: %w", err)
		}
		return fmt.Errorf("initialize: %w: %w", trancebox.ErrDeviceUnavailable, err)
	}
	stream, err := ac.Play(e.player.Process)
	if err != nil {
		ac.Close()
		return fmt.Errorf("initialize: %w: %w", trancebox.ErrDeviceUnavailable, err)
	}
	e.context, e.stream = ac, stream
	e.logger.Printf("audio output running at %d Hz", e.config.SampleRate)
	return nil
}

// Initialized reports whether the audio output has been acquired.
func (e *Engine) Initialized() bool {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return e.stream != nil
}

// Play initializes the engine if needed and starts the transport from the
// first step of every track. It does nothing if already playing.
func (e *Engine) Play(ctx context.Context) error {
	if err := e.Initialize(ctx); err != nil {
		return err
	}
	e.transport.Start()
	return nil
}

// Stop stops the transport. Notes that are sounding fade out quickly; notes
// that were scheduled but have not started are cancelled.
func (e *Engine) Stop() error {
	if e.closed.Load() {
		return fmt.Errorf("stop: %w", trancebox.ErrInvalidState)
	}
	e.transport.Stop()
	return nil
}

// Clear stops the transport and disarms every track. Nothing is torn down;
// the tracks can be armed again.
func (e *Engine) Clear() error {
	if err := e.Stop(); err != nil {
		return err
	}
	for _, t := range e.tracks {
		t.SetActive(false)
	}
	return nil
}

// SetParameter sets a parameter of the control surface. target is a track
// name, an effect name or "transport"; tempo may also be set with an empty
// target. Invalid values fail with a *trancebox.ParamError wrapping
// ErrOutOfRange and leave the parameter unchanged.
func (e *Engine) SetParameter(target, name string, value any) error {
	return e.Set(joinPath(target, name), value)
}

// Set is SetParameter with a dotted path such as "filter.cutoff".
func (e *Engine) Set(path string, value any) error {
	p, err := e.param(path)
	if err != nil {
		return err
	}
	return p.Set(value)
}

// SetString parses text according to the parameter's kind and sets it.
func (e *Engine) SetString(path, text string) error {
	if e.closed.Load() {
		return fmt.Errorf("%s: %w", path, trancebox.ErrInvalidState)
	}
	return e.setString(path, text)
}

func (e *Engine) setString(path, text string) error {
	p, ok := e.params[canonicalPath(path)]
	if !ok {
		return fmt.Errorf("%w: %s", trancebox.ErrUnknownParameter, path)
	}
	return p.SetString(text)
}

// Parameter returns the current value of a parameter in its natural type:
// float64, bool or the choice name.
func (e *Engine) Parameter(target, name string) (any, error) {
	p, err := e.param(joinPath(target, name))
	if err != nil {
		return nil, err
	}
	return p.Get(), nil
}

// Params lists the descriptors of every parameter, transport first, then
// the tracks in order, then the effects in order.
func (e *Engine) Params() []trancebox.ParamSpec {
	ret := make([]trancebox.ParamSpec, len(e.order))
	for i, p := range e.order {
		ret[i] = p.Spec
	}
	return ret
}

func (e *Engine) param(path string) (*trancebox.Param, error) {
	if e.closed.Load() {
		return nil, fmt.Errorf("%s: %w", path, trancebox.ErrInvalidState)
	}
	p, ok := e.params[canonicalPath(path)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", trancebox.ErrUnknownParameter, path)
	}
	return p, nil
}

// Track returns the named track, or nil.
func (e *Engine) Track(name string) *Track {
	i := slices.IndexFunc(e.tracks, func(t *Track) bool { return t.name == name })
	if i < 0 {
		return nil
	}
	return e.tracks[i]
}

// Tracks returns the tracks in registration order.
func (e *Engine) Tracks() []*Track { return e.tracks }

// Transport returns the master clock.
func (e *Engine) Transport() *Transport { return e.transport }

// Graph returns the effects chain.
func (e *Engine) Graph() *effects.Graph { return e.graph }

// Status returns a snapshot of the engine.
func (e *Engine) Status() Status {
	ret := Status{
		Initialized: e.Initialized(),
		Playing:     e.transport.Running(),
		Tempo:       e.transport.Tempo.Load(),
		Position:    e.transport.Position(),
		Tracks:      make([]TrackStatus, len(e.tracks)),
	}
	for i, t := range e.tracks {
		ret.Tracks[i] = TrackStatus{
			Name:         t.name,
			Active:       t.Active(),
			Volume:       t.Volume(),
			Step:         t.Step(),
			Steps:        len(t.pattern.Steps),
			ActiveVoices: t.pool.ActiveVoices(),
			Onsets:       t.pool.Onsets(),
			Steals:       t.pool.Steals(),
		}
	}
	return ret
}

// Feed returns the channel visualizer snapshots are published on.
func (e *Engine) Feed() <-chan Snapshot {
	return e.feed.Snapshots()
}

// Close stops the audio output and the background goroutines. Afterwards
// every operation fails with ErrInvalidState.
func (e *Engine) Close() error {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	if e.closed.Swap(true) {
		return fmt.Errorf("close: %w", trancebox.ErrInvalidState)
	}
	e.transport.Stop()
	var errs []error
	if e.stream != nil {
		errs = append(errs, e.stream.Close())
		errs = append(errs, e.context.Close())
		e.stream, e.context = nil, nil
	}
	if !closeAndWait(e.broker.CloseFeed, e.broker.FinishedFeed, 3*time.Second) {
		e.logger.Print("visualizer feed did not stop in time")
	}
	if !closeAndWait(e.broker.CloseEngine, e.broker.FinishedEngine, 3*time.Second) {
		e.logger.Print("engine goroutine did not stop in time")
	}
	return errors.Join(errs...)
}

// run handles messages from the audio context until CloseEngine is
// signalled.
func (e *Engine) run() {
	defer close(e.broker.FinishedEngine)
	for {
		select {
		case <-e.broker.CloseEngine:
			return
		case msg := <-e.broker.ToEngine:
			if msg.HasAlert {
				e.logger.Print(msg.Alert)
			}
		}
	}
}

func joinPath(target, name string) string {
	if target == "" {
		return name
	}
	return target + "." + name
}

func canonicalPath(path string) string {
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "tempo" || path == "bpm" {
		return TempoSpec.Path()
	}
	return path
}
