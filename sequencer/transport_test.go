package sequencer_test

import (
	"math"
	"testing"

	"github.com/trancebox/trancebox/sequencer"
)

const sampleRate = 44100

type recorder struct {
	ticks      int
	boundaries []sequencer.Boundary
	resets     int
}

func (r *recorder) Advance(b sequencer.Boundary) { r.boundaries = append(r.boundaries, b) }
func (r *recorder) StepTicks() int               { return r.ticks }
func (r *recorder) Reset()                       { r.resets++ }

// advance calls Tick in blocks until at least frames frames have passed.
func advance(tr *sequencer.Transport, frame *int64, frames int) {
	const block = 256
	for end := *frame + int64(frames); *frame < end; *frame += block {
		tr.Tick(*frame, block)
	}
}

func TestStepSpacingAcrossTempoRange(t *testing.T) {
	for _, bpm := range []float64{120, 126, 133.3, 138, 144, 150} {
		tr := sequencer.NewTransport(sampleRate, sampleRate/10)
		if err := tr.SetTempo(bpm); err != nil {
			t.Fatalf("SetTempo(%v): %v", bpm, err)
		}
		r := &recorder{ticks: 1}
		tr.Register(r)
		tr.Start()
		var frame int64
		advance(tr, &frame, 10*sampleRate)
		exact := sampleRate * 60 / (bpm * 4)
		if len(r.boundaries) < 80 {
			t.Fatalf("bpm %v: got %d boundaries in 10 s, want at least 80", bpm, len(r.boundaries))
		}
		for i, b := range r.boundaries {
			if b.Tick != int64(i) {
				t.Fatalf("bpm %v: boundary %d has tick %d", bpm, i, b.Tick)
			}
			if d := math.Abs(float64(b.At) - float64(i)*exact); d > 1 {
				t.Errorf("bpm %v: boundary %d at frame %d, %.2f frames off the grid", bpm, i, b.At, d)
			}
		}
	}
}

func TestQuarterNotesAt138(t *testing.T) {
	tr := sequencer.NewTransport(sampleRate, sampleRate/10)
	r := &recorder{ticks: 4}
	tr.Register(r)
	tr.Start()
	var frame int64
	bar := 4 * 60.0 / 138 * sampleRate
	advance(tr, &frame, int(bar))
	var inBar []sequencer.Boundary
	for _, b := range r.boundaries {
		if float64(b.At) < bar {
			inBar = append(inBar, b)
		}
	}
	if len(inBar) != 4 {
		t.Fatalf("got %d quarter note boundaries in the first bar, want 4", len(inBar))
	}
	for i := 1; i < len(inBar); i++ {
		got := float64(inBar[i].At-inBar[i-1].At) / sampleRate
		if math.Abs(got-60.0/138) > 1.0/sampleRate {
			t.Errorf("quarter note %d came %v s after the previous one, want %v s", i, got, 60.0/138)
		}
	}
}

func TestTempoChangeAppliesAtNextUnscheduledBoundary(t *testing.T) {
	tr := sequencer.NewTransport(sampleRate, 0)
	if err := tr.SetTempo(120); err != nil {
		t.Fatal(err)
	}
	r := &recorder{ticks: 1}
	tr.Register(r)
	tr.Start()
	var frame int64
	advance(tr, &frame, sampleRate)
	k := len(r.boundaries)
	before := append([]sequencer.Boundary(nil), r.boundaries...)
	if err := tr.SetTempo(150); err != nil {
		t.Fatal(err)
	}
	advance(tr, &frame, sampleRate)
	for i := range before {
		if r.boundaries[i] != before[i] {
			t.Fatalf("boundary %d changed after the tempo change: %+v, was %+v", i, r.boundaries[i], before[i])
		}
	}
	oldSpacing := sampleRate * 60 / (120.0 * 4)
	newSpacing := sampleRate * 60 / (150.0 * 4)
	if got := float64(r.boundaries[k].At - r.boundaries[k-1].At); math.Abs(got-oldSpacing) > 1 {
		t.Errorf("first boundary after the change came %v frames later, want %v", got, oldSpacing)
	}
	for i := k + 1; i < len(r.boundaries); i++ {
		if got := float64(r.boundaries[i].At - r.boundaries[i-1].At); math.Abs(got-newSpacing) > 1 {
			t.Errorf("boundary %d came %v frames after the previous one, want %v", i, got, newSpacing)
		}
	}
}

func TestTempoOutOfRange(t *testing.T) {
	tr := sequencer.NewTransport(sampleRate, 0)
	for _, bpm := range []float64{119.9, 150.1, 0, -138} {
		if err := tr.SetTempo(bpm); err == nil {
			t.Errorf("SetTempo(%v) succeeded, want an error", bpm)
		}
	}
	if got := tr.Tempo.Load(); got != 138 {
		t.Errorf("tempo is %v after rejected changes, want the default 138", got)
	}
}

func TestStopAndStartRewinds(t *testing.T) {
	tr := sequencer.NewTransport(sampleRate, sampleRate/10)
	r := &recorder{ticks: 1}
	tr.Register(r)
	if tr.Tick(0, 256) {
		t.Fatal("Tick reported a stop before anything was started")
	}
	if len(r.boundaries) != 0 {
		t.Fatal("a stopped transport scheduled boundaries")
	}
	if !tr.Start() {
		t.Fatal("Start on a stopped transport returned false")
	}
	gen := tr.Generation().Load()
	if tr.Start() {
		t.Error("Start on a running transport returned true")
	}
	if tr.Generation().Load() != gen {
		t.Error("Start on a running transport changed the generation")
	}
	var frame int64
	advance(tr, &frame, sampleRate)
	n := len(r.boundaries)
	if !tr.Stop() {
		t.Fatal("Stop on a running transport returned false")
	}
	if !tr.Tick(frame, 256) {
		t.Error("Tick after Stop did not report the stop")
	}
	frame += 256
	advance(tr, &frame, sampleRate)
	if len(r.boundaries) != n {
		t.Fatalf("%d boundaries scheduled while stopped", len(r.boundaries)-n)
	}
	tr.Start()
	tr.Tick(frame, 256)
	if r.resets != 2 {
		t.Errorf("steppers were reset %d times, want 2", r.resets)
	}
	first := r.boundaries[n]
	if first.Tick != 0 || first.At != frame {
		t.Errorf("first boundary after restart is tick %d at frame %d, want tick 0 at frame %d", first.Tick, first.At, frame)
	}
	if first.Generation == r.boundaries[0].Generation {
		t.Error("restart did not change the generation")
	}
}

func TestApplyReportsRestartBeforeScheduling(t *testing.T) {
	tr := sequencer.NewTransport(sampleRate, sampleRate/10)
	r := &recorder{ticks: 1}
	tr.Register(r)
	tr.Start()
	var frame int64
	advance(tr, &frame, sampleRate)
	n := len(r.boundaries)
	tr.Stop()
	tr.Start()
	if !tr.Apply(frame) {
		t.Fatal("Apply did not report the stop of the previous run")
	}
	if len(r.boundaries) != n {
		t.Fatalf("Apply scheduled %d boundaries, want none", len(r.boundaries)-n)
	}
	if tr.Apply(frame) {
		t.Error("a second Apply reported another stop")
	}
	tr.Schedule(frame, 256)
	if len(r.boundaries) == n {
		t.Fatal("Schedule after a restart scheduled nothing")
	}
	first := r.boundaries[n]
	if first.Tick != 0 || first.At != frame {
		t.Errorf("first boundary after restart is tick %d at frame %d, want tick 0 at frame %d", first.Tick, first.At, frame)
	}
	if first.Generation != tr.Generation().Load() {
		t.Errorf("first boundary has generation %d, want the live generation %d", first.Generation, tr.Generation().Load())
	}
}

func TestSteppersNotifiedOnTheirDivision(t *testing.T) {
	tr := sequencer.NewTransport(sampleRate, 0)
	sixteenth, quarter, half := &recorder{ticks: 1}, &recorder{ticks: 4}, &recorder{ticks: 8}
	tr.Register(sixteenth)
	tr.Register(quarter)
	tr.Register(half)
	tr.Start()
	var frame int64
	advance(tr, &frame, 2*sampleRate)
	for _, b := range quarter.boundaries {
		if b.Tick%4 != 0 {
			t.Errorf("quarter note stepper advanced on tick %d", b.Tick)
		}
	}
	for _, b := range half.boundaries {
		if b.Tick%8 != 0 {
			t.Errorf("half note stepper advanced on tick %d", b.Tick)
		}
	}
	if got, want := len(quarter.boundaries), (len(sixteenth.boundaries)+3)/4; got != want {
		t.Errorf("quarter note stepper advanced %d times, want %d", got, want)
	}
}

func TestStepDuration(t *testing.T) {
	got := sequencer.StepDuration(120, 4).Seconds()
	if math.Abs(got-0.5) > 1e-9 {
		t.Errorf("a quarter note at 120 BPM lasts %v s, want 0.5 s", got)
	}
}
