/*
Package synth renders notes. A Voice is one oscillator with an ADSR envelope;
a Pool owns a fixed set of voices for one track and decides which voice plays
each note.

Everything in this package except the counters and the volume cell belongs to
the audio goroutine: Trigger, Render and StopAll must be called from the same
goroutine that renders.
*/
package synth
