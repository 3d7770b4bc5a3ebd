package sequencer

import (
	"github.com/trancebox/trancebox"
	"github.com/trancebox/trancebox/effects"
)

type (
	// Player is the audio context of the engine. Its Process method is given
	// to the audio output as the render callback. Every render block it
	// applies transport commands, schedules the step boundaries that fall
	// within the lookahead, renders every track's voice pool into the mix bus
	// in registration order and runs the bus through the effects graph. The
	// finished block is copied to the visualizer feed via the broker.
	Player struct {
		transport *Transport
		tracks    []*Track
		graph     *effects.Graph
		broker    *Broker
		blockSize int
		frame     int64
	}
)

func NewPlayer(broker *Broker, transport *Transport, tracks []*Track, graph *effects.Graph, blockSize int) *Player {
	return &Player{
		broker:    broker,
		transport: transport,
		tracks:    tracks,
		graph:     graph,
		blockSize: max(blockSize, 1),
	}
}

// Process renders audio to the given buffer, filling it completely. Buffers
// longer than the block size are rendered in several blocks. It never
// blocks, so it is safe to call from the audio device's goroutine.
func (p *Player) Process(buffer trancebox.AudioBuffer) error {
	for len(buffer) > 0 {
		n := min(len(buffer), p.blockSize)
		p.render(buffer[:n])
		buffer = buffer[n:]
	}
	return nil
}

// Frame returns the number of frames rendered so far. Audio context only.
func (p *Player) Frame() int64 { return p.frame }

func (p *Player) render(block trancebox.AudioBuffer) {
	if p.transport.Apply(p.frame) {
		for _, t := range p.tracks {
			t.pool.StopAll()
		}
	}
	p.transport.Schedule(p.frame, len(block))
	block.Fill()
	live := p.transport.Generation()
	for _, t := range p.tracks {
		t.pool.Render(block, p.frame, live)
	}
	p.graph.Process(block)
	for i := range block {
		block[i][0] = clamp(block[i][0])
		block[i][1] = clamp(block[i][1])
	}
	p.frame += int64(len(block))

	bufPtr := p.broker.GetAudioBuffer() // borrow a buffer from the broker
	*bufPtr = append(*bufPtr, block...)
	if !TrySend(p.broker.ToFeed, MsgToFeed{Playing: p.transport.applied&1 == 1, Data: bufPtr}) {
		// the feed is lagging behind; drop the block
		p.broker.PutAudioBuffer(bufPtr)
	}
	for _, t := range p.tracks {
		if n := t.newSteals(); n > 0 {
			TrySend(p.broker.ToEngine, MsgToEngine{HasAlert: true, Alert: stealAlert(t.name, n)})
		}
	}
}

func clamp(x float32) float32 {
	return max(min(x, 1), -1)
}
