package effects

import (
	"fmt"

	"github.com/trancebox/trancebox"
)

type (
	// Node is one processing stage of the Graph.
	Node interface {
		Name() string
		Params() []*trancebox.Param
		Process(buf trancebox.AudioBuffer)
		Reset()
	}

	// Graph is the fixed chain Filter → Delay → Reverb. Only parameter
	// values change at runtime, never the order of the nodes.
	Graph struct {
		Filter *Filter
		Delay  *Delay
		Reverb *Reverb

		nodes  [3]Node
		params map[string]*trancebox.Param
	}
)

// NewGraph returns the chain with default parameters. smoothing is the
// parameter ramp length in samples.
func NewGraph(sampleRate float64, smoothing int) *Graph {
	g := &Graph{
		Filter: NewFilter(sampleRate, smoothing),
		Delay:  NewDelay(sampleRate, smoothing),
		Reverb: NewReverb(sampleRate, smoothing),
		params: map[string]*trancebox.Param{},
	}
	g.nodes = [3]Node{g.Filter, g.Delay, g.Reverb}
	for _, n := range g.nodes {
		for _, p := range n.Params() {
			g.params[p.Spec.Path()] = p
		}
	}
	return g
}

// Process runs the buffer through every node in order, in place.
func (g *Graph) Process(buf trancebox.AudioBuffer) {
	for _, n := range g.nodes {
		n.Process(buf)
	}
}

// Nodes returns the nodes in processing order.
func (g *Graph) Nodes() [3]Node {
	return g.nodes
}

// Params returns every parameter of every node, in processing order.
func (g *Graph) Params() []*trancebox.Param {
	var ret []*trancebox.Param
	for _, n := range g.nodes {
		ret = append(ret, n.Params()...)
	}
	return ret
}

// Param looks up a parameter by node and name.
func (g *Graph) Param(node, name string) (*trancebox.Param, error) {
	p, ok := g.params[node+"."+name]
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", trancebox.ErrUnknownParameter, node, name)
	}
	return p, nil
}

// SetParameter validates and stores a new value. The audio goroutine picks it
// up at its next block and ramps to it.
func (g *Graph) SetParameter(node, name string, value any) error {
	p, err := g.Param(node, name)
	if err != nil {
		return err
	}
	return p.Set(value)
}

// SetEnabled ramps the wet contribution of a node to or from zero.
func (g *Graph) SetEnabled(node string, enabled bool) error {
	return g.SetParameter(node, "active", enabled)
}

// Reset clears the state of every node, silencing tails.
func (g *Graph) Reset() {
	for _, n := range g.nodes {
		n.Reset()
	}
}
