package session

import (
	"github.com/matzehuels/graphbuilder/pkg/graph"
)

// NodePosition pairs a node ID with its coordinates.
type NodePosition struct {
	ID       string
	Position graph.Point
}

// Delta describes the visible effect of one successful session operation.
//
// A renderer that applies every delta in order stays in sync with the graph
// without rescanning it. When Reset is set the renderer discards everything
// it has and rebuilds from AddedNodes and AddedEdges.
type Delta struct {
	Reset        bool
	AddedNodes   []NodePosition
	RemovedNodes []string
	Moved        []NodePosition
	AddedEdges   []graph.Edge
	RemovedEdges []graph.Edge

	// Selected is the selection after the operation, empty for none.
	Selected         string
	SelectionChanged bool
}

// Empty reports whether the delta carries no change at all.
func (d Delta) Empty() bool {
	return !d.Reset && !d.SelectionChanged &&
		len(d.AddedNodes) == 0 && len(d.RemovedNodes) == 0 && len(d.Moved) == 0 &&
		len(d.AddedEdges) == 0 && len(d.RemovedEdges) == 0
}

// Renderer receives deltas after each mutating session operation.
// Apply is called synchronously from the operation that produced the delta.
type Renderer interface {
	Apply(Delta)
}

// RendererFunc adapts a function to the Renderer interface.
type RendererFunc func(Delta)

// Apply calls f(d).
func (f RendererFunc) Apply(d Delta) { f(d) }

// snapshot returns a reset delta describing all of g.
func snapshot(g *graph.Graph, selected string) Delta {
	d := Delta{Reset: true, Selected: selected, SelectionChanged: true}
	for _, n := range g.Nodes() {
		d.AddedNodes = append(d.AddedNodes, NodePosition{ID: n.ID, Position: n.Position()})
	}
	d.AddedEdges = g.Edges()
	return d
}
