package graph

import (
	"fmt"
	"maps"
	"slices"

	apperr "github.com/matzehuels/graphbuilder/pkg/errors"
)

var (
	// ErrUnknownNode is returned when an operation references an ID that is
	// not present in the graph. The graph is left unchanged.
	ErrUnknownNode = apperr.New(apperr.ErrCodeUnknownNode, "unknown node")

	// ErrSelfLoop is returned by [Graph.Connect] when both endpoints are the
	// same node. Adjacency never contains the node's own ID.
	ErrSelfLoop = apperr.New(apperr.ErrCodeSelfLoop, "cannot connect a node to itself")

	// ErrInvalidPosition is returned when a coordinate is NaN or infinite.
	// Such positions cannot be encoded.
	ErrInvalidPosition = apperr.New(apperr.ErrCodeInvalidInput, "position must be finite")
)

// Graph is an undirected graph of positioned nodes keyed by ID.
//
// Graph maintains two invariants across every operation:
//   - Symmetry: b is in a's adjacency if and only if a is in b's adjacency.
//   - Referential closure: every ID in any adjacency refers to a node in the graph.
//
// Operations that fail leave the graph unchanged.
//
// The zero value is not usable - use New to create a valid Graph instance.
// Graph is not safe for concurrent use without external synchronization.
type Graph struct {
	nodes map[string]*Node
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{nodes: make(map[string]*Node)}
}

// AddNode inserts n, replacing any node with the same ID.
//
// The inserted node always starts without neighbors; adjacency carried by n
// is ignored. Replacing an existing node discards its old position and tears
// down its edges on both sides. Use [Graph.SetPosition] to move a node while
// keeping its edges.
//
// Returns an INVALID_INPUT error, leaving the graph unchanged, if the ID is
// blank or contains control characters, or if the position is not finite.
func (g *Graph) AddNode(n Node) error {
	if err := apperr.ValidateNodeID(n.ID); err != nil {
		return fmt.Errorf("add %q: %w", n.ID, err)
	}
	if !n.Position().Finite() {
		return fmt.Errorf("add %q: %w", n.ID, ErrInvalidPosition)
	}
	if old, ok := g.nodes[n.ID]; ok {
		g.detach(old)
	}
	g.nodes[n.ID] = &Node{ID: n.ID, X: n.X, Y: n.Y}
	return nil
}

// Connect adds the undirected edge a-b. Connecting an already connected pair
// is a no-op.
//
// Returns ErrUnknownNode if either node is absent, or ErrSelfLoop if a == b.
func (g *Graph) Connect(a, b string) error {
	na, nb, err := g.pair(a, b)
	if err != nil {
		return fmt.Errorf("connect %q-%q: %w", a, b, err)
	}
	if a == b {
		return fmt.Errorf("connect %q: %w", a, ErrSelfLoop)
	}
	na.addRelated(b)
	nb.addRelated(a)
	return nil
}

// Disconnect removes the undirected edge a-b. Disconnecting a pair that was
// never connected is a no-op.
//
// Returns ErrUnknownNode if either node is absent.
func (g *Graph) Disconnect(a, b string) error {
	na, nb, err := g.pair(a, b)
	if err != nil {
		return fmt.Errorf("disconnect %q-%q: %w", a, b, err)
	}
	na.removeRelated(b)
	nb.removeRelated(a)
	return nil
}

// RemoveNode deletes the node and every edge incident to it. It returns the
// IDs of the node's former neighbors in ascending order.
//
// Returns ErrUnknownNode if the node is absent.
func (g *Graph) RemoveNode(id string) ([]string, error) {
	n, ok := g.nodes[id]
	if !ok {
		return nil, fmt.Errorf("remove %q: %w", id, ErrUnknownNode)
	}
	neighbors := n.Related()
	g.detach(n)
	delete(g.nodes, id)
	return neighbors, nil
}

// SetPosition moves the node to p. Adjacency is untouched.
//
// Returns ErrUnknownNode if the node is absent, or ErrInvalidPosition if p
// is not finite.
func (g *Graph) SetPosition(id string, p Point) error {
	n, ok := g.nodes[id]
	if !ok {
		return fmt.Errorf("move %q: %w", id, ErrUnknownNode)
	}
	if !p.Finite() {
		return fmt.Errorf("move %q: %w", id, ErrInvalidPosition)
	}
	n.X, n.Y = p.X, p.Y
	return nil
}

// Node returns a copy of the node with the given ID.
func (g *Graph) Node(id string) (Node, bool) {
	n, ok := g.nodes[id]
	if !ok {
		return Node{}, false
	}
	return n.clone(), true
}

// Has reports whether the graph contains a node with the given ID.
func (g *Graph) Has(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

// Connected reports whether a and b are neighbors.
func (g *Graph) Connected(a, b string) bool {
	n, ok := g.nodes[a]
	return ok && n.IsRelated(b)
}

// Nodes returns copies of all nodes ordered by ID.
func (g *Graph) Nodes() []Node {
	out := make([]Node, 0, len(g.nodes))
	for _, id := range g.IDs() {
		out = append(out, g.nodes[id].clone())
	}
	return out
}

// IDs returns all node IDs in ascending order.
func (g *Graph) IDs() []string {
	return slices.Sorted(maps.Keys(g.nodes))
}

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.nodes) }

// Edges returns every undirected edge once, ordered by (A, B).
func (g *Graph) Edges() []Edge {
	var edges []Edge
	for _, id := range g.IDs() {
		for _, other := range g.nodes[id].related {
			if id < other {
				edges = append(edges, Edge{A: id, B: other})
			}
		}
	}
	return edges
}

// EdgeCount returns the number of undirected edges.
func (g *Graph) EdgeCount() int {
	total := 0
	for _, n := range g.nodes {
		total += len(n.related)
	}
	return total / 2
}

// Clone returns a deep copy of the graph.
func (g *Graph) Clone() *Graph {
	c := &Graph{nodes: make(map[string]*Node, len(g.nodes))}
	for id, n := range g.nodes {
		cn := n.clone()
		c.nodes[id] = &cn
	}
	return c
}

// Bounds returns the smallest rectangle containing every node, as its
// minimum and maximum corners. An empty graph returns two zero points.
func (g *Graph) Bounds() (lo, hi Point) {
	first := true
	for _, n := range g.nodes {
		if first {
			lo, hi = n.Position(), n.Position()
			first = false
			continue
		}
		lo.X, lo.Y = min(lo.X, n.X), min(lo.Y, n.Y)
		hi.X, hi.Y = max(hi.X, n.X), max(hi.Y, n.Y)
	}
	return lo, hi
}

// Validate checks Symmetry and Referential closure, returning the first
// violation found. Graphs built only through this package's operations always
// validate; it exists for tests and for callers assembling graphs by hand.
func (g *Graph) Validate() error {
	for _, id := range g.IDs() {
		n := g.nodes[id]
		for i, other := range n.related {
			if i > 0 && n.related[i-1] >= other {
				return apperr.New(apperr.ErrCodeInternal, "adjacency of %q is not a sorted set", id)
			}
			if other == id {
				return fmt.Errorf("node %q: %w", id, ErrSelfLoop)
			}
			on, ok := g.nodes[other]
			if !ok {
				return fmt.Errorf("node %q references %w %q", id, ErrUnknownNode, other)
			}
			if !on.IsRelated(id) {
				return apperr.New(apperr.ErrCodeInternal, "edge %q-%q is not symmetric", id, other)
			}
		}
	}
	return nil
}

func (g *Graph) pair(a, b string) (*Node, *Node, error) {
	na, ok := g.nodes[a]
	if !ok {
		return nil, nil, fmt.Errorf("%w %q", ErrUnknownNode, a)
	}
	nb, ok := g.nodes[b]
	if !ok {
		return nil, nil, fmt.Errorf("%w %q", ErrUnknownNode, b)
	}
	return na, nb, nil
}

// detach removes n from the adjacency of each of its neighbors.
func (g *Graph) detach(n *Node) {
	for _, other := range n.related {
		if on, ok := g.nodes[other]; ok {
			on.removeRelated(n.ID)
		}
	}
	n.related = nil
}
