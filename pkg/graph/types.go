package graph

import (
	"math"
	"slices"
)

// Point is a position in the caller's coordinate space. The graph never
// interprets coordinates; they are opaque numbers supplied by the renderer.
type Point struct {
	X float64
	Y float64
}

// Finite reports whether both coordinates are neither NaN nor infinite.
func (p Point) Finite() bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) && !math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}

// Node is a labeled point together with the set of its neighbors.
//
// ID and position are set by the caller. Adjacency is owned by [Graph]: a
// Node constructed by the caller starts with no neighbors, and neighbors are
// only ever added through [Graph.Connect]. Nodes returned by a Graph are
// copies, so modifying them has no effect on the graph.
type Node struct {
	ID string  // Unique identifier within a graph, immutable
	X  float64 // Horizontal coordinate
	Y  float64 // Vertical coordinate

	related []string // sorted, no duplicates
}

// NewNode returns a node at p with no neighbors.
func NewNode(id string, p Point) Node {
	return Node{ID: id, X: p.X, Y: p.Y}
}

// Position returns the node's coordinates.
func (n Node) Position() Point { return Point{X: n.X, Y: n.Y} }

// Related returns the IDs of the node's neighbors in ascending order.
// The returned slice is a copy.
func (n Node) Related() []string {
	if len(n.related) == 0 {
		return []string{}
	}
	return slices.Clone(n.related)
}

// IsRelated reports whether id is a neighbor of the node.
func (n Node) IsRelated(id string) bool {
	_, ok := slices.BinarySearch(n.related, id)
	return ok
}

// Degree returns the number of neighbors.
func (n Node) Degree() int { return len(n.related) }

// Edge is an undirected connection between two nodes. Edges produced by this
// package are normalized so that A < B.
type Edge struct {
	A string
	B string
}

// NewEdge returns the normalized edge between a and b.
func NewEdge(a, b string) Edge {
	if b < a {
		a, b = b, a
	}
	return Edge{A: a, B: b}
}

// Has reports whether id is one of the edge's endpoints.
func (e Edge) Has(id string) bool { return e.A == id || e.B == id }

// Other returns the endpoint opposite to id.
func (e Edge) Other(id string) string {
	if e.A == id {
		return e.B
	}
	return e.A
}

// addRelated inserts id keeping the adjacency sorted. It reports whether id
// was newly added.
func (n *Node) addRelated(id string) bool {
	i, found := slices.BinarySearch(n.related, id)
	if found {
		return false
	}
	n.related = slices.Insert(n.related, i, id)
	return true
}

// removeRelated deletes id from the adjacency. It reports whether id was present.
func (n *Node) removeRelated(id string) bool {
	i, found := slices.BinarySearch(n.related, id)
	if !found {
		return false
	}
	n.related = slices.Delete(n.related, i, i+1)
	return true
}

// clone returns a deep copy of the node.
func (n *Node) clone() Node {
	c := *n
	c.related = slices.Clone(n.related)
	return c
}
