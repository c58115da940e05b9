// Package graph provides the undirected graph of positioned nodes edited by
// graphbuilder.
//
// A [Graph] holds [Node] values keyed by ID. Each node has a position in the
// caller's coordinate space and a set of neighbor IDs. Adjacency is owned by
// the graph: nodes are inserted without neighbors and edges are created and
// destroyed only through graph operations, so no caller can break the
// invariants below.
//
// # Invariants
//
//   - Symmetry: if b is a neighbor of a, then a is a neighbor of b.
//   - Referential closure: every neighbor ID names a node in the graph.
//   - Set semantics: adjacency holds each neighbor once, sorted by ID.
//
// # Operations
//
//	g := graph.New()
//	_ = g.AddNode(graph.NewNode("a", graph.Point{X: 0, Y: 0})) // blank IDs and NaN are rejected
//	_ = g.AddNode(graph.NewNode("b", graph.Point{X: 10, Y: 0}))
//	_ = g.Connect("a", "b")              // idempotent
//	_ = g.SetPosition("b", graph.Point{X: 12, Y: 3})
//	neighbors, _ := g.RemoveNode("a")    // tears down a-b on both sides
//
// Operations that reference an absent node return [ErrUnknownNode] and leave
// the graph unchanged. Serialization lives in pkg/io.
package graph
