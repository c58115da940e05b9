// Package nodelink renders graphs as node-link diagrams through Graphviz.
//
// # Usage
//
// Convert a graph to DOT, then render it:
//
//	dot := nodelink.ToDOT(g, nodelink.Options{Labels: true})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//	png, err := nodelink.RenderPNG(ctx, nodelink.ToDOT(g, nodelink.Options{Scale: 2}))
//
// # DOT Format
//
// [ToDOT] emits an undirected graph for the neato engine. Every node carries
// a pinned position (pos="x,y!") in points, so Graphviz only routes edges
// and draws; it never moves nodes. Nodes and edges are written in ID order,
// so the same graph always yields the same DOT text.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz], which embeds Graphviz as
// WebAssembly, so no system installation is required.
package nodelink
