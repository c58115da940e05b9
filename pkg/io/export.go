package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/graphbuilder/pkg/graph"
)

const (
	keyRelated       = "relatedNodes"
	keyRelatedLegacy = "relaited_nodes"
)

// node is the persisted form of a single graph node.
type node struct {
	X       float64  `json:"x"`
	Y       float64  `json:"y"`
	ID      string   `json:"id"`
	Related []string `json:"relatedNodes"`
}

// document converts g to its persisted form, nodes and adjacency sorted by id.
func document(g *graph.Graph) []node {
	nodes := g.Nodes()
	out := make([]node, len(nodes))
	for i, n := range nodes {
		out[i] = node{X: n.X, Y: n.Y, ID: n.ID, Related: n.Related()}
	}
	return out
}

// Encode returns the compact JSON document for g.
func Encode(g *graph.Graph) ([]byte, error) {
	data, err := json.Marshal(document(g))
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	return data, nil
}

// WriteJSON writes the indented JSON document for g to w.
// The output can be read back with [ReadJSON] or [Decode].
func WriteJSON(g *graph.Graph, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(document(g)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// WriteFile writes the JSON document for g to path.
// The file is created with 0644 permissions.
func WriteFile(g *graph.Graph, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteJSON(g, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
