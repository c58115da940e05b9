package io_test

import (
	"fmt"

	"github.com/matzehuels/graphbuilder/pkg/graph"
	gbio "github.com/matzehuels/graphbuilder/pkg/io"
)

func ExampleEncode() {
	g := graph.New()
	g.AddNode(graph.NewNode("b", graph.Point{X: 10, Y: 0}))
	g.AddNode(graph.NewNode("a", graph.Point{X: 0, Y: 0}))
	_ = g.Connect("a", "b")

	data, _ := gbio.Encode(g)
	fmt.Println(string(data))
	// Output:
	// [{"x":0,"y":0,"id":"a","relatedNodes":["b"]},{"x":10,"y":0,"id":"b","relatedNodes":["a"]}]
}

func ExampleDecodeDetailed() {
	doc := []byte(`[
		{"x": 1, "y": 2, "id": "a"},
		{"bad": true},
		{"x": 3, "y": 4, "id": "b", "relaited_nodes": ["a"]}
	]`)

	g, report, err := gbio.DecodeDetailed(doc, gbio.DecodeOptions{})
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Println("nodes:", g.IDs())
	fmt.Println("edges:", g.Edges())
	for _, s := range report.Skipped {
		fmt.Printf("skipped element %d: %s\n", s.Index, s.Reason)
	}
	// Output:
	// nodes: [a b]
	// edges: [{a b}]
	// skipped element 1: missing or non-numeric "x"
}
