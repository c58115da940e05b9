// Package io converts graphs to and from the graphbuilder JSON document.
//
// # JSON Format
//
// A document is a top-level array with one object per node:
//
//	[
//	  {"x": 120.5, "y": 340, "id": "hall", "relatedNodes": ["kitchen"]},
//	  {"x": 180, "y": 340, "id": "kitchen", "relatedNodes": ["hall"]}
//	]
//
// Field order inside an object and node order inside the array carry no
// meaning. [Encode] writes nodes sorted by id and adjacency sorted by id so
// output is stable across runs.
//
// Files written by older versions of the editor store adjacency under the
// misspelled key "relaited_nodes". It is accepted on decode whenever
// "relatedNodes" is absent and is never written.
//
// # Lenient and Strict Decoding
//
// [Decode] is best-effort: the document fails only when the top level is not
// an array. Elements that are not objects with a numeric "x" and "y" and a
// non-empty string "id" are skipped. Adjacency is normalized so the result
// always satisfies the graph invariants: duplicates collapse, references to
// ids missing from the document are dropped and one-sided references are
// mirrored.
//
// [DecodeWithOptions] with Strict set rejects the whole document on the first
// problem instead. [DecodeDetailed] returns a [Report] listing what lenient
// decoding skipped, so callers can log it.
//
// # Usage
//
//	data, _ := io.Encode(g)                  // Graph → []byte
//	g, err := io.Decode(data)                // []byte → Graph
//	io.WriteFile(g, "plan.json")             // Graph → File
//	g, err = io.ReadFile("plan.json")        // File → Graph
package io
