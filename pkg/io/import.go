package io

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	apperr "github.com/matzehuels/graphbuilder/pkg/errors"
	"github.com/matzehuels/graphbuilder/pkg/graph"
)

// ErrMalformedDocument is returned when the input is not a JSON array, or,
// in strict mode, when any element is invalid.
var ErrMalformedDocument = apperr.New(apperr.ErrCodeMalformedDocument, "malformed document")

// DecodeOptions configures decoding.
type DecodeOptions struct {
	// Strict fails the whole document on the first invalid element instead
	// of skipping it.
	Strict bool
}

// Skipped describes an element that lenient decoding ignored.
type Skipped struct {
	Index  int    `json:"index"`  // Position in the top-level array
	Reason string `json:"reason"` // Why the element was ignored
}

// Report lists what lenient decoding discarded while building the graph.
type Report struct {
	Skipped     []Skipped // Elements that were not valid node objects
	Duplicates  []string  // IDs defined more than once; the last definition wins
	DroppedRefs int       // Adjacency entries naming unknown ids or the node itself
}

// Clean reports whether nothing was discarded.
func (r *Report) Clean() bool {
	return len(r.Skipped) == 0 && len(r.Duplicates) == 0 && r.DroppedRefs == 0
}

// Decode parses a JSON document leniently. It fails with ErrMalformedDocument
// only if the top level is not an array.
func Decode(data []byte) (*graph.Graph, error) {
	g, _, err := DecodeDetailed(data, DecodeOptions{})
	return g, err
}

// DecodeWithOptions parses a JSON document with the given options.
func DecodeWithOptions(data []byte, opts DecodeOptions) (*graph.Graph, error) {
	g, _, err := DecodeDetailed(data, opts)
	return g, err
}

// DecodeDetailed parses a JSON document and reports what was discarded.
// In strict mode the report is always clean when err is nil.
func DecodeDetailed(data []byte, opts DecodeOptions) (*graph.Graph, *Report, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, nil, fmt.Errorf("decode: top level is not an array: %w", ErrMalformedDocument)
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(trimmed, &elems); err != nil {
		return nil, nil, fmt.Errorf("decode: %v: %w", err, ErrMalformedDocument)
	}

	report := &Report{}
	records := make(map[string]node, len(elems))
	order := make([]string, 0, len(elems))

	for i, raw := range elems {
		n, reason := parseNode(raw, opts.Strict)
		if reason != "" {
			if opts.Strict {
				return nil, nil, fmt.Errorf("decode: element %d: %s: %w", i, reason, ErrMalformedDocument)
			}
			report.Skipped = append(report.Skipped, Skipped{Index: i, Reason: reason})
			continue
		}
		if _, dup := records[n.ID]; dup {
			if opts.Strict {
				return nil, nil, fmt.Errorf("decode: element %d: duplicate id %q: %w", i, n.ID, ErrMalformedDocument)
			}
			report.Duplicates = append(report.Duplicates, n.ID)
		} else {
			order = append(order, n.ID)
		}
		records[n.ID] = n
	}

	g := graph.New()
	for _, id := range order {
		n := records[id]
		if err := g.AddNode(graph.NewNode(n.ID, graph.Point{X: n.X, Y: n.Y})); err != nil {
			return nil, nil, fmt.Errorf("decode: %w", err)
		}
	}

	for _, id := range order {
		for _, other := range records[id].Related {
			if !g.Has(other) || other == id {
				if opts.Strict {
					return nil, nil, fmt.Errorf("decode: node %q: invalid reference %q: %w", id, other, ErrMalformedDocument)
				}
				report.DroppedRefs++
				continue
			}
			if err := g.Connect(id, other); err != nil {
				return nil, nil, fmt.Errorf("decode: %w", err)
			}
		}
	}

	return g, report, nil
}

// parseNode extracts a node from one array element. A non-empty reason means
// the element is invalid.
func parseNode(raw json.RawMessage, strict bool) (node, string) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return node{}, "not an object"
	}

	var n node
	var x, y *float64
	var id *string
	if err := json.Unmarshal(fields["x"], &x); err != nil || x == nil {
		return node{}, `missing or non-numeric "x"`
	}
	if err := json.Unmarshal(fields["y"], &y); err != nil || y == nil {
		return node{}, `missing or non-numeric "y"`
	}
	if err := json.Unmarshal(fields["id"], &id); err != nil || id == nil {
		return node{}, `missing or non-string "id"`
	}
	if apperr.ValidateNodeID(*id) != nil {
		return node{}, `blank "id" or "id" with control characters`
	}
	n.X, n.Y, n.ID = *x, *y, *id

	related, ok := fields[keyRelated]
	if !ok {
		related, ok = fields[keyRelatedLegacy]
	}
	if ok {
		if err := json.Unmarshal(related, &n.Related); err != nil {
			if strict {
				return node{}, "adjacency is not an array of strings"
			}
			n.Related = nil
		}
	}
	return n, ""
}

// ReadJSON decodes a JSON document from r leniently.
// ReadJSON does not close r.
func ReadJSON(r io.Reader) (*graph.Graph, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	return Decode(data)
}

// ReadFile reads and leniently decodes the JSON document at path.
func ReadFile(path string) (*graph.Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return Decode(data)
}
