// Package render produces images of a graph for export and preview.
//
// Rendering goes through Graphviz. Node positions are pinned to the
// coordinates stored in the graph, so the image matches what was drawn in
// the editor rather than a computed layout.
//
// The [nodelink] subpackage builds the DOT source and renders it to SVG or
// PNG in-process. [ParseFormat] maps user input to an output [Format].
//
// [nodelink]: github.com/matzehuels/graphbuilder/pkg/render/nodelink
package render

import (
	"strings"

	apperr "github.com/matzehuels/graphbuilder/pkg/errors"
)

// Format is an output format for rendered graphs.
type Format string

// Supported output formats.
const (
	FormatSVG Format = "svg"
	FormatPNG Format = "png"
	FormatDOT Format = "dot"
)

// Formats lists the supported formats in display order.
var Formats = []Format{FormatSVG, FormatPNG, FormatDOT}

// ParseFormat parses a format name case-insensitively. An empty name
// selects SVG.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatSVG, nil
	case FormatSVG, FormatPNG, FormatDOT:
		return f, nil
	default:
		return "", apperr.New(apperr.ErrCodeUnsupported, "unsupported format %q (want svg, png or dot)", s)
	}
}

// FormatFromPath infers the format from a file extension, returning false
// when the extension is not recognized.
func FormatFromPath(path string) (Format, bool) {
	i := strings.LastIndexByte(path, '.')
	if i < 0 {
		return "", false
	}
	f, err := ParseFormat(path[i+1:])
	if err != nil || path[i+1:] == "" {
		return "", false
	}
	return f, true
}

// Ext returns the file extension for f, including the dot.
func (f Format) Ext() string { return "." + string(f) }
