package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/graphbuilder/pkg/graph"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Labels draws each node's ID next to it.
	Labels bool

	// Highlight is the ID of a node drawn in the accent color, typically
	// the editor selection.
	Highlight string

	// Scale multiplies raster output resolution. Zero means 1.
	Scale float64
}

const (
	baseDPI     = 96
	accentColor = "#7D56F4"
	edgeColor   = "#555555"
)

// ToDOT converts a graph to undirected Graphviz DOT with every node pinned
// at its stored position. Screen coordinates grow downward, so Y is negated.
func ToDOT(g *graph.Graph, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("graph G {\n")
	buf.WriteString("  layout=neato;\n")
	buf.WriteString("  inputscale=72;\n")
	buf.WriteString("  outputorder=edgesfirst;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	if opts.Scale > 0 && opts.Scale != 1 {
		fmt.Fprintf(&buf, "  dpi=%s;\n", fmtFloat(baseDPI*opts.Scale))
	}
	buf.WriteString("  node [shape=circle, style=filled, fillcolor=white, fixedsize=true, width=0.25, label=\"\", fontsize=10];\n")
	fmt.Fprintf(&buf, "  edge [color=%q, penwidth=2];\n", edgeColor)
	buf.WriteString("\n")

	for _, n := range g.Nodes() {
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, fmtAttrs(n, opts))
	}

	buf.WriteString("\n")
	for _, e := range g.Edges() {
		fmt.Fprintf(&buf, "  %q -- %q;\n", e.A, e.B)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtAttrs(n graph.Node, opts Options) string {
	y := -n.Y
	if y == 0 {
		y = 0 // avoid "-0"
	}
	attrs := fmt.Sprintf("pos=\"%s,%s!\"", fmtFloat(n.X), fmtFloat(y))
	if opts.Labels {
		attrs += fmt.Sprintf(", xlabel=%q", n.ID)
	}
	if n.ID == opts.Highlight {
		attrs += fmt.Sprintf(", fillcolor=%q, color=%q", accentColor, accentColor)
	}
	return attrs
}

func fmtFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// RenderSVG renders DOT source to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	out, err := renderDOT(ctx, dot, graphviz.SVG)
	if err != nil {
		return nil, err
	}
	return normalizeViewBox(out), nil
}

// RenderPNG renders DOT source to PNG using Graphviz. Resolution follows
// the dpi set by [Options.Scale] in [ToDOT].
func RenderPNG(ctx context.Context, dot string) ([]byte, error) {
	return renderDOT(ctx, dot, graphviz.PNG)
}

func renderDOT(ctx context.Context, dot string, format graphviz.Format) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()
	gv.SetLayout(graphviz.NEATO)

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the root svg tag so the image scales to its
// container instead of carrying Graphviz's fixed point dimensions.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
