package facegraph

import (
	"bytes"
	"context"
	"fmt"

	"github.com/goccy/go-graphviz"
)

// dotPalette colors nodes by label; label 0 (background) stays white and
// view labels cycle through the palette.
var dotPalette = []string{
	"#66c2a5", "#fc8d62", "#8da0cb", "#e78ac3",
	"#a6d854", "#ffd92f", "#e5c494", "#b3b3b3",
}

// ToDOT returns a Graphviz DOT representation of the labeled graph.
//
// Each node is shown as "face/label" and filled with a per-label color, so a
// rendered graph makes label islands (the future texture patches) visible.
// Intended as a debug artifact for small meshes; the output grows with the
// face count.
func (g *Graph) ToDOT() string {
	var buf bytes.Buffer
	buf.WriteString("graph faces {\n")
	buf.WriteString("  layout=neato;\n")
	buf.WriteString("  node [shape=circle, style=filled, fontname=\"SF Mono, Menlo, monospace\", fontsize=10];\n\n")

	for i := 0; i < g.NumNodes(); i++ {
		fill := "#ffffff"
		if l := g.Label(i); l > 0 {
			fill = dotPalette[(l-1)%len(dotPalette)]
		}
		fmt.Fprintf(&buf, "  f%d [label=\"%d/%d\", fillcolor=%q];\n", i, i, g.Label(i), fill)
	}
	buf.WriteString("\n")
	for i := 0; i < g.NumNodes(); i++ {
		for _, j := range g.Adjacent(i) {
			if i < j {
				fmt.Fprintf(&buf, "  f%d -- f%d;\n", i, j)
			}
		}
	}
	buf.WriteString("}\n")
	return buf.String()
}

// RenderSVG renders the labeled graph to SVG via Graphviz.
//
// Errors are returned if Graphviz cannot initialize, the DOT is malformed,
// or rendering fails; all are wrapped with context for errors.Is/As.
func (g *Graph) RenderSVG(ctx context.Context) ([]byte, error) {
	dot := g.ToDOT()

	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	parsed, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse dot: %w", err)
	}

	var buf bytes.Buffer
	if err := gv.Render(ctx, parsed, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render svg: %w", err)
	}
	return buf.Bytes(), nil
}
