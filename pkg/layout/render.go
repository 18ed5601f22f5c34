package layout

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"
)

// ToPinnedDOT converts a computed layout to DOT with every node pinned at its
// computed position, for rendering with the neato engine.
func ToPinnedDOT(r *Result) string {
	names := make(map[string]string, len(r.Nodes))

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  inputscale=72;\n")
	buf.WriteString("  splines=true;\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fixedsize=true, fontsize=12, fontname=\"Helvetica\"];\n")
	buf.WriteString("  edge [arrowhead=none, penwidth=2];\n")
	buf.WriteString("\n")

	for i, n := range r.Nodes {
		name := fmt.Sprintf("n%d", i)
		names[n.ID] = name
		cx := n.Position.X + n.Width/2
		cy := -(n.Position.Y + n.Height/2)
		fmt.Fprintf(&buf, "  %s [pos=\"%.2f,%.2f!\", width=%.4f, height=%.4f, label=%q];\n",
			name, cx, cy, n.Width/pointsPerInch, n.Height/pointsPerInch, nodeLabel(n))
	}

	buf.WriteString("\n")
	for _, e := range r.Edges {
		src, okS := names[e.Source]
		dst, okD := names[e.Target]
		if !okS || !okD {
			continue
		}
		fmt.Fprintf(&buf, "  %s -> %s [color=%q];\n", src, dst, e.Data.LineageColor)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeLabel(n Node) string {
	names := make([]string, 0, len(n.Data.Unit.Persons))
	for _, p := range n.Data.Unit.Persons {
		names = append(names, p.FullName())
	}
	return strings.Join(names, "\n")
}

// RenderSVG draws a computed layout as SVG.
func RenderSVG(ctx context.Context, r *Result) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()
	gv.SetLayout(graphviz.NEATO)

	g, err := graphviz.ParseBytes([]byte(ToPinnedDOT(r)))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces the root svg tag with one whose width and height
// match the viewBox, so browsers scale the diagram instead of clipping it.
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

	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}
