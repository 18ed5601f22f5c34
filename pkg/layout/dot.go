package layout

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/familytree/pkg/dag"
)

// pointsPerInch converts between Graphviz inches and diagram pixels.
const pointsPerInch = 72.0

// formatPlain is Graphviz's line-oriented text output with node centers.
const formatPlain graphviz.Format = "plain"

// ToDOT converts a generation DAG to Graphviz DOT. Nodes are named n0, n1,
// ... in graph order; ids maps those names back to unit IDs.
//
// ordering=out keeps each parent's children in edge order, so the motherIndex
// sort done while building the graph survives crossing minimization.
func ToDOT(g *dag.DAG, opts Options) (dot string, ids map[string]string) {
	names := make(map[string]string, g.NodeCount())
	ids = make(map[string]string, g.NodeCount())

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  ordering=out;\n")
	fmt.Fprintf(&buf, "  nodesep=%.4f;\n", opts.NodeSpacing/pointsPerInch)
	fmt.Fprintf(&buf, "  ranksep=%.4f;\n", opts.RankSpacing/pointsPerInch)
	buf.WriteString("  node [shape=box, fixedsize=true, label=\"\"];\n")
	buf.WriteString("\n")

	for i, n := range g.Nodes() {
		name := fmt.Sprintf("n%d", i)
		names[n.ID] = name
		ids[name] = n.ID
		fmt.Fprintf(&buf, "  %s [width=%.4f, height=%.4f];\n", name, n.Width/pointsPerInch, n.Height/pointsPerInch)
	}

	buf.WriteString("\n")
	for _, e := range g.Edges() {
		fmt.Fprintf(&buf, "  %s -> %s;\n", names[e.From], names[e.To])
	}

	buf.WriteString("}\n")
	return buf.String(), ids
}

// center is a node center in pixels with y growing downward.
type center struct{ x, y float64 }

// runDot lays out a DOT graph with Graphviz and returns node centers keyed
// by DOT node name.
func runDot(ctx context.Context, dot string) (map[string]center, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	graph, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer graph.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, graph, formatPlain, &buf); err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	return parsePlain(buf.Bytes())
}

// parsePlain reads the node lines of Graphviz plain output:
//
//	graph scale width height
//	node name x y width height ...
//
// Coordinates are inches with the origin at the bottom left.
func parsePlain(out []byte) (map[string]center, error) {
	centers := make(map[string]center)
	var height float64
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "graph":
			if len(fields) < 4 {
				return nil, fmt.Errorf("malformed graph line %q", sc.Text())
			}
			h, err := strconv.ParseFloat(fields[3], 64)
			if err != nil {
				return nil, fmt.Errorf("graph height: %w", err)
			}
			height = h
		case "node":
			if len(fields) < 4 {
				return nil, fmt.Errorf("malformed node line %q", sc.Text())
			}
			x, err := strconv.ParseFloat(fields[2], 64)
			if err != nil {
				return nil, fmt.Errorf("node x: %w", err)
			}
			y, err := strconv.ParseFloat(fields[3], 64)
			if err != nil {
				return nil, fmt.Errorf("node y: %w", err)
			}
			name := strings.Trim(fields[1], `"`)
			centers[name] = center{x: x * pointsPerInch, y: (height - y) * pointsPerInch}
		case "stop":
			return centers, sc.Err()
		}
	}
	return centers, sc.Err()
}
