// Package layout computes diagram positions for a family tree.
//
// The result is a list of positioned nodes, one per family unit, and a list
// of styled edges, one per parent to child link, ready for a node-based
// diagram client.
//
// # Engines
//
// [EngineLayered] (the default) sizes each unit, assigns generations by
// breadth-first search from the root and hands the graph to Graphviz's dot
// engine, a layered crossing-minimizing layout. Graphviz runs in-process via
// go-graphviz. Its coordinates are then post-processed:
//
//   - Units of the same generation are snapped to a common y.
//   - Children of a polygamous unit are reordered left to right by
//     motherIndex, reusing the x slots they already occupy.
//
// [EngineSimple] skips Graphviz and centers each generation on x = 0 with a
// fixed spacing. It is used on request and as a fallback when Graphviz fails.
//
// # Edges
//
// Each non-root unit gets an edge "e-{parent}-{child}" colored by the gender
// of the child's primary person. Edges leaving a polygamous unit name the
// mother's handle, "mother-{motherIndex}", so the diagram can draw the line
// from the right wife.
//
// # Rendering
//
// [RenderSVG] draws a computed [Result] through Graphviz with node positions
// pinned, for server-side previews and the CLI.
package layout
