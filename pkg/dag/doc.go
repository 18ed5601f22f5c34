// Package dag holds the row-based graph between a family tree and its
// positioned layout.
//
// Each unit becomes a [Node] whose Row is its generation and whose Width and
// Height are the size of its box. Parent to child links become edges one row
// down:
//
//	g := dag.New()
//	g.AddNode(dag.Node{ID: "root", Row: 0, Width: 280, Height: 140})
//	g.AddNode(dag.Node{ID: "child", Row: 1, Width: 150, Height: 140})
//	g.AddEdge(dag.Edge{From: "root", To: "child"})
//
// Insertion order is preserved so the order children were added in reaches
// the layout engine.
//
// [CountCrossings] reports how many edges cross between generations for a
// given left-to-right ordering, counted with a Fenwick tree in O(E log V).
package dag
