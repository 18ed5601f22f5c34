package layout

import (
	"slices"

	"github.com/matzehuels/familytree/pkg/dag"
	"github.com/matzehuels/familytree/pkg/family"
)

// Box sizes in pixels.
const (
	NodeWidth       = 280.0 // couple
	SingleNodeWidth = 150.0
	ExtraWifeWidth  = 130.0 // per person beyond two
	NodeHeight      = 140.0
)

// Size returns the box size of a unit.
func Size(u *family.Unit) (w, h float64) {
	switch u.Type {
	case family.UnitSingle:
		return SingleNodeWidth, NodeHeight
	case family.UnitPolygamous:
		extra := len(u.Persons) - 2
		if extra < 1 {
			extra = 1
		}
		return NodeWidth + float64(extra)*ExtraWifeWidth, NodeHeight
	default:
		return NodeWidth, NodeHeight
	}
}

// sortedChildren returns the children of id ordered by motherIndex.
// The sort is stable and children without a motherIndex go last.
func sortedChildren(t *family.Tree, id string) []string {
	children := t.Children(id)
	slices.SortStableFunc(children, func(a, b string) int {
		return motherKey(t, a) - motherKey(t, b)
	})
	return children
}

func motherKey(t *family.Tree, id string) int {
	u, ok := t.Unit(id)
	if !ok || u.MotherIndex == nil {
		return int(^uint(0) >> 1)
	}
	return *u.MotherIndex
}

// generations walks the tree breadth-first from the root with children in
// motherIndex order and returns the visit order and the level of each unit.
// Units not reachable from the root are left out.
func generations(t *family.Tree) ([]string, map[string]int) {
	levels := make(map[string]int)
	if _, ok := t.Root(); !ok {
		return nil, levels
	}
	order := []string{t.RootID}
	levels[t.RootID] = 0
	for i := 0; i < len(order); i++ {
		id := order[i]
		for _, c := range sortedChildren(t, id) {
			if _, seen := levels[c]; seen {
				continue
			}
			levels[c] = levels[id] + 1
			order = append(order, c)
		}
	}
	return order, levels
}

// buildGraph converts the reachable part of the tree into a row-based DAG
// with box sizes. Edges are added per parent in motherIndex order.
func buildGraph(t *family.Tree) *dag.DAG {
	g := dag.New()
	order, levels := generations(t)
	for _, id := range order {
		u, _ := t.Unit(id)
		w, h := Size(u)
		_ = g.AddNode(dag.Node{ID: id, Row: levels[id], Width: w, Height: h})
	}
	for _, id := range order {
		for _, c := range sortedChildren(t, id) {
			if _, ok := g.Node(c); ok {
				_ = g.AddEdge(dag.Edge{From: id, To: c})
			}
		}
	}
	return g
}
