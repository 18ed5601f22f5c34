package layout

import (
	"cmp"
	"math"
	"slices"

	"github.com/matzehuels/familytree/pkg/dag"
	"github.com/matzehuels/familytree/pkg/family"
)

// alignLevels snaps every node of a level to the largest y in that level.
func alignLevels(nodes []Node) {
	maxY := make(map[int]float64)
	for _, n := range nodes {
		if y, ok := maxY[n.Level]; !ok || n.Position.Y > y {
			maxY[n.Level] = n.Position.Y
		}
	}
	for i := range nodes {
		nodes[i].Position.Y = maxY[nodes[i].Level]
	}
}

// reorderPolygamousChildren gives the children of each polygamous unit the
// x slots they already occupy, reassigned in motherIndex order. Only x
// changes, so level alignment is preserved.
func reorderPolygamousChildren(t *family.Tree, nodes []Node) {
	index := make(map[string]int, len(nodes))
	for i, n := range nodes {
		index[n.ID] = i
	}
	for _, u := range t.Units() {
		if u.Type != family.UnitPolygamous {
			continue
		}
		var children []int
		for _, c := range sortedChildren(t, u.ID) {
			if i, ok := index[c]; ok {
				children = append(children, i)
			}
		}
		if len(children) < 2 {
			continue
		}
		xs := make([]float64, len(children))
		for k, i := range children {
			xs[k] = nodes[i].Position.X
		}
		slices.Sort(xs)
		for k, i := range children {
			nodes[i].Position.X = xs[k]
		}
	}
}

// lineageColor picks the edge color from the child's primary person.
func lineageColor(u *family.Unit) string {
	p, ok := u.Primary()
	if !ok {
		return ColorUnknown
	}
	switch p.Gender {
	case family.GenderMale:
		return ColorMale
	case family.GenderFemale:
		return ColorFemale
	default:
		return ColorUnknown
	}
}

// buildEdges creates one edge per placed unit whose parent is also placed,
// in node order.
func buildEdges(t *family.Tree, nodes []Node) []Edge {
	placed := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		placed[n.ID] = true
	}
	edges := make([]Edge, 0, len(nodes))
	for _, n := range nodes {
		u, ok := t.Unit(n.ID)
		if !ok || u.IsRoot() || !placed[u.ParentID] {
			continue
		}
		parent, _ := t.Unit(u.ParentID)
		e := Edge{
			ID:     EdgeID(u.ParentID, u.ID),
			Source: u.ParentID,
			Target: u.ID,
			Type:   EdgeType,
			Data:   EdgeData{LineageColor: lineageColor(u)},
		}
		if parent.Type == family.UnitPolygamous && u.MotherIndex != nil {
			e.SourceHandle = family.MotherHandle(*u.MotherIndex)
			mi := *u.MotherIndex
			e.Data.MotherIndex = &mi
		}
		edges = append(edges, e)
	}
	return edges
}

// newNode creates an unpositioned node for a unit.
func newNode(t *family.Tree, id string, level int) Node {
	u, _ := t.Unit(id)
	w, h := Size(u)
	view, _ := t.View(id)
	return Node{
		ID:     id,
		Type:   NodeType,
		Width:  w,
		Height: h,
		Level:  level,
		Data:   NodeData{Unit: view},
	}
}

// finish fills the derived fields of a result: edges, extent, level count
// and crossings between consecutive levels in final x order.
func finish(t *family.Tree, g *dag.DAG, r *Result) {
	r.Edges = buildEdges(t, r.Nodes)
	if len(r.Nodes) == 0 {
		return
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	rows := make(map[int][]Node)
	for _, n := range r.Nodes {
		minX = min(minX, n.Position.X)
		minY = min(minY, n.Position.Y)
		maxX = max(maxX, n.Position.X+n.Width)
		maxY = max(maxY, n.Position.Y+n.Height)
		rows[n.Level] = append(rows[n.Level], n)
		r.Levels = max(r.Levels, n.Level+1)
	}
	r.Width = maxX - minX
	r.Height = maxY - minY

	orders := make(map[int][]string, len(rows))
	for level, ns := range rows {
		slices.SortStableFunc(ns, func(a, b Node) int { return cmp.Compare(a.Position.X, b.Position.X) })
		ids := make([]string, len(ns))
		for i, n := range ns {
			ids[i] = n.ID
		}
		orders[level] = ids
	}
	r.Crossings = dag.CountCrossings(g, orders)
}
