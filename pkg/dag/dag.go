package dag

import (
	"errors"
	"fmt"
	"maps"
	"slices"
)

var (
	// ErrEmptyID means a node was added without an ID.
	ErrEmptyID = errors.New("node ID must not be empty")

	// ErrDuplicateID means a node ID is already in the graph.
	ErrDuplicateID = errors.New("duplicate node ID")

	// ErrUnknownNode means an edge references a node that was never added.
	ErrUnknownNode = errors.New("unknown node")

	// ErrSkippedRow means an edge does not go exactly one row down.
	ErrSkippedRow = errors.New("edge must join consecutive rows")

	// ErrSecondParent means a node has more than one incoming edge. Every
	// unit descends from exactly one parent unit.
	ErrSecondParent = errors.New("node has more than one parent")
)

// Node is a unit box placed in a row (its generation).
type Node struct {
	ID     string
	Row    int // 0 is the root generation
	Width  float64
	Height float64
}

// Edge links a parent unit to a child unit.
type Edge struct {
	From string
	To   string
}

// DAG is a graph of unit boxes organized into rows. Nodes and edges keep
// insertion order. Use [New]; the zero value is not usable. Not safe for
// concurrent use.
type DAG struct {
	nodes    map[string]*Node
	order    []*Node
	edges    []Edge
	children map[string][]string
	parents  map[string]int
	rows     map[int][]*Node
}

// New returns an empty graph.
func New() *DAG {
	return &DAG{
		nodes:    make(map[string]*Node),
		children: make(map[string][]string),
		parents:  make(map[string]int),
		rows:     make(map[int][]*Node),
	}
}

// AddNode adds n to its row. It fails with [ErrEmptyID] or [ErrDuplicateID].
func (d *DAG) AddNode(n Node) error {
	if n.ID == "" {
		return ErrEmptyID
	}
	if _, ok := d.nodes[n.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateID, n.ID)
	}
	node := &n
	d.nodes[n.ID] = node
	d.order = append(d.order, node)
	d.rows[n.Row] = append(d.rows[n.Row], node)
	return nil
}

// AddEdge links two existing nodes. Row and parent constraints are checked
// by [DAG.Validate].
func (d *DAG) AddEdge(e Edge) error {
	for _, id := range []string{e.From, e.To} {
		if _, ok := d.nodes[id]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknownNode, id)
		}
	}
	d.edges = append(d.edges, e)
	d.children[e.From] = append(d.children[e.From], e.To)
	d.parents[e.To]++
	return nil
}

// Nodes returns all nodes in insertion order. The pointers are the graph's
// own.
func (d *DAG) Nodes() []*Node { return slices.Clone(d.order) }

// Edges returns all edges in insertion order.
func (d *DAG) Edges() []Edge { return slices.Clone(d.edges) }

// NodeCount returns the number of nodes.
func (d *DAG) NodeCount() int { return len(d.nodes) }

// Node looks up a node by ID.
func (d *DAG) Node(id string) (*Node, bool) {
	n, ok := d.nodes[id]
	return n, ok
}

// Children returns the child IDs of id in insertion order. The slice must
// not be modified.
func (d *DAG) Children(id string) []string { return d.children[id] }

// NodesInRow returns the nodes of a row in insertion order.
func (d *DAG) NodesInRow(row int) []*Node { return d.rows[row] }

// RowIDs returns the occupied rows in ascending order.
func (d *DAG) RowIDs() []int { return slices.Sorted(maps.Keys(d.rows)) }

// Validate checks that the graph is a forest laid out by generation: each
// edge goes exactly one row down and no node has two parents. Together
// these rule out cycles.
func (d *DAG) Validate() error {
	for _, e := range d.edges {
		from, to := d.nodes[e.From], d.nodes[e.To]
		if to.Row != from.Row+1 {
			return fmt.Errorf("%w: %s (row %d) -> %s (row %d)", ErrSkippedRow, e.From, from.Row, e.To, to.Row)
		}
		if d.parents[e.To] > 1 {
			return fmt.Errorf("%w: %s", ErrSecondParent, e.To)
		}
	}
	return nil
}

func posMap(ids []string) map[string]int {
	m := make(map[string]int, len(ids))
	for i, id := range ids {
		m[id] = i
	}
	return m
}
