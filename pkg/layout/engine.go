package layout

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/familytree/pkg/dag"
	errs "github.com/matzehuels/familytree/pkg/errors"
	"github.com/matzehuels/familytree/pkg/family"
)

// Spacing defaults in pixels.
const (
	DefaultNodeSpacing = 50.0 // between boxes of one generation
	DefaultRankSpacing = 80.0 // between generations

	// Simple engine grid.
	HorizontalSpacing = 300.0
	VerticalSpacing   = 180.0
)

// Options configures [Compute].
type Options struct {
	Engine      string  // EngineLayered (default) or EngineSimple
	NodeSpacing float64 // layered: horizontal gap in pixels
	RankSpacing float64 // layered: vertical gap in pixels

	// Strict disables the fallback to EngineSimple when Graphviz fails.
	Strict bool

	Logger *log.Logger
}

// SetDefaults fills unset fields.
func (o *Options) SetDefaults() {
	if o.Engine == "" {
		o.Engine = EngineLayered
	}
	if o.NodeSpacing <= 0 {
		o.NodeSpacing = DefaultNodeSpacing
	}
	if o.RankSpacing <= 0 {
		o.RankSpacing = DefaultRankSpacing
	}
	if o.Logger == nil {
		o.Logger = log.Default()
	}
}

// Validate checks the engine name.
func (o Options) Validate() error {
	switch o.Engine {
	case "", EngineLayered, EngineSimple:
		return nil
	default:
		return errs.New(errs.ErrCodeInvalidInput, "unknown layout engine %q (want %s or %s)", o.Engine, EngineLayered, EngineSimple)
	}
}

// Compute lays out the tree. The input is not validated: a tree without its
// root yields an empty result and units not reachable from the root are
// left out.
func Compute(ctx context.Context, t *family.Tree, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	opts.SetDefaults()

	start := time.Now()
	g := buildGraph(t)
	if err := g.Validate(); err != nil {
		return nil, errs.Wrap(errs.ErrCodeInternal, err, "build layout graph")
	}

	var (
		r   *Result
		err error
	)
	switch opts.Engine {
	case EngineSimple:
		r = computeSimple(t, g)
	default:
		r, err = computeLayered(ctx, t, g, opts)
		if err != nil {
			if opts.Strict {
				return nil, errs.Wrap(errs.ErrCodeInternal, err, "layered layout")
			}
			opts.Logger.Warn("layered layout failed, using simple layout", "tree", t.ID, "err", err)
			r = computeSimple(t, g)
		}
	}

	opts.Logger.Debug("computed layout",
		"tree", t.ID,
		"engine", r.Engine,
		"nodes", len(r.Nodes),
		"crossings", r.Crossings,
		"duration", time.Since(start))
	return r, nil
}

func computeLayered(ctx context.Context, t *family.Tree, g *dag.DAG, opts Options) (*Result, error) {
	r := &Result{Engine: EngineLayered, Nodes: []Node{}}
	if g.NodeCount() == 0 {
		finish(t, g, r)
		return r, nil
	}

	dot, ids := ToDOT(g, opts)
	centers, err := runDot(ctx, dot)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]center, len(centers))
	for name, c := range centers {
		byID[ids[name]] = c
	}
	for _, n := range g.Nodes() {
		c, ok := byID[n.ID]
		if !ok {
			return nil, fmt.Errorf("graphviz returned no position for unit %s", n.ID)
		}
		node := newNode(t, n.ID, n.Row)
		node.Position = Position{X: c.x - n.Width/2, Y: c.y - n.Height/2}
		r.Nodes = append(r.Nodes, node)
	}

	alignLevels(r.Nodes)
	reorderPolygamousChildren(t, r.Nodes)
	finish(t, g, r)
	return r, nil
}

// computeSimple places each generation on a centered row with fixed
// spacing, siblings in motherIndex order.
func computeSimple(t *family.Tree, g *dag.DAG) *Result {
	r := &Result{Engine: EngineSimple, Nodes: []Node{}}
	for _, row := range g.RowIDs() {
		level := g.NodesInRow(row)
		totalWidth := float64(len(level)) * HorizontalSpacing
		startX := -totalWidth/2 + HorizontalSpacing/2
		for i, n := range level {
			node := newNode(t, n.ID, row)
			node.Position = Position{
				X: startX + float64(i)*HorizontalSpacing,
				Y: float64(row) * VerticalSpacing,
			}
			r.Nodes = append(r.Nodes, node)
		}
	}
	reorderPolygamousChildren(t, r.Nodes)
	finish(t, g, r)
	return r
}
