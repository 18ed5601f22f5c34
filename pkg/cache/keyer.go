package cache

import "fmt"

// Keyer derives cache keys. Implementations must be deterministic: equal
// inputs yield equal keys.
type Keyer interface {
	// LayoutKey is the key of a computed layout for a tree content hash.
	LayoutKey(treeHash string, opts LayoutKeyOpts) string

	// DiagramKey is the key of a rendered diagram for a layout hash.
	DiagramKey(layoutHash string, opts DiagramKeyOpts) string
}

// LayoutKeyOpts holds the layout options that change the result.
type LayoutKeyOpts struct {
	Engine      string  `json:"engine"`
	NodeSpacing float64 `json:"node_spacing,omitempty"`
	RankSpacing float64 `json:"rank_spacing,omitempty"`
}

// DiagramKeyOpts holds the rendering options that change the output.
type DiagramKeyOpts struct {
	Format string `json:"format"`
}

// DefaultKeyer builds keys of the form "layout:<sha256>".
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

func (DefaultKeyer) LayoutKey(treeHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", treeHash, opts)
}

func (DefaultKeyer) DiagramKey(layoutHash string, opts DiagramKeyOpts) string {
	return hashKey(fmt.Sprintf("diagram:%s", opts.Format), layoutHash, opts)
}
