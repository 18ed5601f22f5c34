package cache

// ScopedKeyer prefixes every key of an inner Keyer. Several deployments can
// share one Redis instance by giving each its own prefix:
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "familytree:prod:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer wraps inner, falling back to the default keyer when nil.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

func (k *ScopedKeyer) LayoutKey(treeHash string, opts LayoutKeyOpts) string {
	return k.prefix + k.inner.LayoutKey(treeHash, opts)
}

func (k *ScopedKeyer) DiagramKey(layoutHash string, opts DiagramKeyOpts) string {
	return k.prefix + k.inner.DiagramKey(layoutHash, opts)
}
