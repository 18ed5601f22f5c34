// Package pipeline computes layouts and diagrams for family trees through a
// cache. The API server and the CLI share one [Runner] so both see the same
// cached results.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/familytree/pkg/cache"
	"github.com/matzehuels/familytree/pkg/family"
	"github.com/matzehuels/familytree/pkg/layout"
	"github.com/matzehuels/familytree/pkg/observability"
)

// Cache key types reported to observability hooks.
const (
	keyTypeLayout  = "layout"
	keyTypeDiagram = "diagram"
)

// FormatSVG is the only diagram format.
const FormatSVG = "svg"

// Options controls one pipeline call.
type Options struct {
	Layout layout.Options

	// Refresh skips the cache lookup; the fresh result is still stored.
	Refresh bool
}

// Runner wraps layout and rendering with caching. It holds no per-call
// state and is safe for concurrent use.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// TTL overrides the lifetime of cached entries when positive.
	TTL time.Duration

	compute func(context.Context, *family.Tree, layout.Options) (*layout.Result, error)
}

// NewRunner returns a runner. A nil cache disables caching; a nil keyer
// uses the default keyer.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if c == nil {
		c = cache.NewNullCache()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: c, Keyer: keyer, Logger: logger, compute: layout.Compute}
}

// TreeHash returns the content hash of a tree. Any change to the tree's
// units or persons changes the hash.
func TreeHash(t *family.Tree) (string, error) {
	data, err := json.Marshal(t)
	if err != nil {
		return "", fmt.Errorf("hash tree: %w", err)
	}
	return cache.Hash(data), nil
}

// ComputeLayoutWithCacheInfo returns the layout of t and whether it came
// from the cache.
func (r *Runner) ComputeLayoutWithCacheInfo(ctx context.Context, t *family.Tree, opts Options) (*layout.Result, bool, error) {
	if err := opts.Layout.Validate(); err != nil {
		return nil, false, err
	}
	if opts.Layout.Logger == nil {
		opts.Layout.Logger = r.Logger
	}
	opts.Layout.SetDefaults()

	treeHash, err := TreeHash(t)
	if err != nil {
		return nil, false, err
	}
	key := r.Keyer.LayoutKey(treeHash, cache.LayoutKeyOpts{
		Engine:      opts.Layout.Engine,
		NodeSpacing: opts.Layout.NodeSpacing,
		RankSpacing: opts.Layout.RankSpacing,
	})

	if !opts.Refresh {
		if res, ok := r.lookupLayout(ctx, key); ok {
			observability.Cache().OnCacheHit(ctx, keyTypeLayout)
			return res, true, nil
		}
		observability.Cache().OnCacheMiss(ctx, keyTypeLayout)
	}

	hooks := observability.Layout()
	hooks.OnLayoutStart(ctx, t.ID, opts.Layout.Engine, t.Len())
	start := time.Now()
	compute := r.compute
	if compute == nil {
		compute = layout.Compute
	}
	res, err := compute(ctx, t, opts.Layout)
	hooks.OnLayoutComplete(ctx, t.ID, opts.Layout.Engine, time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	// A fallback result must not answer later requests for the engine that
	// failed.
	if res.Engine != opts.Layout.Engine {
		r.Logger.Debug("not caching fallback layout", "tree", t.ID, "requested", opts.Layout.Engine, "engine", res.Engine)
		return res, false, nil
	}
	if data, err := layout.MarshalResult(res); err == nil {
		r.store(ctx, key, keyTypeLayout, data, r.ttl(cache.TTLLayout))
	}
	return res, false, nil
}

// ComputeLayout is ComputeLayoutWithCacheInfo without the hit flag.
func (r *Runner) ComputeLayout(ctx context.Context, t *family.Tree, opts Options) (*layout.Result, error) {
	res, _, err := r.ComputeLayoutWithCacheInfo(ctx, t, opts)
	return res, err
}

// RenderSVGWithCacheInfo returns the SVG diagram of t and whether it came
// from the cache. The layout is computed (or fetched) first.
func (r *Runner) RenderSVGWithCacheInfo(ctx context.Context, t *family.Tree, opts Options) ([]byte, bool, error) {
	res, err := r.ComputeLayout(ctx, t, opts)
	if err != nil {
		return nil, false, err
	}
	layoutData, err := layout.MarshalResult(res)
	if err != nil {
		return nil, false, fmt.Errorf("serialize layout for cache key: %w", err)
	}
	key := r.Keyer.DiagramKey(cache.Hash(layoutData), cache.DiagramKeyOpts{Format: FormatSVG})

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			observability.Cache().OnCacheHit(ctx, keyTypeDiagram)
			return data, true, nil
		} else if err != nil {
			r.Logger.Warn("cache get failed", "key", key, "err", err)
		}
		observability.Cache().OnCacheMiss(ctx, keyTypeDiagram)
	}

	start := time.Now()
	svg, err := layout.RenderSVG(ctx, res)
	observability.Layout().OnRenderComplete(ctx, t.ID, FormatSVG, len(svg), time.Since(start), err)
	if err != nil {
		return nil, false, err
	}
	r.store(ctx, key, keyTypeDiagram, svg, r.ttl(cache.TTLDiagram))
	return svg, false, nil
}

// RenderSVG is RenderSVGWithCacheInfo without the hit flag.
func (r *Runner) RenderSVG(ctx context.Context, t *family.Tree, opts Options) ([]byte, error) {
	svg, _, err := r.RenderSVGWithCacheInfo(ctx, t, opts)
	return svg, err
}

// Close closes the cache.
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) ttl(def time.Duration) time.Duration {
	if r.TTL > 0 {
		return r.TTL
	}
	return def
}

func (r *Runner) lookupLayout(ctx context.Context, key string) (*layout.Result, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Warn("cache get failed", "key", key, "err", err)
		return nil, false
	}
	if !hit {
		return nil, false
	}
	res, err := layout.UnmarshalResult(data)
	if err != nil {
		// stale format, recompute
		return nil, false
	}
	return res, true
}

// store writes to the cache. Failures are logged, never returned: a
// broken cache degrades to recomputation.
func (r *Runner) store(ctx context.Context, key, keyType string, data []byte, ttl time.Duration) {
	if err := r.Cache.Set(ctx, key, data, ttl); err != nil {
		r.Logger.Warn("cache set failed", "key", key, "err", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, keyType, len(data))
}
