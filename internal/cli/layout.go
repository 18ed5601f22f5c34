package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/familytree/pkg/family"
	"github.com/matzehuels/familytree/pkg/layout"
	"github.com/matzehuels/familytree/pkg/pipeline"
	"github.com/matzehuels/familytree/pkg/store"
)

// Output formats of the layout command.
const (
	formatJSON = "json"
	formatSVG  = pipeline.FormatSVG
)

type layoutFlags struct {
	output  string
	format  string
	noCache bool
	refresh bool
	opts    layout.Options
}

func (c *CLI) layoutCommand() *cobra.Command {
	var f layoutFlags

	cmd := &cobra.Command{
		Use:   "layout <tree-id | tree.json>",
		Short: "Compute the layout or diagram of a family tree",
		Long: `Compute the layout or diagram of a family tree.

The tree is read from an exported JSON file when the argument names one,
otherwise it is loaded from the configured database. The output is the layout
as JSON (the same document GET /api/trees/{id}/layout returns) or an SVG
diagram with --format svg.

Results are cached; --refresh recomputes and --no-cache bypasses the cache.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runLayout(cmd.Context(), args[0], f)
		},
	}

	cmd.Flags().StringVarP(&f.output, "output", "o", "", `output file, "-" for stdout (default: <tree name>.layout.json or .svg)`)
	cmd.Flags().StringVarP(&f.format, "format", "f", formatJSON, "output format: json, svg")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "recompute even when cached")
	cmd.Flags().StringVarP(&f.opts.Engine, "engine", "e", "", "layout engine: layered (default), simple")
	cmd.Flags().Float64Var(&f.opts.NodeSpacing, "node-spacing", 0, "gap between units of a generation in pixels")
	cmd.Flags().Float64Var(&f.opts.RankSpacing, "rank-spacing", 0, "gap between generations in pixels")
	cmd.Flags().BoolVar(&f.opts.Strict, "strict", false, "fail instead of falling back to the simple engine")

	return cmd
}

func (c *CLI) runLayout(ctx context.Context, source string, f layoutFlags) error {
	if f.format != formatJSON && f.format != formatSVG {
		return fmt.Errorf("unknown format %q (want json or svg)", f.format)
	}
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	opts := pipeline.Options{Layout: cfg.LayoutOptions(), Refresh: f.refresh}
	if f.opts.Engine != "" {
		opts.Layout.Engine = f.opts.Engine
	}
	if f.opts.NodeSpacing > 0 {
		opts.Layout.NodeSpacing = f.opts.NodeSpacing
	}
	if f.opts.RankSpacing > 0 {
		opts.Layout.RankSpacing = f.opts.RankSpacing
	}
	opts.Layout.Strict = f.opts.Strict
	if err := opts.Layout.Validate(); err != nil {
		return err
	}

	t, err := c.loadTree(ctx, source)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, cfg.Cache, f.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Computing %s...", f.format))
	spinner.Start()

	var (
		data []byte
		hit  bool
	)
	if f.format == formatSVG {
		data, hit, err = runner.RenderSVGWithCacheInfo(ctx, t, opts)
	} else {
		var res *layout.Result
		res, hit, err = runner.ComputeLayoutWithCacheInfo(ctx, t, opts)
		if err == nil {
			data, err = layout.MarshalResult(res)
		}
	}
	if err != nil {
		spinner.StopWithError("Layout failed")
		return fmt.Errorf("compute layout: %w", err)
	}
	spinner.Stop()
	if ctx.Err() != nil {
		return ctx.Err()
	}

	if f.output == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	out := f.output
	if out == "" {
		ext := ".layout.json"
		if f.format == formatSVG {
			ext = ".svg"
		}
		out = slug(t.Name) + ext
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}

	printSuccess("Layout complete")
	printFile(out)
	printStats(t.Len(), t.PersonCount(), hit)
	return nil
}

// loadTree reads source as an exported tree file if it exists, otherwise
// as a tree ID in the configured store.
func (c *CLI) loadTree(ctx context.Context, source string) (*family.Tree, error) {
	if info, err := os.Stat(source); err == nil && !info.IsDir() {
		return readTreeFile(source)
	}
	var t *family.Tree
	err := c.withStore(ctx, func(ctx context.Context, st store.Store) error {
		var err error
		t, err = st.GetTree(ctx, source)
		return err
	})
	return t, err
}

func readTreeFile(path string) (*family.Tree, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readTree(f, path)
}

func readTree(r io.Reader, name string) (*family.Tree, error) {
	t, err := family.Import(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(name), err)
	}
	return t, nil
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// slug turns a tree name into a file name stem.
func slug(name string) string {
	s := strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(name), "-"), "-")
	if s == "" {
		return "family-tree"
	}
	return s
}
