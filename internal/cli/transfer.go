package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matzehuels/familytree/pkg/family"
	"github.com/matzehuels/familytree/pkg/store"
)

func (c *CLI) exportCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export <tree-id>",
		Short: "Write a stored tree to a JSON file",
		Long: `Write a stored tree to a JSON file.

The file contains the complete tree and can be loaded again with import,
through POST /api/trees/import, or passed to layout directly.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd.Context(), func(ctx context.Context, st store.Store) error {
				t, err := st.GetTree(ctx, args[0])
				if err != nil {
					return err
				}
				if output == "-" {
					return family.Export(os.Stdout, t)
				}
				out := output
				if out == "" {
					out = slug(t.Name) + ".json"
				}
				if err := writeTreeFile(out, t); err != nil {
					return err
				}
				printSuccess("Exported %s", t.Name)
				printFile(out)
				printStats(t.Len(), t.PersonCount(), false)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", `output file, "-" for stdout (default: <tree name>.json)`)
	return cmd
}

func (c *CLI) importCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import <tree.json>",
		Short: "Store a tree from an exported JSON file",
		Long: `Store a tree from an exported JSON file.

The file is validated before anything is written. A tree whose ID already
exists is rejected; delete it first to replace it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := readTreeFile(args[0])
			if err != nil {
				return err
			}
			return c.withStore(cmd.Context(), func(ctx context.Context, st store.Store) error {
				prog := newProgress(c.Logger)
				if err := st.CreateTree(ctx, t); err != nil {
					return err
				}
				prog.done("Imported " + plural(t.PersonCount(), "person"))

				printSuccess("Imported %s", t.Name)
				printKeyValue("ID", t.ID)
				printKeyValue("Units", strconv.Itoa(t.Len()))
				printNextStep("Render it", appName+" layout "+t.ID+" --format svg")
				return nil
			})
		},
	}
}

func writeTreeFile(path string, t *family.Tree) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if err := family.Export(f, t); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
