package cli

import (
	"context"
	"fmt"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/familytree/pkg/family"
	"github.com/matzehuels/familytree/pkg/store"
)

func (c *CLI) treesCommand() *cobra.Command {
	var interactive bool

	cmd := &cobra.Command{
		Use:   "trees",
		Short: "List stored family trees",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd.Context(), func(ctx context.Context, st store.Store) error {
				trees, err := st.ListTrees(ctx)
				if err != nil {
					return err
				}
				if len(trees) == 0 {
					printInfo("No trees yet")
					printNextStep("Import one", appName+" import tree.json")
					return nil
				}
				if !interactive {
					rows := make([][]string, len(trees))
					for i, t := range trees {
						rows[i] = []string{strconv.Itoa(i + 1), t.Name, t.ID}
					}
					fmt.Println(treeTable(rows, nil).Render())
					return nil
				}

				final, err := tea.NewProgram(NewTreeListModel(trees), tea.WithContext(ctx)).Run()
				if err != nil {
					return fmt.Errorf("tree picker: %w", err)
				}
				sel := final.(TreeListModel).Selected
				if sel == nil {
					return nil
				}
				return showTree(ctx, st, sel.ID)
			})
		},
	}
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "pick a tree interactively and show its details")

	cmd.AddCommand(&cobra.Command{
		Use:   "show <tree-id>",
		Short: "Show a tree's size and generations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd.Context(), func(ctx context.Context, st store.Store) error {
				return showTree(ctx, st, args[0])
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "delete <tree-id>",
		Short: "Delete a tree with all of its units and persons",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd.Context(), func(ctx context.Context, st store.Store) error {
				if err := st.DeleteTree(ctx, args[0]); err != nil {
					return err
				}
				printSuccess("Deleted tree %s", args[0])
				return nil
			})
		},
	})
	return cmd
}

// withStore opens the configured store for the duration of fn.
func (c *CLI) withStore(ctx context.Context, fn func(context.Context, store.Store) error) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	st, err := c.openStore(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer st.Close()
	return fn(ctx, st)
}

func showTree(ctx context.Context, st store.Store, id string) error {
	t, err := st.GetTree(ctx, id)
	if err != nil {
		return err
	}
	printTree(t)
	return nil
}

func printTree(t *family.Tree) {
	generations := 0
	for _, level := range t.Levels() {
		generations = max(generations, level+1)
	}
	rootName := ""
	if root, ok := t.Root(); ok {
		if p, ok := root.Primary(); ok {
			rootName = p.FullName()
		}
	}

	fmt.Println(StyleTitle.Render(t.Name))
	printKeyValue("ID", t.ID)
	printKeyValue("Root", rootName)
	printKeyValue("Units", strconv.Itoa(t.Len()))
	printKeyValue("Persons", strconv.Itoa(t.PersonCount()))
	printKeyValue("Generations", strconv.Itoa(generations))
}
