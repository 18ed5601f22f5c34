package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (c *CLI) migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			cfg.Database.Migrate = false

			ctx := cmd.Context()
			st, err := c.openStore(ctx, cfg.Database)
			if err != nil {
				return err
			}
			defer st.Close()

			prog := newProgress(c.Logger)
			applied, err := st.Migrate(ctx)
			if err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			prog.done(fmt.Sprintf("Applied %d migrations", len(applied)))

			if len(applied) == 0 {
				printInfo("Schema is up to date")
				return nil
			}
			printSuccess("Migrated %s database", st.Dialect().Name())
			for _, name := range applied {
				printDetail("%s", name)
			}
			return nil
		},
	}
}
