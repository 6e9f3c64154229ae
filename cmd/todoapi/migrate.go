package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Kerhoff/todoapi/internal/config"
)

func newMigrateCmd(load loadFunc) *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down]",
		Short:     "Apply or roll back the database schema",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, l, err := load()
			if err != nil {
				return err
			}

			db, err := config.NewDatabase(cfg.DatabaseDriver, cfg.DatabaseURL, l)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer db.Close()

			if args[0] == "down" {
				return db.MigrateDown()
			}
			return db.Migrate()
		},
	}
}
