package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Kerhoff/todoapi/internal/config"
	"github.com/Kerhoff/todoapi/internal/repository"
	"github.com/Kerhoff/todoapi/internal/repository/postgres"
	"github.com/Kerhoff/todoapi/internal/repository/sqlite"
	"github.com/Kerhoff/todoapi/pkg/logger"
)

func newRootCmd() *cobra.Command {
	var envFile string

	cmd := &cobra.Command{
		Use:           "todoapi",
		Short:         "Todo list service with an RPC API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading the environment")

	load := func() (*config.Config, *logrus.Logger, error) {
		cfg, err := config.Load(envFile)
		if err != nil {
			return nil, nil, err
		}
		return cfg, logger.New(cfg.LogLevel, cfg.LogFormat), nil
	}

	// Running the binary without a subcommand serves.
	serve := newServeCmd(load)
	cmd.Args = cobra.NoArgs
	cmd.RunE = serve.RunE

	cmd.AddCommand(serve, newMigrateCmd(load))
	return cmd
}

type loadFunc func() (*config.Config, *logrus.Logger, error)

func newTodoRepository(db *config.Database) repository.TodoRepository {
	if db.Driver == config.DriverSQLite {
		return sqlite.NewTodoRepository(db.Sqlx())
	}
	return postgres.NewTodoRepository(db.DB)
}
