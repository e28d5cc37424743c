package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/helpdesk-kit/tickets/internal/config"
	"github.com/helpdesk-kit/tickets/internal/observability"
	"github.com/helpdesk-kit/tickets/internal/persistence"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "tickets",
		Short:        "Helpdesk ticket tracker",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
	root.AddCommand(newServeCommand(), newInitDBCommand(), newUserCommand())
	return root
}

// runtimeEnv holds the configuration, logger and database shared by every command.
type runtimeEnv struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *persistence.Database
}

// openRuntime loads configuration and connects the database. Migrations run
// when forced or when DATABASE_RUN_MIGRATIONS is enabled.
func openRuntime(ctx context.Context, forceMigrate bool) (*runtimeEnv, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	db, err := persistence.NewDatabase(ctx, cfg.Database, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if forceMigrate || cfg.Database.RunMigrations {
		if err := persistence.RunMigrations(ctx, db, logger); err != nil {
			db.Close()
			_ = logger.Sync()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}
	return &runtimeEnv{cfg: cfg, logger: logger, db: db}, nil
}

func (e *runtimeEnv) Close() {
	e.db.Close()
	_ = e.logger.Sync()
}
