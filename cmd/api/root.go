package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/geocoder89/pethub/internal/config"
	"github.com/geocoder89/pethub/internal/db"
	"github.com/geocoder89/pethub/internal/observability"
	"github.com/geocoder89/pethub/internal/repo/sqlite"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "pethub",
		Short:        "PetHub API server",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server (default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	})
	root.AddCommand(newMigrateCmd())

	return root
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			log := observability.NewLogger(cfg.Env)

			return runMigrations(cmd.Context(), cfg, log)
		},
	}
}

func runMigrations(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}

	switch cfg.DBDriver {
	case config.DriverSQLite:
		// sqlite applies its migrations on open
		st, err := sqlite.New(ctx, cfg.SQLitePath)
		if err != nil {
			return err
		}
		log.Info("sqlite schema up to date", "path", cfg.SQLitePath)
		return st.Close()

	case config.DriverPostgres:
		pool, err := db.NewPool(ctx, cfg.DBURL)
		if err != nil {
			return err
		}
		defer pool.Close()

		return db.Migrate(ctx, pool, log)

	default:
		return fmt.Errorf("unknown DB_DRIVER %q", cfg.DBDriver)
	}
}
