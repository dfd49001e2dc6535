package main

import (
	"context"
	"fmt"
	"log/slog"
	"text/tabwriter"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"

	"github.com/heartmarshall/barcount-backend/internal/config"
	"github.com/heartmarshall/barcount-backend/migrations"
)

func newMigrateCommand(ctx *commandContext) *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or inspect database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd, ctx, migrateUp)
		},
	}

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply every pending migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd, ctx, migrateUp)
		},
	})
	migrateCmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd, ctx, migrateDown)
		},
	})
	migrateCmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "List migrations and whether they are applied",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd, ctx, migrateStatus)
		},
	})

	return migrateCmd
}

type migrateFunc func(ctx context.Context, cmd *cobra.Command, logger *slog.Logger, p *goose.Provider) error

func runMigrate(cmd *cobra.Command, cctx *commandContext, fn migrateFunc) error {
	return cctx.withPool(cmd.Context(), func(_ *config.Config, logger *slog.Logger, pool *pgxpool.Pool) error {
		db := stdlib.OpenDBFromPool(pool)
		defer db.Close()

		provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations.FS)
		if err != nil {
			return fmt.Errorf("goose provider: %w", err)
		}
		return fn(cmd.Context(), cmd, logger, provider)
	})
}

func migrateUp(ctx context.Context, _ *cobra.Command, logger *slog.Logger, p *goose.Provider) error {
	results, err := p.Up(ctx)
	if err != nil {
		return fmt.Errorf("migrate up: %w", err)
	}
	for _, r := range results {
		logger.InfoContext(ctx, "migration applied",
			slog.Int64("version", r.Source.Version),
			slog.Duration("duration", r.Duration),
		)
	}
	if len(results) == 0 {
		logger.InfoContext(ctx, "schema is up to date")
	}
	return nil
}

func migrateDown(ctx context.Context, _ *cobra.Command, logger *slog.Logger, p *goose.Provider) error {
	r, err := p.Down(ctx)
	if err != nil {
		return fmt.Errorf("migrate down: %w", err)
	}
	logger.InfoContext(ctx, "migration rolled back", slog.Int64("version", r.Source.Version))
	return nil
}

func migrateStatus(ctx context.Context, cmd *cobra.Command, _ *slog.Logger, p *goose.Provider) error {
	statuses, err := p.Status(ctx)
	if err != nil {
		return fmt.Errorf("migrate status: %w", err)
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "VERSION\tSTATE\tAPPLIED AT")
	for _, s := range statuses {
		applied := "-"
		if !s.AppliedAt.IsZero() {
			applied = s.AppliedAt.UTC().Format("2006-01-02 15:04:05")
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\n", s.Source.Version, s.State, applied)
	}
	return tw.Flush()
}
