package main

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/heartmarshall/barcount-backend/internal/adapter/postgres/refproduct"
	"github.com/heartmarshall/barcount-backend/internal/adapter/redisbus"
	"github.com/heartmarshall/barcount-backend/internal/app/seeder"
	"github.com/heartmarshall/barcount-backend/internal/config"
)

// Compile-time interface assertion.
var _ seeder.RefProductRepo = (*refproduct.Repo)(nil)

func newSeedCatalogCommand(ctx *commandContext) *cobra.Command {
	var (
		file   string
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "seed-catalog",
		Short: "Load reference products from a YAML catalog file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			seedCfg, err := seeder.LoadConfig()
			if err != nil {
				return err
			}
			if path := strings.TrimSpace(file); path != "" {
				seedCfg.CatalogPath = path
			}
			if dryRun {
				seedCfg.DryRun = true
			}
			if seedCfg.CatalogPath == "" {
				return fmt.Errorf("catalog file is required (--file or SEEDER_CATALOG_PATH)")
			}

			products, err := seeder.LoadCatalogFile(seedCfg.CatalogPath)
			if err != nil {
				return err
			}

			return ctx.withPool(cmd.Context(), func(cfg *config.Config, logger *slog.Logger, pool *pgxpool.Pool) error {
				var pipeline *seeder.Pipeline
				if cfg.Redis.Enabled() && seedCfg.Notify && !seedCfg.DryRun {
					client, err := redisbus.NewClient(cmd.Context(), cfg.Redis)
					if err != nil {
						return fmt.Errorf("connect redis: %w", err)
					}
					defer client.Close()
					bus := redisbus.New(client, cfg.Redis.Channel, logger)
					pipeline = seeder.NewPipeline(logger, refproduct.New(pool), bus, seedCfg.DryRun)
				} else {
					pipeline = seeder.NewPipeline(logger, refproduct.New(pool), nil, seedCfg.DryRun)
				}

				res, err := pipeline.Run(cmd.Context(), products)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "inserted %d, skipped %d in %s\n",
					res.Inserted, res.Skipped, res.Duration.Round(time.Millisecond))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML catalog file")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Validate the catalog without writing")
	return cmd
}
