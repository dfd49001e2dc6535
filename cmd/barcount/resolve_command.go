package main

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/heartmarshall/barcount-backend/internal/app"
	"github.com/heartmarshall/barcount-backend/internal/config"
)

func newResolveProvisionalCommand(ctx *commandContext) *cobra.Command {
	var provisionalFlag, productFlag string

	cmd := &cobra.Command{
		Use:   "resolve-provisional",
		Short: "Point a provisional product at a real tenant product",
		Long: "Marks the provisional entry as resolved and rewrites every session line\n" +
			"that referenced it, finalized sessions included.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			provisionalID, err := parseIDFlag("provisional", provisionalFlag)
			if err != nil {
				return err
			}
			productID, err := parseIDFlag("product", productFlag)
			if err != nil {
				return err
			}

			return ctx.withPool(cmd.Context(), func(cfg *config.Config, logger *slog.Logger, pool *pgxpool.Pool) error {
				svc := app.NewServices(logger, pool, cfg, nil)
				res, err := svc.Reconcile.ResolveProvisional(cmd.Context(), provisionalID, productID)
				if err != nil {
					return fmt.Errorf("resolve provisional: %w", err)
				}
				return writeJSON(cmd, res)
			})
		},
	}

	cmd.Flags().StringVar(&provisionalFlag, "provisional", "", "Provisional entry id")
	cmd.Flags().StringVar(&productFlag, "product", "", "Tenant product id")
	_ = cmd.MarkFlagRequired("provisional")
	_ = cmd.MarkFlagRequired("product")
	return cmd
}

func parseIDFlag(name, value string) (uuid.UUID, error) {
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, fmt.Errorf("--%s: invalid id %q", name, value)
	}
	if id == uuid.Nil {
		return uuid.Nil, fmt.Errorf("--%s: id must not be nil", name)
	}
	return id, nil
}
