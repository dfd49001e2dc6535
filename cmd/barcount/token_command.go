package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/heartmarshall/barcount-backend/internal/auth"
	"github.com/heartmarshall/barcount-backend/internal/domain"
)

func newTokenCommand(ctx *commandContext) *cobra.Command {
	var tenantFlag, roleFlag string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an access token for a tenant",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tenantID, err := parseIDFlag("tenant", tenantFlag)
			if err != nil {
				return err
			}
			role := domain.UserRole(roleFlag)
			if !role.IsValid() {
				return fmt.Errorf("--role: must be %q or %q", domain.UserRoleUser, domain.UserRoleAdmin)
			}

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			jwt := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.AccessTokenTTL)
			token, err := jwt.GenerateAccessToken(tenantID, role)
			if err != nil {
				return fmt.Errorf("generate token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&tenantFlag, "tenant", "", "Tenant id")
	cmd.Flags().StringVar(&roleFlag, "role", string(domain.UserRoleUser), "Role: user or admin")
	_ = cmd.MarkFlagRequired("tenant")
	return cmd
}
