package cli

import (
	"fmt"
	"time"

	"erp/internal/config"
	"erp/internal/middleware"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newTokenCmd() *cobra.Command {
	var (
		tenantFlag string
		userFlag   string
		ttl        time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Sign a bearer token for local testing",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(envFile)
			if err != nil {
				return err
			}
			tenantID, err := uuid.Parse(tenantFlag)
			if err != nil {
				return fmt.Errorf("invalid --tenant: %w", err)
			}
			id := middleware.Identity{TenantID: tenantID}
			if userFlag != "" {
				userID, err := uuid.Parse(userFlag)
				if err != nil {
					return fmt.Errorf("invalid --user: %w", err)
				}
				id.UserID = &userID
			}

			token, err := middleware.IssueToken([]byte(cfg.Auth.JWTSecret), id, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&tenantFlag, "tenant", "", "tenant ID")
	cmd.Flags().StringVar(&userFlag, "user", "", "user ID (optional)")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("tenant")
	return cmd
}
