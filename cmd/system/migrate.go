package system

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/healthplus/backend/config"
	"github.com/healthplus/backend/internal/repo"
	"github.com/healthplus/backend/pkg/authorize"
	"github.com/healthplus/backend/pkg/database"
)

func NewMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create MongoDB indexes and check the authorization policy",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath, err := cmd.Root().PersistentFlags().GetString("config")
			if err != nil {
				return fmt.Errorf("failed to get config flag: %w", err)
			}
			cfg, err := config.ReadConfig(filepath.Dir(cfgPath))
			if err != nil {
				return fmt.Errorf("failed to read config: %w", err)
			}

			dbCfg := database.FromCentralConfig(cfg.Mongo)
			ctx, cancel := context.WithTimeout(context.Background(), 2*dbCfg.ConnectTimeout())
			defer cancel()

			fmt.Println("Creating MongoDB indexes.")
			client, db, err := database.Connect(ctx, dbCfg)
			if err != nil {
				return fmt.Errorf("failed to connect to mongo: %w", err)
			}
			defer client.Disconnect(context.Background())

			if err := repo.EnsureIndexes(ctx, db); err != nil {
				return fmt.Errorf("failed to create indexes: %w", err)
			}

			// An operator-supplied policy file is loaded once to catch typos
			// before the server starts with it.
			if cfg.Authorization.PolicyPath != "" {
				fmt.Println("Checking authorization policy file.")
				if _, err := authorize.NewEnforcer(cfg.Authorization.PolicyPath); err != nil {
					return fmt.Errorf("failed to load policy %q: %w", cfg.Authorization.PolicyPath, err)
				}
			} else {
				slog.Info("no policy file configured, built-in policies are seeded at startup")
			}

			fmt.Println("Migrations executed successfully.")
			return nil
		},
	}

	return cmd
}
