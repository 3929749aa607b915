package system

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/healthplus/backend/config"
	"github.com/healthplus/backend/internal/repo"
	"github.com/healthplus/backend/internal/service/auth"
	"github.com/healthplus/backend/pkg/database"
	"github.com/healthplus/backend/pkg/util/password"
)

func NewInitCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create indexes and the admin account from the admin config section",
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

			client, db, err := database.Connect(ctx, dbCfg)
			if err != nil {
				return fmt.Errorf("failed to connect to mongo: %w", err)
			}
			defer client.Disconnect(context.Background())

			fmt.Println("Initializing database...")
			if err := repo.EnsureIndexes(ctx, db); err != nil {
				return fmt.Errorf("failed to create indexes: %w", err)
			}

			// Only the store and hasher are needed to seed an account.
			svc := auth.New(auth.Deps{
				Store:  repo.NewMongoStore(db),
				Hasher: password.NewHasher(password.FromCentralConfig(cfg.Password)),
				Config: cfg.Authentication,
			})
			acct, err := svc.EnsureAdmin(ctx, cfg.Admin.Name, cfg.Admin.Email, cfg.Admin.Password)
			if err != nil {
				return fmt.Errorf("failed to create admin account: %w", err)
			}

			fmt.Printf("Admin account ready: %s (%s)\n", acct.Email, acct.ID)
			return nil
		},
	}

	return cmd
}
