package http

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/healthplus/backend/config"
	"github.com/healthplus/backend/internal/api/http"
	"github.com/healthplus/backend/internal/api/http/router"
	"github.com/healthplus/backend/internal/app"
	"github.com/healthplus/backend/pkg/logs"
)

func NewStartCommand() *cobra.Command {
	var (
		port            int
		shutdownTimeout time.Duration
		verboseFx       bool
	)

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Serve the REST API until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath, err := cmd.Root().PersistentFlags().GetString("config")
			if err != nil {
				return err
			}
			cfg, err := config.ReadConfig(filepath.Dir(cfgPath))
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}

			logger := logs.New(cfg)
			slog.SetDefault(logger)

			fxLogger := func() fxevent.Logger { return fxevent.NopLogger }
			if verboseFx {
				fxLogger = func() fxevent.Logger { return &fxevent.SlogLogger{Logger: logger} }
			}

			fxApp := fx.New(
				fx.Supply(cfg),
				app.InfraModule,
				app.ServiceModule,
				app.WorkerModule,
				router.Module,
				http.Module,
				// NewServer registers the listener hook, so the app must be requested.
				fx.Invoke(func(*fiber.App) {}),
				fx.StopTimeout(shutdownTimeout),
				fx.WithLogger(fxLogger),
			)

			fxApp.Run()
			return fxApp.Err()
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "Override server.port")
	cmd.Flags().DurationVar(&shutdownTimeout, "shutdown-timeout", 30*time.Second, "How long in-flight requests get to finish on shutdown")
	cmd.Flags().BoolVar(&verboseFx, "fx-events", false, "Log dependency injection events")

	return cmd
}
