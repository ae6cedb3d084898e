package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/spf13/cobra"

	httpapi "github.com/i474232898/skimeister/internal/api/http"
	"github.com/i474232898/skimeister/internal/scheduler"
	"github.com/i474232898/skimeister/internal/search"
)

var serveNoRefresh *bool

func init() {
	serveNoRefresh = serveCmd.Flags().Bool("no-refresh", false, "Do not schedule periodic ingest runs.")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve [--no-refresh]",
	Short: "Serves the HTTP API and refreshes resort data in the background.",
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, closeRepo, err := openRepository(cfg)
		if err != nil {
			return err
		}
		defer closeRepo()

		if !*serveNoRefresh {
			pipeline, err := newPipeline(cfg, repo, logger)
			if err != nil {
				return err
			}
			// Scheduler that periodically re-runs ingest for every configured country.
			sched := scheduler.New(pipeline, cfg.Countries, cfg.Limit, cfg.RefreshInterval, logger)
			if err := sched.Start(); err != nil {
				return fmt.Errorf("start scheduler: %w", err)
			}
			defer sched.Stop()
		}

		app := fiber.New(fiber.Config{
			AppName:               "skimeister",
			DisableStartupMessage: true,
			ReadTimeout:           10 * time.Second,
			WriteTimeout:          10 * time.Second,
			ErrorHandler:          httpapi.ErrorHandler,
		})

		// Global middleware
		app.Use(fiberlogger.New())
		app.Use(recover.New())

		httpapi.RegisterRoutes(app, repo, search.NewEngine(cfg.RadiusBounds()), logger)

		errc := make(chan error, 1)
		go func() {
			logger.Info("listening", "port", cfg.Port)
			errc <- app.Listen(":" + cfg.Port)
		}()

		select {
		case err := <-errc:
			return fmt.Errorf("fiber server stopped: %w", err)
		case <-cmd.Context().Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			logger.Error("error during shutdown", "error", err)
		}
		return nil
	},
}
