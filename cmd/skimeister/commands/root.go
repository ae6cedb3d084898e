package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/i474232898/skimeister/internal/config"
	"github.com/i474232898/skimeister/internal/telemetry"
)

var (
	cfg             *config.AppConfig
	logger          *slog.Logger
	shutdownTracing telemetry.ShutdownFunc
)

var rootCmd = &cobra.Command{
	Use:           "skimeister",
	Short:         "skimeister collects ski resort conditions and finds resorts near you.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return err
		}
		cfg = loaded

		logger = telemetry.NewLogger(os.Stderr, cfg.SlogLevel())
		slog.SetDefault(logger)

		shutdownTracing, err = telemetry.Setup(cmd.Context(), cfg.OTLPEndpoint)
		if err != nil {
			return fmt.Errorf("setup tracing: %w", err)
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if shutdownTracing == nil {
			return nil
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return shutdownTracing(ctx)
	},
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
