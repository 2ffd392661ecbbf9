package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/iamharada/stepwise-system/internal/server"
	"github.com/iamharada/stepwise-system/pkg/platform"
)

func newServeCmd(load configLoader) *cobra.Command {
	var address string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Long: `Start the stepwise HTTP server. SIGINT and SIGTERM stop accepting new
requests, wait for in-flight ones and flush queued activity records before
exiting.`,
		Example: `  stepwise serve --config stepwise.yaml
  SESSION_SECRET=... OPENAI_API_KEY=... stepwise serve --address :8080`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if address != "" {
				cfg.Server.Address = address
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger, err := server.NewLogger(cfg.Logging, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			slog.SetDefault(logger)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg, logger)
		},
	}
	cmd.Flags().StringVar(&address, "address", "", "listen address, overrides server.address")
	return cmd
}

func runServe(ctx context.Context, cfg *platform.Config, logger *slog.Logger) error {
	srv, err := server.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	return srv.ListenAndServe(ctx)
}
