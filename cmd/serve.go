package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"reci/internal/backend"
	"reci/internal/logging"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bind string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the local development backend",
		Long: `Run a local recipe backend backed by SQLite. Point api.list_url and
api.create_url at <public_url>/recipes to use it.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if bind != "" {
				cfg.Server.Bind = bind
			}

			level := cfg.Logging.Level
			if lv := ctx.logLevel(); lv != "" {
				level = lv
			}
			logger, closeLog, err := logging.New(logging.Options{
				Level:  level,
				Format: cfg.Logging.Format,
				Path:   "stderr",
			})
			if err != nil {
				return fmt.Errorf("failed to create logger: %w", err)
			}
			defer closeLog()

			base := cmd.Context()
			if base == nil {
				base = context.Background()
			}
			runCtx, stop := signal.NotifyContext(base, os.Interrupt, syscall.SIGTERM)
			defer stop()

			fmt.Fprintf(cmd.OutOrStdout(), "Serving recipes at %s/recipes (data in %s)\n", cfg.Server.PublicURL, cfg.Server.DataDir)
			return backend.Serve(runCtx, cfg, logger)
		},
	}

	cmd.Flags().StringVar(&bind, "bind", "", "Listen address (overrides server.bind)")
	return cmd
}
