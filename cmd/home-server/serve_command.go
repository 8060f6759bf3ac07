package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Ocean50ul/home-server/internal/catalog"
	"github.com/Ocean50ul/home-server/internal/logging"
	"github.com/Ocean50ul/home-server/internal/web"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var syncFirst bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the library preview web server",
		Long: `Run the web server until interrupted. SIGINT or SIGTERM triggers a
graceful shutdown.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := logging.NewFromConfig(logging.LogConfig{
				Level:  cfg.Logging.Level,
				Format: cfg.Logging.Format,
				Dir:    cfg.Logging.Dir,
			})
			if err != nil {
				return err
			}

			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			store, err := catalog.Open(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			if syncFirst {
				err := withRunLock(cfg, func() error {
					scanResult, report, err := runSync(signalCtx, cfg, store, logger)
					if err != nil {
						return err
					}
					out := cmd.OutOrStdout()
					printScanSummary(out, cfg.Library.MusicPath, scanResult)
					printSyncReport(out, report)
					return nil
				})
				if err != nil {
					return err
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Serving library on %s:%d\n", cfg.Server.Host, cfg.Server.Port)
			server := web.New(cfg, store, web.WithLogger(logger))
			return server.Run(signalCtx)
		},
	}

	cmd.Flags().BoolVar(&syncFirst, "sync-first", false, "reconcile the catalog before accepting requests")
	return cmd
}
