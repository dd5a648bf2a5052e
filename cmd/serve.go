package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/fleetrollout/app"
	"github.com/kilianp07/fleetrollout/config"
)

func newServeCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API and run background revalidation",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, err := config.Load(opts.cfgPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			svc, err := app.New(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeService(svc)
			return svc.Run(ctx)
		},
	}
}
