package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/fleetrollout/app"
	"github.com/kilianp07/fleetrollout/config"
	"github.com/kilianp07/fleetrollout/infra/logger"
)

type options struct {
	cfgPath string
	envFile string
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "fleetrollout",
		Short:         "Fleet telematics rollout coordinator",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return config.LoadDotEnv(opts.envFile)
		},
	}
	root.PersistentFlags().StringVarP(&opts.cfgPath, "config", "c", "", "configuration file (yaml or json)")
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before the configuration")
	root.AddCommand(
		newServeCmd(opts),
		newFleetCmd(opts),
		newLocationsCmd(opts),
		newScheduleCmd(opts),
	)
	return root
}

// Execute runs the CLI.
func Execute() error { return NewRootCmd().Execute() }

// openService loads every collection for one-shot commands. Background
// workers stay off.
func openService(ctx context.Context, opts *options) (*app.Service, error) {
	cfg, err := config.Load(opts.cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	cfg.Prefetch.Disabled = true
	cfg.Cache.Poll = false
	svc, err := app.New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := svc.Workspace.Init(ctx); err != nil {
		closeService(svc)
		return nil, fmt.Errorf("load collections: %w", err)
	}
	return svc, nil
}

func closeService(svc *app.Service) {
	if err := svc.Close(); err != nil {
		logger.New("cli").Errorf("service close: %v", err)
	}
}
