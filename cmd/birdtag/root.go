package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/anbu0606/BirdTag-AWS-Serverless/internal/app"
	"github.com/anbu0606/BirdTag-AWS-Serverless/internal/config"
)

type options struct {
	configPath string
	store      string
	logLevel   string
}

// open wires an App for one command, applying flag overrides on top of the
// file and environment.
func (o *options) open(ctx context.Context, name string) (*app.App, error) {
	path := o.configPath
	if path == "" {
		path = os.Getenv(app.ConfigPathEnv)
	}
	return app.FromFile(ctx, name, path, func(cfg *config.Config) {
		if o.store != "" {
			cfg.Server.Store = o.store
		}
		if o.logLevel != "" {
			cfg.Log.Level = o.logLevel
		}
		if cfg.Log.Format == config.FormatJSON && os.Getenv("LOG_FORMAT") == "" {
			cfg.Log.Format = config.FormatConsole
		}
	})
}

func newRootCommand() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "birdtag",
		Short:         "BirdTag media catalog",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Configuration file path (default $"+app.ConfigPathEnv+")")
	rootCmd.PersistentFlags().StringVar(&opts.store, "store", "", "Record store: memory, sqlite or dynamodb")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn or error")

	rootCmd.AddCommand(newServeCommand(opts))
	rootCmd.AddCommand(newWatchCommand(opts))
	rootCmd.AddCommand(newSearchCommand(opts))

	return rootCmd
}
