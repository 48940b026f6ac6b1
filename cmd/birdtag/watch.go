package main

import (
	"github.com/spf13/cobra"

	"github.com/anbu0606/BirdTag-AWS-Serverless/internal/config"
)

func newWatchCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Tail the media table stream and email matching subscribers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.store == "" {
				opts.store = config.StoreDynamoDB
			}
			a, err := opts.open(cmd.Context(), "watch")
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			w, err := a.Watcher()
			if err != nil {
				return err
			}
			return w.Run(cmd.Context())
		},
	}
}
