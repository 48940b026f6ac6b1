package main

import (
	"github.com/spf13/cobra"

	"github.com/anbu0606/BirdTag-AWS-Serverless/internal/httpapi"
)

func newServeCommand(opts *options) *cobra.Command {
	var bind string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve every catalog operation over HTTP under /api",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(cmd.Context(), "serve")
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			addr := a.Config.Server.Bind
			if bind != "" {
				addr = bind
			}
			router := httpapi.NewRouter(a.API, a.Log.Named("http"))
			return httpapi.Serve(cmd.Context(), addr, router, a.Log)
		},
	}
	cmd.Flags().StringVar(&bind, "bind", "", "Listen address (default server.bind)")
	return cmd
}
