/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ssargent/crunchybytes/pkg/api"
	"github.com/ssargent/crunchybytes/pkg/config"
	"github.com/ssargent/crunchybytes/pkg/di"
)

func newServeCmd(c *cli) *cobra.Command {
	var (
		port int
		bind string
	)

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the REST API server",
		Long: `Start the crunchy REST API server. Records posted as JSON are encoded with
their schema and stored; reads decode them back to JSON.

Examples:
  crunchy serve
  crunchy serve --port 9000 --bind 0.0.0.0`,
		Args: cobra.NoArgs,
		RunE: c.withContainer(func(cmd *cobra.Command, args []string, container *di.Container) error {
			cfg := container.Config()
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}
			if cmd.Flags().Changed("bind") {
				cfg.Bind = bind
			}

			reg, err := container.Registry()
			if err != nil {
				return err
			}
			s, err := container.Store()
			if err != nil {
				return err
			}

			apiKey := cfg.Security.APIKey
			if apiKey == "auto" {
				// Default config without init: generate a key for this run only
				apiKey, err = config.GenerateSecureKey(32)
				if err != nil {
					return err
				}
				cmd.Printf("Generated API key for this session: %s\n", apiKey)
			}

			server := api.NewServer(s, reg, api.ServerConfig{
				Bind:        cfg.Bind,
				Port:        cfg.Port,
				APIKey:      apiKey,
				MaxBodySize: int64(cfg.Limits.MaxRecordSize) * 4,
			}, api.NewMetrics(), container.Logger())

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return server.Start(ctx)
		}),
	}

	serveCmd.Flags().IntVarP(&port, "port", "p", 8080, "Port to listen on (overrides config)")
	serveCmd.Flags().StringVar(&bind, "bind", "127.0.0.1", "Address to bind to (overrides config)")
	return serveCmd
}
