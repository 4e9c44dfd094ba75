/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ssargent/crunchybytes/pkg/config"
)

func newInitCmd(c *cli) *cobra.Command {
	var (
		force     bool
		printKeys bool
	)

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create a configuration file with a generated API key",
		Long: `Create a crunchy configuration file with default settings and a freshly
generated API key for the HTTP server.

Examples:
  crunchy init
  crunchy init --config ./crunchy.yaml --data-dir ./data --print-keys`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := c.resolvedConfigPath()
			out := cmd.OutOrStdout()

			if config.ConfigExists(path) && !force {
				fmt.Fprintf(out, "Configuration already exists at %s. Use --force to overwrite.\n", path)
				return nil
			}

			cfg, err := config.BootstrapConfig(path, c.dataDir)
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "Configuration created at %s\n", path)
			fmt.Fprintf(out, "Data directory: %s\n", cfg.DataDir)
			fmt.Fprintf(out, "Schema files: %v\n", cfg.Schemas.Files)
			if printKeys {
				fmt.Fprintf(out, "API key: %s\n", cfg.Security.APIKey)
			}
			return nil
		},
	}

	initCmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing configuration")
	initCmd.Flags().BoolVar(&printKeys, "print-keys", false, "Print the generated API key")
	return initCmd
}
