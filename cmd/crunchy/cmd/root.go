/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ssargent/crunchybytes/pkg/config"
	"github.com/ssargent/crunchybytes/pkg/di"
	"github.com/ssargent/crunchybytes/pkg/logging"
)

const appName = "crunchy"

// cli carries the global flags and the container built from them
type cli struct {
	configPath string
	dataDir    string
	logLevel   string

	container *di.Container
}

// NewRootCommand builds the crunchy command tree
func NewRootCommand() *cobra.Command {
	c := &cli{}

	rootCmd := &cobra.Command{
		Use:   "crunchy",
		Short: "crunchy - schema-driven binary records",
		Long: `crunchy encodes and decodes records described by TOML schema files into a
compact little-endian binary layout, and stores them in an embedded record log
or pebble database.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&c.configPath, "config", "", "Path to config file (default: ~/.config/crunchy/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&c.dataDir, "data-dir", "d", "", "Data directory for the store (overrides config)")
	rootCmd.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "Log level: debug, info, warn or error (overrides config)")

	rootCmd.AddCommand(
		newInitCmd(c),
		newValidateCmd(c),
		newInspectCmd(c),
		newEncodeCmd(c),
		newDecodeCmd(c),
		newPutCmd(c),
		newGetCmd(c),
		newDeleteCmd(c),
		newListCmd(c),
		newServeCmd(c),
	)
	return rootCmd
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
		os.Exit(1)
	}
}

// resolvedConfigPath returns the --config value or the default location
func (c *cli) resolvedConfigPath() string {
	if c.configPath != "" {
		return c.configPath
	}
	return config.GetDefaultConfigPath()
}

// loadConfig reads the config file, falling back to defaults when the
// default location has none, and applies flag overrides
func (c *cli) loadConfig() (*config.Config, error) {
	path := c.resolvedConfigPath()

	var cfg *config.Config
	switch {
	case config.ConfigExists(path):
		loaded, err := config.LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	case c.configPath != "":
		return nil, fmt.Errorf("config file does not exist: %s", path)
	default:
		cfg = config.DefaultConfig()
	}

	if c.dataDir != "" {
		cfg.DataDir = c.dataDir
	}
	if c.logLevel != "" {
		cfg.Logging.Level = c.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setup builds the container for a command. Log output goes to stderr so
// command output on stdout stays machine readable.
func (c *cli) setup(cmd *cobra.Command) (*di.Container, error) {
	if c.container != nil {
		return c.container, nil
	}
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(appName, cfg.Logging.Level, cfg.Logging.Format, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	c.container = di.NewContainer(cfg, logger)
	return c.container, nil
}

func (c *cli) teardown() error {
	if c.container == nil {
		return nil
	}
	err := c.container.Close()
	c.container = nil
	return err
}

// withContainer wraps a command body with container setup and teardown
func (c *cli) withContainer(run func(cmd *cobra.Command, args []string, container *di.Container) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		container, err := c.setup(cmd)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := c.teardown(); err == nil {
				err = cerr
			}
		}()
		return run(cmd, args, container)
	}
}

// readArg returns arg, or stdin when arg is "-"
func readArg(cmd *cobra.Command, arg string) ([]byte, error) {
	if arg != "-" {
		return []byte(arg), nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return nil, fmt.Errorf("failed to read stdin: %w", err)
	}
	return data, nil
}

// parseValues decodes a JSON object, keeping numbers exact
func parseValues(data []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var values map[string]any
	if err := dec.Decode(&values); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	return values, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
