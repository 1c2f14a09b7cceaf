package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"tweetrelay/pkg/config"
	"tweetrelay/pkg/ui"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage tweetrelay configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables prefixed with TWEETRELAY_
  - A .env file
  - Configuration file
  - Default values (lowest priority)`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file with the defaults",
	Long: `Write every option with its default value.

The file is created at ~/.config/tweetrelay/config.yaml unless a different
path is given with --config. An existing file is never overwritten.`,
	Args:        cobra.NoArgs,
	Annotations: map[string]string{annotationConfig: "skip"},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConfigInit(configPath())
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long: `Show the configuration after every source has been applied.

The Sentry DSN is masked.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConfigShow(cmd, cfg)
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	Long: `Load the configuration from every source and check its values.

This command checks:
  - YAML syntax
  - Value ranges
  - Log level and format names
  - Search mode`,
	Args:        cobra.NoArgs,
	Annotations: map[string]string{annotationConfig: "skip"},
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := config.Load(configFile, nil); err != nil {
			return err
		}
		ui.PrintSuccess("Configuration is valid")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
}

func configPath() string {
	if configFile != "" {
		return configFile
	}
	return config.DefaultPath()
}

func runConfigInit(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("configuration file already exists: %s (remove it first to start over)", path)
	}
	if err := config.DefaultConfig().Save(path); err != nil {
		return err
	}
	ui.PrintSuccess("Configuration written")
	ui.PrintInfo("Path", path)
	return nil
}

func runConfigShow(cmd *cobra.Command, c *config.Config) error {
	shown := *c
	if shown.Sentry.DSN != "" {
		shown.Sentry.DSN = "********"
	}
	data, err := yaml.Marshal(&shown)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}
