/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ssargent/drivelog/pkg/config"
	"github.com/ssargent/drivelog/pkg/di"
	"github.com/ssargent/drivelog/pkg/logging"
)

var container *di.Container

// SetContainer injects the dependency container
func SetContainer(c *di.Container) {
	container = c
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "drivelog",
	Short: "drivelog - telemetry protocol and feedback log tools",
	Long: `drivelog runs both ends of the vehicle telemetry protocol and inspects
the device feedback log.

The controller ("serve") answers telemetry over HTTP in manual, training or
auto mode. The device ("device") sends telemetry to a controller and appends
every feedback and command it receives to an append-only log, which "dump"
and "verify" read back.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to configuration file (default is ~/.config/drivelog/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level override (trace, debug, info, warn, error)")
}

// loadConfig reads the config named by --config, falling back to defaults
// when the file does not exist
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configPath, _ := cmd.Flags().GetString("config")
	explicit := configPath != ""
	if !explicit {
		configPath = config.GetDefaultConfigPath()
	}

	cfg := config.DefaultConfig()
	if config.ConfigExists(configPath) {
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else if explicit {
		return nil, fmt.Errorf("config file does not exist: %s", configPath)
	}

	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Logging.Level = level
	}
	return cfg, nil
}

// newLogger builds the process logger from cfg
func newLogger(cmd *cobra.Command, cfg *config.Config) zerolog.Logger {
	return logging.New("drivelog", logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cmd.ErrOrStderr(),
	})
}

// getContainer returns the injected container, building a default one on first use
func getContainer(logger zerolog.Logger) *di.Container {
	if container == nil {
		container = di.NewContainer(logger)
	}
	return container
}
