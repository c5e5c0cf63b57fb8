package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/axellelanca/redirector/internal/config"
)

// Cfg holds the configuration loaded before any subcommand runs.
var Cfg *config.Config

var (
	configDir string
	cfgErr    error
)

// RootCmd is the base command. Subcommands register themselves from their
// own init() functions in cmd/server and cmd/cli.
var RootCmd = &cobra.Command{
	Use:   "redirector",
	Short: "A link redirection service with click analytics",
	Long: `redirector maps short slugs to destination URLs, records a click event
for every redirect and aggregates those events into per-link and per-account
statistics.`,
	SilenceUsage: true,
}

// Execute runs the command tree. It is called from main.go.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	RootCmd.PersistentFlags().StringVar(&configDir, "config-dir", config.DefaultConfigPath,
		"directory containing config.yaml")
}

func initConfig() {
	Cfg, cfgErr = config.Load(configDir)
}

// LoadedConfig returns the configuration or the error that prevented loading it.
func LoadedConfig() (*config.Config, error) {
	if cfgErr != nil {
		return nil, fmt.Errorf("load configuration: %w", cfgErr)
	}
	if Cfg == nil {
		return nil, fmt.Errorf("configuration not loaded")
	}
	return Cfg, nil
}
