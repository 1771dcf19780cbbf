// Package cli implements the enrich command line.
package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"gptenrich/internal/config"
	"gptenrich/internal/env"
	"gptenrich/internal/logging"
)

var (
	cfgPath string
	isDebug bool
)

var rootCmd = &cobra.Command{
	Use:           "enrich",
	Short:         "Enrich tabular datasets with generated text",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "config.yaml", "config file (default is config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&isDebug, "debug", false, "enable debug logging")
}

// loadConfig reads the .env file and the config, then installs the logger.
func loadConfig() (*config.Config, error) {
	env.LoadEnv()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		logging.Setup("info", "text")
		return nil, err
	}
	level := cfg.Logging.Level
	if isDebug {
		level = "debug"
	}
	logging.Setup(level, cfg.Logging.Format)
	slog.Debug("config loaded", "path", cfgPath, "engine", cfg.API.Engine, "recipe", cfg.Recipe.Kind)
	return cfg, nil
}
