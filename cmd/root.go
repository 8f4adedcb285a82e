// Package cmd implements the tomekeeper CLI using cobra.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/crystaldolphin/tomekeeper/internal/config"
	"github.com/crystaldolphin/tomekeeper/internal/dependency"
	"github.com/crystaldolphin/tomekeeper/internal/logging"
	"github.com/crystaldolphin/tomekeeper/internal/shared/cmdutils"
)

const version = "0.1.0"

var (
	configPath string
	logLevel   string
)

// rootCmd is the base command.
var rootCmd = &cobra.Command{
	Use:           "tomekeeper",
	Short:         cmdutils.Logo + " tomekeeper - D&D character sheet keeper",
	Long:          cmdutils.Logo + " tomekeeper - keep D&D 5e character sheets by talking to an LLM",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = version

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.tomekeeper/config.json)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override log level (debug|info|warn|error)")

	rootCmd.AddCommand(onboardCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(toolsCmd)
	rootCmd.AddCommand(characterCmd)
}

// loadConfig reads the config file, logging parse problems at warn level.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath, logging.MustNew("warn", "console"))
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// newContainer loads the config and builds the service container with a
// logger configured from it.
func newContainer() (*dependency.Container, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	level := cfg.Log.Level
	if logLevel != "" {
		level = logLevel
	}
	logger, err := logging.New(level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}
	logger = logger.With(zap.String("app", "tomekeeper"))

	return dependency.New(cfg, logger)
}
