package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/elupus/fjaraskupan-go/control"
	"github.com/elupus/fjaraskupan-go/pkg/config"
)

// loadConfig builds the effective configuration for a command invocation.
// Values come from the optional --config YAML file, with --log-level and
// --keycode flags taking precedence over file values.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	if logLevel, _ := cmd.Flags().GetString("log-level"); logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if keycode, _ := cmd.Flags().GetString("keycode"); keycode != "" {
		cfg.Keycode = keycode
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// configureLogger creates a logger with the appropriate log level based on
// the --log-level flag, falling back to the configured default.
func configureLogger(cfg *config.Config) (*logrus.Logger, error) {
	if _, err := logrus.ParseLevel(cfg.LogLevel); err != nil {
		return nil, fmt.Errorf("invalid log level: %s (must be debug, info, warn, error or panic)", cfg.LogLevel)
	}
	return cfg.NewLogger(), nil
}

// sessionOptions maps configuration onto device session options
func sessionOptions(cfg *config.Config) *control.Options {
	return &control.Options{
		ConnectTimeout:  cfg.ConnectTimeout,
		DisconnectDelay: cfg.DisconnectDelay,
		Keycode:         []byte(cfg.Keycode),
	}
}
