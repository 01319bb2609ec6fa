package main

import (
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/c360/nodeforge/config"
)

type rootFlags struct {
	configPath string
	logLevel   string
	logFormat  string
}

func newRootCommand() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "nodeforge",
		Short:         "Batch mutation engine for node graphs",
		Long:          "nodeforge applies multi-phase batch edits to the node graphs of asset fixtures:\nremove, rewire, create, and connect nodes in one atomic request.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c",
		envOr("NODEFORGE_CONFIG", "nodeforge.yaml"),
		"Path to configuration file (env: NODEFORGE_CONFIG)")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level",
		envOr("NODEFORGE_LOG_LEVEL", ""),
		"Log level: debug, info, warn, error (env: NODEFORGE_LOG_LEVEL)")
	cmd.PersistentFlags().StringVar(&flags.logFormat, "log-format",
		envOr("NODEFORGE_LOG_FORMAT", "text"),
		"Log format: json, text (env: NODEFORGE_LOG_FORMAT)")

	cmd.AddCommand(newApplyCommand(flags))
	cmd.AddCommand(newKindsCommand())
	cmd.AddCommand(newValidateCommand(flags))
	return cmd
}

// loadConfig reads the configuration file and lets the log-level flag win
// over its setting.
func (f *rootFlags) loadConfig() (*config.Config, error) {
	cfg, err := config.LoadFile(f.configPath)
	if err != nil {
		return nil, err
	}
	if f.logLevel != "" {
		cfg.LogLevel = f.logLevel
		if _, err := cfg.SlogLevel(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func (f *rootFlags) buildLogger(cfg *config.Config) *slog.Logger {
	level, err := cfg.SlogLevel()
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	var handler slog.Handler
	switch strings.ToLower(f.logFormat) {
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, opts)
	default:
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler).With(
		"service", "nodeforge",
		"version", Version,
	)
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
