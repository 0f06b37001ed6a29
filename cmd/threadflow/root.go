package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/threadflow/threadflow/pkg/config"
)

var (
	configPath string
	debugMode  bool
)

var rootCmd = &cobra.Command{
	Use:   "threadflow",
	Short: "threadflow runs a team of chat agents over a task board and data files",
	Long: `threadflow serves a supervisor agent that routes each chat request to
the specialist best suited to answer it: a task-board agent for
project status and deadlines, a sheets agent for tabular data files,
or a direct answer for everything else. Conversations are
checkpointed per thread, so follow-up questions keep their history.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to the configuration file (default threadflow.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "log at debug level")
}

// loadConfig seeds the environment from .env, then loads and
// validates the configuration.
func loadConfig() (config.Config, error) {
	if err := config.LoadEnv(); err != nil {
		return config.Config{}, err
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// newLogger builds the process logger. The floor keeps informational
// logs off the terminal for interactive commands; --debug wins over
// everything.
func newLogger(cfg config.Config, floor slog.Level) *slog.Logger {
	level := cfg.Log.SlogLevel()
	if level < floor {
		level = floor
	}
	if debugMode {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if strings.ToLower(cfg.Log.Format) == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}
