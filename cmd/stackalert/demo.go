package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/stackalert/internal/config"
	"github.com/jmylchreest/stackalert/internal/tui"
)

var demoOpts struct {
	noWatch bool
}

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Launch the interactive alert demo",
	Long: `Launch a full-screen demo that shows stacking alerts in the terminal.

Alerts slide in from the chosen edge, stack against it and dismiss themselves
after the configured duration. The config file is reloaded when it changes.

Key bindings:
  t, ↑        Alert from top
  b, ↓        Alert from bottom
  x           Close all alerts
  ?           Show help
  q           Quit

Logs are written to the log file (default: ~/.local/state/stackalert/stackalert.log)
so they do not draw over the screen.`,
	RunE: runDemo,
}

func init() {
	rootCmd.AddCommand(demoCmd)

	demoCmd.Flags().BoolVar(&demoOpts.noWatch, "no-watch", false,
		"Do not reload the config file when it changes")
}

func runDemo(cmd *cobra.Command, args []string) error {
	logPath := cfg.LogPath()
	if cfg.Log.File == "" {
		if err := config.EnsureStateDir(); err != nil {
			return fmt.Errorf("failed to create state directory: %w", err)
		}
	} else if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer logFile.Close()
	setupLogger(logFile)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := tui.RunOptions{
		Config: cfg,
		Logger: logger,
	}
	if !demoOpts.noWatch {
		opts.ConfigPath = configPath()
	}

	logger.Info("demo starting", "version", version, "config", configPath())
	return tui.Run(ctx, opts)
}
