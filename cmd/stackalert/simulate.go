package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/stackalert/internal/config"
	"github.com/jmylchreest/stackalert/internal/display"
	"github.com/jmylchreest/stackalert/internal/script"
)

var simulateOpts struct {
	script  string
	output  string
	timeout time.Duration
}

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Replay an alert script headlessly and print the surface trace",
	Long: `Replay a YAML script against a headless surface and print every surface
command the stack issued.

The script runs in real time. Once every step has run, simulate waits for all
shown alerts to be removed before printing the trace.

Example script:

  name: eviction
  steps:
    - action: show
      message: Alert from Top 1
      anchor: top
      duration: 1s
    - action: show
      message: Alert from Bottom 2
      anchor: bottom
    - action: wait
      duration: 500ms
    - action: dismiss-front
    - action: close-all

Actions: show, dismiss-front, dismiss-back, close-all, wait.`,
	RunE: runSimulate,
}

func init() {
	rootCmd.AddCommand(simulateCmd)

	simulateCmd.Flags().StringVarP(&simulateOpts.script, "script", "s", "",
		"Path to the YAML script")
	simulateCmd.Flags().StringVarP(&simulateOpts.output, "output", "o", "yaml",
		"Output format (yaml, json)")
	simulateCmd.Flags().DurationVar(&simulateOpts.timeout, "timeout", 0,
		"Give up if the script has not finished after this long (default: script waits plus 1m)")
	_ = simulateCmd.MarkFlagRequired("script")
}

func runSimulate(cmd *cobra.Command, args []string) error {
	format := strings.ToLower(simulateOpts.output)
	if format != "yaml" && format != "json" {
		return fmt.Errorf("invalid output format %q (valid: yaml, json)", simulateOpts.output)
	}

	s, err := script.Load(simulateOpts.script)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), scriptTimeout(s, simulateOpts.timeout))
	defer cancel()

	trace, err := simulate(ctx, cfg, s)
	if err != nil {
		return err
	}

	return writeTrace(cmd.OutOrStdout(), format, trace)
}

// simulate runs s against a recording surface sized by the headless config.
func simulate(ctx context.Context, cfg *config.Config, s *script.Script) (*script.Trace, error) {
	loop := display.NewLoop(logger)
	loop.Start(ctx)
	defer loop.Stop()

	surface := display.NewRecordingSurface(loop, display.Bounds{
		Width:  cfg.Headless.Width,
		Height: cfg.Headless.Height,
		Insets: display.Insets{
			Top:    cfg.Headless.SafeAreaTop,
			Bottom: cfg.Headless.SafeAreaBottom,
		},
	})
	manager := display.NewManager(loop, surface, display.TextViewFactory{}, cfg, logger)
	runner := script.NewRunner(manager, logger)

	results, err := runner.Run(ctx, s)
	if err != nil {
		return nil, fmt.Errorf("script did not finish: %w", err)
	}

	return &script.Trace{
		Script:       s.Name,
		Alerts:       results,
		Transactions: surface.Transactions(),
		Commands:     surface.Commands(),
	}, nil
}

// scriptTimeout returns timeout, or the scripted wait time plus a minute if unset.
func scriptTimeout(s *script.Script, timeout time.Duration) time.Duration {
	if timeout > 0 {
		return timeout
	}
	return s.Length() + time.Minute
}

func writeTrace(w io.Writer, format string, trace *script.Trace) error {
	if format == "json" {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(trace)
	}

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(trace); err != nil {
		return err
	}
	return encoder.Close()
}
