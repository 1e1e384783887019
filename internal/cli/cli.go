package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/term-dates/internal/config"
	"github.com/pfrederiksen/term-dates/internal/logger"
)

const (
	ExitSuccess  = 0
	ExitError    = 1
	ExitNotFound = 2
)

var (
	flagConfig    string
	flagLogLevel  string
	flagLogFormat string
)

// exitError carries a process exit code through cobra
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }

func (e *exitError) Unwrap() error { return e.err }

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "term-dates",
		Short: "Serve UNSW term dates scraped from the academic calendar",
		Long: `A service that scrapes UNSW term start and end dates from the public academic
calendar, caches them on disk and serves them over HTTP. The cache is refreshed once a
day; the last good data keeps being served when a refresh fails.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Define flags
	cmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to a YAML config file")
	cmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn or error (overrides LOG_LEVEL)")
	cmd.PersistentFlags().StringVar(&flagLogFormat, "log-format", "", "Log format: json or text (overrides LOG_FORMAT)")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newRefreshCmd())
	cmd.AddCommand(newScrapeCmd())
	cmd.AddCommand(newShowCmd())

	return cmd
}

// loadConfig resolves configuration and installs the configured logger as the default
func loadConfig(cmd *cobra.Command) (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel = flagLogLevel
	}
	if flags.Changed("log-format") {
		cfg.LogFormat = flagLogFormat
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	log := cfg.Logger()
	logger.SetDefault(log)
	return cfg, log, nil
}

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// Execute runs the CLI
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		code := ExitError
		var ee *exitError
		if errors.As(err, &ee) {
			code = ee.code
		}
		os.Exit(code)
	}
}
