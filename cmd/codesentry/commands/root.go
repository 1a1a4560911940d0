// Package commands contains all CLI commands for codesentry.
//
// This package uses the Cobra library for CLI management.
// Each command is defined in its own file and registered in init().
package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/JNZader/codesentry/internal/config"
	"github.com/JNZader/codesentry/internal/logger"
)

// ErrIssuesFound is returned by review when --fail-on is met. It maps to
// exit code 1 without an error message.
var ErrIssuesFound = errors.New("issues at or above the fail-on severity were found")

var (
	// cfgFile holds the path to the config file (from --config flag)
	cfgFile string

	// logLevel overrides log.level
	logLevel string

	// verbose enables debug logging
	verbose bool

	// quiet suppresses all output except errors
	quiet bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "codesentry",
	Short: "Static code review for many languages",
	Long: `codesentry reviews source files without running them.

Python is parsed into a full syntax tree; other languages get line
heuristics. Every file is scanned for security issues and for the custom
rules you configure.

Examples:
  # Review files changed against main
  codesentry review

  # Review specific files or directories
  codesentry review app.py src/

  # Write a SARIF report
  codesentry review --format sarif -o results.sarif

  # Show current configuration
  codesentry config show`,

	// SilenceUsage prevents printing usage on errors
	SilenceUsage: true,

	// SilenceErrors lets Execute print errors itself
	SilenceErrors: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initializeLogging()
	},
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, ErrIssuesFound) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is .codesentry.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress all output except errors")
}

// initializeLogging applies the command-line log level before any config
// is read. loadConfig applies log.level afterwards unless a flag set it.
func initializeLogging() error {
	switch {
	case quiet:
		logger.SetLevel(logger.LevelError)
	case verbose:
		logger.SetLevel(logger.LevelDebug)
	case logLevel != "":
		level, err := logger.ParseLevel(logLevel)
		if err != nil {
			return err
		}
		logger.SetLevel(level)
	}
	return nil
}

// loadConfig reads configuration with cmd's flags bound over it. binds maps
// config keys to flag names of cmd.
func loadConfig(cmd *cobra.Command, binds map[string]string) (*config.Config, *config.Loader, error) {
	loader := config.NewLoader()
	if cfgFile != "" {
		loader.SetConfigFile(cfgFile)
	}

	for key, name := range binds {
		if f := cmd.Flags().Lookup(name); f != nil {
			if err := loader.Viper().BindPFlag(key, f); err != nil {
				return nil, nil, fmt.Errorf("binding --%s: %w", name, err)
			}
		}
	}

	cfg, err := loader.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	if !quiet && !verbose && logLevel == "" {
		level, err := logger.ParseLevel(cfg.Log.Level)
		if err != nil {
			return nil, nil, err
		}
		logger.SetLevel(level)
	}
	if verbose && !quiet {
		if used := loader.ConfigFileUsed(); used != "" {
			logger.Default().Debug("using config file %s", used)
		}
	}
	return cfg, loader, nil
}
