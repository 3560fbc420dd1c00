package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshuapare/dualview/internal/logger"
	"github.com/joshuapare/dualview/pkg/config"
)

var (
	// Global flags
	verbose    bool
	quiet      bool
	jsonOut    bool
	dbPath     string
	configPath string

	// cfg is loaded before every command runs.
	cfg = config.DefaultConfig()
)

var rootCmd = &cobra.Command{
	Use:   "dvctl",
	Short: "Inspect tree and list views of hierarchical content",
	Long: `dvctl builds the lazily populated tree and list views used by the
dual-pane explorer and prints their rows. Content comes from the local
filesystem, or from a SQLite node tree when --db is given.`,
	Version:           "0.1.0",
	SilenceUsage:      true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return setup() },
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Read nodes from this SQLite database")
	rootCmd.PersistentFlags().
		StringVar(&configPath, "config", "", "Config file (default: $XDG_CONFIG_HOME/dualview/config.yaml)")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads the configuration and starts the logger.
func setup() error {
	var err error
	if configPath != "" {
		cfg, err = config.LoadFrom(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	opts := cfg.LoggerOptions()
	if verbose {
		opts = logger.Options{Enabled: true, Writer: os.Stderr, Level: slog.LevelDebug}
	}
	return logger.Init(opts)
}

// printInfo prints an info message if not in quiet mode
func printInfo(format string, args ...any) {
	if !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printWarning prints a recovered error unless in quiet mode
func printWarning(format string, args ...any) {
	if !quiet {
		fmt.Fprintf(os.Stderr, "Warning: "+format, args...)
	}
}

// printVerbose prints a verbose message if verbose mode is enabled
func printVerbose(format string, args ...any) {
	if verbose && !quiet {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}
