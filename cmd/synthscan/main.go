// Package main provides the synthscan CLI entry point.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/matsen/synthscan/internal/config"
	"github.com/matsen/synthscan/internal/logging"
	"github.com/matsen/synthscan/internal/storage"
)

// Version is set at build time via ldflags
var Version = "dev"

// Global flags
var (
	humanOutput bool
	configPath  string
	logLevel    string
	logFormat   string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		// Print the error since we have SilenceErrors: true
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "synthscan",
	Short: "Survey CZTS papers for reported anneal parameters",
	Long: `synthscan mines the text of kesterite (CZTS/CZTSe) papers for reported
annealing parameters: temperature, duration, cooling, chalcogen pressure
and a coarse synthesis method hint.

Each PDF becomes one row of boolean features. Results go to a CSV report,
an optional JSONL log and an optional SQLite database for queries.
All commands output JSON by default; use --human for text.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default $XDG_CONFIG_HOME/synthscan/config.yml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format (console, json)")
	rootCmd.Version = Version
}

// mustLoadConfig loads .env, the config file and environment overrides,
// applies the global flags and validates the result. Exits on error.
func mustLoadConfig() *config.Config {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if logFormat != "" {
		cfg.LogFormat = logFormat
	}
	if err := cfg.Validate(); err != nil {
		exitWithError(ExitConfigError, "invalid config: %v", err)
	}
	return cfg
}

// mustNewLogger builds the stderr logger, exits on error.
func mustNewLogger(cfg *config.Config) *zap.Logger {
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		exitWithError(ExitConfigError, "creating logger: %v", err)
	}
	return logger
}

// mustResolveFolder returns the folder to scan or watch, exits on error.
func mustResolveFolder(cfg *config.Config, args []string) string {
	var arg string
	if len(args) > 0 {
		arg = args[0]
	}
	folder, err := cfg.ResolveFolder(arg)
	if err != nil {
		if errors.Is(err, config.ErrFolderNotSet) {
			if humanOutput {
				fmt.Fprintln(os.Stderr, config.HelpfulConfigMessage())
				os.Exit(ExitConfigError)
			}
		}
		exitWithError(ExitConfigError, "%v", err)
	}
	return folder
}

// mustOpenDatabase opens the SQLite database, exits on error.
// The caller is responsible for calling Close() on the returned DB.
func mustOpenDatabase(path string) *storage.DB {
	db, err := storage.OpenDB(path)
	if err != nil {
		exitWithError(ExitError, "opening database: %v", err)
	}
	return db
}
