package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matsen/synthscan/internal/config"
	"github.com/matsen/synthscan/internal/storage"
)

var (
	rebuildJSONL string
	rebuildDB    string
)

func init() {
	rebuildCmd.Flags().StringVar(&rebuildJSONL, "jsonl", "", "JSONL source (default: jsonl from config)")
	rebuildCmd.Flags().StringVar(&rebuildDB, "db", "", "SQLite database to rebuild (default: db from config)")
	rootCmd.AddCommand(rebuildCmd)
}

var rebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rebuild the query database from the JSONL log",
	Long: `Rebuild the SQLite query database from the JSONL source file.

Use this after 'synthscan watch' has appended records, or if the database
becomes corrupted. The JSONL log is the source of truth.`,
	Args: cobra.NoArgs,
	RunE: runRebuild,
}

// RebuildResult is the response for the rebuild command.
type RebuildResult struct {
	Status   string `json:"status"`
	Records  int    `json:"records"`
	Previous int    `json:"previous"`
	DB       string `json:"db"`
}

func runRebuild(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	if rebuildJSONL != "" {
		cfg.JSONL = config.ExpandPath(rebuildJSONL)
	}
	if rebuildDB != "" {
		cfg.DB = config.ExpandPath(rebuildDB)
	}
	if cfg.JSONL == "" || cfg.DB == "" {
		exitWithError(ExitConfigError, "rebuild needs both a JSONL source and a database (--jsonl, --db)")
	}

	db := mustOpenDatabase(cfg.DB)
	defer db.Close()

	result, err := rebuildDatabase(db, cfg.JSONL)
	if err != nil {
		exitWithError(ExitDataError, "rebuilding database: %v", err)
	}
	result.DB = cfg.DB

	if humanOutput {
		fmt.Printf("Rebuilt query database with %d records (was %d)\n", result.Records, result.Previous)
	} else {
		outputJSON(result)
	}
	return nil
}

// rebuildDatabase reloads db from the JSONL log and reports the record
// counts before and after.
func rebuildDatabase(db *storage.DB, jsonlPath string) (RebuildResult, error) {
	previous, err := db.Count()
	if err != nil {
		return RebuildResult{}, fmt.Errorf("counting records: %w", err)
	}

	count, err := db.RebuildFromJSONL(jsonlPath)
	if err != nil {
		return RebuildResult{}, err
	}

	return RebuildResult{
		Status:   "rebuilt",
		Records:  count,
		Previous: previous,
	}, nil
}
