package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matsen/synthscan/internal/config"
	"github.com/matsen/synthscan/internal/corpus"
	"github.com/matsen/synthscan/internal/storage"
)

var (
	summaryJSONL string
	summaryDB    string
	summaryCSV   string
)

func init() {
	summaryCmd.Flags().StringVar(&summaryJSONL, "jsonl", "", "Summarize records from this JSONL file")
	summaryCmd.Flags().StringVar(&summaryDB, "db", "", "Summarize records from this SQLite database")
	summaryCmd.Flags().StringVar(&summaryCSV, "csv", "", "Summarize records from this CSV report")
	rootCmd.AddCommand(summaryCmd)
}

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show corpus statistics from stored records",
	Long: `Show corpus statistics without rescanning.

Reads one source, in this order of preference: --db, --jsonl, --csv, then
the db, jsonl and csv paths from the config file. JSONL logs written by
'synthscan watch' may repeat a file; only its latest record counts.`,
	Args: cobra.NoArgs,
	RunE: runSummary,
}

// Record sources for the summary command.
const (
	sourceDB    = "db"
	sourceJSONL = "jsonl"
	sourceCSV   = "csv"
)

// summarySource picks the source to read: an explicit flag first, then
// the configured paths, in db, jsonl, csv order.
func summarySource(flagDB, flagJSONL, flagCSV string, cfg *config.Config) (kind, path string) {
	switch {
	case flagDB != "":
		return sourceDB, flagDB
	case flagJSONL != "":
		return sourceJSONL, flagJSONL
	case flagCSV != "":
		return sourceCSV, flagCSV
	case cfg.DB != "":
		return sourceDB, cfg.DB
	case cfg.JSONL != "":
		return sourceJSONL, cfg.JSONL
	default:
		return sourceCSV, cfg.CSV
	}
}

func runSummary(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	kind, path := summarySource(config.ExpandPath(summaryDB), config.ExpandPath(summaryJSONL), config.ExpandPath(summaryCSV), cfg)

	summary, err := loadSummary(kind, path)
	if err != nil {
		exitWithError(ExitDataError, "%v", err)
	}

	if humanOutput {
		summary.WriteHuman(os.Stdout)
	} else {
		outputJSON(summary)
	}
	return nil
}

// loadSummary computes the summary of the records stored at path. A
// missing source is an error; OpenDB would otherwise create it empty.
func loadSummary(kind, path string) (corpus.Summary, error) {
	if _, err := os.Stat(path); err != nil {
		return corpus.Summary{}, fmt.Errorf("no stored records: %w", err)
	}

	switch kind {
	case sourceDB:
		db, err := storage.OpenDB(path)
		if err != nil {
			return corpus.Summary{}, fmt.Errorf("opening database: %w", err)
		}
		defer db.Close()
		return db.Summary()

	case sourceJSONL:
		records, err := storage.ReadAll(path)
		if err != nil {
			return corpus.Summary{}, fmt.Errorf("reading records: %w", err)
		}
		return corpus.Summarize(storage.Latest(records), 0), nil

	default:
		records, err := storage.ReadCSV(path)
		if err != nil {
			return corpus.Summary{}, fmt.Errorf("reading report: %w", err)
		}
		return corpus.Summarize(records, 0), nil
	}
}
