package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/matsen/synthscan/internal/config"
	"github.com/matsen/synthscan/internal/corpus"
	"github.com/matsen/synthscan/internal/features"
	"github.com/matsen/synthscan/internal/metrics"
	"github.com/matsen/synthscan/internal/pdf"
	"github.com/matsen/synthscan/internal/storage"
)

var (
	scanCSV     string
	scanJSONL   string
	scanDB      string
	scanMetrics string
	scanPages   int
	scanWorkers int
)

func init() {
	scanCmd.Flags().StringVar(&scanCSV, "csv", "", "CSV report path (default "+config.DefaultCSV+")")
	scanCmd.Flags().StringVar(&scanJSONL, "jsonl", "", "Also write records to this JSONL file")
	scanCmd.Flags().StringVar(&scanDB, "db", "", "Also store records in this SQLite database")
	scanCmd.Flags().StringVar(&scanMetrics, "metrics-file", "", "Write Prometheus metrics to this textfile")
	scanCmd.Flags().IntVar(&scanPages, "pages", 0, "Pages of text to read per PDF (0 = all)")
	scanCmd.Flags().IntVar(&scanWorkers, "workers", 0, "Documents processed in parallel (default: number of CPUs)")
	rootCmd.AddCommand(scanCmd)
}

var scanCmd = &cobra.Command{
	Use:   "scan [folder]",
	Short: "Classify every PDF in a folder",
	Long: `Classify every PDF in a folder and write a CSV report.

The folder defaults to pdf_folder from the config file or SYNTHSCAN_PDF_FOLDER.
PDFs that yield no text are skipped and listed in the output.

Examples:
  synthscan scan ~/papers/czts
  synthscan scan --jsonl records.jsonl --db records.db --human`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScan,
}

// ScanResponse is the response for the scan command.
type ScanResponse struct {
	RunID   string         `json:"run_id"`
	Folder  string         `json:"folder"`
	CSV     string         `json:"csv"`
	JSONL   string         `json:"jsonl,omitempty"`
	DB      string         `json:"db,omitempty"`
	Skipped []string       `json:"skipped"`
	Summary corpus.Summary `json:"summary"`
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	if cmd.Flags().Changed("csv") {
		cfg.CSV = config.ExpandPath(scanCSV)
	}
	if cmd.Flags().Changed("jsonl") {
		cfg.JSONL = config.ExpandPath(scanJSONL)
	}
	if cmd.Flags().Changed("db") {
		cfg.DB = config.ExpandPath(scanDB)
	}
	if cmd.Flags().Changed("metrics-file") {
		cfg.MetricsFile = config.ExpandPath(scanMetrics)
	}
	if cmd.Flags().Changed("pages") {
		cfg.MaxPages = scanPages
	}
	if cmd.Flags().Changed("workers") {
		cfg.Workers = scanWorkers
	}
	if err := cfg.Validate(); err != nil {
		exitWithError(ExitConfigError, "invalid flags: %v", err)
	}

	folder := mustResolveFolder(cfg, args)
	logger := mustNewLogger(cfg)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	m := metrics.New()
	extractor := m.InstrumentExtractor(pdf.NewExtractor(cfg.MaxPages, logger))
	scanner := corpus.NewScanner(extractor, features.New(nil), cfg.Workers, logger)
	if humanOutput {
		scanner.SetProgressReporter(corpus.ProgressFunc(func(current, total int) {
			fmt.Fprintf(os.Stderr, "\rProcessing %d/%d...", current, total)
			if current == total {
				fmt.Fprintln(os.Stderr)
			}
		}))
	}

	result, err := scanner.Scan(ctx, folder)
	if err != nil {
		if errors.Is(err, corpus.ErrNotDirectory) {
			exitWithError(ExitConfigError, "%v", err)
		}
		exitWithError(ExitError, "scanning %s: %v", folder, err)
	}

	if err := storage.WriteCSV(cfg.CSV, result.Records); err != nil {
		exitWithError(ExitError, "writing report: %v", err)
	}
	if cfg.JSONL != "" {
		if err := storage.WriteAll(cfg.JSONL, result.Records); err != nil {
			exitWithError(ExitError, "writing records: %v", err)
		}
	}
	if cfg.DB != "" {
		db := mustOpenDatabase(cfg.DB)
		defer db.Close()
		if err := db.SaveRun(result); err != nil {
			exitWithError(ExitError, "saving run: %v", err)
		}
	}

	if cfg.MetricsFile != "" {
		m.ObserveRun(result)
		if err := m.WriteTextfile(cfg.MetricsFile); err != nil {
			exitWithError(ExitError, "%v", err)
		}
	}

	if humanOutput {
		fmt.Printf("Scanning: %s\n", folder)
		for _, name := range result.Skipped {
			fmt.Printf("  skipped (no text): %s\n", name)
		}
		result.Summary.WriteHuman(os.Stdout)
		fmt.Printf("Detailed report saved to: %s\n", cfg.CSV)
		return nil
	}

	skipped := result.Skipped
	if skipped == nil {
		skipped = []string{}
	}
	outputJSON(ScanResponse{
		RunID:   result.RunID,
		Folder:  folder,
		CSV:     cfg.CSV,
		JSONL:   cfg.JSONL,
		DB:      cfg.DB,
		Skipped: skipped,
		Summary: result.Summary,
	})
	return nil
}
