package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/matsen/synthscan/internal/config"
	"github.com/matsen/synthscan/internal/corpus"
	"github.com/matsen/synthscan/internal/features"
	"github.com/matsen/synthscan/internal/metrics"
	"github.com/matsen/synthscan/internal/pdf"
	"github.com/matsen/synthscan/internal/storage"
)

var (
	watchJSONL  string
	watchSettle time.Duration
)

func init() {
	watchCmd.Flags().StringVar(&watchJSONL, "jsonl", "", "Append records to this JSONL file (default: jsonl from config)")
	watchCmd.Flags().DurationVar(&watchSettle, "settle", 0, "Quiet period before a new file is classified (default 2s)")
	rootCmd.AddCommand(watchCmd)
}

var watchCmd = &cobra.Command{
	Use:   "watch [folder]",
	Short: "Classify PDFs as they are added to a folder",
	Long: `Watch a folder and classify each PDF once it has finished being written.

Every record is appended to the JSONL log and printed as one JSON line
(or a one-line summary with --human). Run 'synthscan rebuild' afterwards
to refresh the query database. Stop with Ctrl-C.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	if watchJSONL != "" {
		cfg.JSONL = config.ExpandPath(watchJSONL)
	}
	if cmd.Flags().Changed("settle") {
		cfg.WatchSettle = watchSettle
	}
	if err := cfg.Validate(); err != nil {
		exitWithError(ExitConfigError, "invalid flags: %v", err)
	}
	if cfg.JSONL == "" {
		exitWithError(ExitConfigError, "watch needs a JSONL log (--jsonl or jsonl in config)")
	}

	folder := mustResolveFolder(cfg, args)
	logger := mustNewLogger(cfg)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	m := metrics.New()
	extractor := m.InstrumentExtractor(pdf.NewExtractor(cfg.MaxPages, logger))
	w := corpus.NewWatcher(extractor, features.New(nil), cfg.WatchSettle, logger)
	err := w.Watch(ctx, folder, func(rec corpus.Record) {
		if err := storage.Append(cfg.JSONL, rec); err != nil {
			logger.Error("appending record", zap.String("file", rec.Filename), zap.Error(err))
			return
		}
		if cfg.MetricsFile != "" {
			m.ObserveRecord(rec)
			if err := m.WriteTextfile(cfg.MetricsFile); err != nil {
				logger.Warn("writing metrics", zap.Error(err))
			}
		}
		if humanOutput {
			fmt.Printf("%s  temp=%s time=%s method=%s\n", rec.Filename,
				yesNo(rec.Features.HasTemperature), yesNo(rec.Features.HasTime), rec.Features.SynthesisMethodHint)
		} else {
			outputJSONCompact(rec)
		}
	})
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}
	return nil
}
