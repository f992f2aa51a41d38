package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matsen/synthscan/internal/config"
)

func init() {
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	Long: `Show the configuration after merging defaults, the config file,
.env, SYNTHSCAN_* environment variables and global flags.

Keys (config.yml):
  pdf_folder    Default folder for scan and watch
  pdf_viewer    Viewer for 'open' (system, skim, preview, zathura, evince, okular)
  csv           CSV report path
  jsonl         JSONL record log
  db            SQLite query database
  metrics_file  Prometheus textfile written by scan and watch
  max_pages     Pages of text read per PDF (0 = all)
  workers       Parallel documents (0 = one per CPU)
  log_level     debug, info, warn, error
  log_format    console or json
  watch_settle  Quiet period before watch classifies a file (e.g. 2s)`,
	Args: cobra.NoArgs,
	RunE: runConfig,
}

// ConfigResponse is the response for the config command.
type ConfigResponse struct {
	Path   string         `json:"path"`
	Config *config.Config `json:"config"`
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	path := configPath
	if path == "" {
		path = config.GlobalConfigPath()
	}

	if !humanOutput {
		outputJSON(ConfigResponse{Path: path, Config: cfg})
		return nil
	}

	fmt.Printf("config file:  %s\n", path)
	fmt.Printf("pdf_folder:   %s\n", cfg.PDFFolder)
	fmt.Printf("pdf_viewer:   %s\n", cfg.PDFViewer)
	fmt.Printf("csv:          %s\n", cfg.CSV)
	fmt.Printf("jsonl:        %s\n", cfg.JSONL)
	fmt.Printf("db:           %s\n", cfg.DB)
	fmt.Printf("metrics_file: %s\n", cfg.MetricsFile)
	fmt.Printf("max_pages:    %d\n", cfg.MaxPages)
	fmt.Printf("workers:      %d\n", cfg.Workers)
	fmt.Printf("log_level:    %s\n", cfg.LogLevel)
	fmt.Printf("log_format:   %s\n", cfg.LogFormat)
	fmt.Printf("watch_settle: %s\n", cfg.WatchSettle)
	return nil
}
