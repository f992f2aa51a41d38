package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matsen/synthscan/internal/config"
	"github.com/matsen/synthscan/internal/corpus"
	"github.com/matsen/synthscan/internal/pdf"
	"github.com/matsen/synthscan/internal/storage"
)

var openDB string

func init() {
	openCmd.Flags().StringVar(&openDB, "db", "", "Show the stored features from this database (default: db from config)")
	rootCmd.AddCommand(openCmd)
}

var openCmd = &cobra.Command{
	Use:   "open <filename>",
	Short: "Open a scanned paper in a PDF viewer",
	Long: `Open a paper by the filename shown in the report, resolved against
pdf_folder. Use it to check a flagged paper by eye, e.g. after
'synthscan classify --explain'.

The viewer comes from pdf_viewer in the config file
(system, skim, preview, zathura, evince, okular). When a database is
configured, the features stored for the paper are printed alongside.`,
	Args: cobra.ExactArgs(1),
	RunE: runOpen,
}

// OpenResult is the response for the open command.
type OpenResult struct {
	Status string         `json:"status"`
	Path   string         `json:"path"`
	Record *corpus.Record `json:"record,omitempty"`
}

func runOpen(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	if openDB != "" {
		cfg.DB = config.ExpandPath(openDB)
	}
	opener := pdf.NewOpener(cfg.PDFFolder, cfg.PDFViewer)

	path, err := opener.ResolvePath(args[0])
	if err != nil {
		exitWithError(ExitDataError, "%v", err)
	}

	rec, err := storedRecord(cfg.DB, filepath.Base(path))
	if err != nil {
		exitWithError(ExitDataError, "%v", err)
	}

	if err := opener.Open(path); err != nil {
		exitWithError(ExitError, "opening PDF: %v", err)
	}

	if humanOutput {
		fmt.Printf("Opened: %s\n", path)
		if rec != nil {
			printFeatures(rec.Features)
		}
	} else {
		outputJSON(OpenResult{Status: "opened", Path: path, Record: rec})
	}
	return nil
}

// storedRecord looks up the stored record for a report filename. It
// returns nil when no database is configured, the database does not
// exist yet, or the file was never scanned.
func storedRecord(dbPath, filename string) (*corpus.Record, error) {
	if dbPath == "" {
		return nil, nil
	}
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return nil, nil
	}

	db, err := storage.OpenDB(dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	rec, err := db.GetByFilename(filename)
	if err != nil {
		return nil, fmt.Errorf("looking up %s: %w", filename, err)
	}
	return rec, nil
}
