// Package corpus scans a folder of papers, classifies each one and
// aggregates the results into corpus-level statistics.
package corpus

import (
	"context"
	"errors"
	"time"

	"github.com/matsen/synthscan/internal/features"
)

// ErrNotDirectory is returned when the scan target is not a directory.
var ErrNotDirectory = errors.New("not a directory")

// TextExtractor returns document text, or false when none is extractable.
// Implementations log their own failures.
type TextExtractor interface {
	Extract(ctx context.Context, path string) (string, bool)
}

// Record is one report row: a document and its features.
type Record struct {
	Filename string                 `json:"filename"`
	DOI      string                 `json:"doi,omitempty"`
	Features features.FeatureVector `json:"features"`
}

// Result is the outcome of one scan.
type Result struct {
	RunID     string        `json:"run_id"`
	Folder    string        `json:"folder"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	Records   []Record      `json:"records"`
	Skipped   []string      `json:"skipped"`
	Summary   Summary       `json:"summary"`
}

// FieldCount is the number and share of documents with a field set.
type FieldCount struct {
	Field   string  `json:"field"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// Summary holds corpus-level statistics.
type Summary struct {
	Total       int                         `json:"total"`
	Skipped     int                         `json:"skipped"`
	Fields      []FieldCount                `json:"fields"`
	MethodHints map[features.MethodHint]int `json:"method_hints"`
}

// ProgressReporter receives progress updates during a scan.
type ProgressReporter interface {
	// OnProgress is called with the current progress.
	OnProgress(current, total int)
}

// ProgressFunc is a function adapter for ProgressReporter.
type ProgressFunc func(current, total int)

// OnProgress implements ProgressReporter.
func (f ProgressFunc) OnProgress(current, total int) {
	f(current, total)
}
