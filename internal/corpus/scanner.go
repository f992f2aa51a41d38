package corpus

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/matsen/synthscan/internal/features"
	"github.com/matsen/synthscan/internal/pdf"
)

// progressLogInterval throttles progress log lines on large corpora.
const progressLogInterval = 2 * time.Second

// Scanner classifies every document in a folder on a bounded worker pool.
type Scanner struct {
	extractor  TextExtractor
	classifier *features.Classifier
	workers    int
	logger     *zap.Logger
	progress   ProgressReporter
}

// NewScanner creates a scanner. workers <= 0 uses one worker per CPU.
func NewScanner(extractor TextExtractor, classifier *features.Classifier, workers int, logger *zap.Logger) *Scanner {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if classifier == nil {
		classifier = features.New(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scanner{
		extractor:  extractor,
		classifier: classifier,
		workers:    workers,
		logger:     logger,
	}
}

// SetProgressReporter sets the progress reporter for the scanner.
// The reporter is called from one goroutine at a time.
func (s *Scanner) SetProgressReporter(reporter ProgressReporter) {
	s.progress = reporter
}

// ListDocuments returns the PDF files directly inside dir, sorted by name.
func ListDocuments(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("reading folder: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("listing folder: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !IsDocument(e.Name()) {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// IsDocument reports whether a file name has a PDF extension.
func IsDocument(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".pdf")
}

// Scan extracts and classifies every document in dir. Records come back in
// file name order whatever order the workers finish in. Unreadable
// documents are listed in Skipped and excluded from the summary.
func (s *Scanner) Scan(ctx context.Context, dir string) (*Result, error) {
	files, err := ListDocuments(dir)
	if err != nil {
		return nil, err
	}

	result := &Result{
		RunID:     uuid.NewString(),
		Folder:    dir,
		StartedAt: time.Now(),
	}
	logger := s.logger.With(zap.String("run_id", result.RunID))
	logger.Info("scan started", zap.String("folder", dir), zap.Int("documents", len(files)), zap.Int("workers", s.workers))

	slots := make([]*Record, len(files))
	var (
		wg          sync.WaitGroup
		mu          sync.Mutex
		done        int
		progressLog = rate.Sometimes{Interval: progressLogInterval}
	)
	sem := make(chan struct{}, s.workers)

dispatch:
	for i, path := range files {
		select {
		case <-ctx.Done():
			break dispatch
		case sem <- struct{}{}: // acquire semaphore
		}

		wg.Add(1)
		go func(idx int, p string) {
			defer wg.Done()
			defer func() { <-sem }() // release semaphore

			if rec, ok := classifyDocument(ctx, s.extractor, s.classifier, p); ok {
				slots[idx] = &rec
			}

			mu.Lock()
			done++
			current := done
			if s.progress != nil {
				s.progress.OnProgress(current, len(files))
			}
			mu.Unlock()

			progressLog.Do(func() {
				logger.Info("scan progress", zap.Int("done", current), zap.Int("total", len(files)))
			})
		}(i, path)
	}

	wg.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for i, rec := range slots {
		if rec == nil {
			result.Skipped = append(result.Skipped, filepath.Base(files[i]))
			continue
		}
		result.Records = append(result.Records, *rec)
	}
	result.Summary = Summarize(result.Records, len(result.Skipped))
	result.Duration = time.Since(result.StartedAt)

	logger.Info("scan finished",
		zap.Int("classified", len(result.Records)),
		zap.Int("skipped", len(result.Skipped)),
		zap.Duration("duration", result.Duration))

	return result, nil
}

// classifyDocument extracts and classifies one document.
func classifyDocument(ctx context.Context, extractor TextExtractor, classifier *features.Classifier, path string) (Record, bool) {
	text, ok := extractor.Extract(ctx, path)
	if !ok {
		return Record{}, false
	}
	return Record{
		Filename: filepath.Base(path),
		DOI:      pdf.FindDOI(text),
		Features: classifier.Classify(text),
	}, true
}
