package corpus

import (
	"context"
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/matsen/synthscan/internal/features"
)

// DefaultSettle is how long a file must be quiet before it is classified.
// Downloads and copies emit many write events for one PDF.
const DefaultSettle = 2 * time.Second

// Watcher classifies documents as they appear in a folder.
type Watcher struct {
	extractor  TextExtractor
	classifier *features.Classifier
	settle     time.Duration
	logger     *zap.Logger
}

// NewWatcher creates a watcher. settle <= 0 uses DefaultSettle.
func NewWatcher(extractor TextExtractor, classifier *features.Classifier, settle time.Duration, logger *zap.Logger) *Watcher {
	if settle <= 0 {
		settle = DefaultSettle
	}
	if classifier == nil {
		classifier = features.New(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		extractor:  extractor,
		classifier: classifier,
		settle:     settle,
		logger:     logger,
	}
}

// Watch blocks until ctx is done, calling handle for every document that is
// created or rewritten in dir. handle runs on the watch goroutine.
func (w *Watcher) Watch(ctx context.Context, dir string, handle func(Record)) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}
	w.logger.Info("watching folder", zap.String("folder", dir), zap.Duration("settle", w.settle))

	pending := make(map[string]*time.Timer)
	ready := make(chan string)
	done := make(chan struct{})
	defer func() {
		close(done)
		for _, t := range pending {
			t.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !IsDocument(ev.Name) {
				continue
			}
			if ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
				if t, found := pending[ev.Name]; found {
					t.Stop()
					delete(pending, ev.Name)
				}
				continue
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
				continue
			}
			if t, found := pending[ev.Name]; found {
				t.Reset(w.settle)
				continue
			}
			name := ev.Name
			pending[name] = time.AfterFunc(w.settle, func() {
				deliver(ready, done, name)
			})

		case path := <-ready:
			delete(pending, path)
			rec, ok := classifyDocument(ctx, w.extractor, w.classifier, path)
			if !ok {
				continue
			}
			w.logger.Info("classified document", zap.String("file", rec.Filename))
			handle(rec)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", zap.Error(err))
		}
	}
}

// deliver hands a settled path to the watch loop, or gives up once the
// loop has returned.
func deliver(ready chan<- string, done <-chan struct{}, path string) bool {
	select {
	case ready <- path:
		return true
	case <-done:
		return false
	}
}
