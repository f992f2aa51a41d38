package corpus

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatch_ClassifiesNewDocuments(t *testing.T) {
	tmpDir := t.TempDir()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	w := NewWatcher(fileExtractor{}, nil, 50*time.Millisecond, nil)
	records := make(chan Record, 4)
	errc := make(chan error, 1)
	go func() {
		errc <- w.Watch(ctx, tmpDir, func(r Record) { records <- r })
	}()

	// Give the watcher time to register the folder.
	time.Sleep(200 * time.Millisecond)

	if err := os.WriteFile(filepath.Join(tmpDir, "notes.txt"), []byte("annealed at 550°C"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(tmpDir, "new.pdf"), []byte("annealed at 550°C for 2 h"), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case rec := <-records:
		if rec.Filename != "new.pdf" {
			t.Errorf("Filename = %q, want new.pdf", rec.Filename)
		}
		if !rec.Features.HasTemperature || !rec.Features.HasTime {
			t.Errorf("unexpected features: %+v", rec.Features)
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for watched document")
	}

	cancel()
	if err := <-errc; err != nil {
		t.Errorf("Watch() error = %v", err)
	}
}

func TestDeliver(t *testing.T) {
	ready := make(chan string)
	done := make(chan struct{})

	got := make(chan string, 1)
	go func() { got <- <-ready }()
	if !deliver(ready, done, "a.pdf") {
		t.Error("deliver() = false with a live receiver")
	}
	if path := <-got; path != "a.pdf" {
		t.Errorf("received %q, want a.pdf", path)
	}

	// Nobody reads ready once the loop has returned.
	close(done)
	returned := make(chan bool, 1)
	go func() { returned <- deliver(ready, done, "b.pdf") }()
	select {
	case ok := <-returned:
		if ok {
			t.Error("deliver() = true after the loop returned")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("deliver() blocked after the loop returned")
	}
}

func TestWatch_MissingFolder(t *testing.T) {
	w := NewWatcher(fileExtractor{}, nil, 0, nil)
	err := w.Watch(context.Background(), "/nonexistent/folder", func(Record) {})
	if err == nil {
		t.Error("Watch() on missing folder should fail")
	}
}

func TestIsDocument(t *testing.T) {
	tests := map[string]bool{
		"paper.pdf":  true,
		"PAPER.PDF":  true,
		"paper.txt":  false,
		"paper.pdf~": false,
		"/a/b/c.Pdf": true,
		"pdf":        false,
	}
	for name, want := range tests {
		if got := IsDocument(name); got != want {
			t.Errorf("IsDocument(%q) = %v, want %v", name, got, want)
		}
	}
}
