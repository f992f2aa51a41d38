package corpus

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/matsen/synthscan/internal/features"
)

// fileExtractor reads files verbatim; files containing "CORRUPT" are absent.
type fileExtractor struct{}

func (fileExtractor) Extract(_ context.Context, path string) (string, bool) {
	data, err := os.ReadFile(path)
	if err != nil || strings.Contains(string(data), "CORRUPT") {
		return "", false
	}
	return string(data), true
}

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
	}
}

func TestListDocuments(t *testing.T) {
	tmpDir := t.TempDir()
	writeFiles(t, tmpDir, map[string]string{
		"b.pdf":     "",
		"A.PDF":     "",
		"notes.txt": "",
		"c.pdf.bak": "",
	})
	if err := os.Mkdir(filepath.Join(tmpDir, "sub.pdf"), 0755); err != nil {
		t.Fatal(err)
	}

	files, err := ListDocuments(tmpDir)
	if err != nil {
		t.Fatalf("ListDocuments() error = %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("ListDocuments() = %v, want 2 files", files)
	}
	if filepath.Base(files[0]) != "A.PDF" || filepath.Base(files[1]) != "b.pdf" {
		t.Errorf("ListDocuments() = %v, want [A.PDF b.pdf]", files)
	}
}

func TestListDocuments_NotDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "file.pdf")
	writeFiles(t, tmpDir, map[string]string{"file.pdf": ""})

	_, err := ListDocuments(path)
	if !errors.Is(err, ErrNotDirectory) {
		t.Errorf("ListDocuments() error = %v, want ErrNotDirectory", err)
	}
}

func TestListDocuments_Missing(t *testing.T) {
	if _, err := ListDocuments("/nonexistent/folder"); err == nil {
		t.Error("ListDocuments() on missing folder should fail")
	}
}

func TestScan(t *testing.T) {
	tmpDir := t.TempDir()
	writeFiles(t, tmpDir, map[string]string{
		"01.pdf": "Films were sputtered and annealed at 550 °C for 30 min. doi:10.1016/j.tsf.2014.01.001",
		"02.pdf": "Spin coated precursor, annealed at 25°C for 10 minutes.",
		"03.pdf": "CORRUPT",
		"04.pdf": "Sulfur pressure of 2 atm; samples were quenched in water.",
	})

	s := NewScanner(fileExtractor{}, nil, 2, nil)
	result, err := s.Scan(context.Background(), tmpDir)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	if result.RunID == "" {
		t.Error("RunID is empty")
	}
	if len(result.Records) != 3 {
		t.Fatalf("got %d records, want 3", len(result.Records))
	}
	if len(result.Skipped) != 1 || result.Skipped[0] != "03.pdf" {
		t.Errorf("Skipped = %v, want [03.pdf]", result.Skipped)
	}

	wantNames := []string{"01.pdf", "02.pdf", "04.pdf"}
	for i, rec := range result.Records {
		if rec.Filename != wantNames[i] {
			t.Errorf("Records[%d].Filename = %q, want %q", i, rec.Filename, wantNames[i])
		}
	}

	first := result.Records[0]
	if first.DOI != "10.1016/j.tsf.2014.01.001" {
		t.Errorf("DOI = %q, want 10.1016/j.tsf.2014.01.001", first.DOI)
	}
	if !first.Features.HasTemperature || first.Features.SynthesisMethodHint != features.MethodSputtering {
		t.Errorf("unexpected features for 01.pdf: %+v", first.Features)
	}
	if result.Records[1].Features.HasTemperature {
		t.Error("02.pdf reports only room temperature, HasTemperature should be false")
	}
	if !result.Records[2].Features.HasChalcogenPressureExplicit {
		t.Error("04.pdf should have explicit chalcogen pressure")
	}

	if result.Summary.Total != 3 || result.Summary.Skipped != 1 {
		t.Errorf("Summary total/skipped = %d/%d, want 3/1", result.Summary.Total, result.Summary.Skipped)
	}
	if got := result.Summary.Count(features.FieldTime); got != 2 {
		t.Errorf("time count = %d, want 2", got)
	}
}

func TestScan_ProgressReporter(t *testing.T) {
	tmpDir := t.TempDir()
	writeFiles(t, tmpDir, map[string]string{"a.pdf": "x", "b.pdf": "y", "c.pdf": "z"})

	var mu sync.Mutex
	var calls []int
	s := NewScanner(fileExtractor{}, nil, 3, nil)
	s.SetProgressReporter(ProgressFunc(func(current, total int) {
		mu.Lock()
		defer mu.Unlock()
		if total != 3 {
			t.Errorf("total = %d, want 3", total)
		}
		calls = append(calls, current)
	}))

	if _, err := s.Scan(context.Background(), tmpDir); err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(calls) != 3 || calls[2] != 3 {
		t.Errorf("progress calls = %v, want three calls ending at 3", calls)
	}
}

func TestScan_Cancelled(t *testing.T) {
	tmpDir := t.TempDir()
	writeFiles(t, tmpDir, map[string]string{"a.pdf": "x"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := NewScanner(fileExtractor{}, nil, 1, nil)
	if _, err := s.Scan(ctx, tmpDir); !errors.Is(err, context.Canceled) {
		t.Errorf("Scan() error = %v, want context.Canceled", err)
	}
}

func TestScan_EmptyFolder(t *testing.T) {
	s := NewScanner(fileExtractor{}, nil, 0, nil)
	result, err := s.Scan(context.Background(), t.TempDir())
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if result.Summary.Total != 0 {
		t.Errorf("Total = %d, want 0", result.Summary.Total)
	}
	for _, fc := range result.Summary.Fields {
		if fc.Percent != 0 {
			t.Errorf("%s percent = %v, want 0", fc.Field, fc.Percent)
		}
	}
}

func TestScan_WorkerCountDoesNotChangeResult(t *testing.T) {
	tmpDir := t.TempDir()
	files := map[string]string{}
	texts := []string{
		"annealed at 550°C for 2 h",
		"cooling rate of 10 K·min⁻¹",
		"0.5 mg sulfur sealed in an ampoule",
		"thermal evaporation",
		"CORRUPT",
	}
	for i := 0; i < 25; i++ {
		files[string(rune('a'+i))+".pdf"] = texts[i%len(texts)]
	}
	writeFiles(t, tmpDir, files)

	serial, err := NewScanner(fileExtractor{}, nil, 1, nil).Scan(context.Background(), tmpDir)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	parallel, err := NewScanner(fileExtractor{}, nil, 8, nil).Scan(context.Background(), tmpDir)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	if len(serial.Records) != len(parallel.Records) {
		t.Fatalf("record counts differ: %d vs %d", len(serial.Records), len(parallel.Records))
	}
	for i := range serial.Records {
		if serial.Records[i] != parallel.Records[i] {
			t.Errorf("record %d differs: %+v vs %+v", i, serial.Records[i], parallel.Records[i])
		}
	}
	for i := range serial.Summary.Fields {
		if serial.Summary.Fields[i] != parallel.Summary.Fields[i] {
			t.Errorf("summary field %d differs: %+v vs %+v", i, serial.Summary.Fields[i], parallel.Summary.Fields[i])
		}
	}
}
