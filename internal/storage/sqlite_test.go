package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/matsen/synthscan/internal/corpus"
	"github.com/matsen/synthscan/internal/features"
)

// setupTestDB opens an empty database in a temp dir.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := OpenDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open test DB: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testResult(runID string, records []corpus.Record, skipped ...string) *corpus.Result {
	return &corpus.Result{
		RunID:     runID,
		Folder:    "/papers",
		StartedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Duration:  1500 * time.Millisecond,
		Records:   records,
		Skipped:   skipped,
	}
}

func TestOpenDB_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	for i := 0; i < 2; i++ {
		db, err := OpenDB(path)
		if err != nil {
			t.Fatalf("OpenDB() attempt %d error = %v", i+1, err)
		}
		db.Close()
	}
}

func TestSaveRun_ListRecords(t *testing.T) {
	db := setupTestDB(t)
	want := testRecords()

	if err := db.SaveRun(testResult("run-1", want, "broken.pdf")); err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}

	got, err := db.ListRecords()
	if err != nil {
		t.Fatalf("ListRecords() error = %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("ListRecords() returned %d records, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("record %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestSaveRun_ReplacesRecords(t *testing.T) {
	db := setupTestDB(t)
	recs := testRecords()

	if err := db.SaveRun(testResult("run-1", recs)); err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}
	if err := db.SaveRun(testResult("run-2", recs[:1])); err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}

	count, err := db.Count()
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 1 {
		t.Errorf("Count() = %d, want 1", count)
	}

	runs, err := db.ListRuns()
	if err != nil {
		t.Fatalf("ListRuns() error = %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("ListRuns() returned %d runs, want 2", len(runs))
	}
	for _, r := range runs {
		if r.Folder != "/papers" || r.Duration != 1500*time.Millisecond {
			t.Errorf("run %+v has unexpected folder or duration", r)
		}
	}
}

func TestGetByFilename(t *testing.T) {
	db := setupTestDB(t)
	if err := db.SaveRun(testResult("run-1", testRecords())); err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}

	rec, err := db.GetByFilename("alpha.pdf")
	if err != nil {
		t.Fatalf("GetByFilename() error = %v", err)
	}
	if rec == nil || rec.DOI != "10.1016/j.solmat.2020.110000" {
		t.Errorf("GetByFilename() = %+v", rec)
	}

	rec, err = db.GetByFilename("missing.pdf")
	if err != nil {
		t.Fatalf("GetByFilename() error = %v", err)
	}
	if rec != nil {
		t.Errorf("GetByFilename(missing) = %+v, want nil", rec)
	}
}

func TestSummary_MatchesSummarize(t *testing.T) {
	db := setupTestDB(t)
	recs := testRecords()
	if err := db.SaveRun(testResult("run-1", recs, "broken.pdf", "scan.pdf")); err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}

	got, err := db.Summary()
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	want := corpus.Summarize(recs, 2)

	if got.Total != want.Total || got.Skipped != want.Skipped {
		t.Errorf("Summary() total/skipped = %d/%d, want %d/%d", got.Total, got.Skipped, want.Total, want.Skipped)
	}
	for i := range want.Fields {
		if got.Fields[i] != want.Fields[i] {
			t.Errorf("Fields[%d] = %+v, want %+v", i, got.Fields[i], want.Fields[i])
		}
	}
	for _, h := range features.MethodHints {
		if got.MethodHints[h] != want.MethodHints[h] {
			t.Errorf("MethodHints[%s] = %d, want %d", h, got.MethodHints[h], want.MethodHints[h])
		}
	}
}

func TestSummary_EmptyDB(t *testing.T) {
	db := setupTestDB(t)

	s, err := db.Summary()
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if s.Total != 0 || s.Skipped != 0 {
		t.Errorf("Summary() = %+v, want zero totals", s)
	}
	for _, fc := range s.Fields {
		if fc.Count != 0 || fc.Percent != 0 {
			t.Errorf("field %s = %+v, want zero", fc.Field, fc)
		}
	}
}

func TestSummary_AllSkippedRun(t *testing.T) {
	db := setupTestDB(t)
	if err := db.SaveRun(testResult("run-1", testRecords(), "broken.pdf")); err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}
	if err := db.SaveRun(testResult("run-2", nil, "scan-a.pdf", "scan-b.pdf", "scan-c.pdf")); err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}

	s, err := db.Summary()
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if s.Total != 0 || s.Skipped != 3 {
		t.Errorf("Summary() total/skipped = %d/%d, want 0/3", s.Total, s.Skipped)
	}
}

func TestRebuildFromJSONL(t *testing.T) {
	db := setupTestDB(t)
	jsonlPath := filepath.Join(t.TempDir(), "records.jsonl")

	recs := testRecords()
	updated := recs[1]
	updated.Features.HasTemperature = true
	if err := WriteAll(jsonlPath, append(recs, updated)); err != nil {
		t.Fatalf("WriteAll() error = %v", err)
	}

	// Stale rows from an earlier run must disappear.
	if err := db.SaveRun(testResult("run-1", []corpus.Record{{Filename: "stale.pdf", Features: features.FeatureVector{SynthesisMethodHint: features.MethodUnknown}}}, "x.pdf")); err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}

	n, err := db.RebuildFromJSONL(jsonlPath)
	if err != nil {
		t.Fatalf("RebuildFromJSONL() error = %v", err)
	}
	if n != 3 {
		t.Errorf("RebuildFromJSONL() = %d, want 3", n)
	}

	rec, err := db.GetByFilename("beta.pdf")
	if err != nil {
		t.Fatalf("GetByFilename() error = %v", err)
	}
	if rec == nil || !rec.Features.HasTemperature {
		t.Errorf("beta.pdf = %+v, want last JSONL occurrence", rec)
	}
	if rec, _ := db.GetByFilename("stale.pdf"); rec != nil {
		t.Error("stale.pdf survived rebuild")
	}

	s, err := db.Summary()
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if s.Skipped != 0 {
		t.Errorf("Summary().Skipped = %d after rebuild, want 0", s.Skipped)
	}
}
