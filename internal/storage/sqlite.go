package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/matsen/synthscan/internal/corpus"
	"github.com/matsen/synthscan/internal/features"
	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database connection.
type DB struct {
	db *sql.DB
}

// Run describes one stored scan.
type Run struct {
	RunID     string        `json:"run_id"`
	Folder    string        `json:"folder"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	Scanned   int           `json:"scanned"`
	Skipped   int           `json:"skipped"`
}

// featureColumns is the comma-separated list of boolean feature columns.
var featureColumns = strings.Join(features.BoolFields, ", ")

// selectRecordFields contains the standard field list for SELECT queries.
var selectRecordFields = "filename, doi, " + featureColumns + ", " + features.FieldMethodHint

// OpenDB opens or creates a SQLite database at the given path.
func OpenDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// createSchema creates the database schema if it doesn't exist.
func createSchema(db *sql.DB) error {
	var cols strings.Builder
	for _, f := range features.BoolFields {
		fmt.Fprintf(&cols, "\t\t\t%s INTEGER NOT NULL,\n", f)
	}

	schema := `
		-- One row per classified document
		CREATE TABLE IF NOT EXISTS records (
			filename TEXT PRIMARY KEY,
			doi TEXT,
			run_id TEXT,
` + cols.String() + `			` + features.FieldMethodHint + ` TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_records_doi ON records(doi) WHERE doi IS NOT NULL AND doi != '';

		-- Scan history
		CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			folder TEXT NOT NULL,
			started_at INTEGER NOT NULL,
			duration_ms INTEGER NOT NULL,
			scanned INTEGER NOT NULL,
			skipped INTEGER NOT NULL
		);
	`

	_, err := db.Exec(schema)
	return err
}

// SaveRun replaces the stored records with the result of a scan and adds
// the run to the history, in one transaction.
func (d *DB) SaveRun(result *corpus.Result) error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	if err := replaceRecords(tx, result.RunID, result.Records); err != nil {
		return err
	}

	_, err = tx.Exec(`
		INSERT INTO runs (run_id, folder, started_at, duration_ms, scanned, skipped)
		VALUES (?, ?, ?, ?, ?, ?)`,
		result.RunID, result.Folder, result.StartedAt.Unix(), result.Duration.Milliseconds(),
		len(result.Records), len(result.Skipped))
	if err != nil {
		return fmt.Errorf("inserting run %s: %w", result.RunID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing run: %w", err)
	}
	return nil
}

// RebuildFromJSONL clears the records table and reloads it from a JSONL
// file. Repeated filenames keep their last record.
func (d *DB) RebuildFromJSONL(jsonlPath string) (int, error) {
	records, err := ReadAll(jsonlPath)
	if err != nil {
		return 0, fmt.Errorf("reading JSONL: %w", err)
	}
	records = Latest(records)

	tx, err := d.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	if err := replaceRecords(tx, "", records); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing rebuild: %w", err)
	}

	return len(records), nil
}

func replaceRecords(tx *sql.Tx, runID string, records []corpus.Record) error {
	if _, err := tx.Exec("DELETE FROM records"); err != nil {
		return fmt.Errorf("clearing records table: %w", err)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(features.BoolFields)+4), ", ")
	stmt, err := tx.Prepare(`INSERT INTO records (run_id, ` + selectRecordFields + `) VALUES (` + placeholders + `)`)
	if err != nil {
		return fmt.Errorf("preparing records insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		args := []interface{}{nullableStringValue(runID), rec.Filename, nullableStringValue(rec.DOI)}
		for _, b := range rec.Features.Bools() {
			args = append(args, boolToInt(b))
		}
		args = append(args, string(rec.Features.SynthesisMethodHint))

		if _, err := stmt.Exec(args...); err != nil {
			return fmt.Errorf("inserting record %s: %w", rec.Filename, err)
		}
	}
	return nil
}

// ListRecords returns all stored records ordered by filename.
func (d *DB) ListRecords() ([]corpus.Record, error) {
	rows, err := d.db.Query(`SELECT ` + selectRecordFields + ` FROM records ORDER BY filename`)
	if err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}
	defer rows.Close()

	var records []corpus.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// GetByFilename retrieves a record by its filename. Returns nil if absent.
func (d *DB) GetByFilename(filename string) (*corpus.Record, error) {
	row := d.db.QueryRow(`SELECT `+selectRecordFields+` FROM records WHERE filename = ?`, filename)
	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Count returns the total number of records.
func (d *DB) Count() (int, error) {
	var count int
	err := d.db.QueryRow("SELECT COUNT(*) FROM records").Scan(&count)
	return count, err
}

// Summary computes corpus statistics with SQL aggregates. Skipped comes
// from the run that wrote the records, or 0 when the table was rebuilt
// from JSONL.
func (d *DB) Summary() (corpus.Summary, error) {
	sums := make([]string, len(features.BoolFields))
	for i, f := range features.BoolFields {
		sums[i] = "COALESCE(SUM(" + f + "), 0)"
	}

	counts := make([]int, len(features.BoolFields))
	var total int
	dest := []interface{}{&total}
	for i := range counts {
		dest = append(dest, &counts[i])
	}
	if err := d.db.QueryRow(`SELECT COUNT(*), ` + strings.Join(sums, ", ") + ` FROM records`).Scan(dest...); err != nil {
		return corpus.Summary{}, fmt.Errorf("counting features: %w", err)
	}

	rows, err := d.db.Query(`SELECT ` + features.FieldMethodHint + `, COUNT(*) FROM records GROUP BY ` + features.FieldMethodHint)
	if err != nil {
		return corpus.Summary{}, fmt.Errorf("counting method hints: %w", err)
	}
	defer rows.Close()

	hints := make(map[features.MethodHint]int)
	for rows.Next() {
		var hint string
		var n int
		if err := rows.Scan(&hint, &n); err != nil {
			return corpus.Summary{}, fmt.Errorf("scanning method hint: %w", err)
		}
		hints[features.MethodHint(hint)] = n
	}
	if err := rows.Err(); err != nil {
		return corpus.Summary{}, err
	}

	skipped, err := d.latestSkipped(total)
	if err != nil {
		return corpus.Summary{}, err
	}

	return corpus.NewSummary(total, skipped, counts, hints), nil
}

// latestSkipped returns the skipped count of the run that wrote the
// current records, or 0 if the records came from a rebuild. A run that
// skipped every document writes no records, so an empty table falls back
// to the most recent run.
func (d *DB) latestSkipped(total int) (int, error) {
	query := `
		SELECT runs.skipped FROM runs
		WHERE runs.run_id = (SELECT run_id FROM records WHERE run_id IS NOT NULL LIMIT 1)`
	if total == 0 {
		query = `SELECT skipped FROM runs ORDER BY started_at DESC, rowid DESC LIMIT 1`
	}

	var skipped int
	err := d.db.QueryRow(query).Scan(&skipped)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading latest run: %w", err)
	}
	return skipped, nil
}

// ListRuns returns the scan history, newest first.
func (d *DB) ListRuns() ([]Run, error) {
	rows, err := d.db.Query(`
		SELECT run_id, folder, started_at, duration_ms, scanned, skipped
		FROM runs ORDER BY started_at DESC, run_id`)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var startedAt, durationMs int64
		if err := rows.Scan(&r.RunID, &r.Folder, &startedAt, &durationMs, &r.Scanned, &r.Skipped); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.StartedAt = time.Unix(startedAt, 0)
		r.Duration = time.Duration(durationMs) * time.Millisecond
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// scanner interface for sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(s scanner) (corpus.Record, error) {
	var rec corpus.Record
	var doi sql.NullString
	var hint string
	flags := make([]int, len(features.BoolFields))

	dest := []interface{}{&rec.Filename, &doi}
	for i := range flags {
		dest = append(dest, &flags[i])
	}
	dest = append(dest, &hint)

	if err := s.Scan(dest...); err != nil {
		return corpus.Record{}, err
	}

	values := make([]bool, len(flags))
	for i, f := range flags {
		values[i] = f != 0
	}
	mh, err := features.ParseMethodHint(hint)
	if err != nil {
		return corpus.Record{}, fmt.Errorf("record %s: %w", rec.Filename, err)
	}
	fv, err := features.FromBools(values, mh)
	if err != nil {
		return corpus.Record{}, fmt.Errorf("record %s: %w", rec.Filename, err)
	}

	rec.DOI = doi.String
	rec.Features = fv
	return rec, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// nullableStringValue converts a string to sql.NullString, treating empty as NULL.
func nullableStringValue(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
