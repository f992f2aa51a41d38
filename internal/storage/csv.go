package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/matsen/synthscan/internal/corpus"
	"github.com/matsen/synthscan/internal/features"
)

// CSVHeader returns the report columns: filename, doi, one column per field.
func CSVHeader() []string {
	header := []string{"filename", "doi"}
	header = append(header, features.BoolFields...)
	return append(header, features.FieldMethodHint)
}

// WriteCSV writes one row per record to path, replacing existing content.
func WriteCSV(path string, records []corpus.Record) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating report: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(CSVHeader()); err != nil {
		return fmt.Errorf("writing report header: %w", err)
	}

	for _, rec := range records {
		row := []string{rec.Filename, rec.DOI}
		for _, b := range rec.Features.Bools() {
			row = append(row, strconv.FormatBool(b))
		}
		row = append(row, string(rec.Features.SynthesisMethodHint))
		if err := w.Write(row); err != nil {
			return fmt.Errorf("writing row for %s: %w", rec.Filename, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}

// ReadCSV reads a report written by WriteCSV.
func ReadCSV(path string) ([]corpus.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening report: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header := CSVHeader()
	r.FieldsPerRecord = len(header)

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading report: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	for i, col := range rows[0] {
		if col != header[i] {
			return nil, fmt.Errorf("unexpected column %d: %q, want %q", i+1, col, header[i])
		}
	}

	records := make([]corpus.Record, 0, len(rows)-1)
	for n, row := range rows[1:] {
		line := n + 2
		values := make([]bool, len(features.BoolFields))
		for i := range values {
			v, err := strconv.ParseBool(row[2+i])
			if err != nil {
				return nil, fmt.Errorf("line %d, column %s: %w", line, features.BoolFields[i], err)
			}
			values[i] = v
		}
		hint, err := features.ParseMethodHint(row[len(row)-1])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		fv, err := features.FromBools(values, hint)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		records = append(records, corpus.Record{Filename: row[0], DOI: row[1], Features: fv})
	}
	return records, nil
}
