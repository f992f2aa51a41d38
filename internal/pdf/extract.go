// Package pdf extracts plain text from papers for classification.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"
)

// DefaultMaxPages limits extraction to the leading pages, where the
// experimental section lives, and keeps the reference list out.
const DefaultMaxPages = 10

// Extractor reads document text for a bounded leading page window.
// Failures are logged and reported as absence, never returned.
type Extractor struct {
	maxPages int
	logger   *zap.Logger
}

// NewExtractor creates an extractor. maxPages <= 0 reads every page.
func NewExtractor(maxPages int, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{maxPages: maxPages, logger: logger}
}

// Extract returns the text of the document at path. The boolean is false
// when the file could not be read or yielded no text.
func (e *Extractor) Extract(ctx context.Context, path string) (string, bool) {
	name := filepath.Base(path)

	var text string
	var err error
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		text, err = ExtractText(ctx, path, e.maxPages)
	} else {
		var data []byte
		data, err = os.ReadFile(path)
		text = string(data)
	}

	return e.accept(name, text, err)
}

// ExtractBytes is Extract for in-memory input such as stdin. Data that
// starts with a PDF header is parsed as a PDF, anything else is text.
func (e *Extractor) ExtractBytes(ctx context.Context, name string, data []byte) (string, bool) {
	if bytes.HasPrefix(data, pdfHeader) {
		text, err := ExtractTextReader(ctx, bytes.NewReader(data), int64(len(data)), e.maxPages)
		return e.accept(name, text, err)
	}
	return e.accept(name, string(data), nil)
}

var pdfHeader = []byte("%PDF-")

// accept applies the absence rule: unreadable or blank input is logged
// and never reaches the classifier.
func (e *Extractor) accept(name, text string, err error) (string, bool) {
	if err != nil {
		e.logger.Warn("skipping unreadable document", zap.String("file", name), zap.Error(err))
		return "", false
	}
	if strings.TrimSpace(text) == "" {
		e.logger.Warn("skipping document with no extractable text", zap.String("file", name))
		return "", false
	}
	return text, true
}

// ExtractText extracts all text from the first N pages of a PDF.
func ExtractText(ctx context.Context, filePath string, maxPages int) (text string, err error) {
	// The parser panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("parsing %s: %v", filepath.Base(filePath), r)
		}
	}()

	f, r, err := pdf.Open(filePath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	return readPages(ctx, r, maxPages)
}

// ExtractTextReader extracts text from a PDF reader.
func ExtractTextReader(ctx context.Context, r io.ReaderAt, size int64, maxPages int) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			text, err = "", fmt.Errorf("parsing pdf: %v", rec)
		}
	}()

	pdfReader, err := pdf.NewReader(r, size)
	if err != nil {
		return "", err
	}
	return readPages(ctx, pdfReader, maxPages)
}

func readPages(ctx context.Context, r *pdf.Reader, maxPages int) (string, error) {
	if maxPages <= 0 || maxPages > r.NumPage() {
		maxPages = r.NumPage()
	}

	var builder strings.Builder
	for i := 1; i <= maxPages; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		builder.WriteString(text)
		builder.WriteString("\n")
	}

	return builder.String(), nil
}
