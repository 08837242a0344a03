// Package document is the tabular-document collaborator: open a workbook by
// path, enumerate its sheets in a stable order, and scan rows for key
// tokens.
package document

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"mailresolve/model"
)

// Workbook is an open tabular document.
type Workbook interface {
	Sheets() []Sheet
	Close() error
}

// Sheet is one worksheet. Rows returns the used extent top to bottom, each
// row's cells left to right as display text.
type Sheet interface {
	Name() string
	Rows() [][]string
}

// SpreadsheetLike reports whether a filename has a supported workbook
// extension.
func SpreadsheetLike(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		return true
	}
	return false
}

// Open opens a workbook at path. Failures come back as *model.DocumentError
// so the pipeline can fall through instead of aborting.
func Open(path string) (Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, &model.DocumentError{Op: "open", Ref: path, Err: err}
	}
	return &xlsxWorkbook{f: f}, nil
}

// OpenWithRetry reopens a document that may still be flushing or
// recalculating: fixed sleep interval, hard attempt cap, definitive error
// past the cap.
func OpenWithRetry(path string, attempts int, interval time.Duration) (Workbook, error) {
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			time.Sleep(interval)
		}
		wb, err := Open(path)
		if err == nil {
			return wb, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("open %s after %d attempts: %w", path, attempts, lastErr)
}

type xlsxWorkbook struct {
	f *excelize.File
}

func (w *xlsxWorkbook) Sheets() []Sheet {
	names := w.f.GetSheetList()
	sheets := make([]Sheet, 0, len(names))
	for _, name := range names {
		sheets = append(sheets, &xlsxSheet{f: w.f, name: name})
	}
	return sheets
}

func (w *xlsxWorkbook) Close() error {
	return w.f.Close()
}

type xlsxSheet struct {
	f    *excelize.File
	name string
}

func (s *xlsxSheet) Name() string {
	return s.name
}

func (s *xlsxSheet) Rows() [][]string {
	rows, err := s.f.GetRows(s.name)
	if err != nil {
		return nil
	}
	return rows
}
