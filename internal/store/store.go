// Package store persists valuation results to an xlsx workbook as an
// append-only {Stock, Metric, Value} table. Each run loads whatever rows
// already exist, appends the new batch, and rewrites the whole file.
// Single-writer: concurrent runs against the same file are not supported.
package store

import (
	"fmt"
	"os"

	"github.com/xuri/excelize/v2"

	"github.com/seenimoa/compval/pkg/models"
)

const sheetName = "Sheet1"

var header = []interface{}{"Stock", "Metric", "Value"}

// Store is a file-backed results table.
type Store struct {
	path string
}

// New creates a store backed by the xlsx file at path. The file is created
// on first append.
func New(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file path.
func (s *Store) Path() string { return s.path }

// Load reads all existing result rows. A missing file is an empty store,
// not an error.
func (s *Store) Load() ([]models.ResultRow, error) {
	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return nil, nil
	}

	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("open results file %s: %w", s.path, err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("read results sheet: %w", err)
	}

	var out []models.ResultRow
	for i, row := range rows {
		if i == 0 {
			continue // header
		}
		r := models.ResultRow{}
		if len(row) > 0 {
			r.Stock = row[0]
		}
		if len(row) > 1 {
			r.Metric = row[1]
		}
		if len(row) > 2 {
			r.Value = row[2]
		}
		out = append(out, r)
	}
	return out, nil
}

// Append adds the batch to the store and rewrites the file. Fully-empty
// rows are dropped from the batch; previously stored rows are never lost.
func (s *Store) Append(batch []models.ResultRow) error {
	existing, err := s.Load()
	if err != nil {
		return err
	}

	all := existing
	for _, r := range batch {
		if r.Empty() {
			continue
		}
		all = append(all, r)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, r := range all {
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(sheetName, cell, &[]interface{}{r.Stock, r.Metric, r.Value}); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}

	if err := f.SaveAs(s.path); err != nil {
		return fmt.Errorf("save results file %s: %w", s.path, err)
	}
	return nil
}
