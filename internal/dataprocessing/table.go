package dataprocessing

import (
	"fmt"

	"clcconvert/internal/config"
	apperrors "clcconvert/internal/errors"
)

// SourceKind is the declared format of an input file
type SourceKind int

const (
	SourceDelimited SourceKind = iota + 1
	SourceSpreadsheet
)

func (k SourceKind) String() string {
	switch k {
	case SourceDelimited:
		return "delimited"
	case SourceSpreadsheet:
		return "spreadsheet"
	default:
		return "unknown"
	}
}

// Table is the raw input grid: tag ids, descriptions and units in rows 0..2,
// then one row per sample with the timestamp in column 0.
type Table struct {
	Kind SourceKind
	Rows [][]Cell
}

// Width returns the column count of the tag-id row
func (t *Table) Width() int {
	if len(t.Rows) == 0 {
		return 0
	}
	return len(t.Rows[config.TagIDRow])
}

// TagCount returns the number of tag columns
func (t *Table) TagCount() int {
	if w := t.Width(); w > config.FirstTagColumn {
		return w - config.FirstTagColumn
	}
	return 0
}

// DataRows returns the sample rows
func (t *Table) DataRows() [][]Cell {
	if len(t.Rows) <= config.FirstDataRow {
		return nil
	}
	return t.Rows[config.FirstDataRow:]
}

// Validate checks the grid shape: the three header rows exist, there is at
// least one tag column, and every row is as wide as the tag-id row.
func (t *Table) Validate() error {
	if len(t.Rows) < config.HeaderRowCount {
		return apperrors.NewAppValidationError(
			fmt.Sprintf("table has %d rows, need %d header rows", len(t.Rows), config.HeaderRowCount))
	}

	width := t.Width()
	if width <= config.FirstTagColumn {
		return apperrors.NewAppValidationError(
			fmt.Sprintf("table has %d columns, need a timestamp column and at least one tag", width))
	}

	for i, row := range t.Rows {
		if len(row) != width {
			return apperrors.NewAppValidationError(
				fmt.Sprintf("row %d has %d cells, expected %d", i+1, len(row), width)).
				WithContext("row", i+1)
		}
	}
	return nil
}
