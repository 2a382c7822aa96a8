package dataprocessing

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	apperrors "clcconvert/internal/errors"
)

// LoadOptions controls how input files are read
type LoadOptions struct {
	// Quote is the quote character of delimited text
	Quote  rune
	Logger *slog.Logger
}

func (o LoadOptions) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}

// Load reads the file at path as the declared kind
func Load(path string, kind SourceKind, opts LoadOptions) (*Table, error) {
	var (
		table *Table
		err   error
	)
	switch kind {
	case SourceDelimited:
		table, err = LoadDelimited(path, opts.Quote)
	case SourceSpreadsheet:
		table, err = LoadSpreadsheet(path)
	default:
		return nil, apperrors.NewReadError(fmt.Sprintf("unsupported source kind %q", kind), nil)
	}
	if err != nil {
		return nil, err
	}

	opts.logger().Debug("Loaded input table",
		slog.String("file", path),
		slog.String("kind", kind.String()),
		slog.Int("rows", len(table.Rows)),
		slog.Int("columns", table.Width()))
	return table, nil
}

// LoadDelimited reads comma-separated text with the given quote character.
func LoadDelimited(path string, quote rune) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.NewReadError("failed to read file", err)
	}

	rows, err := parseDelimited(data, quote)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, apperrors.NewReadError("file contains no rows", nil)
	}

	return &Table{Kind: SourceDelimited, Rows: rows}, nil
}

// LoadSpreadsheet reads the first sheet of a workbook. Cell types decide the
// variant so that serial dates stay numeric. Rows are padded with Empty cells
// to the widest row since the reader drops trailing blanks.
func LoadSpreadsheet(path string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, apperrors.NewReadError("failed to open workbook", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, apperrors.NewReadError("workbook has no sheets", nil)
	}
	sheet := sheets[0]

	raw, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, apperrors.NewReadError(fmt.Sprintf("failed to read sheet %q", sheet), err)
	}
	if len(raw) == 0 {
		return nil, apperrors.NewReadError(fmt.Sprintf("sheet %q is empty", sheet), nil)
	}

	width := 0
	for _, row := range raw {
		if len(row) > width {
			width = len(row)
		}
	}

	rows := make([][]Cell, len(raw))
	for r, values := range raw {
		cells := make([]Cell, width)
		for c, value := range values {
			if value == "" {
				continue
			}
			ref, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return nil, apperrors.NewReadError("invalid cell coordinates", err)
			}
			cellType, err := f.GetCellType(sheet, ref)
			if err != nil {
				return nil, apperrors.NewReadError(fmt.Sprintf("failed to read cell %s", ref), err)
			}
			cells[c] = classifyCell(cellType, value)
		}
		rows[r] = cells
	}

	return &Table{Kind: SourceSpreadsheet, Rows: rows}, nil
}

// classifyCell maps a raw spreadsheet value onto a Cell
func classifyCell(cellType excelize.CellType, value string) Cell {
	switch cellType {
	case excelize.CellTypeBool:
		if value == "1" || strings.EqualFold(value, "true") {
			return NumberCell(1)
		}
		return NumberCell(0)
	case excelize.CellTypeNumber, excelize.CellTypeUnset:
		if v, err := strconv.ParseFloat(value, 64); err == nil {
			return NumberCell(v)
		}
	}
	return TextCell(value)
}
