package dataprocessing

import (
	"strconv"
)

// CellKind tells which variant a Cell holds
type CellKind int

const (
	CellEmpty CellKind = iota
	CellText
	CellNumber
)

func (k CellKind) String() string {
	switch k {
	case CellText:
		return "text"
	case CellNumber:
		return "number"
	default:
		return "empty"
	}
}

// Cell is one raw value of the input grid. Loaders decide the variant
// explicitly; nothing downstream guesses a type from the text.
type Cell struct {
	Kind   CellKind
	Text   string
	Number float64
}

// EmptyCell returns a blank cell
func EmptyCell() Cell { return Cell{} }

// TextCell returns a text cell
func TextCell(s string) Cell { return Cell{Kind: CellText, Text: s} }

// NumberCell returns a numeric cell
func NumberCell(v float64) Cell { return Cell{Kind: CellNumber, Number: v} }

// IsEmpty reports whether the cell holds no value
func (c Cell) IsEmpty() bool { return c.Kind == CellEmpty }

// String renders the cell as metadata text. Numbers use the shortest
// decimal form, so 101 stays "101".
func (c Cell) String() string {
	switch c.Kind {
	case CellText:
		return c.Text
	case CellNumber:
		return strconv.FormatFloat(c.Number, 'f', -1, 64)
	default:
		return ""
	}
}
