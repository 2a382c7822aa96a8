package dataprocessing

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	apperrors "clcconvert/internal/errors"
)

const fieldSeparator = ','

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

type delimitedState int

const (
	stateFieldStart delimitedState = iota
	stateUnquoted
	stateQuoted
	stateQuoteInQuoted
)

// parseDelimited splits comma-separated text into rows of cells. A field is
// quoted only when quote is its first character; inside it a doubled quote
// is a literal quote and separators and line breaks are kept. Text after a
// closing quote joins the field. Blank lines are dropped and every
// zero-length field is Empty.
func parseDelimited(data []byte, quote rune) ([][]Cell, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		return nil, apperrors.NewReadError("input is not valid UTF-8 text", nil)
	}

	var (
		rows       [][]Cell
		row        []Cell
		field      strings.Builder
		state      = stateFieldStart
		line       = 1
		quoteLine  = 0
		rowStarted bool
	)

	endField := func() {
		if field.Len() == 0 {
			row = append(row, EmptyCell())
		} else {
			row = append(row, TextCell(field.String()))
		}
		field.Reset()
		state = stateFieldStart
	}
	endRow := func() {
		if rowStarted {
			endField()
			rows = append(rows, row)
		}
		row = nil
		rowStarted = false
		state = stateFieldStart
	}

	s := string(data)
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		i += size

		newline := r == '\n' || r == '\r'
		if r == '\r' && i < len(s) && s[i] == '\n' {
			if state != stateQuoted {
				i++
			}
		}

		switch state {
		case stateQuoted:
			if r == quote {
				state = stateQuoteInQuoted
			} else {
				field.WriteRune(r)
			}
			if r == '\n' {
				line++
			}
			continue
		case stateQuoteInQuoted:
			if r == quote {
				field.WriteRune(r)
				state = stateQuoted
				continue
			}
		}

		switch {
		case newline:
			endRow()
			line++
		case r == fieldSeparator:
			rowStarted = true
			endField()
		case state == stateFieldStart && r == quote:
			rowStarted = true
			state = stateQuoted
			quoteLine = line
		default:
			rowStarted = true
			field.WriteRune(r)
			state = stateUnquoted
		}
	}

	if state == stateQuoted {
		return nil, apperrors.NewReadError(
			fmt.Sprintf("unterminated quoted field starting on line %d", quoteLine), nil)
	}
	endRow()

	return rows, nil
}
