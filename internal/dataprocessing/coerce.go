package dataprocessing

import (
	"math"
	"strconv"
	"strings"

	"clcconvert/internal/config"
)

// Quality is the two-state sample flag of the target format
type Quality byte

const (
	QualityGood Quality = 'G'
	QualityBad  Quality = 'B'
)

func (q Quality) String() string { return string(q) }

// Sample is one coerced value of one tag
type Sample struct {
	Value   float64
	Quality Quality
}

// BadSample is what every unreadable cell degrades to
var BadSample = Sample{Value: config.BadValue, Quality: QualityBad}

// CoerceCell converts a cell to a sample. Empty cells, non-numeric text,
// NaN and infinities all become BadSample.
func CoerceCell(c Cell) Sample {
	var v float64
	switch c.Kind {
	case CellNumber:
		v = c.Number
	case CellText:
		text := strings.TrimSpace(c.Text)
		// hex floats are not decimal sample values
		if strings.Contains(text, "0x") || strings.Contains(text, "0X") {
			return BadSample
		}
		parsed, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return BadSample
		}
		v = parsed
	default:
		return BadSample
	}

	if math.IsNaN(v) || math.IsInf(v, 0) {
		return BadSample
	}
	return Sample{Value: v, Quality: QualityGood}
}

// CoercionStats counts samples by quality
type CoercionStats struct {
	Good int
	Bad  int
}

// CoerceRows coerces the tag columns of every data row
func CoerceRows(t *Table) ([][]Sample, CoercionStats) {
	data := t.DataRows()
	out := make([][]Sample, len(data))
	var stats CoercionStats

	for i, row := range data {
		samples := make([]Sample, 0, len(row)-config.FirstTagColumn)
		for _, cell := range row[config.FirstTagColumn:] {
			s := CoerceCell(cell)
			if s.Quality == QualityGood {
				stats.Good++
			} else {
				stats.Bad++
			}
			samples = append(samples, s)
		}
		out[i] = samples
	}
	return out, stats
}
