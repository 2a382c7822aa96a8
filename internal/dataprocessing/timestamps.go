package dataprocessing

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/xuri/excelize/v2"

	"clcconvert/internal/config"
	apperrors "clcconvert/internal/errors"
)

// SamplingPeriod anchors the linear timestamp series of a table
type SamplingPeriod struct {
	Anchor time.Time
	Period time.Duration
}

// Seconds returns the period in whole seconds, truncated
func (p SamplingPeriod) Seconds() int64 {
	return int64(p.Period / time.Second)
}

// At returns the timestamp of data row i
func (p SamplingPeriod) At(i int) time.Time {
	return p.Anchor.Add(time.Duration(i) * p.Period)
}

// ParseTimestamp reads a timestamp cell. Text goes through a permissive
// parser with naive values taken as UTC; numbers are spreadsheet serial
// days on the 1900 epoch, rounded to the second.
func ParseTimestamp(c Cell) (time.Time, error) {
	switch c.Kind {
	case CellText:
		s := strings.TrimSpace(c.Text)
		if s == "" {
			return time.Time{}, fmt.Errorf("empty timestamp")
		}
		t, err := dateparse.ParseIn(s, time.UTC)
		if err != nil {
			return time.Time{}, fmt.Errorf("unrecognized timestamp %q: %w", s, err)
		}
		return t, nil
	case CellNumber:
		if math.IsNaN(c.Number) || math.IsInf(c.Number, 0) || c.Number < 0 {
			return time.Time{}, fmt.Errorf("invalid serial date %v", c.Number)
		}
		t, err := excelize.ExcelDateToTime(c.Number, false)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid serial date %v: %w", c.Number, err)
		}
		return t.Round(time.Second), nil
	default:
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
}

// InferPeriod derives the sampling period from the first two data rows.
// Periods under one second, including zero and negative ones, are rejected.
func InferPeriod(t *Table) (SamplingPeriod, error) {
	data := t.DataRows()
	if len(data) < config.MinDataRowCount {
		return SamplingPeriod{}, apperrors.NewTimestampError(
			fmt.Sprintf("need at least %d data rows to infer the period, got %d", config.MinDataRowCount, len(data)), nil)
	}

	t0, err := ParseTimestamp(data[0][config.TimestampColumn])
	if err != nil {
		return SamplingPeriod{}, apperrors.NewTimestampError(
			fmt.Sprintf("row %d timestamp", config.FirstDataRow+1), err)
	}
	t1, err := ParseTimestamp(data[1][config.TimestampColumn])
	if err != nil {
		return SamplingPeriod{}, apperrors.NewTimestampError(
			fmt.Sprintf("row %d timestamp", config.FirstDataRow+2), err)
	}

	period := t1.Sub(t0)
	if period < config.MinSamplePeriod {
		return SamplingPeriod{}, apperrors.NewTimestampError(
			fmt.Sprintf("sampling period %v is shorter than %v", period, config.MinSamplePeriod), nil).
			WithContext("period", period.String())
	}

	return SamplingPeriod{Anchor: t0, Period: period}, nil
}

// GenerateTimestamps returns count timestamps anchor + i*period
func GenerateTimestamps(p SamplingPeriod, count int) []time.Time {
	out := make([]time.Time, count)
	for i := range out {
		out[i] = p.At(i)
	}
	return out
}

// FormatTimestamp renders MM-DD-YYYY HH:MM:SS
func FormatTimestamp(t time.Time) string {
	return t.Format(config.TimestampLayout)
}
