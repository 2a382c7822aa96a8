package dataprocessing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "clcconvert/internal/errors"
)

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		name    string
		cell    Cell
		want    time.Time
		wantErr bool
	}{
		{
			name: "iso text",
			cell: TextCell("2024-01-15 08:00:00"),
			want: time.Date(2024, 1, 15, 8, 0, 0, 0, time.UTC),
		},
		{
			name: "us text",
			cell: TextCell(" 1/15/2024 8:00:30 "),
			want: time.Date(2024, 1, 15, 8, 0, 30, 0, time.UTC),
		},
		{
			name: "serial date",
			cell: NumberCell(45000.5),
			want: time.Date(2023, 3, 15, 12, 0, 0, 0, time.UTC),
		},
		{
			name: "serial date rounded to second",
			cell: NumberCell(45000.5 + 1.0/1440),
			want: time.Date(2023, 3, 15, 12, 1, 0, 0, time.UTC),
		},
		{name: "empty", cell: EmptyCell(), wantErr: true},
		{name: "blank text", cell: TextCell("   "), wantErr: true},
		{name: "garbage", cell: TextCell("not a date"), wantErr: true},
		{name: "negative serial", cell: NumberCell(-1), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTimestamp(tt.cell)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "want %v, got %v", tt.want, got)
		})
	}
}

func timestampTable(t0, t1 Cell, extra ...Cell) *Table {
	rows := [][]Cell{
		{TextCell("t"), TextCell("A")},
		{TextCell("d"), TextCell("a")},
		{TextCell("u"), TextCell("x")},
		{t0, TextCell("1")},
		{t1, TextCell("2")},
	}
	for _, c := range extra {
		rows = append(rows, []Cell{c, TextCell("3")})
	}
	return &Table{Kind: SourceDelimited, Rows: rows}
}

func TestInferPeriod(t *testing.T) {
	tests := []struct {
		name       string
		table      *Table
		wantPeriod time.Duration
		wantErr    string
	}{
		{
			name:       "one minute text",
			table:      timestampTable(TextCell("2024-01-15 08:00:00"), TextCell("2024-01-15 08:01:00")),
			wantPeriod: time.Minute,
		},
		{
			name:       "one second",
			table:      timestampTable(TextCell("2024-01-15 08:00:00"), TextCell("2024-01-15 08:00:01")),
			wantPeriod: time.Second,
		},
		{
			name:       "serial dates",
			table:      timestampTable(NumberCell(45000.5), NumberCell(45000.5+1.0/1440)),
			wantPeriod: time.Minute,
		},
		{
			name:    "negative period",
			table:   timestampTable(TextCell("2024-01-15 08:01:00"), TextCell("2024-01-15 08:00:00")),
			wantErr: "shorter than",
		},
		{
			name:    "zero period",
			table:   timestampTable(TextCell("2024-01-15 08:00:00"), TextCell("2024-01-15 08:00:00")),
			wantErr: "shorter than",
		},
		{
			name:    "sub-second period",
			table:   timestampTable(TextCell("2024-01-15 08:00:00.000"), TextCell("2024-01-15 08:00:00.500")),
			wantErr: "shorter than",
		},
		{
			name:    "unparseable second timestamp",
			table:   timestampTable(TextCell("2024-01-15 08:00:00"), TextCell("later")),
			wantErr: "row 5 timestamp",
		},
		{
			name:    "empty first timestamp",
			table:   timestampTable(EmptyCell(), TextCell("2024-01-15 08:00:00")),
			wantErr: "row 4 timestamp",
		},
		{
			name: "single data row",
			table: &Table{Kind: SourceDelimited, Rows: [][]Cell{
				{TextCell("t"), TextCell("A")},
				{TextCell("d"), TextCell("a")},
				{TextCell("u"), TextCell("x")},
				{TextCell("2024-01-15 08:00:00"), TextCell("1")},
			}},
			wantErr: "at least 2 data rows",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			period, err := InferPeriod(tt.table)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.True(t, apperrors.IsType(err, apperrors.ErrTypeTimestamp))
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantPeriod, period.Period)
		})
	}
}

func TestGenerateTimestamps_Affine(t *testing.T) {
	p := SamplingPeriod{
		Anchor: time.Date(2024, 12, 31, 23, 58, 0, 0, time.UTC),
		Period: 45 * time.Second,
	}

	got := GenerateTimestamps(p, 10)
	require.Len(t, got, 10)
	assert.True(t, p.Anchor.Equal(got[0]))

	for i := range got {
		for j := i + 1; j < len(got); j++ {
			assert.Equal(t, time.Duration(j-i)*p.Period, got[j].Sub(got[i]))
		}
	}

	assert.Equal(t, "01-01-2025 00:04:45", FormatTimestamp(got[9]))
	assert.Empty(t, GenerateTimestamps(p, 0))
}

func TestSamplingPeriod_Seconds(t *testing.T) {
	assert.Equal(t, int64(60), SamplingPeriod{Period: time.Minute}.Seconds())
	assert.Equal(t, int64(1), SamplingPeriod{Period: 1500 * time.Millisecond}.Seconds())
}

func TestFormatTimestamp(t *testing.T) {
	ts := time.Date(2024, 3, 5, 7, 8, 9, 0, time.UTC)
	assert.Equal(t, "03-05-2024 07:08:09", FormatTimestamp(ts))
}
