package dataprocessing

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeTagID(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"TAG_1!", "TAG1"},
		{"FIC-101.PV", "FIC101PV"},
		{"already123", "already123"},
		{"Température", "Temprature"},
		{"  spaced  id ", "spacedid"},
		{"", ""},
		{"!!!", ""},
	}

	valid := regexp.MustCompile(`^[A-Za-z0-9]*$`)
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := SanitizeTagID(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Regexp(t, valid, got)
			assert.Equal(t, got, SanitizeTagID(got), "idempotent")
		})
	}
}

func TestCollapseSpaces(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Desc  A", "Desc A"},
		{"  lead and   trail  ", " lead and trail "},
		{"tab\t\there", "tab\t\there"},
		{"line\n\nbreak", "line\n\nbreak"},
		{"single", "single"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := CollapseSpaces(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, CollapseSpaces(got), "idempotent")
		})
	}
}

func TestNormalizeTags(t *testing.T) {
	table := textTable(
		[]string{"t", "TAG_1!", "T2", "ABCDEFGHIJKLM"},
		[]string{"d", "Desc  A", "Desc B", strings.Repeat("x", 41)},
		[]string{"u", "PSI", "deg  F", ""},
	)
	require.NoError(t, table.Validate())

	tags, warnings := NormalizeTags(table)
	require.Len(t, tags, table.Width()-1)

	assert.Equal(t, TagMetadata{Column: 1, RawID: "TAG_1!", ID: "TAG1", Description: "Desc A", Units: "PSI"}, tags[0])
	assert.Equal(t, "deg F", tags[1].Units)
	assert.Equal(t, "ABCDEFGHIJKLM", tags[2].ID, "never truncated")
	assert.Equal(t, "", tags[2].Units)

	require.Len(t, warnings, 2)
	assert.Equal(t, "line11: ABCDEFGHIJKLM variable length too long", warnings[0].String())
	assert.Equal(t, "line11: ABCDEFGHIJKLM description length too long", warnings[1].String())
}

func TestNormalizeTags_LimitsAreInclusive(t *testing.T) {
	table := textTable(
		[]string{"t", "ABCDEFGHIJKL"},
		[]string{"d", strings.Repeat("y", 40)},
		[]string{"u", "m"},
	)

	_, warnings := NormalizeTags(table)
	assert.Empty(t, warnings)
}

func TestNormalizeTags_CountsRunes(t *testing.T) {
	table := textTable(
		[]string{"t", "T1"},
		[]string{"d", strings.Repeat("é", 40)},
		[]string{"u", "°C"},
	)

	_, warnings := NormalizeTags(table)
	assert.Empty(t, warnings)
}

func TestNormalizeTags_NumericHeaderCells(t *testing.T) {
	table := &Table{Kind: SourceSpreadsheet, Rows: [][]Cell{
		{TextCell("t"), NumberCell(101)},
		{TextCell("d"), TextCell("Line  101")},
		{TextCell("u"), EmptyCell()},
	}}

	tags, warnings := NormalizeTags(table)
	require.Len(t, tags, 1)
	assert.Equal(t, "101", tags[0].ID)
	assert.Equal(t, "Line 101", tags[0].Description)
	assert.Empty(t, tags[0].Units)
	assert.Empty(t, warnings)
}

func TestMetadataLine(t *testing.T) {
	assert.Equal(t, 9, MetadataLine(1))
	assert.Equal(t, 12, MetadataLine(4))
}
