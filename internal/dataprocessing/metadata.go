package dataprocessing

import (
	"fmt"
	"regexp"
	"unicode/utf8"

	"clcconvert/internal/config"
)

var (
	nonAlphanumeric = regexp.MustCompile(`[^A-Za-z0-9]+`)
	spaceRuns       = regexp.MustCompile(` +`)
)

// TagMetadata is the normalized header of one tag column
type TagMetadata struct {
	Column      int
	RawID       string
	ID          string
	Description string
	Units       string
}

// WarningKind classifies a metadata warning
type WarningKind string

const (
	WarningIDTooLong          WarningKind = "variable length too long"
	WarningDescriptionTooLong WarningKind = "description length too long"
)

// Warning flags a metadata value the import tooling will reject. Line is
// the 1-based line of the tag's metadata record in the output file.
type Warning struct {
	Line int
	ID   string
	Kind WarningKind
}

func (w Warning) String() string {
	return fmt.Sprintf("line%d: %s %s", w.Line, w.ID, w.Kind)
}

// SanitizeTagID drops every character that is not an ASCII letter or digit
func SanitizeTagID(id string) string {
	return nonAlphanumeric.ReplaceAllString(id, "")
}

// CollapseSpaces squeezes runs of the space character. Tabs and line breaks
// are left alone.
func CollapseSpaces(s string) string {
	return spaceRuns.ReplaceAllString(s, " ")
}

// MetadataLine returns the output line number of the metadata record for a tag column
func MetadataLine(column int) int {
	return column + config.MetadataLineOffset
}

// NormalizeTags builds one metadata record per tag column of a validated
// table. Over-length ids and descriptions produce warnings, never truncation.
func NormalizeTags(t *Table) ([]TagMetadata, []Warning) {
	ids := t.Rows[config.TagIDRow]
	descriptions := t.Rows[config.DescriptionRow]
	units := t.Rows[config.UnitsRow]

	tags := make([]TagMetadata, 0, t.TagCount())
	var warnings []Warning

	for col := config.FirstTagColumn; col < len(ids); col++ {
		tag := TagMetadata{
			Column:      col,
			RawID:       ids[col].String(),
			Description: CollapseSpaces(descriptions[col].String()),
			Units:       CollapseSpaces(units[col].String()),
		}
		tag.ID = SanitizeTagID(tag.RawID)

		line := MetadataLine(col)
		if utf8.RuneCountInString(tag.ID) > config.MaxTagIDLength {
			warnings = append(warnings, Warning{Line: line, ID: tag.ID, Kind: WarningIDTooLong})
		}
		if utf8.RuneCountInString(tag.Description) > config.MaxDescriptionLength {
			warnings = append(warnings, Warning{Line: line, ID: tag.ID, Kind: WarningDescriptionTooLong})
		}

		tags = append(tags, tag)
	}

	return tags, warnings
}
