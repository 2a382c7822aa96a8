package exporter

import (
	"fmt"
	"strings"

	"clcconvert/internal/config"
	"clcconvert/internal/dataprocessing"
)

// Separator is the line between the header, metadata and data blocks
var Separator = strings.Repeat(config.SeparatorChar, config.SeparatorWidth)

// Options holds the configurable header text
type Options struct {
	Banner      string
	Attribution string
}

// Input is everything the pipeline produced for one file
type Input struct {
	Tags     []dataprocessing.TagMetadata
	Warnings []dataprocessing.Warning
	Period   dataprocessing.SamplingPeriod
	Samples  [][]dataprocessing.Sample
}

// Document is a CLC file ready to serialize, plus its diagnostics.
type Document struct {
	Header      []string
	Metadata    []string
	Data        [][]string
	Diagnostics []string
}

// Assemble lays out the header, metadata and data blocks
func Assemble(in Input, opts Options) (*Document, error) {
	if len(in.Samples) == 0 {
		return nil, fmt.Errorf("no data rows to assemble")
	}
	for i, row := range in.Samples {
		if len(row) != len(in.Tags) {
			return nil, fmt.Errorf("data row %d has %d samples for %d tags", i, len(row), len(in.Tags))
		}
	}

	tagCount := formatInt(int64(len(in.Tags)))
	doc := &Document{
		Header: []string{
			opts.Banner,
			opts.Attribution,
			tagCount,
			tagCount,
			dataprocessing.FormatTimestamp(in.Period.Anchor),
			formatInt(in.Period.Seconds()),
			formatInt(int64(len(in.Samples))),
		},
		Metadata: make([]string, len(in.Tags)),
		Data:     make([][]string, len(in.Samples)),
	}

	for i, tag := range in.Tags {
		doc.Metadata[i] = strings.Join(
			[]string{tag.ID, tag.ID, tag.Description, tag.Units},
			config.MetadataFieldSep)
	}

	for i, row := range in.Samples {
		record := make([]string, 0, 1+2*len(row))
		record = append(record, dataprocessing.FormatTimestamp(in.Period.At(i)))
		for _, s := range row {
			record = append(record, formatSample(s), s.Quality.String())
		}
		doc.Data[i] = record
	}

	for _, w := range in.Warnings {
		doc.Diagnostics = append(doc.Diagnostics, w.String())
	}

	return doc, nil
}

// Records flattens the document into output lines, one record per line
func (d *Document) Records() [][]string {
	records := make([][]string, 0, len(d.Header)+len(d.Metadata)+len(d.Data)+3)
	for _, line := range d.Header {
		records = append(records, []string{line})
	}
	records = append(records, []string{Separator})
	for _, line := range d.Metadata {
		records = append(records, []string{line})
	}
	records = append(records, []string{Separator})
	records = append(records, d.Data...)
	records = append(records, []string{Separator})
	return records
}

// HasDiagnostics reports whether an errors file should be written
func (d *Document) HasDiagnostics() bool {
	return len(d.Diagnostics) > 0
}
