package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
)

// CSVWriter serializes CLC documents as CSV records. Fields are quoted only
// when they contain the separator, quotes or line breaks.
type CSVWriter struct {
	useCRLF bool
}

// NewCSVWriter creates a writer; useCRLF selects CR LF line endings
func NewCSVWriter(useCRLF bool) *CSVWriter {
	return &CSVWriter{useCRLF: useCRLF}
}

// WriteRecords writes records to w
func (w *CSVWriter) WriteRecords(out io.Writer, records [][]string) error {
	writer := csv.NewWriter(out)
	writer.UseCRLF = w.useCRLF

	for i, record := range records {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteDocument writes the CLC data file
func (w *CSVWriter) WriteDocument(out io.Writer, doc *Document) error {
	return w.WriteRecords(out, doc.Records())
}

// WriteDiagnostics writes one warning per line
func (w *CSVWriter) WriteDiagnostics(out io.Writer, doc *Document) error {
	records := make([][]string, len(doc.Diagnostics))
	for i, line := range doc.Diagnostics {
		records[i] = []string{line}
	}
	return w.WriteRecords(out, records)
}
