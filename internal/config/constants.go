package config

import "time"

// Application constants
const (
	AppName    = "clcconvert"
	AppVersion = "1.2.0"

	DefaultLogFile = "logs/clcconvert.log"

	DefaultServerHost = "127.0.0.1"
)

// Conversion defaults
const (
	DefaultQuote       = "'"
	DefaultBanner      = "CSV to CLC File Conversion"
	DefaultAttribution = "Developed by D.P. (AMT)"

	LineEndingCRLF = "crlf"
	LineEndingLF   = "lf"
)

// Input grid layout: three header rows (tag ids, descriptions, units) then
// one row per sample, timestamp in column 0.
const (
	TagIDRow        = 0
	DescriptionRow  = 1
	UnitsRow        = 2
	HeaderRowCount  = 3
	FirstDataRow    = HeaderRowCount
	TimestampColumn = 0
	FirstTagColumn  = 1
	MinDataRowCount = 2
)

// CLC output layout. Line numbers are 1-based.
const (
	HeaderLineCount = 7
	// MetadataLineOffset turns a tag column index into the line number of its
	// metadata line: column 1 sits right after the header and one separator.
	MetadataLineOffset = HeaderLineCount + 1

	SeparatorWidth = 50
	SeparatorChar  = "="

	MetadataFieldSep = "~~~"

	// TimestampLayout renders MM-DD-YYYY HH:MM:SS
	TimestampLayout = "01-02-2006 15:04:05"

	MaxTagIDLength       = 12
	MaxDescriptionLength = 40

	// BadValue replaces samples that could not be read as numbers
	BadValue = -9999

	MinSamplePeriod = time.Second
)

// Output naming
const (
	DataFileExtension  = ".clc"
	ErrorsFileSuffix   = "_errors.txt"
	StagingFilePattern = ".clc-staging-*"
)
