// Package config provides configuration loading and the fixed layout constants
// of the input grid and the CLC output document.
//
// # Configuration Sources
//
// Configuration is resolved in the following order, later sources winning:
//
//	1. Default values (Default)
//	2. YAML file (clcconvert.yaml or configs/clcconvert.yaml, or an explicit path)
//	3. Environment variables prefixed with CLC_
//
// # Environment Variables
//
//	CLC_CONVERSION_QUOTE=\"
//	CLC_CONVERSION_LINE_ENDING=lf
//	CLC_CONVERSION_OUTPUT_DIR=/data/clc
//	CLC_LOGGING_LEVEL=debug
//	CLC_SERVER_PORT=9000
//	CLC_TELEMETRY_TRACE_EXPORTER=stdout
//
// # Layout Constants
//
// The row and line offsets used across the pipeline (HeaderRowCount,
// FirstDataRow, MetadataLineOffset, ...) are defined once in constants.go so
// that diagnostics line numbers always agree with the written document.
package config
