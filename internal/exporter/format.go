package exporter

import (
	"math"
	"strconv"
	"strings"

	"clcconvert/internal/config"
	"clcconvert/internal/dataprocessing"
)

// formatFloat renders a value the way the import tooling has always seen
// it: shortest round-trip digits, ".0" on integral values, and exponent form
// below 1e-4 or from 1e16 up.
func formatFloat(v float64) string {
	abs := math.Abs(v)
	if abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(v, 'e', -1, 64)
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// formatInt formats an int64 value for header lines
func formatInt(i int64) string {
	return strconv.FormatInt(i, 10)
}

// formatSample renders the value field of a sample. Bad samples always
// carry the bare sentinel.
func formatSample(s dataprocessing.Sample) string {
	if s.Quality == dataprocessing.QualityBad {
		return formatInt(config.BadValue)
	}
	return formatFloat(s.Value)
}
