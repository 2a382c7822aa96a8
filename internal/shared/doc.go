// Package shared holds code used across packages that belongs to no single
// layer. Today that is testutil: a capturing slog handler and the plant
// fixtures shared by the converter, server and CLI tests.
package shared
