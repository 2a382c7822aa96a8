// Package operations drives conversions.
//
// A Converter runs one input file through the pipeline stages
//
//	validate → load → normalize → timestamps → coerce → assemble → write
//
// and reports a Result. ConvertBatch runs files sequentially in input order,
// isolates failures per file, and marks the files left over after
// cancellation as CANCELLED. Each batch carries a trace id that appears on
// every log line and span of the batch.
package operations
