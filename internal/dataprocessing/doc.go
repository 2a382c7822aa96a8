// Package dataprocessing turns historian exports into the typed pieces of a
// CLC document.
//
// # Input Grid
//
// Both source kinds share one layout:
//
//	row 0      tag ids          (column 0 ignored)
//	row 1      descriptions
//	row 2      units
//	row 3..    timestamp, value, value, ...
//
// Delimited text is read with a configurable quote character; spreadsheets
// are read from their first sheet through excelize with raw cell values, so
// serial dates arrive as numbers.
//
// # Pipeline
//
//	Load → Table.Validate → NormalizeTags
//	                      → InferPeriod → GenerateTimestamps
//	                      → CoerceRows
//
// Every stage is a pure function of the validated Table. Fatal problems come
// back as *errors.AppError of type READ, VALIDATION or TIMESTAMP; oversize
// metadata produces Warning values and unreadable samples degrade to
// BadSample.
package dataprocessing
