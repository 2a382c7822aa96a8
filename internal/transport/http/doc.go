// Package http implements the HTTP handlers of the conversion service.
//
// Handlers stay thin: they decode and validate the request, hand the work
// to the operations layer and render the result. Errors leave through
// errors.ErrorHandler as RFC 7807 problem documents.
//
//	POST /api/v1/conversions   convert a batch of server-side files
//	GET  /api/health           liveness and version
//
// A conversion request names absolute paths on the server:
//
//	{"paths": ["/data/plant4.csv", "/data/line2.xlsx"], "output_dir": "/data/clc"}
//
// The response is the batch report with one result per path in request
// order. A file that fails to convert does not fail the request.
package http
