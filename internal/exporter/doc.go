// Package exporter assembles and serializes CLC files.
//
// A CLC file is a sequence of CSV records:
//
//	1  banner
//	2  attribution
//	3  tag count
//	4  tag count
//	5  first timestamp (MM-DD-YYYY HH:MM:SS)
//	6  period in whole seconds
//	7  sample count
//	8  ==================================================
//	9  ID~~~ID~~~description~~~units        (one per tag)
//	   ==================================================
//	   timestamp,v1,q1,...,vN,qN            (one per sample row)
//	   ==================================================
//
// Diagnostics reference the metadata line numbers above and go to a
// separate errors file, one warning per line.
package exporter
