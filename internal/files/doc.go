// Package files names conversion outputs and writes them atomically.
//
// Outputs are staged next to their targets and renamed into place only when
// every output of a conversion is ready:
//
//	tx := manager.Begin()
//	defer tx.Discard()
//	if err := tx.Stage(paths.Data, writeDocument); err != nil {
//	    return err
//	}
//	tx.RemoveOnCommit(paths.Errors)
//	return tx.Commit()
//
// Discovery expands a directory into the input files it contains.
package files
