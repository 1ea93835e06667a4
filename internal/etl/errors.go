package etl

import "errors"

// Failure kinds. Callers match them with errors.Is; none of them ever
// crosses an entity sync or a tick boundary.
var (
	// ErrAuth means no usable credential could be obtained; the tick is aborted.
	ErrAuth = errors.New("authentication failed")

	// ErrFetch means one entity's read failed; that entity degrades to empty.
	ErrFetch = errors.New("fetch failed")

	// ErrRowInsert means a single row was rejected; the batch continues.
	ErrRowInsert = errors.New("row insert failed")

	// ErrBatchConnection means the destination could not be reached or the
	// batch commit failed; the whole batch for that entity is lost.
	ErrBatchConnection = errors.New("batch connection failed")

	// ErrUnexpected wraps a recovered panic from a mapper or sync routine.
	ErrUnexpected = errors.New("unexpected fault")
)
