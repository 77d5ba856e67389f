package jobstore

import "errors"

var (
	// ErrDuplicateInput marks two new jobs declaring the same input file.
	ErrDuplicateInput = errors.New("duplicate input file")
	// ErrDuplicateTitle marks two records resolving to the same output title,
	// which would silently overwrite one job's output with the other's.
	ErrDuplicateTitle = errors.New("duplicate output title")
	// ErrNotFound marks operations against an input file the store has no record of.
	ErrNotFound = errors.New("job record not found")
)
