package encoder

import "errors"

var (
	// ErrMalformedJob marks a job with a missing input file or empty output
	// title. Malformed jobs abort without strategy fallback.
	ErrMalformedJob = errors.New("malformed job")
	// ErrOptionNotSupported marks a job option the candidate variant cannot
	// express. Triggers fallback to the next candidate when enabled.
	ErrOptionNotSupported = errors.New("encoding option not supported")
	// ErrIncompatibleInput marks an input file incompatible with a requested
	// option, such as resizing a source that is already below the target.
	ErrIncompatibleInput = errors.New("input incompatible with requested option")
)
