package revision

import "errors"

var (
	// ErrRevisionNotFound indicates the revision doesn't exist.
	ErrRevisionNotFound = errors.New("revision not found")
	// ErrOutstanding indicates the quote already has a pending revision.
	ErrOutstanding = errors.New("a pending revision already exists for this quote")
	// ErrInvalidInput indicates invalid revision input.
	ErrInvalidInput = errors.New("invalid revision input")
)
