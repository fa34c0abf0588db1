package quote

import "errors"

var (
	// ErrQuoteNotFound indicates the quote doesn't exist.
	ErrQuoteNotFound = errors.New("quote not found")
	// ErrInvalidTransition indicates the requested status change is not an
	// edge of the quote lifecycle.
	ErrInvalidTransition = errors.New("invalid quote status transition")
	// ErrInvalidInput indicates invalid quote input.
	ErrInvalidInput = errors.New("invalid quote input")
)
