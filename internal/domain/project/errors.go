package project

import "errors"

var (
	// ErrProjectNotFound indicates the project doesn't exist.
	ErrProjectNotFound = errors.New("project not found")
	// ErrInvalidTransition indicates the requested status change is not an
	// edge of the project lifecycle graph.
	ErrInvalidTransition = errors.New("invalid project status transition")
	// ErrInvalidInput indicates invalid project input.
	ErrInvalidInput = errors.New("invalid project input")
)
