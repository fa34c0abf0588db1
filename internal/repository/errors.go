// Package repository holds the sentinel errors every storage implementation
// reports. It is a leaf package so the domain services can map storage
// outcomes without depending on any particular backend.
package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when an expected-status precondition fails:
	// the entity was moved by another request between read and write
	ErrConflict = errors.New("conflict: entity status changed since read")

	// ErrDuplicate is returned when a uniqueness constraint fails
	ErrDuplicate = errors.New("duplicate entity")

	// ErrForeignKeyViolation is returned when a foreign key constraint fails
	ErrForeignKeyViolation = errors.New("foreign key violation")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")
)
