package escrow

import "errors"

var (
	// ErrEscrowNotFound indicates no escrow exists for the project.
	ErrEscrowNotFound = errors.New("escrow not found")
	// ErrIneligibleForUpdate indicates the escrow is released or disputed and
	// its amount can no longer be changed.
	ErrIneligibleForUpdate = errors.New("escrow is not eligible for an amount update")
	// ErrInvalidTransition indicates the requested status change is not an
	// edge of the escrow lifecycle.
	ErrInvalidTransition = errors.New("invalid escrow status transition")
)
