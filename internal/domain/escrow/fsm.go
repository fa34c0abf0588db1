package escrow

// CanTransition reports whether from -> to is an edge of the escrow
// lifecycle: funds are held once payment is captured, then either released on
// completion or frozen by a dispute.
func CanTransition(from, to Status) bool {
	switch from {
	case StatusPending:
		return to == StatusHeld
	case StatusHeld:
		return to == StatusReleased || to == StatusDisputed
	}
	return false
}

// ValidateTransition returns ErrInvalidTransition when from -> to is not an
// edge of the escrow lifecycle.
func ValidateTransition(from, to Status) error {
	if !CanTransition(from, to) {
		return ErrInvalidTransition
	}
	return nil
}
