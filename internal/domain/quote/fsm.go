package quote

// CanTransition reports whether from -> to is an edge of the quote lifecycle.
// "viewed" is a read receipt. Acceptance and rejection are client decisions;
// expiry comes from provider supersede or the external sweep. An accepted
// quote can only be demoted back to viewed, which happens when a revision is
// resolved with a counter-offer that replaces it.
func CanTransition(from, to Status) bool {
	switch from {
	case StatusPending:
		return to == StatusViewed || to == StatusAccepted || to == StatusRejected || to == StatusExpired
	case StatusViewed:
		return to == StatusAccepted || to == StatusRejected || to == StatusExpired
	case StatusAccepted:
		return to == StatusViewed
	}
	return false
}

// ValidateTransition returns ErrInvalidTransition when from -> to is not an
// edge of the quote lifecycle.
func ValidateTransition(from, to Status) error {
	if !CanTransition(from, to) {
		return ErrInvalidTransition
	}
	return nil
}
