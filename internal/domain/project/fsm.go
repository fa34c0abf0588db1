package project

// rank orders forward-progress statuses. Side-branch terminals are not ranked.
var rank = map[Status]int{
	StatusOpen:                0,
	StatusQuoteReceived:       1,
	StatusQuoteAccepted:       2,
	StatusPaymentPending:      3,
	StatusInProgress:          4,
	StatusCompletionRequested: 5,
	StatusCompleted:           6,
}

// Terminal reports whether no further transitions leave the status.
func Terminal(s Status) bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusExpired, StatusAbandoned:
		return true
	}
	return false
}

// Before reports whether a ranks strictly earlier than b on the forward path.
// Terminal side branches are never "before" anything.
func Before(a, b Status) bool {
	ra, ok := rank[a]
	if !ok {
		return false
	}
	rb, ok := rank[b]
	if !ok {
		return false
	}
	return ra < rb
}

// forward lists the single forward successor of each non-terminal status.
var forward = map[Status]Status{
	StatusOpen:                StatusQuoteReceived,
	StatusQuoteReceived:       StatusQuoteAccepted,
	StatusQuoteAccepted:       StatusPaymentPending,
	StatusPaymentPending:      StatusInProgress,
	StatusInProgress:          StatusCompletionRequested,
	StatusCompletionRequested: StatusCompleted,
}

// CanTransition reports whether from -> to is an edge of the lifecycle graph.
// The graph is monotonic along the forward path, with cancelled, expired and
// abandoned reachable from every non-terminal status. A completion request may
// also fall back to in_progress when the client asks for rework.
func CanTransition(from, to Status) bool {
	if Terminal(from) {
		return false
	}
	if next, ok := forward[from]; ok && next == to {
		return true
	}
	switch to {
	case StatusCancelled, StatusExpired, StatusAbandoned:
		return true
	}
	if from == StatusCompletionRequested && to == StatusInProgress {
		return true
	}
	return false
}

// ValidateTransition returns ErrInvalidTransition when from -> to is not an
// edge of the lifecycle graph.
func ValidateTransition(from, to Status) error {
	if !CanTransition(from, to) {
		return ErrInvalidTransition
	}
	return nil
}
