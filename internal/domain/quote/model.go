package quote

import "time"

// Status is the lifecycle state of a quote.
type Status string

const (
	StatusPending  Status = "pending"
	StatusViewed   Status = "viewed"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
	StatusExpired  Status = "expired"
)

// Quote is one provider's priced offer against one project. Amounts are
// integer minor currency units.
type Quote struct {
	ID         string    `json:"id"`
	ProjectID  string    `json:"project_id"`
	ProviderID string    `json:"provider_id"`
	Amount     int64     `json:"amount"`
	Note       string    `json:"note,omitempty"`
	Status     Status    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Live reports whether the quote is still open for a client decision.
func Live(s Status) bool {
	return s == StatusPending || s == StatusViewed
}

// Terminal reports whether no further transitions leave the status.
func Terminal(s Status) bool {
	return s == StatusRejected || s == StatusExpired
}
