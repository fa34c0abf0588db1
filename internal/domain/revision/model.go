package revision

import "time"

// Status is the lifecycle state of a negotiation round.
type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
	StatusModified Status = "modified"
)

// Revision is a single client-initiated negotiation round against one quote.
// It is resolved exactly once by the provider; accepted, rejected and
// modified are all terminal.
type Revision struct {
	ID              string     `json:"id"`
	QuoteID         string     `json:"quote_id"`
	ProjectID       string     `json:"project_id"`
	RequestedBy     string     `json:"requested_by"`
	SuggestedPrice  *int64     `json:"suggested_price,omitempty"`
	AdditionalFees  *int64     `json:"additional_fees,omitempty"`
	ClientComments  string     `json:"client_comments,omitempty"`
	Status          Status     `json:"status"`
	ModifiedQuoteID *string    `json:"modified_quote_id,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	RespondedAt     *time.Time `json:"responded_at,omitempty"`
}

// Resolution names the provider's answer to a pending revision.
type Resolution string

const (
	ResolutionAccept Resolution = "accept"
	ResolutionReject Resolution = "reject"
	ResolutionModify Resolution = "modify"
)

// Terminal reports whether the revision has been resolved.
func Terminal(s Status) bool {
	return s != StatusPending
}

// ProposedAmount returns the quote amount a revision acceptance implies:
// suggested_price plus additional_fees when a price was suggested, otherwise
// the quote's current amount unchanged.
func (r *Revision) ProposedAmount(current int64) int64 {
	if r.SuggestedPrice == nil {
		return current
	}
	amount := *r.SuggestedPrice
	if r.AdditionalFees != nil {
		amount += *r.AdditionalFees
	}
	return amount
}
