package project

import "time"

// Status is the lifecycle state of a project.
type Status string

const (
	StatusOpen                Status = "open"
	StatusQuoteReceived       Status = "quote_received"
	StatusQuoteAccepted       Status = "quote_accepted"
	StatusPaymentPending      Status = "payment_pending"
	StatusInProgress          Status = "in_progress"
	StatusCompletionRequested Status = "completion_requested"
	StatusCompleted           Status = "completed"
	StatusCancelled           Status = "cancelled"
	StatusExpired             Status = "expired"
	StatusAbandoned           Status = "abandoned"
)

// Project represents one client job request, the anchor the quote,
// revision and escrow records all reference.
type Project struct {
	ID         string    `json:"id"`
	ClientID   string    `json:"client_id"`
	CategoryID string    `json:"category_id"`
	Title      string    `json:"title"`
	Status     Status    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Summary is a lightweight representation for listing.
type Summary struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Status        Status    `json:"status"`
	QuoteCount    int       `json:"quote_count"`
	PendingQuotes int       `json:"pending_quotes"`
	CreatedAt     time.Time `json:"created_at"`
}
