package escrow

import "time"

// Status is the lifecycle state of a held-funds record.
type Status string

const (
	StatusPending  Status = "pending"
	StatusHeld     Status = "held"
	StatusReleased Status = "released"
	StatusDisputed Status = "disputed"
)

// Escrow is the held-funds record for a project once a price is agreed.
// While pending or held, TotalAmount tracks the currently accepted quote.
type Escrow struct {
	ID          string    `json:"id"`
	ProjectID   string    `json:"project_id"`
	TotalAmount int64     `json:"total_amount"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// AmountUpdatable reports whether the amount may still be resynchronized.
// Released and disputed funds are settled or frozen; changing the figure
// retroactively is refused.
func AmountUpdatable(s Status) bool {
	return s == StatusPending || s == StatusHeld
}
