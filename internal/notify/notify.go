// Package notify carries transition outcomes to the delivery layer. Emission
// is fire and forget: a failed notification is logged and recorded, never
// surfaced as a failure of the transition that produced it.
package notify

import (
	"context"
	"log/slog"
	"time"
)

// Event kinds emitted by the transition coordinator.
const (
	KindQuoteSubmitted    = "quote.submitted"
	KindQuoteAccepted     = "quote.accepted"
	KindQuoteRejected     = "quote.rejected"
	KindRevisionRequested = "revision.requested"
	KindRevisionAccepted  = "revision.accepted"
	KindRevisionRejected  = "revision.rejected"
	KindRevisionCountered = "revision.countered"
	KindProjectCancelled  = "project.cancelled"
	KindProjectExpired    = "project.expired"
	KindProjectCompleted  = "project.completed"
	KindPaymentCaptured   = "payment.captured"
	KindEscrowDisputed    = "escrow.disputed"
	KindEscrowSyncFailed  = "escrow.sync_failed"
)

// Event describes one terminal outcome of a state transition.
type Event struct {
	Kind       string  `json:"kind"`
	ProjectID  string  `json:"project_id"`
	QuoteID    *string `json:"quote_id,omitempty"`
	RevisionID *string `json:"revision_id,omitempty"`
	ActorRole  string  `json:"actor_role"`
	Outcome    string  `json:"outcome"`
}

// Notification is a stored event awaiting pickup by the delivery mechanism.
type Notification struct {
	ID         int64     `json:"id"`
	Kind       string    `json:"kind"`
	ProjectID  string    `json:"project_id"`
	QuoteID    *string   `json:"quote_id,omitempty"`
	RevisionID *string   `json:"revision_id,omitempty"`
	ActorRole  string    `json:"actor_role"`
	Outcome    string    `json:"outcome"`
	CreatedAt  time.Time `json:"created_at"`
}

// Notifier is the emitter contract exposed to the coordinator.
type Notifier interface {
	Notify(ctx context.Context, event Event) error
}

// Repository abstracts notification persistence.
type Repository interface {
	Log(ctx context.Context, n *Notification) error
	ListByProject(ctx context.Context, projectID string, limit int) ([]Notification, error)
}

// Service records events in the notifications outbox. Delivery (push,
// realtime fan-out) happens outside this core.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService creates a new notify service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Notify records the event for later delivery.
func (s *Service) Notify(ctx context.Context, event Event) error {
	return s.repo.Log(ctx, &Notification{
		Kind:       event.Kind,
		ProjectID:  event.ProjectID,
		QuoteID:    event.QuoteID,
		RevisionID: event.RevisionID,
		ActorRole:  event.ActorRole,
		Outcome:    event.Outcome,
	})
}

// ListByProject returns the most recent notifications for a project.
func (s *Service) ListByProject(ctx context.Context, projectID string, limit int) ([]Notification, error) {
	return s.repo.ListByProject(ctx, projectID, limit)
}
