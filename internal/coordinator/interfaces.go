package coordinator

import (
	"context"
	"time"

	"github.com/hirehall/dealflow/internal/domain/escrow"
	"github.com/hirehall/dealflow/internal/domain/project"
	"github.com/hirehall/dealflow/internal/domain/quote"
	"github.com/hirehall/dealflow/internal/domain/revision"
)

// Storage contracts the coordinator depends on. Implementations report the
// sentinel errors from internal/repository.

// ProjectRepository manages project persistence.
type ProjectRepository interface {
	Create(ctx context.Context, proj *project.Project) error
	Get(ctx context.Context, id string) (*project.Project, error)
	ListByClient(ctx context.Context, clientID string) ([]project.Summary, error)
	// UpdateStatus moves the project to the target status only while its
	// current status is one of from; otherwise ErrConflict.
	UpdateStatus(ctx context.Context, id string, from []project.Status, to project.Status) error
}

// QuoteRepository manages quote persistence.
type QuoteRepository interface {
	Create(ctx context.Context, q *quote.Quote) error
	Get(ctx context.Context, id string) (*quote.Quote, error)
	ListByProject(ctx context.Context, projectID string) ([]quote.Quote, error)
	// GetAccepted returns the project's accepted quote, or ErrNotFound.
	GetAccepted(ctx context.Context, projectID string) (*quote.Quote, error)
	// UpdateStatus moves the quote to the target status only while its
	// current status is one of from; otherwise ErrConflict.
	UpdateStatus(ctx context.Context, id string, from []quote.Status, to quote.Status) error
	// AcceptWithCascade atomically accepts the quote (overwriting its amount
	// when amount is non-nil) and rejects every other live quote on the same
	// project. The accept precondition is re-checked inside the transaction;
	// ErrConflict when the quote is no longer in one of from. Returns the IDs
	// of the cascade-rejected quotes.
	AcceptWithCascade(ctx context.Context, projectID, quoteID string, from []quote.Status, amount *int64) ([]string, error)
	// ReplaceAccepted atomically inserts newQuote as accepted, demotes the
	// prior quote to viewed, rejects every other live quote on the project,
	// and resolves the pending revision as modified, linked to the new quote.
	// ErrConflict when the prior quote is no longer in one of from or the
	// revision is no longer pending; nothing is written in that case.
	ReplaceAccepted(ctx context.Context, projectID, priorQuoteID string, from []quote.Status, newQuote *quote.Quote, revisionID string, respondedAt time.Time) ([]string, error)
	// ExpireLiveByProvider expires the provider's live quotes on the project,
	// returning how many were expired. Used when a provider supersedes their
	// own earlier offer.
	ExpireLiveByProvider(ctx context.Context, projectID, providerID string) (int, error)
}

// RevisionRepository manages revision persistence.
type RevisionRepository interface {
	Create(ctx context.Context, rev *revision.Revision) error
	Get(ctx context.Context, id string) (*revision.Revision, error)
	ListByQuote(ctx context.Context, quoteID string) ([]revision.Revision, error)
	// HasPending reports whether the quote has an unresolved revision.
	HasPending(ctx context.Context, quoteID string) (bool, error)
	// Resolve moves a pending revision to a terminal status, recording the
	// response time. ErrConflict when the revision is no longer pending.
	// Counter-offers resolve through QuoteRepository.ReplaceAccepted instead,
	// which links the replacement quote in the same transaction.
	Resolve(ctx context.Context, id string, to revision.Status, respondedAt time.Time) error
}

// EscrowRepository manages escrow persistence.
type EscrowRepository interface {
	Create(ctx context.Context, esc *escrow.Escrow) error
	GetByProject(ctx context.Context, projectID string) (*escrow.Escrow, error)
	// UpdateAmount resynchronizes the amount while the escrow is still
	// pending or held; ErrConflict once it is released or disputed.
	UpdateAmount(ctx context.Context, projectID string, amount int64) error
	// UpdateStatus moves the escrow to the target status only while its
	// current status is one of from; otherwise ErrConflict.
	UpdateStatus(ctx context.Context, projectID string, from []escrow.Status, to escrow.Status) error
}
