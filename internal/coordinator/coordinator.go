// Package coordinator applies the multi-entity write sequences that move a
// deal through its lifecycle: quote acceptance with cascade rejection,
// revision negotiation, and escrow amount synchronization. Validation and
// permission failures block the chain; failures after the primary status
// write committed are surfaced as SyncFailure warnings, never rolled back.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/hirehall/dealflow/internal/domain/escrow"
	"github.com/hirehall/dealflow/internal/domain/project"
	"github.com/hirehall/dealflow/internal/domain/quote"
	"github.com/hirehall/dealflow/internal/notify"
	"github.com/hirehall/dealflow/internal/repository"
	"github.com/google/uuid"
)

// Coordinator validates actor and state preconditions, applies FSM
// transitions in the agreed order (quote/revision and escrow writes before
// the final project write) and emits notifications fire-and-forget.
type Coordinator struct {
	projects  ProjectRepository
	quotes    QuoteRepository
	revisions RevisionRepository
	escrows   EscrowRepository
	notifier  notify.Notifier
	logger    *slog.Logger
}

// New creates a new coordinator.
func New(
	projects ProjectRepository,
	quotes QuoteRepository,
	revisions RevisionRepository,
	escrows EscrowRepository,
	notifier notify.Notifier,
	logger *slog.Logger,
) *Coordinator {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Coordinator{
		projects:  projects,
		quotes:    quotes,
		revisions: revisions,
		escrows:   escrows,
		notifier:  notifier,
		logger:    logger,
	}
}

// quoteAcceptable is the precondition status set for accepting a quote.
var quoteAcceptable = []quote.Status{quote.StatusPending, quote.StatusViewed}

// AcceptQuoteResult reports the full effect of an acceptance: the accepted
// quote, the competitors cascade-rejected with it, the synchronized escrow
// and the resulting project status.
type AcceptQuoteResult struct {
	Quote            *quote.Quote   `json:"quote"`
	RejectedQuoteIDs []string       `json:"rejected_quote_ids"`
	Escrow           *escrow.Escrow `json:"escrow,omitempty"`
	ProjectStatus    project.Status `json:"project_status"`
}

// SubmitQuote creates a pending quote for the project. The provider's
// earlier live quote on the same project, if any, is expired in the same
// transaction boundary; the first quote on an open project advances it to
// quote_received.
func (c *Coordinator) SubmitQuote(ctx context.Context, cmd SubmitQuote) (*quote.Quote, error) {
	if cmd.Actor.Role != RoleProvider {
		return nil, fmt.Errorf("%w: only providers submit quotes", ErrPermissionDenied)
	}
	if cmd.Amount < 0 {
		return nil, quote.ErrInvalidInput
	}

	proj, err := c.getProject(ctx, cmd.ProjectID)
	if err != nil {
		return nil, err
	}
	if proj.Status != project.StatusOpen && proj.Status != project.StatusQuoteReceived {
		return nil, fmt.Errorf("%w: project is %s and no longer accepts quotes", ErrInvalidStateTransition, proj.Status)
	}

	expired, err := c.quotes.ExpireLiveByProvider(ctx, cmd.ProjectID, cmd.Actor.ID)
	if err != nil {
		return nil, fmt.Errorf("superseding prior quotes: %w", err)
	}
	if expired > 0 {
		c.logger.Info("provider superseded earlier quote",
			"project_id", cmd.ProjectID, "provider_id", cmd.Actor.ID, "expired", expired)
	}

	now := time.Now()
	q := &quote.Quote{
		ID:         uuid.NewString(),
		ProjectID:  cmd.ProjectID,
		ProviderID: cmd.Actor.ID,
		Amount:     cmd.Amount,
		Note:       cmd.Note,
		Status:     quote.StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := c.quotes.Create(ctx, q); err != nil {
		return nil, fmt.Errorf("creating quote: %w", err)
	}

	if proj.Status == project.StatusOpen {
		err := c.projects.UpdateStatus(ctx, proj.ID, []project.Status{project.StatusOpen}, project.StatusQuoteReceived)
		if err != nil && !errors.Is(err, repository.ErrConflict) {
			return nil, fmt.Errorf("advancing project: %w", err)
		}
		// A conflict means a concurrent submission already advanced it.
	}

	c.emit(ctx, notify.Event{
		Kind:      notify.KindQuoteSubmitted,
		ProjectID: cmd.ProjectID,
		QuoteID:   &q.ID,
		ActorRole: string(RoleProvider),
		Outcome:   string(quote.StatusPending),
	})
	return q, nil
}

// MarkQuoteViewed records the client's read receipt.
func (c *Coordinator) MarkQuoteViewed(ctx context.Context, cmd MarkQuoteViewed) (*quote.Quote, error) {
	q, _, err := c.getQuoteForClient(ctx, cmd.QuoteID, cmd.Actor)
	if err != nil {
		return nil, err
	}
	if q.Status != quote.StatusPending {
		// Not security-relevant; a repeated view is a no-op.
		return q, nil
	}
	err = c.quotes.UpdateStatus(ctx, q.ID, []quote.Status{quote.StatusPending}, quote.StatusViewed)
	if err != nil && !errors.Is(err, repository.ErrConflict) {
		return nil, fmt.Errorf("marking quote viewed: %w", err)
	}
	return c.getQuote(ctx, q.ID)
}

// AcceptQuote accepts the quote for the owning client, atomically rejecting
// every live competitor, then synchronizes the escrow and advances the
// project. The cascade write re-checks the quote status inside its own
// transaction; a concurrent double-accept fails that precondition instead of
// leaving two quotes accepted.
func (c *Coordinator) AcceptQuote(ctx context.Context, cmd AcceptQuote) (*AcceptQuoteResult, *SyncFailure, error) {
	q, proj, err := c.getQuoteForClient(ctx, cmd.QuoteID, cmd.Actor)
	if err != nil {
		return nil, nil, err
	}
	if err := quote.ValidateTransition(q.Status, quote.StatusAccepted); err != nil {
		return nil, nil, fmt.Errorf("%w: quote is already %s", ErrInvalidStateTransition, q.Status)
	}
	if proj.Status != project.StatusOpen && proj.Status != project.StatusQuoteReceived {
		return nil, nil, fmt.Errorf("%w: project is already %s", ErrInvalidStateTransition, proj.Status)
	}

	rejected, err := c.quotes.AcceptWithCascade(ctx, proj.ID, q.ID, quoteAcceptable, nil)
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, nil, fmt.Errorf("%w: quote status changed, refresh and retry", ErrInvalidStateTransition)
		}
		return nil, nil, fmt.Errorf("accepting quote: %w", err)
	}
	q.Status = quote.StatusAccepted

	// Point of no return: the acceptance is committed and visible.
	failure := c.settleAcceptance(ctx, proj, q.ID, q.Amount, cmd.Actor.Role)

	c.emit(ctx, notify.Event{
		Kind:      notify.KindQuoteAccepted,
		ProjectID: proj.ID,
		QuoteID:   &q.ID,
		ActorRole: string(cmd.Actor.Role),
		Outcome:   string(quote.StatusAccepted),
	})

	result := &AcceptQuoteResult{
		Quote:            q,
		RejectedQuoteIDs: rejected,
		Escrow:           c.escrowState(ctx, proj.ID),
		ProjectStatus:    c.projectStatus(ctx, proj),
	}
	return result, failure, nil
}

// RejectQuote rejects a single live quote. No cascade.
func (c *Coordinator) RejectQuote(ctx context.Context, cmd RejectQuote) (*quote.Quote, error) {
	q, proj, err := c.getQuoteForClient(ctx, cmd.QuoteID, cmd.Actor)
	if err != nil {
		return nil, err
	}
	if !quote.Live(q.Status) {
		return nil, fmt.Errorf("%w: quote is already %s", ErrInvalidStateTransition, q.Status)
	}
	if err := c.quotes.UpdateStatus(ctx, q.ID, quoteAcceptable, quote.StatusRejected); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, fmt.Errorf("%w: quote status changed, refresh and retry", ErrInvalidStateTransition)
		}
		return nil, fmt.Errorf("rejecting quote: %w", err)
	}
	q.Status = quote.StatusRejected

	c.emit(ctx, notify.Event{
		Kind:      notify.KindQuoteRejected,
		ProjectID: proj.ID,
		QuoteID:   &q.ID,
		ActorRole: string(cmd.Actor.Role),
		Outcome:   string(quote.StatusRejected),
	})
	return q, nil
}

// settleAcceptance runs the post-acceptance steps: escrow synchronization,
// then the project status write, in that order so the project never advances
// ahead of the financial state it implies. Each step is best-effort; the
// first failure is reported as a SyncFailure and recorded in the
// notification log for support follow-up.
func (c *Coordinator) settleAcceptance(ctx context.Context, proj *project.Project, quoteID string, amount int64, role Role) *SyncFailure {
	var failure *SyncFailure

	if _, err := c.syncEscrow(ctx, proj.ID, amount); err != nil {
		c.logger.Error("escrow synchronization failed",
			"project_id", proj.ID, "quote_id", quoteID, "amount", amount, "error", err)
		failure = newSyncFailure("escrow", err)
		c.emit(ctx, notify.Event{
			Kind:      notify.KindEscrowSyncFailed,
			ProjectID: proj.ID,
			QuoteID:   &quoteID,
			ActorRole: string(role),
			Outcome:   err.Error(),
		})
	}

	if err := c.raiseProject(ctx, proj, project.StatusQuoteAccepted); err != nil {
		c.logger.Error("project status advance failed",
			"project_id", proj.ID, "quote_id", quoteID, "error", err)
		if failure == nil {
			failure = newSyncFailure("project", err)
		}
	}
	return failure
}

// raiseProject advances the project forward to at least the target status.
// Already being at or past the target is a no-op.
func (c *Coordinator) raiseProject(ctx context.Context, proj *project.Project, target project.Status) error {
	if !project.Before(proj.Status, target) {
		return nil
	}
	from := statusesBefore(target)
	if err := c.projects.UpdateStatus(ctx, proj.ID, from, target); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			fresh, gerr := c.projects.Get(ctx, proj.ID)
			if gerr == nil && !project.Before(fresh.Status, target) {
				proj.Status = fresh.Status
				return nil
			}
		}
		return err
	}
	proj.Status = target
	return nil
}

// statusesBefore lists the forward-path statuses strictly before target.
func statusesBefore(target project.Status) []project.Status {
	all := []project.Status{
		project.StatusOpen,
		project.StatusQuoteReceived,
		project.StatusQuoteAccepted,
		project.StatusPaymentPending,
		project.StatusInProgress,
		project.StatusCompletionRequested,
	}
	var out []project.Status
	for _, s := range all {
		if project.Before(s, target) {
			out = append(out, s)
		}
	}
	return out
}

func (c *Coordinator) getProject(ctx context.Context, id string) (*project.Project, error) {
	proj, err := c.projects.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, project.ErrProjectNotFound
		}
		return nil, fmt.Errorf("loading project: %w", err)
	}
	return proj, nil
}

func (c *Coordinator) getQuote(ctx context.Context, id string) (*quote.Quote, error) {
	q, err := c.quotes.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, quote.ErrQuoteNotFound
		}
		return nil, fmt.Errorf("loading quote: %w", err)
	}
	return q, nil
}

// getQuoteForClient loads a quote and its project with fresh reads and
// enforces that the actor is the project's owning client (or the system).
func (c *Coordinator) getQuoteForClient(ctx context.Context, quoteID string, actor Actor) (*quote.Quote, *project.Project, error) {
	q, err := c.getQuote(ctx, quoteID)
	if err != nil {
		return nil, nil, err
	}
	proj, err := c.getProject(ctx, q.ProjectID)
	if err != nil {
		return nil, nil, err
	}
	if err := requireClient(actor, proj); err != nil {
		return nil, nil, err
	}
	return q, proj, nil
}

// requireClient enforces that the actor is the project's owning client.
func requireClient(actor Actor, proj *project.Project) error {
	if actor.Role == RoleSystem {
		return nil
	}
	if actor.Role != RoleClient || actor.ID != proj.ClientID {
		return fmt.Errorf("%w: only the project's client may do this", ErrPermissionDenied)
	}
	return nil
}

func (c *Coordinator) projectStatus(ctx context.Context, proj *project.Project) project.Status {
	fresh, err := c.projects.Get(ctx, proj.ID)
	if err != nil {
		return proj.Status
	}
	return fresh.Status
}

func (c *Coordinator) emit(ctx context.Context, event notify.Event) {
	if c.notifier == nil {
		return
	}
	if err := c.notifier.Notify(ctx, event); err != nil {
		c.logger.Warn("notification emit failed",
			"kind", event.Kind, "project_id", event.ProjectID, "error", err)
	}
}
