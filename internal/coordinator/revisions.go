package coordinator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hirehall/dealflow/internal/domain/escrow"
	"github.com/hirehall/dealflow/internal/domain/project"
	"github.com/hirehall/dealflow/internal/domain/quote"
	"github.com/hirehall/dealflow/internal/domain/revision"
	"github.com/hirehall/dealflow/internal/notify"
	"github.com/hirehall/dealflow/internal/repository"
	"github.com/google/uuid"
)

// revisable is the quote status set a revision may be requested against.
var revisable = []quote.Status{quote.StatusPending, quote.StatusViewed, quote.StatusAccepted}

// ResolveRevisionResult reports the full effect of a resolution: the
// resolved revision, the quote as it now stands, the replacement quote for a
// counter-offer, the synchronized escrow and the resulting project status.
type ResolveRevisionResult struct {
	Revision      *revision.Revision `json:"revision"`
	Quote         *quote.Quote       `json:"quote"`
	NewQuote      *quote.Quote       `json:"new_quote,omitempty"`
	Escrow        *escrow.Escrow     `json:"escrow,omitempty"`
	ProjectStatus project.Status     `json:"project_status"`
}

// RequestRevision opens a negotiation round for the owning client against a
// pending, viewed or accepted quote. At most one revision may be pending per
// quote; a second request while one is outstanding is rejected.
func (c *Coordinator) RequestRevision(ctx context.Context, cmd RequestRevision) (*revision.Revision, error) {
	q, proj, err := c.getQuoteForClient(ctx, cmd.QuoteID, cmd.Actor)
	if err != nil {
		return nil, err
	}
	if project.Terminal(proj.Status) {
		return nil, fmt.Errorf("%w: project is already %s", ErrInvalidStateTransition, proj.Status)
	}
	if !statusIn(q.Status, revisable) {
		return nil, fmt.Errorf("%w: quote is already %s and cannot be revised", ErrInvalidStateTransition, q.Status)
	}
	if cmd.SuggestedPrice != nil && *cmd.SuggestedPrice < 0 {
		return nil, revision.ErrInvalidInput
	}
	if cmd.AdditionalFees != nil && *cmd.AdditionalFees < 0 {
		return nil, revision.ErrInvalidInput
	}

	pending, err := c.revisions.HasPending(ctx, q.ID)
	if err != nil {
		return nil, fmt.Errorf("checking pending revisions: %w", err)
	}
	if pending {
		return nil, revision.ErrOutstanding
	}

	rev := &revision.Revision{
		ID:             uuid.NewString(),
		QuoteID:        q.ID,
		ProjectID:      proj.ID,
		RequestedBy:    cmd.Actor.ID,
		SuggestedPrice: cmd.SuggestedPrice,
		AdditionalFees: cmd.AdditionalFees,
		ClientComments: cmd.Comments,
		Status:         revision.StatusPending,
		CreatedAt:      time.Now(),
	}
	if err := c.revisions.Create(ctx, rev); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, revision.ErrOutstanding
		}
		return nil, fmt.Errorf("creating revision: %w", err)
	}

	c.emit(ctx, notify.Event{
		Kind:       notify.KindRevisionRequested,
		ProjectID:  proj.ID,
		QuoteID:    &q.ID,
		RevisionID: &rev.ID,
		ActorRole:  string(cmd.Actor.Role),
		Outcome:    string(revision.StatusPending),
	})
	return rev, nil
}

// ResolveRevision applies the provider's one-shot answer to a pending
// revision. The revision row is the optimistic mutex: moving it out of
// pending is the first write, so a second resolution attempt fails its
// precondition and mutates nothing. Everything after that commit is
// best-effort and surfaced as a SyncFailure when it breaks.
func (c *Coordinator) ResolveRevision(ctx context.Context, cmd ResolveRevision) (*ResolveRevisionResult, *SyncFailure, error) {
	rev, err := c.getRevision(ctx, cmd.RevisionID)
	if err != nil {
		return nil, nil, err
	}
	if revision.Terminal(rev.Status) {
		return nil, nil, fmt.Errorf("%w: revision was already %s", ErrInvalidStateTransition, rev.Status)
	}

	q, err := c.getQuote(ctx, rev.QuoteID)
	if err != nil {
		return nil, nil, err
	}
	if cmd.Actor.Role != RoleSystem && (cmd.Actor.Role != RoleProvider || cmd.Actor.ID != q.ProviderID) {
		return nil, nil, fmt.Errorf("%w: only the quote's provider may resolve this revision", ErrPermissionDenied)
	}
	proj, err := c.getProject(ctx, rev.ProjectID)
	if err != nil {
		return nil, nil, err
	}
	if project.Terminal(proj.Status) {
		return nil, nil, fmt.Errorf("%w: project is already %s", ErrInvalidStateTransition, proj.Status)
	}

	switch cmd.Resolution {
	case revision.ResolutionAccept:
		return c.resolveAccept(ctx, cmd.Actor, rev, q, proj)
	case revision.ResolutionReject:
		res, err := c.resolveReject(ctx, cmd.Actor, rev, q, proj)
		return res, nil, err
	case revision.ResolutionModify:
		return c.resolveModify(ctx, cmd, rev, q, proj)
	default:
		return nil, nil, revision.ErrInvalidInput
	}
}

// resolveAccept marks the revision accepted, forces the quote to accepted
// with the proposed amount (suggested price plus additional fees when a
// price was suggested), cascade-rejects competitors and synchronizes the
// escrow.
func (c *Coordinator) resolveAccept(ctx context.Context, actor Actor, rev *revision.Revision, q *quote.Quote, proj *project.Project) (*ResolveRevisionResult, *SyncFailure, error) {
	now := time.Now()
	if err := c.revisions.Resolve(ctx, rev.ID, revision.StatusAccepted, now); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, nil, fmt.Errorf("%w: revision was already resolved", ErrInvalidStateTransition)
		}
		return nil, nil, fmt.Errorf("resolving revision: %w", err)
	}
	rev.Status = revision.StatusAccepted
	rev.RespondedAt = &now

	amount := rev.ProposedAmount(q.Amount)

	var failure *SyncFailure
	_, err := c.quotes.AcceptWithCascade(ctx, proj.ID, q.ID, revisable, &amount)
	if err != nil {
		c.logger.Error("quote acceptance after revision failed",
			"revision_id", rev.ID, "quote_id", q.ID, "error", err)
		failure = newSyncFailure("quote", err)
	} else {
		q.Status = quote.StatusAccepted
		q.Amount = amount
		if f := c.settleAcceptance(ctx, proj, q.ID, amount, actor.Role); f != nil {
			failure = f
		}
	}

	c.emit(ctx, notify.Event{
		Kind:       notify.KindRevisionAccepted,
		ProjectID:  proj.ID,
		QuoteID:    &q.ID,
		RevisionID: &rev.ID,
		ActorRole:  string(actor.Role),
		Outcome:    string(revision.StatusAccepted),
	})

	result := &ResolveRevisionResult{
		Revision:      rev,
		Quote:         q,
		Escrow:        c.escrowState(ctx, proj.ID),
		ProjectStatus: c.projectStatus(ctx, proj),
	}
	return result, failure, nil
}

// resolveReject closes the round with no quote or amount change; the client
// is notified so they may resubmit, accept the original terms or abandon.
func (c *Coordinator) resolveReject(ctx context.Context, actor Actor, rev *revision.Revision, q *quote.Quote, proj *project.Project) (*ResolveRevisionResult, error) {
	now := time.Now()
	if err := c.revisions.Resolve(ctx, rev.ID, revision.StatusRejected, now); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, fmt.Errorf("%w: revision was already resolved", ErrInvalidStateTransition)
		}
		return nil, fmt.Errorf("resolving revision: %w", err)
	}
	rev.Status = revision.StatusRejected
	rev.RespondedAt = &now

	c.emit(ctx, notify.Event{
		Kind:       notify.KindRevisionRejected,
		ProjectID:  proj.ID,
		QuoteID:    &q.ID,
		RevisionID: &rev.ID,
		ActorRole:  string(actor.Role),
		Outcome:    string(revision.StatusRejected),
	})

	return &ResolveRevisionResult{
		Revision:      rev,
		Quote:         q,
		Escrow:        c.escrowState(ctx, proj.ID),
		ProjectStatus: proj.Status,
	}, nil
}

// resolveModify answers with a counter-offer: a brand-new quote row becomes
// the accepted one, the original is demoted to viewed (never edited), and
// the escrow tracks the new price, being created if this is the first
// agreement on the project. The quote insert, the demotion, the cascade and
// the revision resolution commit in one transaction; a lost race leaves no
// replacement quote behind.
func (c *Coordinator) resolveModify(ctx context.Context, cmd ResolveRevision, rev *revision.Revision, q *quote.Quote, proj *project.Project) (*ResolveRevisionResult, *SyncFailure, error) {
	if cmd.CounterAmount == nil || *cmd.CounterAmount < 0 {
		return nil, nil, revision.ErrInvalidInput
	}

	now := time.Now()
	newQuote := &quote.Quote{
		ID:         uuid.NewString(),
		ProjectID:  proj.ID,
		ProviderID: q.ProviderID,
		Amount:     *cmd.CounterAmount,
		Note:       cmd.CounterNote,
		Status:     quote.StatusAccepted,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	_, err := c.quotes.ReplaceAccepted(ctx, proj.ID, q.ID, revisable, newQuote, rev.ID, now)
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, nil, fmt.Errorf("%w: revision was already resolved or the quote changed", ErrInvalidStateTransition)
		}
		return nil, nil, fmt.Errorf("applying counter-offer: %w", err)
	}
	rev.Status = revision.StatusModified
	rev.ModifiedQuoteID = &newQuote.ID
	rev.RespondedAt = &now
	q.Status = quote.StatusViewed

	// Point of no return: the replacement is committed and visible.
	failure := c.settleAcceptance(ctx, proj, newQuote.ID, newQuote.Amount, cmd.Actor.Role)

	c.emit(ctx, notify.Event{
		Kind:       notify.KindRevisionCountered,
		ProjectID:  proj.ID,
		QuoteID:    &q.ID,
		RevisionID: &rev.ID,
		ActorRole:  string(cmd.Actor.Role),
		Outcome:    string(revision.StatusModified),
	})

	result := &ResolveRevisionResult{
		Revision:      rev,
		Quote:         q,
		NewQuote:      newQuote,
		Escrow:        c.escrowState(ctx, proj.ID),
		ProjectStatus: c.projectStatus(ctx, proj),
	}
	return result, failure, nil
}

func (c *Coordinator) getRevision(ctx context.Context, id string) (*revision.Revision, error) {
	rev, err := c.revisions.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, revision.ErrRevisionNotFound
		}
		return nil, fmt.Errorf("loading revision: %w", err)
	}
	return rev, nil
}

func statusIn(s quote.Status, set []quote.Status) bool {
	for _, candidate := range set {
		if s == candidate {
			return true
		}
	}
	return false
}
