package coordinator

import (
	"context"
	"errors"
	"fmt"

	"github.com/hirehall/dealflow/internal/domain/escrow"
	"github.com/hirehall/dealflow/internal/domain/project"
	"github.com/hirehall/dealflow/internal/notify"
	"github.com/hirehall/dealflow/internal/repository"
)

// CancelProject moves a non-terminal project to cancelled. Client only.
func (c *Coordinator) CancelProject(ctx context.Context, cmd CancelProject) (*project.Project, error) {
	return c.closeProject(ctx, cmd.Actor, cmd.ProjectID, project.StatusCancelled, notify.KindProjectCancelled)
}

// ExpireProject moves a non-terminal project to expired. Issued by the
// external scheduled sweep; requires the system role.
func (c *Coordinator) ExpireProject(ctx context.Context, cmd ExpireProject) (*project.Project, error) {
	if cmd.Actor.Role != RoleSystem {
		return nil, fmt.Errorf("%w: expiry is system-driven", ErrPermissionDenied)
	}
	return c.closeProject(ctx, cmd.Actor, cmd.ProjectID, project.StatusExpired, notify.KindProjectExpired)
}

func (c *Coordinator) closeProject(ctx context.Context, actor Actor, projectID string, to project.Status, kind string) (*project.Project, error) {
	proj, err := c.getProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if to == project.StatusCancelled {
		if err := requireClient(actor, proj); err != nil {
			return nil, err
		}
	}
	if err := project.ValidateTransition(proj.Status, to); err != nil {
		return nil, fmt.Errorf("%w: project is already %s", ErrInvalidStateTransition, proj.Status)
	}

	if err := c.projects.UpdateStatus(ctx, projectID, nonTerminalStatuses(), to); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, fmt.Errorf("%w: project status changed, refresh and retry", ErrInvalidStateTransition)
		}
		return nil, fmt.Errorf("closing project: %w", err)
	}
	proj.Status = to

	c.emit(ctx, notify.Event{
		Kind:      kind,
		ProjectID: projectID,
		ActorRole: string(actor.Role),
		Outcome:   string(to),
	})
	return proj, nil
}

// BeginPayment moves an accepted project into payment_pending. The escrow
// must already exist with the agreed amount; that is the guarantee the
// acceptance chain provides before this transition is reachable.
func (c *Coordinator) BeginPayment(ctx context.Context, cmd BeginPayment) (*project.Project, error) {
	proj, err := c.getProject(ctx, cmd.ProjectID)
	if err != nil {
		return nil, err
	}
	if err := requireClient(cmd.Actor, proj); err != nil {
		return nil, err
	}
	if proj.Status != project.StatusQuoteAccepted {
		return nil, fmt.Errorf("%w: project is %s, not awaiting payment", ErrInvalidStateTransition, proj.Status)
	}

	esc, err := c.getEscrow(ctx, cmd.ProjectID)
	if err != nil {
		return nil, err
	}
	if err := escrow.ValidateTransition(esc.Status, escrow.StatusHeld); err != nil {
		return nil, fmt.Errorf("%w: escrow is already %s", ErrInvalidStateTransition, esc.Status)
	}

	err = c.projects.UpdateStatus(ctx, proj.ID,
		[]project.Status{project.StatusQuoteAccepted}, project.StatusPaymentPending)
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, fmt.Errorf("%w: project status changed, refresh and retry", ErrInvalidStateTransition)
		}
		return nil, fmt.Errorf("beginning payment: %w", err)
	}
	proj.Status = project.StatusPaymentPending
	return proj, nil
}

// ConfirmPayment records payment capture: escrow funds move to held, then
// the project moves to in_progress. Escrow first, so the project never
// advances ahead of the financial state it implies; a project write failure
// after the hold committed is surfaced as a SyncFailure.
func (c *Coordinator) ConfirmPayment(ctx context.Context, cmd ConfirmPayment) (*project.Project, *SyncFailure, error) {
	if cmd.Actor.Role != RoleSystem {
		return nil, nil, fmt.Errorf("%w: payment capture is system-driven", ErrPermissionDenied)
	}
	proj, err := c.getProject(ctx, cmd.ProjectID)
	if err != nil {
		return nil, nil, err
	}
	if proj.Status != project.StatusPaymentPending {
		return nil, nil, fmt.Errorf("%w: project is %s, payment not expected", ErrInvalidStateTransition, proj.Status)
	}

	err = c.escrows.UpdateStatus(ctx, cmd.ProjectID,
		[]escrow.Status{escrow.StatusPending}, escrow.StatusHeld)
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, nil, fmt.Errorf("%w: escrow is no longer pending", ErrInvalidStateTransition)
		}
		return nil, nil, fmt.Errorf("holding escrow: %w", err)
	}

	var failure *SyncFailure
	err = c.projects.UpdateStatus(ctx, proj.ID,
		[]project.Status{project.StatusPaymentPending}, project.StatusInProgress)
	if err != nil {
		c.logger.Error("project start after payment capture failed",
			"project_id", proj.ID, "error", err)
		failure = newSyncFailure("project", err)
	} else {
		proj.Status = project.StatusInProgress
	}

	c.emit(ctx, notify.Event{
		Kind:      notify.KindPaymentCaptured,
		ProjectID: proj.ID,
		ActorRole: string(cmd.Actor.Role),
		Outcome:   string(escrow.StatusHeld),
	})
	return proj, failure, nil
}

// RequestCompletion is the accepted provider's claim that work is done.
func (c *Coordinator) RequestCompletion(ctx context.Context, cmd RequestCompletion) (*project.Project, error) {
	proj, err := c.getProject(ctx, cmd.ProjectID)
	if err != nil {
		return nil, err
	}
	if err := c.requireAcceptedProvider(ctx, cmd.Actor, proj); err != nil {
		return nil, err
	}
	if proj.Status != project.StatusInProgress {
		return nil, fmt.Errorf("%w: project is %s, not in progress", ErrInvalidStateTransition, proj.Status)
	}

	err = c.projects.UpdateStatus(ctx, proj.ID,
		[]project.Status{project.StatusInProgress}, project.StatusCompletionRequested)
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, fmt.Errorf("%w: project status changed, refresh and retry", ErrInvalidStateTransition)
		}
		return nil, fmt.Errorf("requesting completion: %w", err)
	}
	proj.Status = project.StatusCompletionRequested
	return proj, nil
}

// ApproveCompletion closes the deal: held funds are released, then the
// project is completed. The release is the primary write; a project close
// failure after it is surfaced as a SyncFailure rather than rolled back.
func (c *Coordinator) ApproveCompletion(ctx context.Context, cmd ApproveCompletion) (*project.Project, *SyncFailure, error) {
	proj, err := c.getProject(ctx, cmd.ProjectID)
	if err != nil {
		return nil, nil, err
	}
	if err := requireClient(cmd.Actor, proj); err != nil {
		return nil, nil, err
	}
	if proj.Status != project.StatusCompletionRequested {
		return nil, nil, fmt.Errorf("%w: project is %s, completion not requested", ErrInvalidStateTransition, proj.Status)
	}

	err = c.escrows.UpdateStatus(ctx, cmd.ProjectID,
		[]escrow.Status{escrow.StatusHeld}, escrow.StatusReleased)
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, nil, fmt.Errorf("%w: escrow is not held", ErrInvalidStateTransition)
		}
		return nil, nil, fmt.Errorf("releasing escrow: %w", err)
	}

	var failure *SyncFailure
	err = c.projects.UpdateStatus(ctx, proj.ID,
		[]project.Status{project.StatusCompletionRequested}, project.StatusCompleted)
	if err != nil {
		c.logger.Error("project close after escrow release failed",
			"project_id", proj.ID, "error", err)
		failure = newSyncFailure("project", err)
	} else {
		proj.Status = project.StatusCompleted
	}

	c.emit(ctx, notify.Event{
		Kind:      notify.KindProjectCompleted,
		ProjectID: proj.ID,
		ActorRole: string(cmd.Actor.Role),
		Outcome:   string(project.StatusCompleted),
	})
	return proj, failure, nil
}

// DisputeEscrow freezes held funds. Either deal party may raise it.
func (c *Coordinator) DisputeEscrow(ctx context.Context, cmd DisputeEscrow) (*escrow.Escrow, error) {
	proj, err := c.getProject(ctx, cmd.ProjectID)
	if err != nil {
		return nil, err
	}
	if err := c.requireParty(ctx, cmd.Actor, proj); err != nil {
		return nil, err
	}
	esc, err := c.getEscrow(ctx, cmd.ProjectID)
	if err != nil {
		return nil, err
	}
	if err := escrow.ValidateTransition(esc.Status, escrow.StatusDisputed); err != nil {
		return nil, fmt.Errorf("%w: escrow is %s, only held funds can be disputed", ErrInvalidStateTransition, esc.Status)
	}

	err = c.escrows.UpdateStatus(ctx, cmd.ProjectID,
		[]escrow.Status{escrow.StatusHeld}, escrow.StatusDisputed)
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, fmt.Errorf("%w: escrow status changed, refresh and retry", ErrInvalidStateTransition)
		}
		return nil, fmt.Errorf("disputing escrow: %w", err)
	}
	esc.Status = escrow.StatusDisputed

	c.emit(ctx, notify.Event{
		Kind:      notify.KindEscrowDisputed,
		ProjectID: proj.ID,
		ActorRole: string(cmd.Actor.Role),
		Outcome:   cmd.Reason,
	})
	return esc, nil
}

// requireAcceptedProvider enforces that the actor is the provider behind the
// project's currently accepted quote.
func (c *Coordinator) requireAcceptedProvider(ctx context.Context, actor Actor, proj *project.Project) error {
	if actor.Role == RoleSystem {
		return nil
	}
	if actor.Role != RoleProvider {
		return fmt.Errorf("%w: only the accepted provider may do this", ErrPermissionDenied)
	}
	accepted, err := c.quotes.GetAccepted(ctx, proj.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: project has no accepted quote", ErrPermissionDenied)
		}
		return fmt.Errorf("loading accepted quote: %w", err)
	}
	if accepted.ProviderID != actor.ID {
		return fmt.Errorf("%w: only the accepted provider may do this", ErrPermissionDenied)
	}
	return nil
}

// requireParty enforces that the actor is the project's client or its
// accepted provider.
func (c *Coordinator) requireParty(ctx context.Context, actor Actor, proj *project.Project) error {
	switch actor.Role {
	case RoleSystem:
		return nil
	case RoleClient:
		return requireClient(actor, proj)
	case RoleProvider:
		return c.requireAcceptedProvider(ctx, actor, proj)
	}
	return fmt.Errorf("%w: unknown role", ErrPermissionDenied)
}

func nonTerminalStatuses() []project.Status {
	return []project.Status{
		project.StatusOpen,
		project.StatusQuoteReceived,
		project.StatusQuoteAccepted,
		project.StatusPaymentPending,
		project.StatusInProgress,
		project.StatusCompletionRequested,
	}
}
