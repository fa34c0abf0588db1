package coordinator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hirehall/dealflow/internal/domain/escrow"
	"github.com/hirehall/dealflow/internal/repository"
	"github.com/google/uuid"
)

// syncEscrow ensures an escrow exists for the project with the given amount,
// or updates the existing one. Creation only happens for a positive amount.
// Amount changes on a released or disputed escrow are refused with
// ErrEscrowIneligible; the figure is settled and must not move.
func (c *Coordinator) syncEscrow(ctx context.Context, projectID string, amount int64) (*escrow.Escrow, error) {
	esc, err := c.escrows.GetByProject(ctx, projectID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("loading escrow: %w", err)
		}
		if amount <= 0 {
			return nil, nil
		}
		now := time.Now()
		esc = &escrow.Escrow{
			ID:          uuid.NewString(),
			ProjectID:   projectID,
			TotalAmount: amount,
			Status:      escrow.StatusPending,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := c.escrows.Create(ctx, esc); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				// Lost a creation race; fall through to the update path.
				return c.syncEscrow(ctx, projectID, amount)
			}
			return nil, fmt.Errorf("creating escrow: %w", err)
		}
		return esc, nil
	}

	if !escrow.AmountUpdatable(esc.Status) {
		return nil, fmt.Errorf("%w: escrow is already %s", ErrEscrowIneligible, esc.Status)
	}
	if esc.TotalAmount == amount {
		return esc, nil
	}
	if err := c.escrows.UpdateAmount(ctx, projectID, amount); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, fmt.Errorf("%w: escrow was settled concurrently", ErrEscrowIneligible)
		}
		return nil, fmt.Errorf("updating escrow amount: %w", err)
	}
	esc.TotalAmount = amount
	return esc, nil
}

// escrowState is a read-only snapshot for command results; a missing escrow
// is reported as nil rather than an error.
func (c *Coordinator) escrowState(ctx context.Context, projectID string) *escrow.Escrow {
	esc, err := c.escrows.GetByProject(ctx, projectID)
	if err != nil {
		return nil
	}
	return esc
}

// getEscrow loads the project's escrow, mapping a missing row to the domain
// error.
func (c *Coordinator) getEscrow(ctx context.Context, projectID string) (*escrow.Escrow, error) {
	esc, err := c.escrows.GetByProject(ctx, projectID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, escrow.ErrEscrowNotFound
		}
		return nil, fmt.Errorf("loading escrow: %w", err)
	}
	return esc, nil
}
