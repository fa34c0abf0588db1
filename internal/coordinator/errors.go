package coordinator

import (
	"errors"

	"github.com/hirehall/dealflow/internal/domain/escrow"
)

var (
	// ErrInvalidStateTransition indicates the action's precondition status no
	// longer holds. Recoverable: the actor may refresh and retry.
	ErrInvalidStateTransition = errors.New("invalid state transition")
	// ErrPermissionDenied indicates the actor is not the authorized role or
	// owner for the target entity. Not retryable.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrEscrowIneligible indicates an amount change was attempted on an
	// escrow already released or disputed. It is the escrow domain sentinel;
	// the alias names the taxonomy the transport layer maps.
	ErrEscrowIneligible = escrow.ErrIneligibleForUpdate
)

// SyncFailure reports a partial synchronization failure: the primary status
// write committed, but a downstream step of the chain did not. The primary
// decision is never rolled back; the inconsistency is surfaced for manual
// follow-up instead.
type SyncFailure struct {
	Step    string `json:"step"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func newSyncFailure(step string, err error) *SyncFailure {
	return &SyncFailure{
		Step:    step,
		Message: "your decision was recorded, but the funds record could not be updated; contact support",
		Err:     err,
	}
}
