package coordinator

import "github.com/hirehall/dealflow/internal/domain/revision"

// Every cross-entity consequence of a user action is an explicit, named
// command executed by the coordinator with elevated rights, independent of
// which actor's request triggered it. Providers in particular never flip
// quote or project status directly; the coordinator performs those writes as
// consequences of the commands below.

// SubmitQuote creates a provider's priced offer against a project,
// superseding any earlier live offer from the same provider.
type SubmitQuote struct {
	Actor     Actor
	ProjectID string
	Amount    int64
	Note      string
}

// MarkQuoteViewed records the client's read receipt on a pending quote.
type MarkQuoteViewed struct {
	Actor   Actor
	QuoteID string
}

// AcceptQuote accepts one quote and cascade-rejects its live competitors.
type AcceptQuote struct {
	Actor   Actor
	QuoteID string
}

// RejectQuote rejects a single quote; no cascade.
type RejectQuote struct {
	Actor   Actor
	QuoteID string
}

// RequestRevision opens a negotiation round against a quote. SuggestedPrice
// and AdditionalFees are optional; when present they are minor currency
// units.
type RequestRevision struct {
	Actor          Actor
	QuoteID        string
	SuggestedPrice *int64
	AdditionalFees *int64
	Comments       string
}

// ResolveRevision is the provider's one-shot answer to a pending revision.
// CounterAmount and CounterNote apply only to the modify resolution, which
// creates a replacement quote.
type ResolveRevision struct {
	Actor         Actor
	RevisionID    string
	Resolution    revision.Resolution
	CounterAmount *int64
	CounterNote   string
}

// CancelProject moves a non-terminal project to cancelled.
type CancelProject struct {
	Actor     Actor
	ProjectID string
}

// ExpireProject moves a non-terminal project to expired. Issued by the
// external scheduled sweep with the system role.
type ExpireProject struct {
	Actor     Actor
	ProjectID string
}

// BeginPayment moves an accepted project into payment_pending.
type BeginPayment struct {
	Actor     Actor
	ProjectID string
}

// ConfirmPayment records payment capture: escrow funds move to held and work
// may start. Issued by the payment flow with the system role.
type ConfirmPayment struct {
	Actor     Actor
	ProjectID string
}

// RequestCompletion is the provider's claim that work is done.
type RequestCompletion struct {
	Actor     Actor
	ProjectID string
}

// ApproveCompletion closes the project and releases the held funds.
type ApproveCompletion struct {
	Actor     Actor
	ProjectID string
}

// DisputeEscrow freezes held funds pending out-of-band resolution.
type DisputeEscrow struct {
	Actor     Actor
	ProjectID string
	Reason    string
}
