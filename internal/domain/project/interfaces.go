package project

import "context"

// Repository abstracts project persistence for the service.
type Repository interface {
	Create(ctx context.Context, proj *Project) error
	Get(ctx context.Context, id string) (*Project, error)
	ListByClient(ctx context.Context, clientID string) ([]Summary, error)
	UpdateStatus(ctx context.Context, id string, from []Status, to Status) error
}
