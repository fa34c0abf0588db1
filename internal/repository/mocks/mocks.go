package mocks

import (
	"context"
	"time"

	"github.com/hirehall/dealflow/internal/domain/escrow"
	"github.com/hirehall/dealflow/internal/domain/project"
	"github.com/hirehall/dealflow/internal/domain/quote"
	"github.com/hirehall/dealflow/internal/domain/revision"
	"github.com/hirehall/dealflow/internal/notify"
	"github.com/stretchr/testify/mock"
)

// ProjectRepository is a mock for coordinator.ProjectRepository.
type ProjectRepository struct {
	mock.Mock
}

func (m *ProjectRepository) Create(ctx context.Context, proj *project.Project) error {
	args := m.Called(ctx, proj)
	return args.Error(0)
}

func (m *ProjectRepository) Get(ctx context.Context, id string) (*project.Project, error) {
	args := m.Called(ctx, id)
	if proj, ok := args.Get(0).(*project.Project); ok {
		return proj, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectRepository) ListByClient(ctx context.Context, clientID string) ([]project.Summary, error) {
	args := m.Called(ctx, clientID)
	if list, ok := args.Get(0).([]project.Summary); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectRepository) UpdateStatus(ctx context.Context, id string, from []project.Status, to project.Status) error {
	args := m.Called(ctx, id, from, to)
	return args.Error(0)
}

// QuoteRepository is a mock for coordinator.QuoteRepository.
type QuoteRepository struct {
	mock.Mock
}

func (m *QuoteRepository) Create(ctx context.Context, q *quote.Quote) error {
	args := m.Called(ctx, q)
	return args.Error(0)
}

func (m *QuoteRepository) Get(ctx context.Context, id string) (*quote.Quote, error) {
	args := m.Called(ctx, id)
	if q, ok := args.Get(0).(*quote.Quote); ok {
		return q, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *QuoteRepository) ListByProject(ctx context.Context, projectID string) ([]quote.Quote, error) {
	args := m.Called(ctx, projectID)
	if list, ok := args.Get(0).([]quote.Quote); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *QuoteRepository) GetAccepted(ctx context.Context, projectID string) (*quote.Quote, error) {
	args := m.Called(ctx, projectID)
	if q, ok := args.Get(0).(*quote.Quote); ok {
		return q, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *QuoteRepository) UpdateStatus(ctx context.Context, id string, from []quote.Status, to quote.Status) error {
	args := m.Called(ctx, id, from, to)
	return args.Error(0)
}

func (m *QuoteRepository) AcceptWithCascade(ctx context.Context, projectID, quoteID string, from []quote.Status, amount *int64) ([]string, error) {
	args := m.Called(ctx, projectID, quoteID, from, amount)
	if list, ok := args.Get(0).([]string); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *QuoteRepository) ReplaceAccepted(ctx context.Context, projectID, priorQuoteID string, from []quote.Status, newQuote *quote.Quote, revisionID string, respondedAt time.Time) ([]string, error) {
	args := m.Called(ctx, projectID, priorQuoteID, from, newQuote, revisionID, respondedAt)
	if list, ok := args.Get(0).([]string); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *QuoteRepository) ExpireLiveByProvider(ctx context.Context, projectID, providerID string) (int, error) {
	args := m.Called(ctx, projectID, providerID)
	return args.Int(0), args.Error(1)
}

// RevisionRepository is a mock for coordinator.RevisionRepository.
type RevisionRepository struct {
	mock.Mock
}

func (m *RevisionRepository) Create(ctx context.Context, rev *revision.Revision) error {
	args := m.Called(ctx, rev)
	return args.Error(0)
}

func (m *RevisionRepository) Get(ctx context.Context, id string) (*revision.Revision, error) {
	args := m.Called(ctx, id)
	if rev, ok := args.Get(0).(*revision.Revision); ok {
		return rev, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *RevisionRepository) ListByQuote(ctx context.Context, quoteID string) ([]revision.Revision, error) {
	args := m.Called(ctx, quoteID)
	if list, ok := args.Get(0).([]revision.Revision); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *RevisionRepository) HasPending(ctx context.Context, quoteID string) (bool, error) {
	args := m.Called(ctx, quoteID)
	return args.Bool(0), args.Error(1)
}

func (m *RevisionRepository) Resolve(ctx context.Context, id string, to revision.Status, respondedAt time.Time) error {
	args := m.Called(ctx, id, to, respondedAt)
	return args.Error(0)
}

// EscrowRepository is a mock for coordinator.EscrowRepository.
type EscrowRepository struct {
	mock.Mock
}

func (m *EscrowRepository) Create(ctx context.Context, esc *escrow.Escrow) error {
	args := m.Called(ctx, esc)
	return args.Error(0)
}

func (m *EscrowRepository) GetByProject(ctx context.Context, projectID string) (*escrow.Escrow, error) {
	args := m.Called(ctx, projectID)
	if esc, ok := args.Get(0).(*escrow.Escrow); ok {
		return esc, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *EscrowRepository) UpdateAmount(ctx context.Context, projectID string, amount int64) error {
	args := m.Called(ctx, projectID, amount)
	return args.Error(0)
}

func (m *EscrowRepository) UpdateStatus(ctx context.Context, projectID string, from []escrow.Status, to escrow.Status) error {
	args := m.Called(ctx, projectID, from, to)
	return args.Error(0)
}

// NotificationRepository is a mock for notify.Repository.
type NotificationRepository struct {
	mock.Mock
}

func (m *NotificationRepository) Log(ctx context.Context, n *notify.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

func (m *NotificationRepository) ListByProject(ctx context.Context, projectID string, limit int) ([]notify.Notification, error) {
	args := m.Called(ctx, projectID, limit)
	if list, ok := args.Get(0).([]notify.Notification); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}
