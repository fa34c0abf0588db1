package coordinator_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hirehall/dealflow/internal/coordinator"
	"github.com/hirehall/dealflow/internal/domain/escrow"
	"github.com/hirehall/dealflow/internal/domain/project"
	"github.com/hirehall/dealflow/internal/domain/quote"
	"github.com/hirehall/dealflow/internal/notify"
	"github.com/hirehall/dealflow/internal/repository"
	"github.com/hirehall/dealflow/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// captureNotifier records emitted events for assertions.
type captureNotifier struct {
	events []notify.Event
}

func (n *captureNotifier) Notify(_ context.Context, event notify.Event) error {
	n.events = append(n.events, event)
	return nil
}

func (n *captureNotifier) kinds() []string {
	var kinds []string
	for _, e := range n.events {
		kinds = append(kinds, e.Kind)
	}
	return kinds
}

type fixture struct {
	projects  *mocks.ProjectRepository
	quotes    *mocks.QuoteRepository
	revisions *mocks.RevisionRepository
	escrows   *mocks.EscrowRepository
	notifier  *captureNotifier
	coord     *coordinator.Coordinator
}

func newFixture() *fixture {
	f := &fixture{
		projects:  &mocks.ProjectRepository{},
		quotes:    &mocks.QuoteRepository{},
		revisions: &mocks.RevisionRepository{},
		escrows:   &mocks.EscrowRepository{},
		notifier:  &captureNotifier{},
	}
	f.coord = coordinator.New(f.projects, f.quotes, f.revisions, f.escrows, f.notifier, nil)
	return f
}

var (
	client   = coordinator.Actor{ID: "client1", Role: coordinator.RoleClient}
	provider = coordinator.Actor{ID: "prov1", Role: coordinator.RoleProvider}
	system   = coordinator.Actor{ID: "scheduler", Role: coordinator.RoleSystem}
)

func testProject(status project.Status) *project.Project {
	return &project.Project{
		ID:         "p1",
		ClientID:   "client1",
		CategoryID: "plumbing",
		Title:      "Fix kitchen sink",
		Status:     status,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
}

func testQuote(status quote.Status, amount int64) *quote.Quote {
	return &quote.Quote{
		ID:         "q1",
		ProjectID:  "p1",
		ProviderID: "prov1",
		Amount:     amount,
		Status:     status,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
}

func TestSubmitQuote_ProviderOnly(t *testing.T) {
	f := newFixture()
	_, err := f.coord.SubmitQuote(context.Background(), coordinator.SubmitQuote{
		Actor:     client,
		ProjectID: "p1",
		Amount:    100000,
	})
	require.ErrorIs(t, err, coordinator.ErrPermissionDenied)
}

func TestSubmitQuote_AdvancesOpenProject(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	f.projects.On("Get", ctx, "p1").Return(testProject(project.StatusOpen), nil)
	f.quotes.On("ExpireLiveByProvider", ctx, "p1", "prov1").Return(0, nil)
	f.quotes.On("Create", ctx, mock.Anything).Return(nil)
	f.projects.On("UpdateStatus", ctx, "p1",
		[]project.Status{project.StatusOpen}, project.StatusQuoteReceived).Return(nil)

	q, err := f.coord.SubmitQuote(ctx, coordinator.SubmitQuote{
		Actor:     provider,
		ProjectID: "p1",
		Amount:    100000,
	})
	require.NoError(t, err)
	require.Equal(t, quote.StatusPending, q.Status)
	require.Equal(t, int64(100000), q.Amount)
	require.Equal(t, []string{notify.KindQuoteSubmitted}, f.notifier.kinds())
	f.projects.AssertExpectations(t)
	f.quotes.AssertExpectations(t)
}

func TestSubmitQuote_SupersedesEarlierQuote(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	f.projects.On("Get", ctx, "p1").Return(testProject(project.StatusQuoteReceived), nil)
	f.quotes.On("ExpireLiveByProvider", ctx, "p1", "prov1").Return(1, nil)
	f.quotes.On("Create", ctx, mock.Anything).Return(nil)

	_, err := f.coord.SubmitQuote(ctx, coordinator.SubmitQuote{
		Actor:     provider,
		ProjectID: "p1",
		Amount:    120000,
	})
	require.NoError(t, err)
	f.quotes.AssertExpectations(t)
	// Already past open: no project status write.
	f.projects.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSubmitQuote_ClosedProject(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.projects.On("Get", ctx, "p1").Return(testProject(project.StatusCancelled), nil)

	_, err := f.coord.SubmitQuote(ctx, coordinator.SubmitQuote{
		Actor:     provider,
		ProjectID: "p1",
		Amount:    100000,
	})
	require.ErrorIs(t, err, coordinator.ErrInvalidStateTransition)
}

func TestSubmitQuote_NegativeAmount(t *testing.T) {
	f := newFixture()
	_, err := f.coord.SubmitQuote(context.Background(), coordinator.SubmitQuote{
		Actor:     provider,
		ProjectID: "p1",
		Amount:    -1,
	})
	require.ErrorIs(t, err, quote.ErrInvalidInput)
}

func TestAcceptQuote_CascadeAndEscrow(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	acceptable := []quote.Status{quote.StatusPending, quote.StatusViewed}
	f.quotes.On("Get", ctx, "q1").Return(testQuote(quote.StatusViewed, 100000), nil)
	f.projects.On("Get", ctx, "p1").Return(testProject(project.StatusQuoteReceived), nil)
	f.quotes.On("AcceptWithCascade", ctx, "p1", "q1", acceptable, (*int64)(nil)).
		Return([]string{"q2", "q3"}, nil)

	// No escrow yet: one gets created for the accepted amount.
	f.escrows.On("GetByProject", ctx, "p1").Return(nil, repository.ErrNotFound).Once()
	f.escrows.On("Create", ctx, mock.MatchedBy(func(esc *escrow.Escrow) bool {
		return esc.ProjectID == "p1" && esc.TotalAmount == 100000 && esc.Status == escrow.StatusPending
	})).Return(nil)
	f.projects.On("UpdateStatus", ctx, "p1", mock.Anything, project.StatusQuoteAccepted).Return(nil)
	f.escrows.On("GetByProject", ctx, "p1").Return(&escrow.Escrow{
		ID: "e1", ProjectID: "p1", TotalAmount: 100000, Status: escrow.StatusPending,
	}, nil)

	result, failure, err := f.coord.AcceptQuote(ctx, coordinator.AcceptQuote{Actor: client, QuoteID: "q1"})
	require.NoError(t, err)
	require.Nil(t, failure)
	require.Equal(t, quote.StatusAccepted, result.Quote.Status)
	require.Equal(t, []string{"q2", "q3"}, result.RejectedQuoteIDs)
	require.NotNil(t, result.Escrow)
	require.Equal(t, int64(100000), result.Escrow.TotalAmount)
	require.Equal(t, project.StatusQuoteAccepted, result.ProjectStatus)
	require.Equal(t, []string{notify.KindQuoteAccepted}, f.notifier.kinds())
	f.escrows.AssertExpectations(t)
}

func TestAcceptQuote_NotOwner(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.quotes.On("Get", ctx, "q1").Return(testQuote(quote.StatusPending, 100000), nil)
	f.projects.On("Get", ctx, "p1").Return(testProject(project.StatusQuoteReceived), nil)

	stranger := coordinator.Actor{ID: "client2", Role: coordinator.RoleClient}
	_, _, err := f.coord.AcceptQuote(ctx, coordinator.AcceptQuote{Actor: stranger, QuoteID: "q1"})
	require.ErrorIs(t, err, coordinator.ErrPermissionDenied)
	f.quotes.AssertNotCalled(t, "AcceptWithCascade",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAcceptQuote_TerminalQuote(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.quotes.On("Get", ctx, "q1").Return(testQuote(quote.StatusRejected, 100000), nil)
	f.projects.On("Get", ctx, "p1").Return(testProject(project.StatusQuoteReceived), nil)

	_, _, err := f.coord.AcceptQuote(ctx, coordinator.AcceptQuote{Actor: client, QuoteID: "q1"})
	require.ErrorIs(t, err, coordinator.ErrInvalidStateTransition)
	require.Contains(t, err.Error(), "rejected")
}

func TestAcceptQuote_ConcurrentStatusChange(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.quotes.On("Get", ctx, "q1").Return(testQuote(quote.StatusPending, 100000), nil)
	f.projects.On("Get", ctx, "p1").Return(testProject(project.StatusQuoteReceived), nil)
	f.quotes.On("AcceptWithCascade", ctx, "p1", "q1", mock.Anything, (*int64)(nil)).
		Return(nil, repository.ErrConflict)

	_, _, err := f.coord.AcceptQuote(ctx, coordinator.AcceptQuote{Actor: client, QuoteID: "q1"})
	require.ErrorIs(t, err, coordinator.ErrInvalidStateTransition)
}

func TestAcceptQuote_EscrowFailureDoesNotRollBack(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	f.quotes.On("Get", ctx, "q1").Return(testQuote(quote.StatusViewed, 100000), nil)
	f.projects.On("Get", ctx, "p1").Return(testProject(project.StatusQuoteReceived), nil)
	f.quotes.On("AcceptWithCascade", ctx, "p1", "q1", mock.Anything, (*int64)(nil)).
		Return([]string{"q2"}, nil)

	f.escrows.On("GetByProject", ctx, "p1").Return(nil, errors.New("escrow backend down"))
	// The project write still runs after the escrow failure.
	f.projects.On("UpdateStatus", ctx, "p1", mock.Anything, project.StatusQuoteAccepted).Return(nil)

	result, failure, err := f.coord.AcceptQuote(ctx, coordinator.AcceptQuote{Actor: client, QuoteID: "q1"})
	require.NoError(t, err)
	require.NotNil(t, failure)
	require.Equal(t, "escrow", failure.Step)
	require.Contains(t, failure.Message, "contact support")
	require.Equal(t, quote.StatusAccepted, result.Quote.Status)
	require.Equal(t, project.StatusQuoteAccepted, result.ProjectStatus)
	require.Equal(t, []string{notify.KindEscrowSyncFailed, notify.KindQuoteAccepted}, f.notifier.kinds())
	f.projects.AssertExpectations(t)
}

func TestRejectQuote_NoCascade(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	acceptable := []quote.Status{quote.StatusPending, quote.StatusViewed}
	f.quotes.On("Get", ctx, "q1").Return(testQuote(quote.StatusPending, 100000), nil)
	f.projects.On("Get", ctx, "p1").Return(testProject(project.StatusQuoteReceived), nil)
	f.quotes.On("UpdateStatus", ctx, "q1", acceptable, quote.StatusRejected).Return(nil)

	q, err := f.coord.RejectQuote(ctx, coordinator.RejectQuote{Actor: client, QuoteID: "q1"})
	require.NoError(t, err)
	require.Equal(t, quote.StatusRejected, q.Status)
	require.Equal(t, []string{notify.KindQuoteRejected}, f.notifier.kinds())
	f.quotes.AssertNotCalled(t, "AcceptWithCascade",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.escrows.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestMarkQuoteViewed_RepeatIsNoOp(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.quotes.On("Get", ctx, "q1").Return(testQuote(quote.StatusViewed, 100000), nil)
	f.projects.On("Get", ctx, "p1").Return(testProject(project.StatusQuoteReceived), nil)

	q, err := f.coord.MarkQuoteViewed(ctx, coordinator.MarkQuoteViewed{Actor: client, QuoteID: "q1"})
	require.NoError(t, err)
	require.Equal(t, quote.StatusViewed, q.Status)
	f.quotes.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSystemActorBypassesOwnership(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	f.quotes.On("Get", ctx, "q1").Return(testQuote(quote.StatusPending, 100000), nil)
	f.projects.On("Get", ctx, "p1").Return(testProject(project.StatusQuoteReceived), nil)
	f.quotes.On("UpdateStatus", ctx, "q1", mock.Anything, quote.StatusRejected).Return(nil)

	_, err := f.coord.RejectQuote(ctx, coordinator.RejectQuote{Actor: system, QuoteID: "q1"})
	require.NoError(t, err)
}
