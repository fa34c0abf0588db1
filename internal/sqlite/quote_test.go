package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/hirehall/dealflow/internal/domain/project"
	"github.com/hirehall/dealflow/internal/domain/quote"
	"github.com/hirehall/dealflow/internal/domain/revision"
	"github.com/hirehall/dealflow/internal/repository"
	"github.com/stretchr/testify/require"
)

var liveStatuses = []quote.Status{quote.StatusPending, quote.StatusViewed}

func TestQuoteRepository_CreateAndGet(t *testing.T) {
	db := NewTestDB(t)
	repo := NewQuoteRepository(db)
	ctx := context.Background()

	seedProject(t, db, "p1", project.StatusOpen)
	seedQuote(t, db, "q1", "p1", "prov1", quote.StatusPending, 100000)

	retrieved, err := repo.Get(ctx, "q1")
	require.NoError(t, err)
	require.Equal(t, "q1", retrieved.ID)
	require.Equal(t, int64(100000), retrieved.Amount)
	require.Equal(t, quote.StatusPending, retrieved.Status)
}

func TestQuoteRepository_Create_MissingProject(t *testing.T) {
	db := NewTestDB(t)
	repo := NewQuoteRepository(db)

	err := repo.Create(context.Background(), &quote.Quote{
		ID:         "q1",
		ProjectID:  "nonexistent",
		ProviderID: "prov1",
		Amount:     100000,
		Status:     quote.StatusPending,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	})
	require.ErrorIs(t, err, repository.ErrForeignKeyViolation)
}

func TestQuoteRepository_AcceptWithCascade(t *testing.T) {
	db := NewTestDB(t)
	repo := NewQuoteRepository(db)
	ctx := context.Background()

	seedProject(t, db, "p1", project.StatusQuoteReceived)
	seedQuote(t, db, "q1", "p1", "prov1", quote.StatusViewed, 100000)
	seedQuote(t, db, "q2", "p1", "prov2", quote.StatusPending, 90000)
	seedQuote(t, db, "q3", "p1", "prov3", quote.StatusViewed, 110000)
	seedQuote(t, db, "q4", "p1", "prov4", quote.StatusRejected, 80000)

	rejected, err := repo.AcceptWithCascade(ctx, "p1", "q1", liveStatuses, nil)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"q2", "q3"}, rejected)

	accepted, err := repo.Get(ctx, "q1")
	require.NoError(t, err)
	require.Equal(t, quote.StatusAccepted, accepted.Status)

	for _, id := range []string{"q2", "q3"} {
		q, err := repo.Get(ctx, id)
		require.NoError(t, err)
		require.Equal(t, quote.StatusRejected, q.Status)
	}

	// The already-rejected quote stays untouched by the cascade.
	q4, err := repo.Get(ctx, "q4")
	require.NoError(t, err)
	require.Equal(t, quote.StatusRejected, q4.Status)
}

func TestQuoteRepository_AcceptWithCascade_AmountOverride(t *testing.T) {
	db := NewTestDB(t)
	repo := NewQuoteRepository(db)
	ctx := context.Background()

	seedProject(t, db, "p1", project.StatusQuoteReceived)
	seedQuote(t, db, "q1", "p1", "prov1", quote.StatusViewed, 200000)

	amount := int64(155000)
	_, err := repo.AcceptWithCascade(ctx, "p1", "q1", liveStatuses, &amount)
	require.NoError(t, err)

	accepted, err := repo.Get(ctx, "q1")
	require.NoError(t, err)
	require.Equal(t, quote.StatusAccepted, accepted.Status)
	require.Equal(t, int64(155000), accepted.Amount)
}

func TestQuoteRepository_AcceptWithCascade_StatusChanged(t *testing.T) {
	db := NewTestDB(t)
	repo := NewQuoteRepository(db)
	ctx := context.Background()

	seedProject(t, db, "p1", project.StatusQuoteReceived)
	seedQuote(t, db, "q1", "p1", "prov1", quote.StatusExpired, 100000)
	seedQuote(t, db, "q2", "p1", "prov2", quote.StatusPending, 90000)

	_, err := repo.AcceptWithCascade(ctx, "p1", "q1", liveStatuses, nil)
	require.ErrorIs(t, err, repository.ErrConflict)

	// The failed acceptance must not have rejected the competitor.
	q2, err := repo.Get(ctx, "q2")
	require.NoError(t, err)
	require.Equal(t, quote.StatusPending, q2.Status)
}

func TestQuoteRepository_GetAccepted(t *testing.T) {
	db := NewTestDB(t)
	repo := NewQuoteRepository(db)
	ctx := context.Background()

	seedProject(t, db, "p1", project.StatusQuoteReceived)
	seedQuote(t, db, "q1", "p1", "prov1", quote.StatusViewed, 100000)

	_, err := repo.GetAccepted(ctx, "p1")
	require.Equal(t, repository.ErrNotFound, err)

	_, err = repo.AcceptWithCascade(ctx, "p1", "q1", liveStatuses, nil)
	require.NoError(t, err)

	accepted, err := repo.GetAccepted(ctx, "p1")
	require.NoError(t, err)
	require.Equal(t, "q1", accepted.ID)
}

func TestQuoteRepository_ReplaceAccepted(t *testing.T) {
	db := NewTestDB(t)
	repo := NewQuoteRepository(db)
	ctx := context.Background()

	seedProject(t, db, "p1", project.StatusQuoteReceived)
	seedQuote(t, db, "q1", "p1", "prov1", quote.StatusViewed, 100000)
	seedQuote(t, db, "q2", "p1", "prov2", quote.StatusPending, 90000)

	now := time.Now()
	replacement := &quote.Quote{
		ID:         "q-counter",
		ProjectID:  "p1",
		ProviderID: "prov1",
		Amount:     95000,
		Note:       "adjusted for smaller scope",
		Status:     quote.StatusAccepted,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	seedRevision(t, db, "r1", "q1", revision.StatusPending)

	revisable := []quote.Status{quote.StatusPending, quote.StatusViewed, quote.StatusAccepted}
	rejected, err := repo.ReplaceAccepted(ctx, "p1", "q1", revisable, replacement, "r1", now)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"q2"}, rejected)

	prior, err := repo.Get(ctx, "q1")
	require.NoError(t, err)
	require.Equal(t, quote.StatusViewed, prior.Status)
	require.Equal(t, int64(100000), prior.Amount)

	accepted, err := repo.GetAccepted(ctx, "p1")
	require.NoError(t, err)
	require.Equal(t, "q-counter", accepted.ID)
	require.Equal(t, int64(95000), accepted.Amount)

	// The revision resolved in the same transaction, linked to the quote row
	// that now satisfies its foreign key.
	rev, err := NewRevisionRepository(db).Get(ctx, "r1")
	require.NoError(t, err)
	require.Equal(t, revision.StatusModified, rev.Status)
	require.Equal(t, "q-counter", *rev.ModifiedQuoteID)
	require.NotNil(t, rev.RespondedAt)
}

func TestQuoteRepository_ReplaceAccepted_RevisionAlreadyResolved(t *testing.T) {
	db := NewTestDB(t)
	repo := NewQuoteRepository(db)
	ctx := context.Background()

	seedProject(t, db, "p1", project.StatusQuoteReceived)
	seedQuote(t, db, "q1", "p1", "prov1", quote.StatusViewed, 100000)
	seedRevision(t, db, "r1", "q1", revision.StatusRejected)

	now := time.Now()
	replacement := &quote.Quote{
		ID:         "q-counter",
		ProjectID:  "p1",
		ProviderID: "prov1",
		Amount:     95000,
		Status:     quote.StatusAccepted,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	revisable := []quote.Status{quote.StatusPending, quote.StatusViewed, quote.StatusAccepted}
	_, err := repo.ReplaceAccepted(ctx, "p1", "q1", revisable, replacement, "r1", now)
	require.ErrorIs(t, err, repository.ErrConflict)

	// The whole replacement rolled back: no stray accepted quote.
	_, err = repo.Get(ctx, "q-counter")
	require.ErrorIs(t, err, repository.ErrNotFound)
	prior, err := repo.Get(ctx, "q1")
	require.NoError(t, err)
	require.Equal(t, quote.StatusViewed, prior.Status)
}

func TestQuoteRepository_OneAcceptedPerProject(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()

	seedProject(t, db, "p1", project.StatusQuoteReceived)
	seedQuote(t, db, "q1", "p1", "prov1", quote.StatusAccepted, 100000)

	// The partial unique index backstops the invariant at the storage level.
	_, err := db.ExecContext(ctx,
		`INSERT INTO quotes (id, project_id, provider_id, amount, note, status) VALUES (?, ?, ?, ?, '', 'accepted')`,
		"q2", "p1", "prov2", int64(90000))
	require.Error(t, err)
	require.True(t, isUniqueViolation(err))
}

func TestQuoteRepository_ExpireLiveByProvider(t *testing.T) {
	db := NewTestDB(t)
	repo := NewQuoteRepository(db)
	ctx := context.Background()

	seedProject(t, db, "p1", project.StatusQuoteReceived)
	seedQuote(t, db, "q1", "p1", "prov1", quote.StatusPending, 100000)
	seedQuote(t, db, "q2", "p1", "prov1", quote.StatusRejected, 90000)
	seedQuote(t, db, "q3", "p1", "prov2", quote.StatusPending, 110000)

	expired, err := repo.ExpireLiveByProvider(ctx, "p1", "prov1")
	require.NoError(t, err)
	require.Equal(t, 1, expired)

	q1, err := repo.Get(ctx, "q1")
	require.NoError(t, err)
	require.Equal(t, quote.StatusExpired, q1.Status)

	// Other providers' quotes stay live.
	q3, err := repo.Get(ctx, "q3")
	require.NoError(t, err)
	require.Equal(t, quote.StatusPending, q3.Status)
}

func TestQuoteRepository_UpdateStatus_Conflict(t *testing.T) {
	db := NewTestDB(t)
	repo := NewQuoteRepository(db)
	ctx := context.Background()

	seedProject(t, db, "p1", project.StatusQuoteReceived)
	seedQuote(t, db, "q1", "p1", "prov1", quote.StatusRejected, 100000)

	err := repo.UpdateStatus(ctx, "q1", liveStatuses, quote.StatusAccepted)
	require.ErrorIs(t, err, repository.ErrConflict)

	err = repo.UpdateStatus(ctx, "missing", liveStatuses, quote.StatusAccepted)
	require.ErrorIs(t, err, repository.ErrNotFound)
}
