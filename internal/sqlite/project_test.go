package sqlite

import (
	"context"
	"testing"

	"github.com/hirehall/dealflow/internal/domain/project"
	"github.com/hirehall/dealflow/internal/domain/quote"
	"github.com/hirehall/dealflow/internal/repository"
	"github.com/stretchr/testify/require"
)

func TestProjectRepository_CreateAndGet(t *testing.T) {
	db := NewTestDB(t)
	repo := NewProjectRepository(db)
	ctx := context.Background()

	seedProject(t, db, "p1", project.StatusOpen)

	retrieved, err := repo.Get(ctx, "p1")
	require.NoError(t, err)
	require.Equal(t, "p1", retrieved.ID)
	require.Equal(t, "client1", retrieved.ClientID)
	require.Equal(t, project.StatusOpen, retrieved.Status)

	_, err = repo.Get(ctx, "nonexistent")
	require.Equal(t, repository.ErrNotFound, err)
}

func TestProjectRepository_UpdateStatus(t *testing.T) {
	db := NewTestDB(t)
	repo := NewProjectRepository(db)
	ctx := context.Background()

	seedProject(t, db, "p1", project.StatusOpen)

	err := repo.UpdateStatus(ctx, "p1", []project.Status{project.StatusOpen}, project.StatusQuoteReceived)
	require.NoError(t, err)

	retrieved, err := repo.Get(ctx, "p1")
	require.NoError(t, err)
	require.Equal(t, project.StatusQuoteReceived, retrieved.Status)
}

func TestProjectRepository_UpdateStatus_ExpectedStatusMismatch(t *testing.T) {
	db := NewTestDB(t)
	repo := NewProjectRepository(db)
	ctx := context.Background()

	seedProject(t, db, "p1", project.StatusCancelled)

	err := repo.UpdateStatus(ctx, "p1", []project.Status{project.StatusOpen}, project.StatusQuoteReceived)
	require.ErrorIs(t, err, repository.ErrConflict)

	// The stale write must not have touched the row.
	retrieved, err := repo.Get(ctx, "p1")
	require.NoError(t, err)
	require.Equal(t, project.StatusCancelled, retrieved.Status)
}

func TestProjectRepository_UpdateStatus_NotFound(t *testing.T) {
	db := NewTestDB(t)
	repo := NewProjectRepository(db)

	err := repo.UpdateStatus(context.Background(), "missing",
		[]project.Status{project.StatusOpen}, project.StatusQuoteReceived)
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestProjectRepository_ListByClient(t *testing.T) {
	db := NewTestDB(t)
	repo := NewProjectRepository(db)
	ctx := context.Background()

	seedProject(t, db, "p1", project.StatusQuoteReceived)
	seedQuote(t, db, "q1", "p1", "prov1", quote.StatusPending, 100000)
	seedQuote(t, db, "q2", "p1", "prov2", quote.StatusRejected, 90000)

	summaries, err := repo.ListByClient(ctx, "client1")
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	require.Equal(t, "p1", summaries[0].ID)
	require.Equal(t, 2, summaries[0].QuoteCount)
	require.Equal(t, 1, summaries[0].PendingQuotes)

	summaries, err = repo.ListByClient(ctx, "someone-else")
	require.NoError(t, err)
	require.Empty(t, summaries)
}
