package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/hirehall/dealflow/internal/domain/escrow"
	"github.com/hirehall/dealflow/internal/domain/project"
	"github.com/hirehall/dealflow/internal/domain/quote"
	"github.com/stretchr/testify/require"
)

// NewTestDB creates a new in-memory SQLite database for testing
func NewTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := New(":memory:")
	require.NoError(t, err, "failed to create test database")

	err = db.RunMigrations()
	require.NoError(t, err, "failed to run migrations")

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// seedProject inserts a project row directly for repository tests.
func seedProject(t *testing.T, db *DB, id string, status project.Status) {
	t.Helper()
	repo := NewProjectRepository(db)
	err := repo.Create(context.Background(), &project.Project{
		ID:         id,
		ClientID:   "client1",
		CategoryID: "plumbing",
		Title:      "Fix kitchen sink",
		Status:     status,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	})
	require.NoError(t, err)
}

// seedQuote inserts a quote row directly for repository tests.
func seedQuote(t *testing.T, db *DB, id, projectID, providerID string, status quote.Status, amount int64) {
	t.Helper()
	repo := NewQuoteRepository(db)
	err := repo.Create(context.Background(), &quote.Quote{
		ID:         id,
		ProjectID:  projectID,
		ProviderID: providerID,
		Amount:     amount,
		Status:     status,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	})
	require.NoError(t, err)
}

// seedEscrow inserts an escrow row directly for repository tests.
func seedEscrow(t *testing.T, db *DB, id, projectID string, status escrow.Status, amount int64) {
	t.Helper()
	repo := NewEscrowRepository(db)
	err := repo.Create(context.Background(), &escrow.Escrow{
		ID:          id,
		ProjectID:   projectID,
		TotalAmount: amount,
		Status:      status,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	})
	require.NoError(t, err)
}

// TestMigrations verifies that migrations run successfully
func TestMigrations(t *testing.T) {
	db := NewTestDB(t)

	tables := []string{
		"projects",
		"quotes",
		"revisions",
		"escrows",
		"notifications",
		"api_keys",
	}

	for _, table := range tables {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&count)
		require.NoError(t, err, "failed to query table %s", table)
		require.Equal(t, 1, count, "table %s not found", table)
	}
}

// TestForeignKeys verifies that foreign key constraints are enabled
func TestForeignKeys(t *testing.T) {
	db := NewTestDB(t)

	var enabled int
	err := db.QueryRow("PRAGMA foreign_keys").Scan(&enabled)
	require.NoError(t, err)
	require.Equal(t, 1, enabled, "foreign keys not enabled")
}
