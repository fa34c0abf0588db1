package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hirehall/dealflow/internal/domain/revision"
	"github.com/hirehall/dealflow/internal/repository"
)

// RevisionRepository implements coordinator.RevisionRepository for SQLite
type RevisionRepository struct {
	db *DB
}

// NewRevisionRepository creates a new RevisionRepository
func NewRevisionRepository(db *DB) *RevisionRepository {
	return &RevisionRepository{db: db}
}

const revisionColumns = `id, quote_id, project_id, requested_by, suggested_price,
	additional_fees, client_comments, status, modified_quote_id, created_at, responded_at`

// Create creates a new revision
func (r *RevisionRepository) Create(ctx context.Context, rev *revision.Revision) error {
	query := `
		INSERT INTO revisions (` + revisionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		rev.ID,
		rev.QuoteID,
		rev.ProjectID,
		rev.RequestedBy,
		rev.SuggestedPrice,
		rev.AdditionalFees,
		rev.ClientComments,
		rev.Status,
		rev.ModifiedQuoteID,
		rev.CreatedAt,
		rev.RespondedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		if isForeignKeyViolation(err) {
			return repository.ErrForeignKeyViolation
		}
		return fmt.Errorf("failed to create revision: %w", err)
	}

	return nil
}

// Get retrieves a revision by ID
func (r *RevisionRepository) Get(ctx context.Context, id string) (*revision.Revision, error) {
	query := `SELECT ` + revisionColumns + ` FROM revisions WHERE id = ?`

	var rev revision.Revision
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&rev.ID,
		&rev.QuoteID,
		&rev.ProjectID,
		&rev.RequestedBy,
		&rev.SuggestedPrice,
		&rev.AdditionalFees,
		&rev.ClientComments,
		&rev.Status,
		&rev.ModifiedQuoteID,
		&rev.CreatedAt,
		&rev.RespondedAt,
	)

	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get revision: %w", err)
	}

	return &rev, nil
}

// ListByQuote returns all revisions against a quote, oldest first
func (r *RevisionRepository) ListByQuote(ctx context.Context, quoteID string) ([]revision.Revision, error) {
	query := `SELECT ` + revisionColumns + ` FROM revisions WHERE quote_id = ? ORDER BY created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, quoteID)
	if err != nil {
		return nil, fmt.Errorf("failed to list revisions: %w", err)
	}
	defer rows.Close()

	var revisions []revision.Revision
	for rows.Next() {
		var rev revision.Revision
		err := rows.Scan(
			&rev.ID,
			&rev.QuoteID,
			&rev.ProjectID,
			&rev.RequestedBy,
			&rev.SuggestedPrice,
			&rev.AdditionalFees,
			&rev.ClientComments,
			&rev.Status,
			&rev.ModifiedQuoteID,
			&rev.CreatedAt,
			&rev.RespondedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan revision: %w", err)
		}
		revisions = append(revisions, rev)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating revision rows: %w", err)
	}

	return revisions, nil
}

// HasPending reports whether the quote has an unresolved revision
func (r *RevisionRepository) HasPending(ctx context.Context, quoteID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM revisions WHERE quote_id = ? AND status = 'pending')`,
		quoteID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check pending revisions: %w", err)
	}
	return exists, nil
}

// Resolve moves a pending revision to a terminal status. The pending check
// is part of the write, making it the one-shot guard: a second resolution
// attempt affects zero rows and reports ErrConflict. Counter-offers resolve
// through QuoteRepository.ReplaceAccepted, which shares this write inside its
// transaction.
func (r *RevisionRepository) Resolve(ctx context.Context, id string, to revision.Status, respondedAt time.Time) error {
	return resolveRevision(ctx, r.db.DB, id, to, nil, respondedAt)
}

// resolveRevision applies the expected-pending resolution write, optionally
// linking the quote that replaced the original offer.
func resolveRevision(ctx context.Context, db execer, id string, to revision.Status, modifiedQuoteID *string, respondedAt time.Time) error {
	query := `
		UPDATE revisions
		SET status = ?, modified_quote_id = ?, responded_at = ?
		WHERE id = ? AND status = 'pending'
	`

	result, err := db.ExecContext(ctx, query, to, modifiedQuoteID, respondedAt, id)
	if err != nil {
		return fmt.Errorf("failed to resolve revision: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		var exists bool
		err = db.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM revisions WHERE id = ?)`, id).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to check revision existence: %w", err)
		}
		if !exists {
			return repository.ErrNotFound
		}
		return repository.ErrConflict
	}

	return nil
}
