package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/hirehall/dealflow/internal/domain/quote"
	"github.com/hirehall/dealflow/internal/domain/revision"
	"github.com/hirehall/dealflow/internal/repository"
)

// QuoteRepository implements coordinator.QuoteRepository for SQLite
type QuoteRepository struct {
	db *DB
}

// NewQuoteRepository creates a new QuoteRepository
func NewQuoteRepository(db *DB) *QuoteRepository {
	return &QuoteRepository{db: db}
}

const quoteColumns = `id, project_id, provider_id, amount, note, status, created_at, updated_at`

// Create creates a new quote
func (r *QuoteRepository) Create(ctx context.Context, q *quote.Quote) error {
	query := `
		INSERT INTO quotes (` + quoteColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		q.ID, q.ProjectID, q.ProviderID, q.Amount, q.Note, q.Status, q.CreatedAt, q.UpdatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return repository.ErrForeignKeyViolation
		}
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("failed to create quote: %w", err)
	}

	return nil
}

// Get retrieves a quote by ID
func (r *QuoteRepository) Get(ctx context.Context, id string) (*quote.Quote, error) {
	query := `SELECT ` + quoteColumns + ` FROM quotes WHERE id = ?`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

// GetAccepted returns the project's accepted quote, if any
func (r *QuoteRepository) GetAccepted(ctx context.Context, projectID string) (*quote.Quote, error) {
	query := `SELECT ` + quoteColumns + ` FROM quotes WHERE project_id = ? AND status = 'accepted'`
	return r.scanOne(r.db.QueryRowContext(ctx, query, projectID))
}

func (r *QuoteRepository) scanOne(row *sql.Row) (*quote.Quote, error) {
	var q quote.Quote
	err := row.Scan(&q.ID, &q.ProjectID, &q.ProviderID, &q.Amount, &q.Note, &q.Status, &q.CreatedAt, &q.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get quote: %w", err)
	}
	return &q, nil
}

// ListByProject returns all quotes on a project, newest first
func (r *QuoteRepository) ListByProject(ctx context.Context, projectID string) ([]quote.Quote, error) {
	query := `SELECT ` + quoteColumns + ` FROM quotes WHERE project_id = ? ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list quotes: %w", err)
	}
	defer rows.Close()

	var quotes []quote.Quote
	for rows.Next() {
		var q quote.Quote
		err := rows.Scan(&q.ID, &q.ProjectID, &q.ProviderID, &q.Amount, &q.Note, &q.Status, &q.CreatedAt, &q.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan quote: %w", err)
		}
		quotes = append(quotes, q)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating quote rows: %w", err)
	}

	return quotes, nil
}

// UpdateStatus moves the quote to the target status only while its current
// status is one of from; otherwise ErrConflict.
func (r *QuoteRepository) UpdateStatus(ctx context.Context, id string, from []quote.Status, to quote.Status) error {
	return updateQuoteStatus(ctx, r.db.DB, id, from, to, nil)
}

// AcceptWithCascade accepts the quote and rejects every other live quote on
// the project in one transaction. The precondition re-check is part of the
// accept statement itself, so a racing second acceptance fails with
// ErrConflict rather than leaving two quotes accepted.
func (r *QuoteRepository) AcceptWithCascade(ctx context.Context, projectID, quoteID string, from []quote.Status, amount *int64) ([]string, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	rejected, err := cascadeRejectOthers(ctx, tx, projectID, quoteID)
	if err != nil {
		return nil, err
	}

	if err := updateQuoteStatus(ctx, tx, quoteID, from, quote.StatusAccepted, amount); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit acceptance: %w", err)
	}

	return rejected, nil
}

// ReplaceAccepted inserts newQuote as accepted, demotes the prior quote to
// viewed, rejects every other live quote and resolves the pending revision as
// modified, all in one transaction. The quote insert runs before the revision
// write so the modified_quote_id reference exists; a revision that is no
// longer pending rolls the whole replacement back with ErrConflict.
func (r *QuoteRepository) ReplaceAccepted(ctx context.Context, projectID, priorQuoteID string, from []quote.Status, newQuote *quote.Quote, revisionID string, respondedAt time.Time) ([]string, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	rejected, err := cascadeRejectOthers(ctx, tx, projectID, priorQuoteID)
	if err != nil {
		return nil, err
	}

	if err := updateQuoteStatus(ctx, tx, priorQuoteID, from, quote.StatusViewed, nil); err != nil {
		return nil, err
	}

	query := `
		INSERT INTO quotes (` + quoteColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = tx.ExecContext(ctx, query,
		newQuote.ID, newQuote.ProjectID, newQuote.ProviderID, newQuote.Amount,
		newQuote.Note, newQuote.Status, newQuote.CreatedAt, newQuote.UpdatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, repository.ErrForeignKeyViolation
		}
		return nil, fmt.Errorf("failed to insert replacement quote: %w", err)
	}

	if err := resolveRevision(ctx, tx, revisionID, revision.StatusModified, &newQuote.ID, respondedAt); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit replacement: %w", err)
	}

	return rejected, nil
}

// ExpireLiveByProvider expires the provider's live quotes on the project
func (r *QuoteRepository) ExpireLiveByProvider(ctx context.Context, projectID, providerID string) (int, error) {
	query := `
		UPDATE quotes
		SET status = 'expired', updated_at = ?
		WHERE project_id = ? AND provider_id = ? AND status IN ('pending', 'viewed')
	`

	result, err := r.db.ExecContext(ctx, query, time.Now(), projectID, providerID)
	if err != nil {
		return 0, fmt.Errorf("failed to expire quotes: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return int(rowsAffected), nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// updateQuoteStatus applies an expected-status write, optionally overwriting
// the amount in the same statement.
func updateQuoteStatus(ctx context.Context, db execer, id string, from []quote.Status, to quote.Status, amount *int64) error {
	set := "status = ?, updated_at = ?"
	args := []any{to, time.Now()}
	if amount != nil {
		set += ", amount = ?"
		args = append(args, *amount)
	}

	placeholders := make([]string, len(from))
	args = append(args, id)
	for i, s := range from {
		placeholders[i] = "?"
		args = append(args, s)
	}

	query := fmt.Sprintf(`UPDATE quotes SET %s WHERE id = ? AND status IN (%s)`,
		set, strings.Join(placeholders, ","))

	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update quote status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		var exists bool
		err = db.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM quotes WHERE id = ?)`, id).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to check quote existence: %w", err)
		}
		if !exists {
			return repository.ErrNotFound
		}
		return repository.ErrConflict
	}

	return nil
}

// cascadeRejectOthers rejects every live quote on the project except keepID,
// returning the rejected IDs.
func cascadeRejectOthers(ctx context.Context, tx *sql.Tx, projectID, keepID string) ([]string, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT id FROM quotes
		WHERE project_id = ? AND id != ? AND status IN ('pending', 'viewed')
	`, projectID, keepID)
	if err != nil {
		return nil, fmt.Errorf("failed to find competing quotes: %w", err)
	}
	defer rows.Close()

	var rejected []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan competing quote: %w", err)
		}
		rejected = append(rejected, id)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating competing quotes: %w", err)
	}

	if len(rejected) == 0 {
		return nil, nil
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE quotes
		SET status = 'rejected', updated_at = ?
		WHERE project_id = ? AND id != ? AND status IN ('pending', 'viewed')
	`, time.Now(), projectID, keepID)
	if err != nil {
		return nil, fmt.Errorf("failed to cascade-reject quotes: %w", err)
	}

	return rejected, nil
}
