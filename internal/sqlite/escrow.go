package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/hirehall/dealflow/internal/domain/escrow"
	"github.com/hirehall/dealflow/internal/repository"
)

// EscrowRepository implements coordinator.EscrowRepository for SQLite
type EscrowRepository struct {
	db *DB
}

// NewEscrowRepository creates a new EscrowRepository
func NewEscrowRepository(db *DB) *EscrowRepository {
	return &EscrowRepository{db: db}
}

// Create creates the project's escrow. The project_id UNIQUE constraint
// makes a concurrent double-create report ErrDuplicate.
func (r *EscrowRepository) Create(ctx context.Context, esc *escrow.Escrow) error {
	query := `
		INSERT INTO escrows (id, project_id, total_amount, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		esc.ID, esc.ProjectID, esc.TotalAmount, esc.Status, esc.CreatedAt, esc.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		if isForeignKeyViolation(err) {
			return repository.ErrForeignKeyViolation
		}
		return fmt.Errorf("failed to create escrow: %w", err)
	}

	return nil
}

// GetByProject retrieves a project's escrow
func (r *EscrowRepository) GetByProject(ctx context.Context, projectID string) (*escrow.Escrow, error) {
	query := `
		SELECT id, project_id, total_amount, status, created_at, updated_at
		FROM escrows
		WHERE project_id = ?
	`

	var esc escrow.Escrow
	err := r.db.QueryRowContext(ctx, query, projectID).Scan(
		&esc.ID,
		&esc.ProjectID,
		&esc.TotalAmount,
		&esc.Status,
		&esc.CreatedAt,
		&esc.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get escrow: %w", err)
	}

	return &esc, nil
}

// UpdateAmount resynchronizes the amount while the escrow is still pending
// or held. Once released or disputed the statement matches zero rows and
// ErrConflict is reported instead of touching the settled figure.
func (r *EscrowRepository) UpdateAmount(ctx context.Context, projectID string, amount int64) error {
	query := `
		UPDATE escrows
		SET total_amount = ?, updated_at = ?
		WHERE project_id = ? AND status IN ('pending', 'held')
	`

	result, err := r.db.ExecContext(ctx, query, amount, time.Now(), projectID)
	if err != nil {
		return fmt.Errorf("failed to update escrow amount: %w", err)
	}

	return r.checkAffected(ctx, result, projectID)
}

// UpdateStatus moves the escrow to the target status only while its current
// status is one of from; otherwise ErrConflict.
func (r *EscrowRepository) UpdateStatus(ctx context.Context, projectID string, from []escrow.Status, to escrow.Status) error {
	placeholders := make([]string, len(from))
	args := []any{to, time.Now(), projectID}
	for i, s := range from {
		placeholders[i] = "?"
		args = append(args, s)
	}

	query := fmt.Sprintf(`
		UPDATE escrows
		SET status = ?, updated_at = ?
		WHERE project_id = ? AND status IN (%s)
	`, strings.Join(placeholders, ","))

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update escrow status: %w", err)
	}

	return r.checkAffected(ctx, result, projectID)
}

func (r *EscrowRepository) checkAffected(ctx context.Context, result sql.Result, projectID string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		var exists bool
		err = r.db.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM escrows WHERE project_id = ?)`, projectID).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to check escrow existence: %w", err)
		}
		if !exists {
			return repository.ErrNotFound
		}
		return repository.ErrConflict
	}

	return nil
}
