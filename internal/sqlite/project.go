package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/hirehall/dealflow/internal/domain/project"
	"github.com/hirehall/dealflow/internal/repository"
)

// ProjectRepository implements coordinator.ProjectRepository for SQLite
type ProjectRepository struct {
	db *DB
}

// NewProjectRepository creates a new ProjectRepository
func NewProjectRepository(db *DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// Create creates a new project
func (r *ProjectRepository) Create(ctx context.Context, proj *project.Project) error {
	query := `
		INSERT INTO projects (id, client_id, category_id, title, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		proj.ID,
		proj.ClientID,
		proj.CategoryID,
		proj.Title,
		proj.Status,
		proj.CreatedAt,
		proj.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("failed to create project: %w", err)
	}

	return nil
}

// Get retrieves a project by ID
func (r *ProjectRepository) Get(ctx context.Context, id string) (*project.Project, error) {
	query := `
		SELECT id, client_id, category_id, title, status, created_at, updated_at
		FROM projects
		WHERE id = ?
	`

	var proj project.Project
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&proj.ID,
		&proj.ClientID,
		&proj.CategoryID,
		&proj.Title,
		&proj.Status,
		&proj.CreatedAt,
		&proj.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	return &proj, nil
}

// ListByClient returns project summaries for a client with quote counts
func (r *ProjectRepository) ListByClient(ctx context.Context, clientID string) ([]project.Summary, error) {
	query := `
		SELECT
			p.id, p.title, p.status,
			COUNT(q.id) as quote_count,
			COUNT(CASE WHEN q.status IN ('pending', 'viewed') THEN q.id END) as pending_quotes,
			p.created_at
		FROM projects p
		LEFT JOIN quotes q ON q.project_id = p.id
		WHERE p.client_id = ?
		GROUP BY p.id, p.title, p.status, p.created_at
		ORDER BY p.created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var summaries []project.Summary
	for rows.Next() {
		var s project.Summary
		err := rows.Scan(&s.ID, &s.Title, &s.Status, &s.QuoteCount, &s.PendingQuotes, &s.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project summary: %w", err)
		}
		summaries = append(summaries, s)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating project rows: %w", err)
	}

	return summaries, nil
}

// UpdateStatus moves the project to the target status only while its current
// status is one of from. The expected-status re-check and the write share one
// statement, so a concurrent transition makes this fail with ErrConflict
// instead of silently overwriting.
func (r *ProjectRepository) UpdateStatus(ctx context.Context, id string, from []project.Status, to project.Status) error {
	placeholders := make([]string, len(from))
	args := []any{to, time.Now(), id}
	for i, s := range from {
		placeholders[i] = "?"
		args = append(args, s)
	}

	query := fmt.Sprintf(`
		UPDATE projects
		SET status = ?, updated_at = ?
		WHERE id = ? AND status IN (%s)
	`, strings.Join(placeholders, ","))

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update project status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		var exists bool
		err = r.db.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM projects WHERE id = ?)`, id).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to check project existence: %w", err)
		}
		if !exists {
			return repository.ErrNotFound
		}
		return repository.ErrConflict
	}

	return nil
}
