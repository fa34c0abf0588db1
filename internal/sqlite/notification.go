package sqlite

import (
	"context"
	"fmt"

	"github.com/hirehall/dealflow/internal/notify"
)

// NotificationRepository implements notify.Repository for SQLite
type NotificationRepository struct {
	db *DB
}

// NewNotificationRepository creates a new NotificationRepository
func NewNotificationRepository(db *DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Log appends a notification to the outbox
func (r *NotificationRepository) Log(ctx context.Context, n *notify.Notification) error {
	query := `
		INSERT INTO notifications (kind, project_id, quote_id, revision_id, actor_role, outcome)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		n.Kind, n.ProjectID, n.QuoteID, n.RevisionID, n.ActorRole, n.Outcome)
	if err != nil {
		return fmt.Errorf("failed to log notification: %w", err)
	}

	if id, err := result.LastInsertId(); err == nil {
		n.ID = id
	}

	return nil
}

// ListByProject returns the most recent notifications for a project
func (r *NotificationRepository) ListByProject(ctx context.Context, projectID string, limit int) ([]notify.Notification, error) {
	query := `
		SELECT id, kind, project_id, quote_id, revision_id, actor_role, outcome, created_at
		FROM notifications
		WHERE project_id = ?
		ORDER BY id DESC
	`
	args := []any{projectID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []notify.Notification
	for rows.Next() {
		var n notify.Notification
		err := rows.Scan(&n.ID, &n.Kind, &n.ProjectID, &n.QuoteID, &n.RevisionID, &n.ActorRole, &n.Outcome, &n.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notification rows: %w", err)
	}

	return notifications, nil
}
