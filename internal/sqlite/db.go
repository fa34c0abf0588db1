package sqlite

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database connection
type DB struct {
	*sql.DB
}

// New creates a new SQLite database connection
func New(dataSourceName string) (*DB, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return &DB{db}, nil
}

// RunMigrations applies the schema. Safe to call once on a fresh database.
func (db *DB) RunMigrations() error {
	migration := `
-- Projects table
CREATE TABLE projects (
    id TEXT PRIMARY KEY,
    client_id TEXT NOT NULL,
    category_id TEXT NOT NULL,
    title TEXT NOT NULL,
    status TEXT NOT NULL CHECK(status IN (
        'open', 'quote_received', 'quote_accepted', 'payment_pending',
        'in_progress', 'completion_requested', 'completed',
        'cancelled', 'expired', 'abandoned'
    )),
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX idx_client_projects ON projects(client_id);
CREATE INDEX idx_project_status ON projects(status);

-- Quotes table
CREATE TABLE quotes (
    id TEXT PRIMARY KEY,
    project_id TEXT NOT NULL,
    provider_id TEXT NOT NULL,
    amount INTEGER NOT NULL CHECK(amount >= 0),
    note TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL CHECK(status IN ('pending', 'viewed', 'accepted', 'rejected', 'expired')),
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (project_id) REFERENCES projects(id)
);
CREATE INDEX idx_project_quotes ON quotes(project_id);
CREATE INDEX idx_provider_quotes ON quotes(provider_id);
CREATE INDEX idx_quote_status ON quotes(status);
-- At most one accepted quote per project
CREATE UNIQUE INDEX idx_one_accepted_quote ON quotes(project_id) WHERE status = 'accepted';

-- Revisions table
CREATE TABLE revisions (
    id TEXT PRIMARY KEY,
    quote_id TEXT NOT NULL,
    project_id TEXT NOT NULL,
    requested_by TEXT NOT NULL,
    suggested_price INTEGER,
    additional_fees INTEGER,
    client_comments TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL CHECK(status IN ('pending', 'accepted', 'rejected', 'modified')),
    modified_quote_id TEXT,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    responded_at TIMESTAMP,
    FOREIGN KEY (quote_id) REFERENCES quotes(id),
    FOREIGN KEY (project_id) REFERENCES projects(id),
    FOREIGN KEY (modified_quote_id) REFERENCES quotes(id)
);
CREATE INDEX idx_quote_revisions ON revisions(quote_id);
CREATE INDEX idx_project_revisions ON revisions(project_id);
-- At most one pending revision per quote
CREATE UNIQUE INDEX idx_one_pending_revision ON revisions(quote_id) WHERE status = 'pending';

-- Escrows table (one per project)
CREATE TABLE escrows (
    id TEXT PRIMARY KEY,
    project_id TEXT NOT NULL UNIQUE,
    total_amount INTEGER NOT NULL CHECK(total_amount >= 0),
    status TEXT NOT NULL CHECK(status IN ('pending', 'held', 'released', 'disputed')),
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (project_id) REFERENCES projects(id)
);

-- Notifications outbox
CREATE TABLE notifications (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    kind TEXT NOT NULL,
    project_id TEXT NOT NULL,
    quote_id TEXT,
    revision_id TEXT,
    actor_role TEXT NOT NULL,
    outcome TEXT NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX idx_project_notifications ON notifications(project_id);
CREATE INDEX idx_notification_created_at ON notifications(created_at);

-- API keys for actor authentication
CREATE TABLE api_keys (
    key_hash TEXT PRIMARY KEY,
    actor_id TEXT NOT NULL,
    actor_role TEXT NOT NULL CHECK(actor_role IN ('client', 'provider', 'system')),
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    last_used TIMESTAMP,
    description TEXT
);
CREATE INDEX idx_actor_keys ON api_keys(actor_id);
`

	_, err := db.Exec(migration)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
