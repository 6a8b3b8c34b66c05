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

	// SQLite allows one writer; a single pooled connection also keeps
	// in-memory databases on one handle.
	db.SetMaxOpenConns(1)

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return &DB{db}, nil
}

// RunMigrations creates the schema.
func (db *DB) RunMigrations() error {
	migration := `
-- Tent memberships: at most two per tent, one per role
CREATE TABLE IF NOT EXISTS memberships (
    user_id TEXT NOT NULL,
    tent_id TEXT NOT NULL,
    role TEXT NOT NULL CHECK(role IN ('client', 'manager')),
    is_admin INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (user_id, tent_id),
    UNIQUE (tent_id, role)
);
CREATE INDEX IF NOT EXISTS idx_tent_members ON memberships(tent_id);

-- Projects
CREATE TABLE IF NOT EXISTS projects (
    id TEXT PRIMARY KEY,
    tent_id TEXT NOT NULL,
    project_number TEXT NOT NULL,
    name TEXT NOT NULL,
    client_name TEXT NOT NULL DEFAULT '',
    client_email TEXT NOT NULL DEFAULT '',
    client_phone TEXT NOT NULL DEFAULT '',
    client_address TEXT NOT NULL DEFAULT '',
    client_tin TEXT NOT NULL DEFAULT '',
    type TEXT NOT NULL DEFAULT '',
    priority TEXT NOT NULL DEFAULT '',
    lifecycle_status TEXT NOT NULL CHECK(lifecycle_status IN
        ('planning', 'in_progress', 'review', 'completed', 'on_hold', 'cancelled')),
    workflow_step INTEGER NOT NULL DEFAULT 1 CHECK(workflow_step BETWEEN 1 AND 5),
    step1_status TEXT NOT NULL DEFAULT 'pending',
    step2_status TEXT NOT NULL DEFAULT 'pending',
    step3_status TEXT NOT NULL DEFAULT 'pending',
    step4_status TEXT NOT NULL DEFAULT 'pending',
    step5_status TEXT NOT NULL DEFAULT 'pending',
    step1_completed_at TIMESTAMP,
    step2_completed_at TIMESTAMP,
    step3_completed_at TIMESTAMP,
    step4_completed_at TIMESTAMP,
    step5_completed_at TIMESTAMP,
    requires_invoice INTEGER NOT NULL DEFAULT 0,
    payment_type TEXT NOT NULL DEFAULT '',
    budget_amount TEXT NOT NULL DEFAULT '0',
    invoice_amount TEXT NOT NULL DEFAULT '0',
    tax_amount TEXT NOT NULL DEFAULT '0',
    withholding_tax_percent TEXT NOT NULL DEFAULT '0',
    withholding_tax_amount TEXT NOT NULL DEFAULT '0',
    total_amount TEXT,
    payment_status TEXT NOT NULL DEFAULT '',
    payment_due_date TIMESTAMP,
    invoice_file_url TEXT NOT NULL DEFAULT '',
    invoice_file_name TEXT NOT NULL DEFAULT '',
    total_tasks INTEGER NOT NULL DEFAULT 0,
    completed_tasks INTEGER NOT NULL DEFAULT 0,
    progress_percentage INTEGER NOT NULL DEFAULT 0,
    created_by TEXT NOT NULL,
    notes TEXT NOT NULL DEFAULT '',
    tags TEXT NOT NULL DEFAULT '[]',
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    UNIQUE (tent_id, project_number)
);
CREATE INDEX IF NOT EXISTS idx_tent_projects ON projects(tent_id);
CREATE INDEX IF NOT EXISTS idx_project_lifecycle ON projects(lifecycle_status);

-- Line items, owned by projects and replaced via reconciliation
CREATE TABLE IF NOT EXISTS project_items (
    id TEXT PRIMARY KEY,
    project_id TEXT NOT NULL,
    description TEXT NOT NULL,
    quantity TEXT NOT NULL DEFAULT '0',
    unit_price TEXT NOT NULL DEFAULT '0',
    amount TEXT NOT NULL DEFAULT '0',
    item_type TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL DEFAULT '',
    position INTEGER NOT NULL DEFAULT 0,
    FOREIGN KEY (project_id) REFERENCES projects(id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_project_items ON project_items(project_id);

-- Tasks, owned by projects and replaced via reconciliation
CREATE TABLE IF NOT EXISTS project_tasks (
    id TEXT PRIMARY KEY,
    project_id TEXT NOT NULL,
    title TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL CHECK(status IN ('todo', 'in_progress', 'done', 'cancelled')),
    priority TEXT NOT NULL DEFAULT '',
    due_date TIMESTAMP,
    estimated_hours REAL NOT NULL DEFAULT 0,
    actual_hours REAL NOT NULL DEFAULT 0,
    assigned_to TEXT NOT NULL DEFAULT '',
    completed_at TIMESTAMP,
    FOREIGN KEY (project_id) REFERENCES projects(id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_project_tasks ON project_tasks(project_id);

-- Invoice approval documents
CREATE TABLE IF NOT EXISTS invoices (
    id TEXT PRIMARY KEY,
    tent_id TEXT NOT NULL,
    project_id TEXT NOT NULL,
    submitted_by TEXT NOT NULL,
    status TEXT NOT NULL CHECK(status IN
        ('draft', 'submitted', 'awaiting_approval', 'approved', 'processing', 'completed', 'rejected')),
    scanned_invoice_url TEXT NOT NULL DEFAULT '',
    prepared_by_name TEXT NOT NULL DEFAULT '',
    prepared_date TIMESTAMP,
    processed_by TEXT,
    processed_at TIMESTAMP,
    approved_by TEXT,
    approved_at TIMESTAMP,
    rejection_reason TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (project_id) REFERENCES projects(id)
);
CREATE INDEX IF NOT EXISTS idx_tent_invoices ON invoices(tent_id);
CREATE INDEX IF NOT EXISTS idx_project_invoices ON invoices(project_id);

-- Activity log, append-only
CREATE TABLE IF NOT EXISTS activity_log (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    tent_id TEXT NOT NULL,
    project_id TEXT NOT NULL,
    invoice_id TEXT,
    actor_id TEXT NOT NULL,
    activity_type TEXT NOT NULL,
    summary TEXT NOT NULL,
    details TEXT,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_tent_activity ON activity_log(tent_id);
CREATE INDEX IF NOT EXISTS idx_project_activity ON activity_log(project_id);
CREATE INDEX IF NOT EXISTS idx_activity_created_at ON activity_log(created_at);

-- Notifications
CREATE TABLE IF NOT EXISTS notifications (
    id TEXT PRIMARY KEY,
    tent_id TEXT NOT NULL,
    recipient_id TEXT NOT NULL,
    actor_id TEXT NOT NULL DEFAULT '',
    project_id TEXT NOT NULL DEFAULT '',
    type TEXT NOT NULL,
    title TEXT NOT NULL,
    body TEXT NOT NULL DEFAULT '',
    read INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_recipient_notifications ON notifications(tent_id, recipient_id);
`

	_, err := db.Exec(migration)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
