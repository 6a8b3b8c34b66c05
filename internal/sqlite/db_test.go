package sqlite

import (
	"context"
	"testing"

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

// TestMigrations verifies that migrations run successfully
func TestMigrations(t *testing.T) {
	db := NewTestDB(t)

	// Verify all tables were created
	tables := []string{
		"memberships",
		"projects",
		"project_items",
		"project_tasks",
		"invoices",
		"activity_log",
		"notifications",
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

// TestMembershipsTable verifies the one-member-per-role constraint
func TestMembershipsTable(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()

	_, err := db.ExecContext(ctx,
		`INSERT INTO memberships (user_id, tent_id, role) VALUES (?, ?, ?)`,
		"u1", "tent1", "client")
	require.NoError(t, err)

	// Second client in the same tent violates the (tent_id, role) constraint
	_, err = db.ExecContext(ctx,
		`INSERT INTO memberships (user_id, tent_id, role) VALUES (?, ?, ?)`,
		"u2", "tent1", "client")
	require.Error(t, err, "should fail with duplicate role in tent")

	// A manager is fine
	_, err = db.ExecContext(ctx,
		`INSERT INTO memberships (user_id, tent_id, role) VALUES (?, ?, ?)`,
		"u2", "tent1", "manager")
	require.NoError(t, err)

	// Unknown roles are rejected
	_, err = db.ExecContext(ctx,
		`INSERT INTO memberships (user_id, tent_id, role) VALUES (?, ?, ?)`,
		"u3", "tent2", "auditor")
	require.Error(t, err, "should fail with invalid role")
}

// TestProjectsTable verifies the projects table constraints
func TestProjectsTable(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()

	_, err := db.ExecContext(ctx,
		`INSERT INTO projects (id, tent_id, project_number, name, lifecycle_status, created_by)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		"p1", "tent1", "P-202608-001", "Test Project", "planning", "u1")
	require.NoError(t, err)

	// Duplicate project number within the tent is rejected
	_, err = db.ExecContext(ctx,
		`INSERT INTO projects (id, tent_id, project_number, name, lifecycle_status, created_by)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		"p2", "tent1", "P-202608-001", "Other Project", "planning", "u1")
	require.Error(t, err, "should fail with duplicate project number")

	// Workflow step outside 1..5 is rejected
	_, err = db.ExecContext(ctx,
		`INSERT INTO projects (id, tent_id, project_number, name, lifecycle_status, workflow_step, created_by)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		"p3", "tent1", "P-202608-002", "Bad Step", "planning", 6, "u1")
	require.Error(t, err, "should fail with invalid workflow step")

	// Unknown lifecycle status is rejected
	_, err = db.ExecContext(ctx,
		`INSERT INTO projects (id, tent_id, project_number, name, lifecycle_status, created_by)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		"p4", "tent1", "P-202608-003", "Bad Status", "archived", "u1")
	require.Error(t, err, "should fail with invalid lifecycle status")
}

// TestOwnedCollectionsCascade verifies items and tasks follow their project
func TestOwnedCollectionsCascade(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()

	_, err := db.ExecContext(ctx,
		`INSERT INTO projects (id, tent_id, project_number, name, lifecycle_status, created_by)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		"p1", "tent1", "P-202608-001", "Test Project", "planning", "u1")
	require.NoError(t, err)

	_, err = db.ExecContext(ctx,
		`INSERT INTO project_items (id, project_id, description) VALUES (?, ?, ?)`,
		"i1", "p1", "Design work")
	require.NoError(t, err)

	_, err = db.ExecContext(ctx,
		`INSERT INTO project_tasks (id, project_id, title, status) VALUES (?, ?, ?, ?)`,
		"t1", "p1", "Draft mockups", "todo")
	require.NoError(t, err)

	// Orphan item fails the foreign key
	_, err = db.ExecContext(ctx,
		`INSERT INTO project_items (id, project_id, description) VALUES (?, ?, ?)`,
		"i2", "missing", "Orphan")
	require.Error(t, err, "should fail with invalid project_id")

	// Deleting the project cascades
	_, err = db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, "p1")
	require.NoError(t, err)

	var count int
	err = db.QueryRowContext(ctx, `SELECT COUNT(*) FROM project_items WHERE project_id = ?`, "p1").Scan(&count)
	require.NoError(t, err)
	require.Equal(t, 0, count)

	err = db.QueryRowContext(ctx, `SELECT COUNT(*) FROM project_tasks WHERE project_id = ?`, "p1").Scan(&count)
	require.NoError(t, err)
	require.Equal(t, 0, count)
}

// TestInvoicesTable verifies the invoice status constraint
func TestInvoicesTable(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()

	_, err := db.ExecContext(ctx,
		`INSERT INTO projects (id, tent_id, project_number, name, lifecycle_status, created_by)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		"p1", "tent1", "P-202608-001", "Test Project", "planning", "u1")
	require.NoError(t, err)

	_, err = db.ExecContext(ctx,
		`INSERT INTO invoices (id, tent_id, project_id, submitted_by, status)
		 VALUES (?, ?, ?, ?, ?)`,
		"inv1", "tent1", "p1", "u2", "draft")
	require.NoError(t, err)

	_, err = db.ExecContext(ctx,
		`INSERT INTO invoices (id, tent_id, project_id, submitted_by, status)
		 VALUES (?, ?, ?, ?, ?)`,
		"inv2", "tent1", "p1", "u2", "pending")
	require.Error(t, err, "should fail with invalid status")
}
