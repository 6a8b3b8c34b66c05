package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tentworks/tentflow/internal/domain/membership"
	"github.com/tentworks/tentflow/internal/repository"
)

// MembershipRepository implements repository.MembershipRepository for SQLite
type MembershipRepository struct {
	db *DB
}

// NewMembershipRepository creates a new MembershipRepository
func NewMembershipRepository(db *DB) *MembershipRepository {
	return &MembershipRepository{db: db}
}

// Create inserts a membership. The unique (tent_id, role) constraint enforces
// one member per role; duplicate users trip the primary key.
func (m *MembershipRepository) Create(ctx context.Context, mem *membership.Membership) error {
	if mem.CreatedAt.IsZero() {
		mem.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO memberships (user_id, tent_id, role, is_admin, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err := m.db.ExecContext(ctx, query, mem.UserID, mem.TentID, mem.Role, mem.IsAdmin, mem.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrConflict
		}
		return fmt.Errorf("failed to create membership: %w", err)
	}
	return nil
}

// Get retrieves one user's membership in a tent
func (m *MembershipRepository) Get(ctx context.Context, userID, tentID string) (*membership.Membership, error) {
	query := `
		SELECT user_id, tent_id, role, is_admin, created_at
		FROM memberships
		WHERE user_id = ? AND tent_id = ?
	`
	var mem membership.Membership
	err := m.db.QueryRowContext(ctx, query, userID, tentID).Scan(
		&mem.UserID, &mem.TentID, &mem.Role, &mem.IsAdmin, &mem.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}
	return &mem, nil
}

// List returns all memberships of a tent (at most two).
func (m *MembershipRepository) List(ctx context.Context, tentID string) ([]membership.Membership, error) {
	query := `
		SELECT user_id, tent_id, role, is_admin, created_at
		FROM memberships
		WHERE tent_id = ?
		ORDER BY created_at ASC
	`
	rows, err := m.db.QueryContext(ctx, query, tentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list memberships: %w", err)
	}
	defer rows.Close()

	var members []membership.Membership
	for rows.Next() {
		var mem membership.Membership
		if err := rows.Scan(&mem.UserID, &mem.TentID, &mem.Role, &mem.IsAdmin, &mem.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan membership: %w", err)
		}
		members = append(members, mem)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating membership rows: %w", err)
	}
	return members, nil
}
