package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tentworks/tentflow/internal/domain/activity"
)

// ActivityRepository implements repository.ActivityRepository for SQLite
type ActivityRepository struct {
	db *DB
}

// NewActivityRepository creates a new ActivityRepository
func NewActivityRepository(db *DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// Log inserts a new activity entry
func (r *ActivityRepository) Log(ctx context.Context, tentID string, entry *activity.Entry) error {
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	query := `
		INSERT INTO activity_log (tent_id, project_id, invoice_id, actor_id, activity_type, summary, details, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := r.db.ExecContext(ctx, query,
		tentID, entry.ProjectID, entry.InvoiceID, entry.ActorID,
		entry.ActivityType, entry.Summary, nullString(entry.Details), createdAt,
	)
	if err != nil {
		return fmt.Errorf("failed to log activity: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get activity id: %w", err)
	}
	entry.ID = id
	entry.TentID = tentID
	entry.CreatedAt = createdAt
	return nil
}

// List retrieves activity entries for a tent, newest first.
func (r *ActivityRepository) List(ctx context.Context, tentID string, opts activity.ListOptions) ([]activity.Entry, error) {
	query := `
		SELECT id, tent_id, project_id, invoice_id, actor_id, activity_type, summary, details, created_at
		FROM activity_log
		WHERE tent_id = ?
	`
	args := []interface{}{tentID}

	if opts.ProjectID != "" {
		query += " AND project_id = ?"
		args = append(args, opts.ProjectID)
	}
	if opts.InvoiceID != nil {
		query += " AND invoice_id = ?"
		args = append(args, *opts.InvoiceID)
	}
	if opts.ActorID != "" {
		query += " AND actor_id = ?"
		args = append(args, opts.ActorID)
	}
	if opts.ActivityType != nil {
		query += " AND activity_type = ?"
		args = append(args, *opts.ActivityType)
	}

	query += " ORDER BY created_at DESC, id DESC"
	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}
	if opts.Offset > 0 {
		query += " OFFSET ?"
		args = append(args, opts.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity: %w", err)
	}
	defer rows.Close()

	var entries []activity.Entry
	for rows.Next() {
		var entry activity.Entry
		var invoiceID, details sql.NullString
		if err := rows.Scan(
			&entry.ID, &entry.TentID, &entry.ProjectID, &invoiceID, &entry.ActorID,
			&entry.ActivityType, &entry.Summary, &details, &entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan activity entry: %w", err)
		}
		if invoiceID.Valid {
			v := invoiceID.String
			entry.InvoiceID = &v
		}
		entry.Details = details.String
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activity rows: %w", err)
	}
	return entries, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
