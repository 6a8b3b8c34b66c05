package sqlite

import (
	"context"
	"fmt"

	"github.com/tentworks/tentflow/internal/domain/notify"
	"github.com/tentworks/tentflow/internal/repository"
)

// NotificationRepository implements repository.NotificationRepository for SQLite
type NotificationRepository struct {
	db *DB
}

// NewNotificationRepository creates a new NotificationRepository
func NewNotificationRepository(db *DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create inserts a notification record
func (r *NotificationRepository) Create(ctx context.Context, tentID string, n *notify.Notification) error {
	query := `
		INSERT INTO notifications (id, tent_id, recipient_id, actor_id, project_id, type, title, body, read, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		n.ID, tentID, n.RecipientID, n.ActorID, n.ProjectID,
		n.Type, n.Title, n.Body, n.Read, n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

// List retrieves notifications for a tent, newest first.
func (r *NotificationRepository) List(ctx context.Context, tentID string, opts notify.ListOptions) ([]notify.Notification, error) {
	query := `
		SELECT id, tent_id, recipient_id, actor_id, project_id, type, title, body, read, created_at
		FROM notifications
		WHERE tent_id = ?
	`
	args := []interface{}{tentID}

	if opts.RecipientID != "" {
		query += " AND recipient_id = ?"
		args = append(args, opts.RecipientID)
	}
	if opts.UnreadOnly {
		query += " AND read = 0"
	}

	query += " ORDER BY created_at DESC"
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
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []notify.Notification
	for rows.Next() {
		var n notify.Notification
		if err := rows.Scan(
			&n.ID, &n.TentID, &n.RecipientID, &n.ActorID, &n.ProjectID,
			&n.Type, &n.Title, &n.Body, &n.Read, &n.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notification rows: %w", err)
	}
	return notifications, nil
}

// MarkRead flags a single notification as read
func (r *NotificationRepository) MarkRead(ctx context.Context, tentID, id string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET read = 1 WHERE tent_id = ? AND id = ?`, tentID, id)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return repository.ErrNotFound
	}
	return nil
}
