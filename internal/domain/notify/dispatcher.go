package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Dispatcher inserts notification records for tent members. Callers treat
// dispatch as best-effort: a failed insert is logged and must never abort
// the business operation that triggered it.
type Dispatcher struct {
	repo   Repository
	logger *slog.Logger
}

// NewDispatcher creates a new notification dispatcher.
func NewDispatcher(repo Repository, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{repo: repo, logger: logger}
}

// Dispatch stores a notification. The id and timestamp are assigned here.
func (d *Dispatcher) Dispatch(ctx context.Context, tentID string, n *Notification) error {
	if n == nil || n.RecipientID == "" {
		return nil // nothing to deliver
	}
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	n.TentID = tentID

	if err := d.repo.Create(ctx, tentID, n); err != nil {
		if d.logger != nil {
			d.logger.Warn("notification dispatch failed",
				"tent_id", tentID, "type", n.Type, "error", err)
		}
		return fmt.Errorf("dispatching notification: %w", err)
	}
	return nil
}

// List returns notifications for a recipient.
func (d *Dispatcher) List(ctx context.Context, tentID string, opts ListOptions) ([]Notification, error) {
	return d.repo.List(ctx, tentID, opts)
}

// MarkRead flags a notification as read.
func (d *Dispatcher) MarkRead(ctx context.Context, tentID, id string) error {
	return d.repo.MarkRead(ctx, tentID, id)
}
