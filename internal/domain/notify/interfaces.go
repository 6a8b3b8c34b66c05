package notify

import "context"

// Repository provides persistence for notification records.
type Repository interface {
	Create(ctx context.Context, tentID string, n *Notification) error
	List(ctx context.Context, tentID string, opts ListOptions) ([]Notification, error)
	MarkRead(ctx context.Context, tentID, id string) error
}
