package activity

import "context"

// Repository provides persistence operations for activity entries.
type Repository interface {
	Log(ctx context.Context, tentID string, entry *Entry) error
	List(ctx context.Context, tentID string, opts ListOptions) ([]Entry, error)
}
