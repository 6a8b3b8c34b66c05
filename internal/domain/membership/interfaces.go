package membership

import "context"

// Repository provides membership persistence.
type Repository interface {
	Create(ctx context.Context, m *Membership) error
	Get(ctx context.Context, userID, tentID string) (*Membership, error)
	List(ctx context.Context, tentID string) ([]Membership, error)
}
