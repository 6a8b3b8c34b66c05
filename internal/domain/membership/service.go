package membership

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tentworks/tentflow/internal/repository"
)

// Resolver answers who a user is inside a tent. Every workflow transition is
// gated through it.
type Resolver struct {
	repo   Repository
	logger *slog.Logger
}

// NewResolver creates a new membership resolver.
func NewResolver(repo Repository, logger *slog.Logger) *Resolver {
	return &Resolver{repo: repo, logger: logger}
}

// Resolve returns the membership of a user in a tent.
func (r *Resolver) Resolve(ctx context.Context, userID, tentID string) (*Membership, error) {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(tentID) == "" {
		return nil, ErrInvalidInput
	}

	m, err := r.repo.Get(ctx, userID, tentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotAMember
		}
		return nil, fmt.Errorf("resolving membership: %w", err)
	}
	return m, nil
}

// Counterpart returns the other member of the tent, or nil when the user is
// still alone in it.
func (r *Resolver) Counterpart(ctx context.Context, userID, tentID string) (*Membership, error) {
	members, err := r.repo.List(ctx, tentID)
	if err != nil {
		return nil, fmt.Errorf("listing members: %w", err)
	}
	for i := range members {
		if members[i].UserID != userID {
			return &members[i], nil
		}
	}
	return nil, nil
}

// Join adds a user to a tent. The first member picks a role; the second
// member always receives the complementary role.
func (r *Resolver) Join(ctx context.Context, userID, tentID string, role Role) (*Membership, error) {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(tentID) == "" || !role.Valid() {
		return nil, ErrInvalidInput
	}

	members, err := r.repo.List(ctx, tentID)
	if err != nil {
		return nil, fmt.Errorf("listing members: %w", err)
	}

	switch len(members) {
	case 0:
		// first member keeps the requested role
	case 1:
		if members[0].UserID == userID {
			return nil, ErrRoleTaken
		}
		role = members[0].Role.Complement()
	default:
		return nil, ErrTentFull
	}

	m := &Membership{
		UserID:    userID,
		TentID:    tentID,
		Role:      role,
		CreatedAt: time.Now(),
	}
	if err := r.repo.Create(ctx, m); err != nil {
		return nil, fmt.Errorf("creating membership: %w", err)
	}
	return m, nil
}
