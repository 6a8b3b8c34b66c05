package activity

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Service handles activity log operations.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService creates a new activity service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Record appends an activity entry, stamping the current time if missing.
func (s *Service) Record(ctx context.Context, tentID string, entry *Entry) error {
	if entry == nil {
		return ErrInvalidInput
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	if err := s.repo.Log(ctx, tentID, entry); err != nil {
		return fmt.Errorf("recording activity: %w", err)
	}
	return nil
}

// Recent lists activity entries with filtering.
func (s *Service) Recent(ctx context.Context, tentID string, opts ListOptions) ([]Entry, error) {
	return s.repo.List(ctx, tentID, opts)
}
