package invoice

import (
	"context"

	"github.com/tentworks/tentflow/internal/domain/activity"
	"github.com/tentworks/tentflow/internal/domain/membership"
	"github.com/tentworks/tentflow/internal/domain/project"
)

// Repository provides persistence for invoices.
type Repository interface {
	Create(ctx context.Context, inv *Invoice) error
	Get(ctx context.Context, id string) (*Invoice, error)
	ListByProject(ctx context.Context, projectID string) ([]Invoice, error)
	// Update persists the invoice, refusing the write when the stored status
	// no longer matches expected.
	Update(ctx context.Context, inv *Invoice, expected Status) error
}

// ProjectGetter looks up the project an invoice belongs to.
type ProjectGetter interface {
	Get(ctx context.Context, id string) (*project.Project, error)
}

// RoleResolver answers membership questions for action gating.
type RoleResolver interface {
	Resolve(ctx context.Context, userID, tentID string) (*membership.Membership, error)
}

// ActivityRecorder appends invoice events to the activity log.
type ActivityRecorder interface {
	Record(ctx context.Context, tentID string, entry *activity.Entry) error
}
