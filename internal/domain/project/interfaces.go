package project

import (
	"context"

	"github.com/tentworks/tentflow/internal/domain/activity"
	"github.com/tentworks/tentflow/internal/domain/membership"
	"github.com/tentworks/tentflow/internal/domain/notify"
	"github.com/tentworks/tentflow/internal/domain/reconcile"
)

// ListOptions provides filtering for project listings.
type ListOptions struct {
	LifecycleStatus LifecycleStatus
	WorkflowStep    int
	Limit           int
	Offset          int
}

// Repository provides persistence for projects and their owned collections.
type Repository interface {
	Create(ctx context.Context, p *Project, items []Item, tasks []Task) error
	Get(ctx context.Context, id string) (*Project, error)
	List(ctx context.Context, tentID string, opts ListOptions) ([]Summary, error)
	ListItems(ctx context.Context, projectID string) ([]Item, error)
	ListTasks(ctx context.Context, projectID string) ([]Task, error)
	// UpdateWorkflow persists transition results, refusing the write when the
	// stored workflow step no longer matches expectedStep.
	UpdateWorkflow(ctx context.Context, p *Project, expectedStep int) error
	// ApplyEdit persists the project row and both reconciled collections as a
	// single atomic unit, with the same expected-step guard.
	ApplyEdit(ctx context.Context, p *Project, items reconcile.Result[Item], tasks reconcile.Result[Task], expectedStep int) error
}

// RoleResolver answers membership questions for transition gating.
type RoleResolver interface {
	Resolve(ctx context.Context, userID, tentID string) (*membership.Membership, error)
	Counterpart(ctx context.Context, userID, tentID string) (*membership.Membership, error)
}

// ActivityRecorder appends workflow events to the activity log.
type ActivityRecorder interface {
	Record(ctx context.Context, tentID string, entry *activity.Entry) error
}

// Notifier delivers notifications to tent members.
type Notifier interface {
	Dispatch(ctx context.Context, tentID string, n *notify.Notification) error
}
