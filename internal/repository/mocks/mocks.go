package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/tentworks/tentflow/internal/domain/activity"
	"github.com/tentworks/tentflow/internal/domain/invoice"
	"github.com/tentworks/tentflow/internal/domain/membership"
	"github.com/tentworks/tentflow/internal/domain/notify"
	"github.com/tentworks/tentflow/internal/domain/project"
	"github.com/tentworks/tentflow/internal/domain/reconcile"
)

// ProjectRepository is a mock for project.Repository.
type ProjectRepository struct {
	mock.Mock
}

func (m *ProjectRepository) Create(ctx context.Context, p *project.Project, items []project.Item, tasks []project.Task) error {
	args := m.Called(ctx, p, items, tasks)
	return args.Error(0)
}

func (m *ProjectRepository) Get(ctx context.Context, id string) (*project.Project, error) {
	args := m.Called(ctx, id)
	if p, ok := args.Get(0).(*project.Project); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectRepository) List(ctx context.Context, tentID string, opts project.ListOptions) ([]project.Summary, error) {
	args := m.Called(ctx, tentID, opts)
	if list, ok := args.Get(0).([]project.Summary); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectRepository) ListItems(ctx context.Context, projectID string) ([]project.Item, error) {
	args := m.Called(ctx, projectID)
	if items, ok := args.Get(0).([]project.Item); ok {
		return items, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectRepository) ListTasks(ctx context.Context, projectID string) ([]project.Task, error) {
	args := m.Called(ctx, projectID)
	if tasks, ok := args.Get(0).([]project.Task); ok {
		return tasks, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectRepository) UpdateWorkflow(ctx context.Context, p *project.Project, expectedStep int) error {
	args := m.Called(ctx, p, expectedStep)
	return args.Error(0)
}

func (m *ProjectRepository) ApplyEdit(ctx context.Context, p *project.Project, items reconcile.Result[project.Item], tasks reconcile.Result[project.Task], expectedStep int) error {
	args := m.Called(ctx, p, items, tasks, expectedStep)
	return args.Error(0)
}

// MembershipRepository is a mock for membership.Repository.
type MembershipRepository struct {
	mock.Mock
}

func (m *MembershipRepository) Create(ctx context.Context, mem *membership.Membership) error {
	args := m.Called(ctx, mem)
	return args.Error(0)
}

func (m *MembershipRepository) Get(ctx context.Context, userID, tentID string) (*membership.Membership, error) {
	args := m.Called(ctx, userID, tentID)
	if mem, ok := args.Get(0).(*membership.Membership); ok {
		return mem, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MembershipRepository) List(ctx context.Context, tentID string) ([]membership.Membership, error) {
	args := m.Called(ctx, tentID)
	if list, ok := args.Get(0).([]membership.Membership); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// InvoiceRepository is a mock for invoice.Repository.
type InvoiceRepository struct {
	mock.Mock
}

func (m *InvoiceRepository) Create(ctx context.Context, inv *invoice.Invoice) error {
	args := m.Called(ctx, inv)
	return args.Error(0)
}

func (m *InvoiceRepository) Get(ctx context.Context, id string) (*invoice.Invoice, error) {
	args := m.Called(ctx, id)
	if inv, ok := args.Get(0).(*invoice.Invoice); ok {
		return inv, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *InvoiceRepository) ListByProject(ctx context.Context, projectID string) ([]invoice.Invoice, error) {
	args := m.Called(ctx, projectID)
	if list, ok := args.Get(0).([]invoice.Invoice); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *InvoiceRepository) Update(ctx context.Context, inv *invoice.Invoice, expected invoice.Status) error {
	args := m.Called(ctx, inv, expected)
	return args.Error(0)
}

// ActivityRepository is a mock for activity.Repository.
type ActivityRepository struct {
	mock.Mock
}

func (m *ActivityRepository) Log(ctx context.Context, tentID string, entry *activity.Entry) error {
	args := m.Called(ctx, tentID, entry)
	return args.Error(0)
}

func (m *ActivityRepository) List(ctx context.Context, tentID string, opts activity.ListOptions) ([]activity.Entry, error) {
	args := m.Called(ctx, tentID, opts)
	if list, ok := args.Get(0).([]activity.Entry); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// NotificationRepository is a mock for notify.Repository.
type NotificationRepository struct {
	mock.Mock
}

func (m *NotificationRepository) Create(ctx context.Context, tentID string, n *notify.Notification) error {
	args := m.Called(ctx, tentID, n)
	return args.Error(0)
}

func (m *NotificationRepository) List(ctx context.Context, tentID string, opts notify.ListOptions) ([]notify.Notification, error) {
	args := m.Called(ctx, tentID, opts)
	if list, ok := args.Get(0).([]notify.Notification); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *NotificationRepository) MarkRead(ctx context.Context, tentID, id string) error {
	args := m.Called(ctx, tentID, id)
	return args.Error(0)
}
