package project

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tentworks/tentflow/internal/domain/activity"
	"github.com/tentworks/tentflow/internal/domain/finance"
	"github.com/tentworks/tentflow/internal/domain/membership"
	"github.com/tentworks/tentflow/internal/domain/notify"
	"github.com/tentworks/tentflow/internal/domain/reconcile"
	"github.com/tentworks/tentflow/internal/repository"
)

// Service is the workflow engine: it validates and executes the five
// lifecycle transitions, the edit operation, and project reads. Every
// operation takes an explicit actor; there is no ambient current user.
type Service struct {
	projects   Repository
	roles      RoleResolver
	activities ActivityRecorder
	notifier   Notifier
	logger     *slog.Logger
}

// NewService creates a new project service.
func NewService(projects Repository, roles RoleResolver, activities ActivityRecorder, notifier Notifier, logger *slog.Logger) *Service {
	return &Service{
		projects:   projects,
		roles:      roles,
		activities: activities,
		notifier:   notifier,
		logger:     logger,
	}
}

// Result is what every mutating operation returns: the updated project and
// the actor's resolved membership, so callers can adjust what they offer
// next without a second lookup.
type Result struct {
	Project *Project               `json:"project"`
	Actor   *membership.Membership `json:"actor"`
}

// CreateRequest defines project creation inputs.
type CreateRequest struct {
	Name          string
	ClientName    string
	ClientEmail   string
	ClientPhone   string
	ClientAddress string
	ClientTin     string

	Type     string
	Priority string

	RequiresInvoice       bool
	PaymentType           PaymentType
	BudgetAmount          decimal.Decimal
	TaxAmount             decimal.Decimal
	WithholdingTaxPercent decimal.Decimal
	PaymentDueDate        *time.Time

	Notes string
	Tags  []string

	Items []Item
	Tasks []Task
}

// EditRequest is the full project payload accepted while the workflow has
// not reached step 5. Items and tasks replace the stored collections by id.
type EditRequest struct {
	Name          string
	ClientName    string
	ClientEmail   string
	ClientPhone   string
	ClientAddress string
	ClientTin     string

	Type     string
	Priority string

	LifecycleStatus LifecycleStatus

	RequiresInvoice       bool
	PaymentType           PaymentType
	BudgetAmount          decimal.Decimal
	TaxAmount             decimal.Decimal
	WithholdingTaxPercent decimal.Decimal
	PaymentStatus         string
	PaymentDueDate        *time.Time

	Notes string
	Tags  []string

	Items []Item
	Tasks []Task
}

// Create opens a new project at workflow step 1. Only the tent's client may
// create projects; the project number is assigned sequentially per tent and
// month by the store.
func (s *Service) Create(ctx context.Context, tentID, actorID string, req CreateRequest) (*Result, error) {
	actor, err := s.resolveActor(ctx, actorID, tentID)
	if err != nil {
		return nil, err
	}
	if actor.Role != membership.RoleClient {
		return nil, fmt.Errorf("%w: only the client creates projects", ErrForbidden)
	}

	if err := validateFields(req.Name, "", req.PaymentType); err != nil {
		return nil, err
	}
	if err := validateItems(req.Items); err != nil {
		return nil, err
	}
	if err := validateTasks(req.Tasks); err != nil {
		return nil, err
	}

	now := time.Now()
	id := uuid.NewString()

	// Creation payloads carry no persisted rows; ids on incoming rows are
	// discarded so everything goes through the insert filter.
	newItems := make([]Item, len(req.Items))
	copy(newItems, req.Items)
	for i := range newItems {
		newItems[i].ID = ""
	}
	newTasks := make([]Task, len(req.Tasks))
	copy(newTasks, req.Tasks)
	for i := range newTasks {
		newTasks[i].ID = ""
	}

	items := reconcile.Diff(nil, newItems).ToInsert
	for i := range items {
		items[i].ID = uuid.NewString()
		prepareItem(&items[i], id, i)
	}
	tasks := reconcile.Diff(nil, newTasks).ToInsert
	for i := range tasks {
		tasks[i].ID = uuid.NewString()
		prepareTask(&tasks[i], id, now)
	}

	progress := TaskProgress(tasks)

	p := &Project{
		ID:            id,
		TentID:        tentID,
		Name:          req.Name,
		ClientName:    req.ClientName,
		ClientEmail:   req.ClientEmail,
		ClientPhone:   req.ClientPhone,
		ClientAddress: req.ClientAddress,
		ClientTin:     req.ClientTin,

		Type:     req.Type,
		Priority: req.Priority,

		LifecycleStatus: LifecyclePlanning,
		WorkflowStep:    1,

		RequiresInvoice:       req.RequiresInvoice,
		PaymentType:           req.PaymentType,
		BudgetAmount:          req.BudgetAmount,
		WithholdingTaxPercent: req.WithholdingTaxPercent,
		PaymentDueDate:        req.PaymentDueDate,

		TotalTasks:         progress.Total,
		CompletedTasks:     progress.Completed,
		ProgressPercentage: progress.Percent,

		CreatedBy: actorID,
		Notes:     req.Notes,
		Tags:      req.Tags,

		CreatedAt: now,
		UpdatedAt: now,
	}
	for i := range p.StepStatus {
		p.StepStatus[i] = StepPending
	}

	if err := s.applyTotals(p, items, req.TaxAmount, req.WithholdingTaxPercent); err != nil {
		return nil, err
	}

	if err := s.projects.Create(ctx, p, items, tasks); err != nil {
		return nil, fmt.Errorf("creating project: %w", err)
	}

	s.recordActivity(ctx, p, actorID, activity.TypeProjectCreated,
		fmt.Sprintf("created project %s", p.ProjectNumber))

	return &Result{Project: p, Actor: actor}, nil
}

// Submit advances the project from step 1 to 2. Client only.
func (s *Service) Submit(ctx context.Context, projectID, actorID string) (*Result, error) {
	return s.transition(ctx, projectID, actorID, TransitionSubmit, TransitionArgs{})
}

// Approve advances the project from step 2 to 3. Manager only.
func (s *Service) Approve(ctx context.Context, projectID, actorID string) (*Result, error) {
	return s.transition(ctx, projectID, actorID, TransitionApprove, TransitionArgs{})
}

// RequestInvoice advances the project from step 3 to 4. Client only.
func (s *Service) RequestInvoice(ctx context.Context, projectID, actorID string) (*Result, error) {
	return s.transition(ctx, projectID, actorID, TransitionRequestInvoice, TransitionArgs{})
}

// UploadInvoice records the invoice file and advances from step 4 to 5.
// Manager only.
func (s *Service) UploadInvoice(ctx context.Context, projectID, actorID, fileURL, fileName string) (*Result, error) {
	return s.transition(ctx, projectID, actorID, TransitionUploadInvoice, TransitionArgs{FileURL: fileURL, FileName: fileName})
}

// Accept completes step 5 and marks the project completed. Client only, and
// only once an invoice file exists.
func (s *Service) Accept(ctx context.Context, projectID, actorID string) (*Result, error) {
	return s.transition(ctx, projectID, actorID, TransitionAccept, TransitionArgs{})
}

func (s *Service) transition(ctx context.Context, projectID, actorID string, name TransitionName, args TransitionArgs) (*Result, error) {
	t, ok := transitions[name]
	if !ok {
		return nil, ErrUnknownTransition
	}

	p, err := s.load(ctx, projectID)
	if err != nil {
		return nil, err
	}

	actor, err := s.resolveActor(ctx, actorID, p.TentID)
	if err != nil {
		return nil, err
	}
	if actor.Role != t.role {
		return nil, fmt.Errorf("%w: %s requires the %s role", ErrForbidden, name, t.role)
	}

	var items []Item
	if t.needsItems {
		items, err = s.projects.ListItems(ctx, p.ID)
		if err != nil {
			return nil, fmt.Errorf("loading items: %w", err)
		}
	}

	if err := t.check(p, items, args); err != nil {
		return nil, err
	}

	expected := p.WorkflowStep
	now := time.Now()
	t.apply(p, args, now)
	p.UpdatedAt = now

	if err := s.projects.UpdateWorkflow(ctx, p, expected); err != nil {
		switch {
		case errors.Is(err, repository.ErrConflict):
			return nil, ErrConflict
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("persisting transition: %w", err)
	}

	// Side effects run after the committed write and never roll it back.
	s.recordActivity(ctx, p, actorID, t.activityType,
		fmt.Sprintf("%s project %s", t.verb, p.ProjectNumber))
	s.notifyCounterpart(ctx, p, actorID, t.notifyType,
		fmt.Sprintf("Project %s: %s %s", p.ProjectNumber, actor.Role, t.verb))

	return &Result{Project: p, Actor: actor}, nil
}

// Edit replaces the project payload and reconciles its item and task
// collections, all in one atomic write. Manager or admin, and only while
// the workflow has not reached step 5. The workflow step is never changed
// by an edit.
func (s *Service) Edit(ctx context.Context, projectID, actorID string, req EditRequest) (*Result, error) {
	p, err := s.load(ctx, projectID)
	if err != nil {
		return nil, err
	}

	actor, err := s.resolveActor(ctx, actorID, p.TentID)
	if err != nil {
		return nil, err
	}
	if actor.Role != membership.RoleManager && !actor.IsAdmin {
		return nil, fmt.Errorf("%w: editing requires the manager role", ErrForbidden)
	}
	if p.WorkflowStep >= StepCount {
		return nil, fmt.Errorf("%w: projects at step %d are no longer editable", ErrPreconditionNotMet, p.WorkflowStep)
	}

	if err := validateFields(req.Name, req.LifecycleStatus, req.PaymentType); err != nil {
		return nil, err
	}
	if err := validateItems(req.Items); err != nil {
		return nil, err
	}
	if err := validateTasks(req.Tasks); err != nil {
		return nil, err
	}

	existingItems, err := s.projects.ListItems(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("loading items: %w", err)
	}
	existingTasks, err := s.projects.ListTasks(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("loading tasks: %w", err)
	}

	now := time.Now()

	desiredItems := make([]Item, len(req.Items))
	copy(desiredItems, req.Items)
	for i := range desiredItems {
		prepareItem(&desiredItems[i], p.ID, i)
	}
	desiredTasks := make([]Task, len(req.Tasks))
	copy(desiredTasks, req.Tasks)
	for i := range desiredTasks {
		prepareTask(&desiredTasks[i], p.ID, now)
	}

	itemChanges := reconcile.Diff(existingItems, desiredItems)
	for i := range itemChanges.ToInsert {
		itemChanges.ToInsert[i].ID = uuid.NewString()
	}
	taskChanges := reconcile.Diff(existingTasks, desiredTasks)
	for i := range taskChanges.ToInsert {
		taskChanges.ToInsert[i].ID = uuid.NewString()
	}

	// Progress and totals come from what storage will hold after the
	// write, which includes desired rows the diff left untouched.
	progress := TaskProgress(keptRows(desiredTasks))

	p.Name = req.Name
	p.ClientName = req.ClientName
	p.ClientEmail = req.ClientEmail
	p.ClientPhone = req.ClientPhone
	p.ClientAddress = req.ClientAddress
	p.ClientTin = req.ClientTin
	p.Type = req.Type
	p.Priority = req.Priority
	if req.LifecycleStatus != "" {
		p.LifecycleStatus = req.LifecycleStatus
	}
	p.RequiresInvoice = req.RequiresInvoice
	p.PaymentType = req.PaymentType
	p.BudgetAmount = req.BudgetAmount
	p.WithholdingTaxPercent = req.WithholdingTaxPercent
	p.PaymentStatus = req.PaymentStatus
	p.PaymentDueDate = req.PaymentDueDate
	p.Notes = req.Notes
	p.Tags = req.Tags
	p.TotalTasks = progress.Total
	p.CompletedTasks = progress.Completed
	p.ProgressPercentage = progress.Percent
	p.UpdatedAt = now

	if err := s.applyTotals(p, keptRows(desiredItems), req.TaxAmount, req.WithholdingTaxPercent); err != nil {
		return nil, err
	}

	if err := s.projects.ApplyEdit(ctx, p, itemChanges, taskChanges, p.WorkflowStep); err != nil {
		switch {
		case errors.Is(err, repository.ErrConflict):
			return nil, ErrConflict
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("persisting edit: %w", err)
	}

	s.recordActivity(ctx, p, actorID, activity.TypeProjectEdited,
		fmt.Sprintf("edited project %s", p.ProjectNumber))

	return &Result{Project: p, Actor: actor}, nil
}

// Get returns a project visible to the actor.
func (s *Service) Get(ctx context.Context, projectID, actorID string) (*Project, error) {
	p, err := s.load(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if _, err := s.resolveActor(ctx, actorID, p.TentID); err != nil {
		return nil, err
	}
	return p, nil
}

// List returns project summaries for a tent.
func (s *Service) List(ctx context.Context, tentID, actorID string, opts ListOptions) ([]Summary, error) {
	if _, err := s.resolveActor(ctx, actorID, tentID); err != nil {
		return nil, err
	}
	return s.projects.List(ctx, tentID, opts)
}

// Items returns the line items of a project.
func (s *Service) Items(ctx context.Context, projectID, actorID string) ([]Item, error) {
	p, err := s.Get(ctx, projectID, actorID)
	if err != nil {
		return nil, err
	}
	return s.projects.ListItems(ctx, p.ID)
}

// Tasks returns the tasks of a project.
func (s *Service) Tasks(ctx context.Context, projectID, actorID string) ([]Task, error) {
	p, err := s.Get(ctx, projectID, actorID)
	if err != nil {
		return nil, err
	}
	return s.projects.ListTasks(ctx, p.ID)
}

func (s *Service) load(ctx context.Context, projectID string) (*Project, error) {
	p, err := s.projects.Get(ctx, projectID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("loading project: %w", err)
	}
	return p, nil
}

func (s *Service) resolveActor(ctx context.Context, actorID, tentID string) (*membership.Membership, error) {
	m, err := s.roles.Resolve(ctx, actorID, tentID)
	if err != nil {
		if errors.Is(err, membership.ErrNotAMember) {
			return nil, fmt.Errorf("%w: not a member of this tent", ErrForbidden)
		}
		return nil, fmt.Errorf("resolving actor: %w", err)
	}
	return m, nil
}

// applyTotals recomputes the financial derivation when the project carries
// an invoice, and clears it when it doesn't.
func (s *Service) applyTotals(p *Project, items []Item, taxAmount, withholdingPercent decimal.Decimal) error {
	if !p.RequiresInvoice {
		p.InvoiceAmount = decimal.Zero
		p.TaxAmount = decimal.Zero
		p.WithholdingTaxAmount = decimal.Zero
		p.TotalAmount = decimal.NullDecimal{}
		return nil
	}

	lines := make([]finance.LineInput, 0, len(items))
	for _, item := range items {
		lines = append(lines, finance.LineInput{Quantity: item.Quantity, UnitPrice: item.UnitPrice})
	}
	totals, err := finance.ComputeTotals(lines, taxAmount, withholdingPercent)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	p.InvoiceAmount = totals.Subtotal
	p.TaxAmount = totals.Tax
	p.WithholdingTaxAmount = totals.Withholding
	p.TotalAmount = decimal.NullDecimal{Decimal: totals.Total, Valid: true}
	return nil
}

// keptRows is the collection storage holds once a submission is applied:
// every desired row with an id plus the valid new rows.
func keptRows[T reconcile.Row[T]](desired []T) []T {
	out := make([]T, 0, len(desired))
	for _, row := range desired {
		if row.RowID() != "" || row.Valid() {
			out = append(out, row)
		}
	}
	return out
}

func prepareItem(item *Item, projectID string, position int) {
	item.ProjectID = projectID
	item.Position = position
	item.Amount = finance.LineAmount(item.Quantity, item.UnitPrice)
	if item.ID == "" && item.Status == "" {
		item.Status = "active"
	}
}

func prepareTask(task *Task, projectID string, now time.Time) {
	task.ProjectID = projectID
	if task.Status == "" {
		task.Status = TaskTodo
	}
	if task.Status == TaskDone && task.CompletedAt == nil {
		t := now
		task.CompletedAt = &t
	}
}

func (s *Service) recordActivity(ctx context.Context, p *Project, actorID string, typ activity.ActivityType, summary string) {
	if s.activities == nil {
		return
	}
	err := s.activities.Record(ctx, p.TentID, &activity.Entry{
		ProjectID:    p.ID,
		ActorID:      actorID,
		ActivityType: typ,
		Summary:      summary,
	})
	if err != nil && s.logger != nil {
		s.logger.Warn("activity record failed", "project_id", p.ID, "type", typ, "error", err)
	}
}

func (s *Service) notifyCounterpart(ctx context.Context, p *Project, actorID string, typ notify.Type, title string) {
	if s.notifier == nil {
		return
	}
	other, err := s.roles.Counterpart(ctx, actorID, p.TentID)
	if err != nil || other == nil {
		return
	}
	_ = s.notifier.Dispatch(ctx, p.TentID, &notify.Notification{
		RecipientID: other.UserID,
		ActorID:     actorID,
		ProjectID:   p.ID,
		Type:        typ,
		Title:       title,
	})
}
