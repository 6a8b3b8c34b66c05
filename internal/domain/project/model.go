package project

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// LifecycleStatus is the coarse status of a project.
type LifecycleStatus string

const (
	LifecyclePlanning   LifecycleStatus = "planning"
	LifecycleInProgress LifecycleStatus = "in_progress"
	LifecycleReview     LifecycleStatus = "review"
	LifecycleCompleted  LifecycleStatus = "completed"
	LifecycleOnHold     LifecycleStatus = "on_hold"
	LifecycleCancelled  LifecycleStatus = "cancelled"
)

// StepStatus tracks completion of one of the five workflow steps.
type StepStatus string

const (
	StepPending   StepStatus = "pending"
	StepCompleted StepStatus = "completed"
)

// PaymentType is how the client settles the project.
type PaymentType string

const (
	PaymentCash   PaymentType = "cash"
	PaymentCharge PaymentType = "charge"
)

// StepCount is the fixed number of workflow steps.
const StepCount = 5

// Project tracks a billable engagement between the client and manager of a
// tent, from intake (step 1) through invoice acceptance (step 5).
//
// WorkflowStep is monotonically non-decreasing. TotalAmount is set iff
// RequiresInvoice, and always equals InvoiceAmount + TaxAmount -
// WithholdingTaxAmount.
type Project struct {
	ID            string `json:"id"`
	TentID        string `json:"tent_id"`
	ProjectNumber string `json:"project_number"`
	Name          string `json:"name"`

	ClientName    string `json:"client_name"`
	ClientEmail   string `json:"client_email,omitempty"`
	ClientPhone   string `json:"client_phone,omitempty"`
	ClientAddress string `json:"client_address,omitempty"`
	ClientTin     string `json:"client_tin,omitempty"`

	Type     string `json:"type,omitempty"`
	Priority string `json:"priority,omitempty"`

	LifecycleStatus LifecycleStatus       `json:"lifecycle_status"`
	WorkflowStep    int                   `json:"workflow_step"`
	StepStatus      [StepCount]StepStatus `json:"step_status"`
	StepCompletedAt [StepCount]*time.Time `json:"step_completed_at"`

	RequiresInvoice       bool                `json:"requires_invoice"`
	PaymentType           PaymentType         `json:"payment_type,omitempty"`
	BudgetAmount          decimal.Decimal     `json:"budget_amount"`
	InvoiceAmount         decimal.Decimal     `json:"invoice_amount"`
	TaxAmount             decimal.Decimal     `json:"tax_amount"`
	WithholdingTaxPercent decimal.Decimal     `json:"withholding_tax_percent"`
	WithholdingTaxAmount  decimal.Decimal     `json:"withholding_tax_amount"`
	TotalAmount           decimal.NullDecimal `json:"total_amount"`
	PaymentStatus         string              `json:"payment_status,omitempty"`
	PaymentDueDate        *time.Time          `json:"payment_due_date,omitempty"`

	InvoiceFileURL  string `json:"invoice_file_url,omitempty"`
	InvoiceFileName string `json:"invoice_file_name,omitempty"`

	TotalTasks         int `json:"total_tasks"`
	CompletedTasks     int `json:"completed_tasks"`
	ProgressPercentage int `json:"progress_percentage"`

	CreatedBy string   `json:"created_by"`
	Notes     string   `json:"notes,omitempty"`
	Tags      []string `json:"tags,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StepDone reports whether the given 1-based workflow step is completed.
func (p *Project) StepDone(step int) bool {
	if step < 1 || step > StepCount {
		return false
	}
	return p.StepStatus[step-1] == StepCompleted
}

// Summary is a lightweight representation for listing.
type Summary struct {
	ID                 string              `json:"id"`
	ProjectNumber      string              `json:"project_number"`
	Name               string              `json:"name"`
	ClientName         string              `json:"client_name"`
	LifecycleStatus    LifecycleStatus     `json:"lifecycle_status"`
	WorkflowStep       int                 `json:"workflow_step"`
	RequiresInvoice    bool                `json:"requires_invoice"`
	TotalAmount        decimal.NullDecimal `json:"total_amount"`
	PaymentStatus      string              `json:"payment_status,omitempty"`
	ProgressPercentage int                 `json:"progress_percentage"`
	CreatedAt          time.Time           `json:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at"`
}

// Item is a billable line item owned by a project. Amount is derived from
// Quantity and UnitPrice and is never settable independently.
type Item struct {
	ID          string          `json:"id,omitempty"`
	ProjectID   string          `json:"project_id,omitempty"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Amount      decimal.Decimal `json:"amount"`
	ItemType    string          `json:"item_type,omitempty"`
	Status      string          `json:"status,omitempty"`
	Position    int             `json:"position"`
}

// RowID implements reconcile.Row.
func (i Item) RowID() string { return i.ID }

// Valid implements reconcile.Row. Items need a description and a positive
// quantity to be worth persisting.
func (i Item) Valid() bool {
	return strings.TrimSpace(i.Description) != "" &&
		i.Quantity.IsPositive() &&
		!i.UnitPrice.IsNegative()
}

// Equal implements reconcile.Row. Monetary fields compare by value.
func (i Item) Equal(other Item) bool {
	return i.ID == other.ID &&
		i.ProjectID == other.ProjectID &&
		i.Description == other.Description &&
		i.Quantity.Equal(other.Quantity) &&
		i.UnitPrice.Equal(other.UnitPrice) &&
		i.Amount.Equal(other.Amount) &&
		i.ItemType == other.ItemType &&
		i.Status == other.Status &&
		i.Position == other.Position
}

// TaskStatus is the state of a project task.
type TaskStatus string

const (
	TaskTodo       TaskStatus = "todo"
	TaskInProgress TaskStatus = "in_progress"
	TaskDone       TaskStatus = "done"
	TaskCancelled  TaskStatus = "cancelled"
)

// Task is a unit of work owned by a project.
type Task struct {
	ID             string     `json:"id,omitempty"`
	ProjectID      string     `json:"project_id,omitempty"`
	Title          string     `json:"title"`
	Description    string     `json:"description,omitempty"`
	Status         TaskStatus `json:"status"`
	Priority       string     `json:"priority,omitempty"`
	DueDate        *time.Time `json:"due_date,omitempty"`
	EstimatedHours float64    `json:"estimated_hours,omitempty"`
	ActualHours    float64    `json:"actual_hours,omitempty"`
	AssignedTo     string     `json:"assigned_to,omitempty"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
}

// RowID implements reconcile.Row.
func (t Task) RowID() string { return t.ID }

// Valid implements reconcile.Row.
func (t Task) Valid() bool { return strings.TrimSpace(t.Title) != "" }

// Equal implements reconcile.Row. Timestamps compare by instant.
func (t Task) Equal(other Task) bool {
	return t.ID == other.ID &&
		t.ProjectID == other.ProjectID &&
		t.Title == other.Title &&
		t.Description == other.Description &&
		t.Status == other.Status &&
		t.Priority == other.Priority &&
		timesMatch(t.DueDate, other.DueDate) &&
		t.EstimatedHours == other.EstimatedHours &&
		t.ActualHours == other.ActualHours &&
		t.AssignedTo == other.AssignedTo &&
		timesMatch(t.CompletedAt, other.CompletedAt)
}

func timesMatch(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

// Progress summarizes task completion for a project.
type Progress struct {
	Total     int
	Completed int
	Percent   int
}

// TaskProgress computes completion counters over a task list. Percent is
// rounded to the nearest integer and 0 when there are no tasks. Cancelled
// tasks still count toward the total; only done tasks count as completed.
func TaskProgress(tasks []Task) Progress {
	p := Progress{Total: len(tasks)}
	for _, t := range tasks {
		if t.Status == TaskDone {
			p.Completed++
		}
	}
	if p.Total > 0 {
		p.Percent = int(float64(p.Completed)/float64(p.Total)*100 + 0.5)
	}
	return p
}
