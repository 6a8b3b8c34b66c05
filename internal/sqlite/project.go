package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/tentworks/tentflow/internal/domain/project"
	"github.com/tentworks/tentflow/internal/domain/reconcile"
	"github.com/tentworks/tentflow/internal/repository"
)

// ProjectRepository implements repository.ProjectRepository for SQLite
type ProjectRepository struct {
	db *DB
}

// NewProjectRepository creates a new ProjectRepository
func NewProjectRepository(db *DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

const projectColumns = `
	id, tent_id, project_number, name,
	client_name, client_email, client_phone, client_address, client_tin,
	type, priority, lifecycle_status, workflow_step,
	step1_status, step2_status, step3_status, step4_status, step5_status,
	step1_completed_at, step2_completed_at, step3_completed_at, step4_completed_at, step5_completed_at,
	requires_invoice, payment_type,
	budget_amount, invoice_amount, tax_amount, withholding_tax_percent, withholding_tax_amount, total_amount,
	payment_status, payment_due_date, invoice_file_url, invoice_file_name,
	total_tasks, completed_tasks, progress_percentage,
	created_by, notes, tags, created_at, updated_at
`

// Create inserts a project with its items and tasks in one transaction and
// assigns the next sequential project number for the tent and month.
func (r *ProjectRepository) Create(ctx context.Context, p *project.Project, items []project.Item, tasks []project.Task) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	number, err := nextProjectNumber(ctx, tx, p.TentID, p.CreatedAt)
	if err != nil {
		return err
	}
	p.ProjectNumber = number

	tags, err := json.Marshal(tagsOrEmpty(p.Tags))
	if err != nil {
		return fmt.Errorf("failed to encode tags: %w", err)
	}

	query := `
		INSERT INTO projects (` + projectColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?,
		        ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = tx.ExecContext(ctx, query,
		p.ID, p.TentID, p.ProjectNumber, p.Name,
		p.ClientName, p.ClientEmail, p.ClientPhone, p.ClientAddress, p.ClientTin,
		p.Type, p.Priority, p.LifecycleStatus, p.WorkflowStep,
		p.StepStatus[0], p.StepStatus[1], p.StepStatus[2], p.StepStatus[3], p.StepStatus[4],
		nullTime(p.StepCompletedAt[0]), nullTime(p.StepCompletedAt[1]), nullTime(p.StepCompletedAt[2]),
		nullTime(p.StepCompletedAt[3]), nullTime(p.StepCompletedAt[4]),
		p.RequiresInvoice, p.PaymentType,
		p.BudgetAmount, p.InvoiceAmount, p.TaxAmount, p.WithholdingTaxPercent, p.WithholdingTaxAmount, p.TotalAmount,
		p.PaymentStatus, nullTime(p.PaymentDueDate), p.InvoiceFileURL, p.InvoiceFileName,
		p.TotalTasks, p.CompletedTasks, p.ProgressPercentage,
		p.CreatedBy, p.Notes, string(tags), p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return repository.ErrForeignKeyViolation
		}
		return fmt.Errorf("failed to create project: %w", err)
	}

	for _, item := range items {
		if err := insertItem(ctx, tx, item); err != nil {
			return err
		}
	}
	for _, task := range tasks {
		if err := insertTask(ctx, tx, task); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit project create: %w", err)
	}
	return nil
}

// Get retrieves a project by ID
func (r *ProjectRepository) Get(ctx context.Context, id string) (*project.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = ?`
	return scanProject(r.db.QueryRowContext(ctx, query, id))
}

// List returns project summaries for a tent, newest first.
func (r *ProjectRepository) List(ctx context.Context, tentID string, opts project.ListOptions) ([]project.Summary, error) {
	query := `
		SELECT
			id, project_number, name, client_name, lifecycle_status, workflow_step,
			requires_invoice, total_amount, payment_status, progress_percentage,
			created_at, updated_at
		FROM projects
		WHERE tent_id = ?
	`
	args := []interface{}{tentID}

	if opts.LifecycleStatus != "" {
		query += " AND lifecycle_status = ?"
		args = append(args, opts.LifecycleStatus)
	}
	if opts.WorkflowStep > 0 {
		query += " AND workflow_step = ?"
		args = append(args, opts.WorkflowStep)
	}

	query += " ORDER BY created_at DESC"
	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}
	if opts.Offset > 0 {
		query += " OFFSET ?"
		args = append(args, opts.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var summaries []project.Summary
	for rows.Next() {
		var s project.Summary
		if err := rows.Scan(
			&s.ID, &s.ProjectNumber, &s.Name, &s.ClientName, &s.LifecycleStatus, &s.WorkflowStep,
			&s.RequiresInvoice, &s.TotalAmount, &s.PaymentStatus, &s.ProgressPercentage,
			&s.CreatedAt, &s.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan project summary: %w", err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating project rows: %w", err)
	}
	return summaries, nil
}

// ListItems returns a project's line items in position order.
func (r *ProjectRepository) ListItems(ctx context.Context, projectID string) ([]project.Item, error) {
	query := `
		SELECT id, project_id, description, quantity, unit_price, amount, item_type, status, position
		FROM project_items
		WHERE project_id = ?
		ORDER BY position ASC
	`
	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	var items []project.Item
	for rows.Next() {
		var item project.Item
		if err := rows.Scan(
			&item.ID, &item.ProjectID, &item.Description, &item.Quantity, &item.UnitPrice,
			&item.Amount, &item.ItemType, &item.Status, &item.Position,
		); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating item rows: %w", err)
	}
	return items, nil
}

// ListTasks returns a project's tasks.
func (r *ProjectRepository) ListTasks(ctx context.Context, projectID string) ([]project.Task, error) {
	query := `
		SELECT id, project_id, title, description, status, priority, due_date,
		       estimated_hours, actual_hours, assigned_to, completed_at
		FROM project_tasks
		WHERE project_id = ?
		ORDER BY rowid ASC
	`
	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []project.Task
	for rows.Next() {
		var task project.Task
		var dueDate, completedAt sql.NullTime
		if err := rows.Scan(
			&task.ID, &task.ProjectID, &task.Title, &task.Description, &task.Status, &task.Priority,
			&dueDate, &task.EstimatedHours, &task.ActualHours, &task.AssignedTo, &completedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		task.DueDate = timePtr(dueDate)
		task.CompletedAt = timePtr(completedAt)
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating task rows: %w", err)
	}
	return tasks, nil
}

// UpdateWorkflow persists a transition with an expected-step guard. A stale
// expected step yields repository.ErrConflict so the caller can reject the
// transition instead of overwriting newer state. Every transition completes
// the step it was read at, so the guard also refuses writes when that step
// is already completed; the final transition keeps the step number, and the
// status check is what stops two racing writers there.
func (r *ProjectRepository) UpdateWorkflow(ctx context.Context, p *project.Project, expectedStep int) error {
	query := fmt.Sprintf(`
		UPDATE projects
		SET workflow_step = ?, lifecycle_status = ?,
		    step1_status = ?, step2_status = ?, step3_status = ?, step4_status = ?, step5_status = ?,
		    step1_completed_at = ?, step2_completed_at = ?, step3_completed_at = ?,
		    step4_completed_at = ?, step5_completed_at = ?,
		    invoice_file_url = ?, invoice_file_name = ?, updated_at = ?
		WHERE id = ? AND workflow_step = ? AND step%d_status != 'completed'
	`, expectedStep)
	result, err := r.db.ExecContext(ctx, query,
		p.WorkflowStep, p.LifecycleStatus,
		p.StepStatus[0], p.StepStatus[1], p.StepStatus[2], p.StepStatus[3], p.StepStatus[4],
		nullTime(p.StepCompletedAt[0]), nullTime(p.StepCompletedAt[1]), nullTime(p.StepCompletedAt[2]),
		nullTime(p.StepCompletedAt[3]), nullTime(p.StepCompletedAt[4]),
		p.InvoiceFileURL, p.InvoiceFileName, p.UpdatedAt,
		p.ID, expectedStep,
	)
	if err != nil {
		return fmt.Errorf("failed to update workflow: %w", err)
	}
	return r.checkAffected(ctx, result, p.ID)
}

// ApplyEdit persists the project row and both reconciled collections as a
// single transaction, guarded on the workflow step observed at read time.
func (r *ProjectRepository) ApplyEdit(ctx context.Context, p *project.Project, items reconcile.Result[project.Item], tasks reconcile.Result[project.Task], expectedStep int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	tags, err := json.Marshal(tagsOrEmpty(p.Tags))
	if err != nil {
		return fmt.Errorf("failed to encode tags: %w", err)
	}

	query := `
		UPDATE projects
		SET name = ?, client_name = ?, client_email = ?, client_phone = ?, client_address = ?, client_tin = ?,
		    type = ?, priority = ?, lifecycle_status = ?,
		    requires_invoice = ?, payment_type = ?,
		    budget_amount = ?, invoice_amount = ?, tax_amount = ?,
		    withholding_tax_percent = ?, withholding_tax_amount = ?, total_amount = ?,
		    payment_status = ?, payment_due_date = ?,
		    total_tasks = ?, completed_tasks = ?, progress_percentage = ?,
		    notes = ?, tags = ?, updated_at = ?
		WHERE id = ? AND workflow_step = ?
	`
	result, err := tx.ExecContext(ctx, query,
		p.Name, p.ClientName, p.ClientEmail, p.ClientPhone, p.ClientAddress, p.ClientTin,
		p.Type, p.Priority, p.LifecycleStatus,
		p.RequiresInvoice, p.PaymentType,
		p.BudgetAmount, p.InvoiceAmount, p.TaxAmount,
		p.WithholdingTaxPercent, p.WithholdingTaxAmount, p.TotalAmount,
		p.PaymentStatus, nullTime(p.PaymentDueDate),
		p.TotalTasks, p.CompletedTasks, p.ProgressPercentage,
		p.Notes, string(tags), p.UpdatedAt,
		p.ID, expectedStep,
	)
	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return r.missingOrConflict(ctx, p.ID)
	}

	// Deletes run before inserts so id reuse can never shadow an update.
	for _, item := range items.ToDelete {
		if _, err := tx.ExecContext(ctx, `DELETE FROM project_items WHERE id = ? AND project_id = ?`, item.ID, p.ID); err != nil {
			return fmt.Errorf("failed to delete item: %w", err)
		}
	}
	for _, item := range items.ToInsert {
		if err := insertItem(ctx, tx, item); err != nil {
			return err
		}
	}
	for _, item := range items.ToUpdate {
		query := `
			UPDATE project_items
			SET description = ?, quantity = ?, unit_price = ?, amount = ?, item_type = ?, status = ?, position = ?
			WHERE id = ? AND project_id = ?
		`
		if _, err := tx.ExecContext(ctx, query,
			item.Description, item.Quantity, item.UnitPrice, item.Amount,
			item.ItemType, item.Status, item.Position, item.ID, p.ID,
		); err != nil {
			return fmt.Errorf("failed to update item: %w", err)
		}
	}

	for _, task := range tasks.ToDelete {
		if _, err := tx.ExecContext(ctx, `DELETE FROM project_tasks WHERE id = ? AND project_id = ?`, task.ID, p.ID); err != nil {
			return fmt.Errorf("failed to delete task: %w", err)
		}
	}
	for _, task := range tasks.ToInsert {
		if err := insertTask(ctx, tx, task); err != nil {
			return err
		}
	}
	for _, task := range tasks.ToUpdate {
		query := `
			UPDATE project_tasks
			SET title = ?, description = ?, status = ?, priority = ?, due_date = ?,
			    estimated_hours = ?, actual_hours = ?, assigned_to = ?, completed_at = ?
			WHERE id = ? AND project_id = ?
		`
		if _, err := tx.ExecContext(ctx, query,
			task.Title, task.Description, task.Status, task.Priority, nullTime(task.DueDate),
			task.EstimatedHours, task.ActualHours, task.AssignedTo, nullTime(task.CompletedAt),
			task.ID, p.ID,
		); err != nil {
			return fmt.Errorf("failed to update task: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit edit: %w", err)
	}
	return nil
}

func (r *ProjectRepository) checkAffected(ctx context.Context, result sql.Result, projectID string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return r.missingOrConflict(ctx, projectID)
	}
	return nil
}

func (r *ProjectRepository) missingOrConflict(ctx context.Context, projectID string) error {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM projects WHERE id = ?)`, projectID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check project existence: %w", err)
	}
	if !exists {
		return repository.ErrNotFound
	}
	// Row exists but the workflow step moved under us.
	return repository.ErrConflict
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func insertItem(ctx context.Context, ex execer, item project.Item) error {
	query := `
		INSERT INTO project_items (id, project_id, description, quantity, unit_price, amount, item_type, status, position)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := ex.ExecContext(ctx, query,
		item.ID, item.ProjectID, item.Description, item.Quantity, item.UnitPrice,
		item.Amount, item.ItemType, item.Status, item.Position,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return repository.ErrForeignKeyViolation
		}
		return fmt.Errorf("failed to insert item: %w", err)
	}
	return nil
}

func insertTask(ctx context.Context, ex execer, task project.Task) error {
	query := `
		INSERT INTO project_tasks (id, project_id, title, description, status, priority, due_date,
		                           estimated_hours, actual_hours, assigned_to, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := ex.ExecContext(ctx, query,
		task.ID, task.ProjectID, task.Title, task.Description, task.Status, task.Priority,
		nullTime(task.DueDate), task.EstimatedHours, task.ActualHours, task.AssignedTo, nullTime(task.CompletedAt),
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return repository.ErrForeignKeyViolation
		}
		return fmt.Errorf("failed to insert task: %w", err)
	}
	return nil
}

// nextProjectNumber assigns P-YYYYMM-NNN, sequential per tent and month.
// The unique (tent_id, project_number) constraint backstops races.
func nextProjectNumber(ctx context.Context, tx *sql.Tx, tentID string, createdAt time.Time) (string, error) {
	month := createdAt.Format("200601")
	prefix := fmt.Sprintf("P-%s-", month)

	var count int
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM projects WHERE tent_id = ? AND project_number LIKE ?`,
		tentID, prefix+"%",
	).Scan(&count)
	if err != nil {
		return "", fmt.Errorf("failed to count projects for numbering: %w", err)
	}
	return fmt.Sprintf("%s%03d", prefix, count+1), nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProject(row rowScanner) (*project.Project, error) {
	var p project.Project
	var stepCompleted [project.StepCount]sql.NullTime
	var paymentDue sql.NullTime
	var tags string

	err := row.Scan(
		&p.ID, &p.TentID, &p.ProjectNumber, &p.Name,
		&p.ClientName, &p.ClientEmail, &p.ClientPhone, &p.ClientAddress, &p.ClientTin,
		&p.Type, &p.Priority, &p.LifecycleStatus, &p.WorkflowStep,
		&p.StepStatus[0], &p.StepStatus[1], &p.StepStatus[2], &p.StepStatus[3], &p.StepStatus[4],
		&stepCompleted[0], &stepCompleted[1], &stepCompleted[2], &stepCompleted[3], &stepCompleted[4],
		&p.RequiresInvoice, &p.PaymentType,
		&p.BudgetAmount, &p.InvoiceAmount, &p.TaxAmount, &p.WithholdingTaxPercent, &p.WithholdingTaxAmount, &p.TotalAmount,
		&p.PaymentStatus, &paymentDue, &p.InvoiceFileURL, &p.InvoiceFileName,
		&p.TotalTasks, &p.CompletedTasks, &p.ProgressPercentage,
		&p.CreatedBy, &p.Notes, &tags, &p.CreatedAt, &p.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan project: %w", err)
	}

	for i := range stepCompleted {
		p.StepCompletedAt[i] = timePtr(stepCompleted[i])
	}
	p.PaymentDueDate = timePtr(paymentDue)

	if strings.TrimSpace(tags) != "" {
		if err := json.Unmarshal([]byte(tags), &p.Tags); err != nil {
			return nil, fmt.Errorf("failed to decode tags: %w", err)
		}
	}
	if len(p.Tags) == 0 {
		p.Tags = nil
	}

	return &p, nil
}

func tagsOrEmpty(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
