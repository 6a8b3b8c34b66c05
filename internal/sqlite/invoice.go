package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tentworks/tentflow/internal/domain/invoice"
	"github.com/tentworks/tentflow/internal/repository"
)

// InvoiceRepository implements repository.InvoiceRepository for SQLite
type InvoiceRepository struct {
	db *DB
}

// NewInvoiceRepository creates a new InvoiceRepository
func NewInvoiceRepository(db *DB) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

const invoiceColumns = `
	id, tent_id, project_id, submitted_by, status,
	scanned_invoice_url, prepared_by_name, prepared_date,
	processed_by, processed_at, approved_by, approved_at,
	rejection_reason, created_at, updated_at
`

// Create inserts a new invoice
func (r *InvoiceRepository) Create(ctx context.Context, inv *invoice.Invoice) error {
	query := `
		INSERT INTO invoices (` + invoiceColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		inv.ID, inv.TentID, inv.ProjectID, inv.SubmittedBy, inv.Status,
		inv.ScannedInvoiceURL, inv.PreparedByName, nullTime(inv.PreparedDate),
		inv.ProcessedBy, nullTime(inv.ProcessedAt), inv.ApprovedBy, nullTime(inv.ApprovedAt),
		inv.RejectionReason, inv.CreatedAt, inv.UpdatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return repository.ErrForeignKeyViolation
		}
		return fmt.Errorf("failed to create invoice: %w", err)
	}
	return nil
}

// Get retrieves an invoice by ID
func (r *InvoiceRepository) Get(ctx context.Context, id string) (*invoice.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE id = ?`
	inv, err := scanInvoice(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// ListByProject returns all invoices for a project, newest first.
func (r *InvoiceRepository) ListByProject(ctx context.Context, projectID string) ([]invoice.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE project_id = ? ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	defer rows.Close()

	var invoices []invoice.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, *inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating invoice rows: %w", err)
	}
	return invoices, nil
}

// Update persists a status change guarded on the status the caller observed.
// A stale expected status yields repository.ErrConflict.
func (r *InvoiceRepository) Update(ctx context.Context, inv *invoice.Invoice, expected invoice.Status) error {
	query := `
		UPDATE invoices
		SET status = ?, scanned_invoice_url = ?, prepared_by_name = ?, prepared_date = ?,
		    processed_by = ?, processed_at = ?, approved_by = ?, approved_at = ?,
		    rejection_reason = ?, updated_at = ?
		WHERE id = ? AND status = ?
	`
	result, err := r.db.ExecContext(ctx, query,
		inv.Status, inv.ScannedInvoiceURL, inv.PreparedByName, nullTime(inv.PreparedDate),
		inv.ProcessedBy, nullTime(inv.ProcessedAt), inv.ApprovedBy, nullTime(inv.ApprovedAt),
		inv.RejectionReason, inv.UpdatedAt,
		inv.ID, expected,
	)
	if err != nil {
		return fmt.Errorf("failed to update invoice: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		var exists bool
		err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM invoices WHERE id = ?)`, inv.ID).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to check invoice existence: %w", err)
		}
		if !exists {
			return repository.ErrNotFound
		}
		return repository.ErrConflict
	}
	return nil
}

func scanInvoice(row rowScanner) (*invoice.Invoice, error) {
	var inv invoice.Invoice
	var preparedDate, processedAt, approvedAt sql.NullTime
	var processedBy, approvedBy sql.NullString

	err := row.Scan(
		&inv.ID, &inv.TentID, &inv.ProjectID, &inv.SubmittedBy, &inv.Status,
		&inv.ScannedInvoiceURL, &inv.PreparedByName, &preparedDate,
		&processedBy, &processedAt, &approvedBy, &approvedAt,
		&inv.RejectionReason, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan invoice: %w", err)
	}

	inv.PreparedDate = timePtr(preparedDate)
	inv.ProcessedAt = timePtr(processedAt)
	inv.ApprovedAt = timePtr(approvedAt)
	if processedBy.Valid {
		v := processedBy.String
		inv.ProcessedBy = &v
	}
	if approvedBy.Valid {
		v := approvedBy.String
		inv.ApprovedBy = &v
	}
	return &inv, nil
}
