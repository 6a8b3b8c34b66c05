package invoice

import "time"

// Status is the approval state of a prepared invoice document.
type Status string

const (
	StatusDraft            Status = "draft"
	StatusSubmitted        Status = "submitted"
	StatusAwaitingApproval Status = "awaiting_approval"
	StatusApproved         Status = "approved"
	StatusProcessing       Status = "processing"
	StatusCompleted        Status = "completed"
	StatusRejected         Status = "rejected"
)

// Invoice is a manager-prepared invoice document moving through its own
// approval machine, independent of the owning project's workflow step.
// Completed is terminal; rejected invoices can be resubmitted.
type Invoice struct {
	ID          string `json:"id"`
	TentID      string `json:"tent_id"`
	ProjectID   string `json:"project_id"`
	SubmittedBy string `json:"submitted_by"`
	Status      Status `json:"status"`

	ScannedInvoiceURL string     `json:"scanned_invoice_url,omitempty"`
	PreparedByName    string     `json:"prepared_by_name,omitempty"`
	PreparedDate      *time.Time `json:"prepared_date,omitempty"`

	ProcessedBy *string    `json:"processed_by,omitempty"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
	ApprovedBy  *string    `json:"approved_by,omitempty"`
	ApprovedAt  *time.Time `json:"approved_at,omitempty"`

	RejectionReason string `json:"rejection_reason,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
