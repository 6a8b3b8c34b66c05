package activity

import "time"

// ActivityType represents the type of activity event
type ActivityType string

const (
	TypeProjectCreated   ActivityType = "project_created"
	TypeProjectSubmitted ActivityType = "project_submitted"
	TypeProjectApproved  ActivityType = "project_approved"
	TypeInvoiceRequested ActivityType = "invoice_requested"
	TypeInvoiceUploaded  ActivityType = "invoice_uploaded"
	TypeProjectAccepted  ActivityType = "project_accepted"
	TypeProjectEdited    ActivityType = "project_edited"

	TypeInvoiceSubmitted   ActivityType = "invoice_submitted"
	TypeInvoiceScanned     ActivityType = "invoice_scanned"
	TypeInvoiceApproved    ActivityType = "invoice_approved"
	TypeInvoiceRejected    ActivityType = "invoice_rejected"
	TypeInvoiceResubmitted ActivityType = "invoice_resubmitted"
	TypeInvoiceSent        ActivityType = "invoice_sent"
)

// Entry represents an event in the activity log. Entries are append-only;
// nothing in the engine mutates or deletes them.
type Entry struct {
	ID           int64        `json:"id"`
	TentID       string       `json:"tent_id"`
	ProjectID    string       `json:"project_id"`
	InvoiceID    *string      `json:"invoice_id,omitempty"`
	ActorID      string       `json:"actor_id"`
	ActivityType ActivityType `json:"type"`
	Summary      string       `json:"summary"`
	Details      string       `json:"details,omitempty"` // JSON string
	CreatedAt    time.Time    `json:"created_at"`
}
