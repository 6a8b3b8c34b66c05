package notify

import "time"

// Type classifies a notification for the presentation layer.
type Type string

const (
	TypeProjectSubmitted Type = "project_submitted"
	TypeProjectApproved  Type = "project_approved"
	TypeInvoiceRequested Type = "invoice_requested"
	TypeInvoiceUploaded  Type = "invoice_uploaded"
	TypeProjectAccepted  Type = "project_accepted"
	TypeInvoiceDecision  Type = "invoice_decision"
)

// Notification is a message for one tent member, produced after a workflow
// transition commits. Records are append-only apart from the read flag.
type Notification struct {
	ID          string    `json:"id"`
	TentID      string    `json:"tent_id"`
	RecipientID string    `json:"recipient_id"`
	ActorID     string    `json:"actor_id"`
	ProjectID   string    `json:"project_id,omitempty"`
	Type        Type      `json:"type"`
	Title       string    `json:"title"`
	Body        string    `json:"body,omitempty"`
	Read        bool      `json:"read"`
	CreatedAt   time.Time `json:"created_at"`
}

// ListOptions filters notification listings.
type ListOptions struct {
	RecipientID string
	UnreadOnly  bool
	Limit       int
	Offset      int
}
