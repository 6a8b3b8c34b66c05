package activity

// ListOptions provides filtering options for listing activity.
type ListOptions struct {
	ProjectID    string
	InvoiceID    *string
	ActorID      string
	ActivityType *ActivityType
	Limit        int
	Offset       int
}
