package invoice

import "errors"

var (
	// ErrInvoiceNotFound indicates the invoice doesn't exist.
	ErrInvoiceNotFound = errors.New("invoice not found")
	// ErrValidation indicates malformed input for an invoice action.
	ErrValidation = errors.New("invalid invoice input")
	// ErrForbidden indicates the actor's role does not permit the action.
	ErrForbidden = errors.New("actor role does not permit this invoice action")
	// ErrPreconditionNotMet indicates the invoice is not in the right status.
	ErrPreconditionNotMet = errors.New("invoice status does not allow this action")
	// ErrConflict indicates the invoice changed since it was read.
	ErrConflict = errors.New("invoice modified by a concurrent operation")
)
