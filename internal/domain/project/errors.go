package project

import "errors"

var (
	// ErrProjectNotFound indicates the project doesn't exist.
	ErrProjectNotFound = errors.New("project not found")
	// ErrValidation indicates malformed input for a project operation.
	ErrValidation = errors.New("invalid project input")
	// ErrForbidden indicates the actor's role does not permit the operation.
	ErrForbidden = errors.New("actor role does not permit this operation")
	// ErrPreconditionNotMet indicates a state or data precondition failed.
	ErrPreconditionNotMet = errors.New("workflow precondition not met")
	// ErrConflict indicates the project changed since it was read.
	ErrConflict = errors.New("project modified by a concurrent operation")
	// ErrUnknownTransition indicates a transition name outside the table.
	ErrUnknownTransition = errors.New("unknown workflow transition")
)
