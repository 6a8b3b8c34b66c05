package membership

import "errors"

var (
	// ErrNotAMember indicates the user has no membership in the tent.
	ErrNotAMember = errors.New("user is not a member of the tent")
	// ErrTentFull indicates the tent already has its two members.
	ErrTentFull = errors.New("tent already has two members")
	// ErrRoleTaken indicates the tent already has a member with that role.
	ErrRoleTaken = errors.New("tent already has a member with that role")
	// ErrInvalidInput indicates invalid membership input.
	ErrInvalidInput = errors.New("invalid membership input")
)
