package project

import (
	"fmt"
	"strings"
	"time"

	"github.com/tentworks/tentflow/internal/domain/activity"
	"github.com/tentworks/tentflow/internal/domain/membership"
	"github.com/tentworks/tentflow/internal/domain/notify"
)

// TransitionName identifies one of the five workflow transitions.
type TransitionName string

const (
	TransitionSubmit         TransitionName = "submit"
	TransitionApprove        TransitionName = "approve"
	TransitionRequestInvoice TransitionName = "request_invoice"
	TransitionUploadInvoice  TransitionName = "upload_invoice"
	TransitionAccept         TransitionName = "accept"
)

// TransitionArgs carries per-transition inputs.
type TransitionArgs struct {
	FileURL  string
	FileName string
}

// transition is one row of the workflow table: who may run it, what must
// hold before it runs, and what it does to the project. There is no undo
// row; the workflow step never decreases.
type transition struct {
	role         membership.Role
	needsItems   bool
	activityType activity.ActivityType
	notifyType   notify.Type
	verb         string
	check        func(p *Project, items []Item, args TransitionArgs) error
	apply        func(p *Project, args TransitionArgs, now time.Time)
}

func completeStep(p *Project, step int, now time.Time) {
	t := now
	p.StepStatus[step-1] = StepCompleted
	p.StepCompletedAt[step-1] = &t
}

func requireStep(p *Project, step int) error {
	if p.WorkflowStep != step {
		return fmt.Errorf("%w: project is at step %d, not %d", ErrPreconditionNotMet, p.WorkflowStep, step)
	}
	return nil
}

var transitions = map[TransitionName]transition{
	TransitionSubmit: {
		role:         membership.RoleClient,
		needsItems:   true,
		activityType: activity.TypeProjectSubmitted,
		notifyType:   notify.TypeProjectSubmitted,
		verb:         "submitted",
		check: func(p *Project, items []Item, _ TransitionArgs) error {
			if err := requireStep(p, 1); err != nil {
				return err
			}
			if strings.TrimSpace(p.Name) == "" || strings.TrimSpace(p.ClientName) == "" {
				return fmt.Errorf("%w: project name and client name are required", ErrPreconditionNotMet)
			}
			if p.RequiresInvoice {
				hasValid := false
				for _, item := range items {
					if item.Valid() {
						hasValid = true
						break
					}
				}
				if !hasValid {
					return fmt.Errorf("%w: an invoiced project needs at least one line item", ErrPreconditionNotMet)
				}
			}
			return nil
		},
		apply: func(p *Project, _ TransitionArgs, now time.Time) {
			completeStep(p, 1, now)
			p.WorkflowStep = 2
			p.LifecycleStatus = LifecycleInProgress
		},
	},

	TransitionApprove: {
		role:         membership.RoleManager,
		activityType: activity.TypeProjectApproved,
		notifyType:   notify.TypeProjectApproved,
		verb:         "approved",
		check: func(p *Project, _ []Item, _ TransitionArgs) error {
			return requireStep(p, 2)
		},
		apply: func(p *Project, _ TransitionArgs, now time.Time) {
			completeStep(p, 2, now)
			p.WorkflowStep = 3
		},
	},

	TransitionRequestInvoice: {
		role:         membership.RoleClient,
		activityType: activity.TypeInvoiceRequested,
		notifyType:   notify.TypeInvoiceRequested,
		verb:         "requested an invoice for",
		check: func(p *Project, _ []Item, _ TransitionArgs) error {
			return requireStep(p, 3)
		},
		apply: func(p *Project, _ TransitionArgs, now time.Time) {
			completeStep(p, 3, now)
			p.WorkflowStep = 4
		},
	},

	TransitionUploadInvoice: {
		role:         membership.RoleManager,
		activityType: activity.TypeInvoiceUploaded,
		notifyType:   notify.TypeInvoiceUploaded,
		verb:         "uploaded the invoice for",
		check: func(p *Project, _ []Item, args TransitionArgs) error {
			if err := requireStep(p, 4); err != nil {
				return err
			}
			if strings.TrimSpace(args.FileURL) == "" {
				return fmt.Errorf("%w: invoice file URL is required", ErrPreconditionNotMet)
			}
			return nil
		},
		apply: func(p *Project, args TransitionArgs, now time.Time) {
			p.InvoiceFileURL = args.FileURL
			p.InvoiceFileName = args.FileName
			completeStep(p, 4, now)
			p.WorkflowStep = 5
			p.LifecycleStatus = LifecycleReview
		},
	},

	TransitionAccept: {
		role:         membership.RoleClient,
		activityType: activity.TypeProjectAccepted,
		notifyType:   notify.TypeProjectAccepted,
		verb:         "accepted",
		check: func(p *Project, _ []Item, _ TransitionArgs) error {
			// The invoice file check comes first: accept without an uploaded
			// invoice is a precondition failure whatever the current step.
			if strings.TrimSpace(p.InvoiceFileURL) == "" {
				return fmt.Errorf("%w: no invoice file has been uploaded", ErrPreconditionNotMet)
			}
			if p.StepDone(StepCount) {
				return fmt.Errorf("%w: project has already been accepted", ErrPreconditionNotMet)
			}
			return requireStep(p, 5)
		},
		apply: func(p *Project, _ TransitionArgs, now time.Time) {
			completeStep(p, 5, now)
			p.LifecycleStatus = LifecycleCompleted
		},
	},
}
