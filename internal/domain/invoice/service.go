package invoice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tentworks/tentflow/internal/domain/activity"
	"github.com/tentworks/tentflow/internal/domain/membership"
	"github.com/tentworks/tentflow/internal/repository"
)

// Service runs the invoice approval sub-flow. Every action is atomic: a
// status change plus timestamp and actor fields persisted with an expected-
// status guard, then an activity entry recorded best-effort.
type Service struct {
	invoices   Repository
	projects   ProjectGetter
	roles      RoleResolver
	activities ActivityRecorder
	logger     *slog.Logger
}

// NewService creates a new invoice service.
func NewService(invoices Repository, projects ProjectGetter, roles RoleResolver, activities ActivityRecorder, logger *slog.Logger) *Service {
	return &Service{
		invoices:   invoices,
		projects:   projects,
		roles:      roles,
		activities: activities,
		logger:     logger,
	}
}

// Create starts formal invoice preparation for a project. Manager only;
// the invoice opens as a draft.
func (s *Service) Create(ctx context.Context, projectID, actorID, preparedByName string) (*Invoice, error) {
	proj, err := s.projects.Get(ctx, projectID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: project %s", ErrInvoiceNotFound, projectID)
		}
		return nil, fmt.Errorf("loading project: %w", err)
	}

	actor, err := s.resolveActor(ctx, actorID, proj.TentID)
	if err != nil {
		return nil, err
	}
	if actor.Role != membership.RoleManager {
		return nil, fmt.Errorf("%w: only the manager prepares invoices", ErrForbidden)
	}

	now := time.Now()
	inv := &Invoice{
		ID:             uuid.NewString(),
		TentID:         proj.TentID,
		ProjectID:      proj.ID,
		SubmittedBy:    actorID,
		Status:         StatusDraft,
		PreparedByName: preparedByName,
		PreparedDate:   &now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.invoices.Create(ctx, inv); err != nil {
		return nil, fmt.Errorf("creating invoice: %w", err)
	}

	s.record(ctx, inv, actorID, activity.TypeInvoiceSubmitted,
		fmt.Sprintf("started invoice preparation for project %s", proj.ProjectNumber))
	return inv, nil
}

// Submit moves a draft invoice into the approval flow. Manager only.
func (s *Service) Submit(ctx context.Context, invoiceID, actorID string) (*Invoice, error) {
	return s.act(ctx, invoiceID, actorID, func(inv *Invoice, actor *membership.Membership, now time.Time) (activity.ActivityType, string, error) {
		if actor.Role != membership.RoleManager {
			return "", "", fmt.Errorf("%w: submit requires the manager role", ErrForbidden)
		}
		if inv.Status != StatusDraft {
			return "", "", s.wrongStatus(inv.Status, StatusDraft)
		}
		inv.Status = StatusSubmitted
		return activity.TypeInvoiceSubmitted, "submitted invoice for approval", nil
	})
}

// UploadScanned attaches the scanned invoice document and hands it to the
// client for approval. Manager only, from submitted.
func (s *Service) UploadScanned(ctx context.Context, invoiceID, actorID, scannedURL string) (*Invoice, error) {
	return s.act(ctx, invoiceID, actorID, func(inv *Invoice, actor *membership.Membership, now time.Time) (activity.ActivityType, string, error) {
		if actor.Role != membership.RoleManager {
			return "", "", fmt.Errorf("%w: uploading the scan requires the manager role", ErrForbidden)
		}
		if inv.Status != StatusSubmitted {
			return "", "", s.wrongStatus(inv.Status, StatusSubmitted)
		}
		if strings.TrimSpace(scannedURL) == "" {
			return "", "", fmt.Errorf("%w: scanned invoice URL is required", ErrValidation)
		}
		inv.ScannedInvoiceURL = scannedURL
		inv.Status = StatusAwaitingApproval
		return activity.TypeInvoiceScanned, "uploaded scanned invoice", nil
	})
}

// Approve signs off the invoice. Client only, from awaiting_approval, with
// a non-empty signer name.
func (s *Service) Approve(ctx context.Context, invoiceID, actorID, signerName string) (*Invoice, error) {
	return s.act(ctx, invoiceID, actorID, func(inv *Invoice, actor *membership.Membership, now time.Time) (activity.ActivityType, string, error) {
		if actor.Role != membership.RoleClient {
			return "", "", fmt.Errorf("%w: approval requires the client role", ErrForbidden)
		}
		if inv.Status != StatusAwaitingApproval {
			return "", "", s.wrongStatus(inv.Status, StatusAwaitingApproval)
		}
		signer := strings.TrimSpace(signerName)
		if signer == "" {
			return "", "", fmt.Errorf("%w: signer name is required", ErrValidation)
		}
		inv.Status = StatusApproved
		inv.ApprovedBy = &signer
		inv.ApprovedAt = &now
		return activity.TypeInvoiceApproved, fmt.Sprintf("approved invoice, signed by %s", signer), nil
	})
}

// Reject sends the invoice back with a reason. The client may reject while
// awaiting approval; the manager may withdraw a submitted invoice.
func (s *Service) Reject(ctx context.Context, invoiceID, actorID, reason string) (*Invoice, error) {
	return s.act(ctx, invoiceID, actorID, func(inv *Invoice, actor *membership.Membership, now time.Time) (activity.ActivityType, string, error) {
		allowed := (actor.Role == membership.RoleClient && inv.Status == StatusAwaitingApproval) ||
			(actor.Role == membership.RoleManager && inv.Status == StatusSubmitted)
		if !allowed {
			if inv.Status != StatusAwaitingApproval && inv.Status != StatusSubmitted {
				return "", "", fmt.Errorf("%w: cannot reject an invoice in status %s", ErrPreconditionNotMet, inv.Status)
			}
			return "", "", fmt.Errorf("%w: %s cannot reject an invoice in status %s", ErrForbidden, actor.Role, inv.Status)
		}
		if strings.TrimSpace(reason) == "" {
			return "", "", fmt.Errorf("%w: rejection reason is required", ErrValidation)
		}
		inv.Status = StatusRejected
		inv.RejectionReason = reason
		return activity.TypeInvoiceRejected, fmt.Sprintf("rejected invoice: %s", reason), nil
	})
}

// MarkSent records that the approved invoice went out for payment
// processing. Manager only, from approved.
func (s *Service) MarkSent(ctx context.Context, invoiceID, actorID string) (*Invoice, error) {
	return s.act(ctx, invoiceID, actorID, func(inv *Invoice, actor *membership.Membership, now time.Time) (activity.ActivityType, string, error) {
		if actor.Role != membership.RoleManager {
			return "", "", fmt.Errorf("%w: marking sent requires the manager role", ErrForbidden)
		}
		if inv.Status != StatusApproved {
			return "", "", s.wrongStatus(inv.Status, StatusApproved)
		}
		inv.Status = StatusProcessing
		inv.ProcessedBy = &actorID
		inv.ProcessedAt = &now
		return activity.TypeInvoiceSent, "sent invoice for payment processing", nil
	})
}

// Complete closes out a processing invoice. Manager only; completed is
// terminal.
func (s *Service) Complete(ctx context.Context, invoiceID, actorID string) (*Invoice, error) {
	return s.act(ctx, invoiceID, actorID, func(inv *Invoice, actor *membership.Membership, now time.Time) (activity.ActivityType, string, error) {
		if actor.Role != membership.RoleManager {
			return "", "", fmt.Errorf("%w: completing requires the manager role", ErrForbidden)
		}
		if inv.Status != StatusProcessing {
			return "", "", s.wrongStatus(inv.Status, StatusProcessing)
		}
		inv.Status = StatusCompleted
		return activity.TypeInvoiceSent, "completed invoice processing", nil
	})
}

// Resubmit returns a rejected invoice to submitted for another round,
// clearing the rejection reason. Manager only.
func (s *Service) Resubmit(ctx context.Context, invoiceID, actorID string) (*Invoice, error) {
	return s.act(ctx, invoiceID, actorID, func(inv *Invoice, actor *membership.Membership, now time.Time) (activity.ActivityType, string, error) {
		if actor.Role != membership.RoleManager {
			return "", "", fmt.Errorf("%w: resubmission requires the manager role", ErrForbidden)
		}
		if inv.Status != StatusRejected {
			return "", "", s.wrongStatus(inv.Status, StatusRejected)
		}
		inv.Status = StatusSubmitted
		inv.RejectionReason = ""
		return activity.TypeInvoiceResubmitted, "resubmitted invoice after rejection", nil
	})
}

// Get returns an invoice visible to the actor.
func (s *Service) Get(ctx context.Context, invoiceID, actorID string) (*Invoice, error) {
	inv, err := s.load(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if _, err := s.resolveActor(ctx, actorID, inv.TentID); err != nil {
		return nil, err
	}
	return inv, nil
}

// ListByProject returns the invoices of a project.
func (s *Service) ListByProject(ctx context.Context, projectID, actorID string) ([]Invoice, error) {
	proj, err := s.projects.Get(ctx, projectID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: project %s", ErrInvoiceNotFound, projectID)
		}
		return nil, fmt.Errorf("loading project: %w", err)
	}
	if _, err := s.resolveActor(ctx, actorID, proj.TentID); err != nil {
		return nil, err
	}
	return s.invoices.ListByProject(ctx, projectID)
}

type actionFunc func(inv *Invoice, actor *membership.Membership, now time.Time) (activity.ActivityType, string, error)

func (s *Service) act(ctx context.Context, invoiceID, actorID string, fn actionFunc) (*Invoice, error) {
	inv, err := s.load(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	actor, err := s.resolveActor(ctx, actorID, inv.TentID)
	if err != nil {
		return nil, err
	}

	expected := inv.Status
	now := time.Now()
	activityType, summary, err := fn(inv, actor, now)
	if err != nil {
		return nil, err
	}
	inv.UpdatedAt = now

	if err := s.invoices.Update(ctx, inv, expected); err != nil {
		switch {
		case errors.Is(err, repository.ErrConflict):
			return nil, ErrConflict
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("persisting invoice action: %w", err)
	}

	s.record(ctx, inv, actorID, activityType, summary)
	return inv, nil
}

func (s *Service) load(ctx context.Context, invoiceID string) (*Invoice, error) {
	inv, err := s.invoices.Get(ctx, invoiceID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("loading invoice: %w", err)
	}
	return inv, nil
}

func (s *Service) resolveActor(ctx context.Context, actorID, tentID string) (*membership.Membership, error) {
	m, err := s.roles.Resolve(ctx, actorID, tentID)
	if err != nil {
		if errors.Is(err, membership.ErrNotAMember) {
			return nil, fmt.Errorf("%w: not a member of this tent", ErrForbidden)
		}
		return nil, fmt.Errorf("resolving actor: %w", err)
	}
	return m, nil
}

func (s *Service) wrongStatus(got, want Status) error {
	return fmt.Errorf("%w: invoice is %s, expected %s", ErrPreconditionNotMet, got, want)
}

func (s *Service) record(ctx context.Context, inv *Invoice, actorID string, typ activity.ActivityType, summary string) {
	if s.activities == nil {
		return
	}
	err := s.activities.Record(ctx, inv.TentID, &activity.Entry{
		ProjectID:    inv.ProjectID,
		InvoiceID:    &inv.ID,
		ActorID:      actorID,
		ActivityType: typ,
		Summary:      summary,
	})
	if err != nil && s.logger != nil {
		s.logger.Warn("activity record failed", "invoice_id", inv.ID, "type", typ, "error", err)
	}
}
