package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tentworks/tentflow/internal/domain/invoice"
	"github.com/tentworks/tentflow/internal/repository"
)

func testInvoice(id, projectID string) *invoice.Invoice {
	now := time.Now()
	return &invoice.Invoice{
		ID:          id,
		TentID:      "tent1",
		ProjectID:   projectID,
		SubmittedBy: "u2",
		Status:      invoice.StatusDraft,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestInvoiceRepository_CreateAndGet(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	insertTestProject(t, db, "p1", "tent1")

	repo := NewInvoiceRepository(db)
	inv := testInvoice("inv1", "p1")
	inv.PreparedByName = "Maria Santos"
	prepared := time.Now()
	inv.PreparedDate = &prepared

	require.NoError(t, repo.Create(ctx, inv))

	got, err := repo.Get(ctx, "inv1")
	require.NoError(t, err)
	require.Equal(t, invoice.StatusDraft, got.Status)
	require.Equal(t, "Maria Santos", got.PreparedByName)
	require.NotNil(t, got.PreparedDate)
	require.Nil(t, got.ApprovedBy)

	_, err = repo.Get(ctx, "nonexistent")
	require.ErrorIs(t, err, repository.ErrNotFound)

	// Invoices need a real project
	orphan := testInvoice("inv2", "missing")
	require.ErrorIs(t, repo.Create(ctx, orphan), repository.ErrForeignKeyViolation)
}

func TestInvoiceRepository_UpdateStatusGuard(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	insertTestProject(t, db, "p1", "tent1")

	repo := NewInvoiceRepository(db)
	inv := testInvoice("inv1", "p1")
	require.NoError(t, repo.Create(ctx, inv))

	inv.Status = invoice.StatusSubmitted
	inv.UpdatedAt = time.Now()
	require.NoError(t, repo.Update(ctx, inv, invoice.StatusDraft))

	got, err := repo.Get(ctx, "inv1")
	require.NoError(t, err)
	require.Equal(t, invoice.StatusSubmitted, got.Status)

	// Replaying with the stale observed status conflicts
	err = repo.Update(ctx, inv, invoice.StatusDraft)
	require.ErrorIs(t, err, repository.ErrConflict)

	missing := testInvoice("ghost", "p1")
	err = repo.Update(ctx, missing, invoice.StatusDraft)
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestInvoiceRepository_ListByProject(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	insertTestProject(t, db, "p1", "tent1")
	insertTestProject(t, db, "p2", "tent1")

	repo := NewInvoiceRepository(db)
	require.NoError(t, repo.Create(ctx, testInvoice("inv1", "p1")))
	require.NoError(t, repo.Create(ctx, testInvoice("inv2", "p1")))
	require.NoError(t, repo.Create(ctx, testInvoice("inv3", "p2")))

	invoices, err := repo.ListByProject(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, invoices, 2)
}
