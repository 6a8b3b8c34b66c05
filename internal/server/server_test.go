package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tentworks/tentflow/internal/domain/activity"
	"github.com/tentworks/tentflow/internal/domain/invoice"
	"github.com/tentworks/tentflow/internal/domain/membership"
	"github.com/tentworks/tentflow/internal/domain/notify"
	"github.com/tentworks/tentflow/internal/domain/project"
	"github.com/tentworks/tentflow/internal/server"
	"github.com/tentworks/tentflow/internal/sqlite"
)

func newTestServer(t *testing.T) *server.Server {
	t.Helper()

	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	memberRepo := sqlite.NewMembershipRepository(db)
	projectRepo := sqlite.NewProjectRepository(db)
	invoiceRepo := sqlite.NewInvoiceRepository(db)
	activityRepo := sqlite.NewActivityRepository(db)
	notifyRepo := sqlite.NewNotificationRepository(db)

	members := membership.NewResolver(memberRepo, logger)
	activities := activity.NewService(activityRepo, logger)
	notifier := notify.NewDispatcher(notifyRepo, logger)
	projects := project.NewService(projectRepo, members, activities, notifier, logger)
	invoices := invoice.NewService(invoiceRepo, projectRepo, members, activities, logger)

	// Seed the tent with its two members
	ctx := context.Background()
	_, err = members.Join(ctx, "client1", "tent1", membership.RoleClient)
	require.NoError(t, err)
	_, err = members.Join(ctx, "mgr1", "tent1", membership.RoleManager)
	require.NoError(t, err)

	return server.New(projects, invoices, members, notifier, activities, logger)
}

func do(t *testing.T, srv *server.Server, method, path, actor string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(buf)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if actor != "" {
		req.Header.Set("X-Actor-ID", actor)
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func createProject(t *testing.T, srv *server.Server) string {
	t.Helper()
	rec := do(t, srv, http.MethodPost, "/api/v1/tents/tent1/projects", "client1", map[string]any{
		"name":                    "Website redesign",
		"client_name":             "Acme Corp",
		"requires_invoice":        true,
		"payment_type":            "cash",
		"tax_amount":              "0",
		"withholding_tax_percent": "10",
		"items": []map[string]any{
			{"description": "Design", "quantity": "2", "unit_price": "100"},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	res := decode[project.Result](t, rec)
	return res.Project.ID
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)
	rec := do(t, srv, http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestMissingActorHeader(t *testing.T) {
	srv := newTestServer(t)
	rec := do(t, srv, http.MethodGet, "/api/v1/tents/tent1/projects", "", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProjectWorkflowEndToEnd(t *testing.T) {
	srv := newTestServer(t)
	id := createProject(t, srv)

	// Derivation is visible at creation time
	rec := do(t, srv, http.MethodGet, "/api/v1/projects/"+id, "client1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	p := decode[project.Project](t, rec)
	require.Equal(t, 1, p.WorkflowStep)
	require.True(t, p.TotalAmount.Valid)
	require.Equal(t, "180", p.TotalAmount.Decimal.String())

	// The manager cannot submit
	rec = do(t, srv, http.MethodPost, "/api/v1/projects/"+id+"/submit", "mgr1", nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	// Accept before any invoice upload is a precondition failure
	rec = do(t, srv, http.MethodPost, "/api/v1/projects/"+id+"/accept", "client1", nil)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	// Walk the five steps
	rec = do(t, srv, http.MethodPost, "/api/v1/projects/"+id+"/submit", "client1", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// Replaying submit at step 2 fails the step precondition
	rec = do(t, srv, http.MethodPost, "/api/v1/projects/"+id+"/submit", "client1", nil)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = do(t, srv, http.MethodPost, "/api/v1/projects/"+id+"/approve", "mgr1", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, srv, http.MethodPost, "/api/v1/projects/"+id+"/request-invoice", "client1", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, srv, http.MethodPost, "/api/v1/projects/"+id+"/upload-invoice", "mgr1", map[string]any{
		"file_url": "https://files/inv.pdf", "file_name": "inv.pdf",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, srv, http.MethodPost, "/api/v1/projects/"+id+"/accept", "client1", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode[project.Result](t, rec)
	require.Equal(t, project.LifecycleCompleted, res.Project.LifecycleStatus)
	require.True(t, res.Project.StepDone(5))

	// The counterpart received notifications along the way
	rec = do(t, srv, http.MethodGet, "/api/v1/tents/tent1/notifications", "mgr1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	notifications := decode[[]notify.Notification](t, rec)
	require.NotEmpty(t, notifications)

	// And the activity log recorded the whole walk
	rec = do(t, srv, http.MethodGet, "/api/v1/tents/tent1/activity?project_id="+id, "client1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	entries := decode[[]activity.Entry](t, rec)
	require.GreaterOrEqual(t, len(entries), 6)
}

func TestEditRecalculatesTotals(t *testing.T) {
	srv := newTestServer(t)
	id := createProject(t, srv)

	rec := do(t, srv, http.MethodGet, "/api/v1/projects/"+id+"/items", "mgr1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	items := decode[[]project.Item](t, rec)
	require.Len(t, items, 1)

	// The manager revises the single line item and adds a second
	rec = do(t, srv, http.MethodPut, "/api/v1/projects/"+id, "mgr1", map[string]any{
		"name":                    "Website redesign",
		"client_name":             "Acme Corp",
		"requires_invoice":        true,
		"payment_type":            "cash",
		"tax_amount":              "0",
		"withholding_tax_percent": "0",
		"items": []map[string]any{
			{"id": items[0].ID, "description": "Design", "quantity": "2", "unit_price": "150"},
			{"description": "QA", "quantity": "1", "unit_price": "100"},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode[project.Result](t, rec)
	require.Equal(t, "400", res.Project.InvoiceAmount.String())
	require.Equal(t, "400", res.Project.TotalAmount.Decimal.String())

	// The client may not edit
	rec = do(t, srv, http.MethodPut, "/api/v1/projects/"+id, "client1", map[string]any{
		"name": "x", "client_name": "y",
	})
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestInvoiceApprovalFlow(t *testing.T) {
	srv := newTestServer(t)
	id := createProject(t, srv)

	rec := do(t, srv, http.MethodPost, "/api/v1/projects/"+id+"/invoices", "mgr1", map[string]any{
		"prepared_by_name": "Maria Santos",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	inv := decode[invoice.Invoice](t, rec)
	require.Equal(t, invoice.StatusDraft, inv.Status)

	rec = do(t, srv, http.MethodPost, "/api/v1/invoices/"+inv.ID+"/submit", "mgr1", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, srv, http.MethodPost, "/api/v1/invoices/"+inv.ID+"/scan", "mgr1", map[string]any{
		"scanned_invoice_url": "https://files/scan.pdf",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// The client rejects, the manager resubmits, the client approves
	rec = do(t, srv, http.MethodPost, "/api/v1/invoices/"+inv.ID+"/reject", "client1", map[string]any{
		"reason": "wrong amount",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, srv, http.MethodPost, "/api/v1/invoices/"+inv.ID+"/resubmit", "mgr1", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, srv, http.MethodPost, "/api/v1/invoices/"+inv.ID+"/scan", "mgr1", map[string]any{
		"scanned_invoice_url": "https://files/scan2.pdf",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, srv, http.MethodPost, "/api/v1/invoices/"+inv.ID+"/approve", "client1", map[string]any{
		"signer_name": "Juan Dela Cruz",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	approved := decode[invoice.Invoice](t, rec)
	require.Equal(t, invoice.StatusApproved, approved.Status)
	require.Empty(t, approved.RejectionReason)

	rec = do(t, srv, http.MethodPost, "/api/v1/invoices/"+inv.ID+"/sent", "mgr1", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, srv, http.MethodPost, "/api/v1/invoices/"+inv.ID+"/complete", "mgr1", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	completed := decode[invoice.Invoice](t, rec)
	require.Equal(t, invoice.StatusCompleted, completed.Status)

	// Completed is terminal
	rec = do(t, srv, http.MethodPost, "/api/v1/invoices/"+inv.ID+"/reject", "client1", map[string]any{
		"reason": "too late",
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestUnknownProjectIs404(t *testing.T) {
	srv := newTestServer(t)
	rec := do(t, srv, http.MethodGet, "/api/v1/projects/ghost", "client1", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOutsiderIs403(t *testing.T) {
	srv := newTestServer(t)
	id := createProject(t, srv)

	rec := do(t, srv, http.MethodGet, "/api/v1/projects/"+id, "stranger", nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
}
