package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/tentworks/tentflow/internal/domain/activity"
	"github.com/tentworks/tentflow/internal/domain/invoice"
	"github.com/tentworks/tentflow/internal/domain/membership"
	"github.com/tentworks/tentflow/internal/domain/notify"
	"github.com/tentworks/tentflow/internal/domain/project"
	"github.com/tentworks/tentflow/internal/repository"
)

// actorHeader carries the authenticated user id. Authentication itself is
// handled upstream; the engine only needs to know who is acting.
const actorHeader = "X-Actor-ID"

// Server is the HTTP transport over the workflow engine.
type Server struct {
	echo       *echo.Echo
	projects   *project.Service
	invoices   *invoice.Service
	members    *membership.Resolver
	notifier   *notify.Dispatcher
	activities *activity.Service
	logger     *slog.Logger
}

// New creates the HTTP server and registers all routes.
func New(projects *project.Service, invoices *invoice.Service, members *membership.Resolver, notifier *notify.Dispatcher, activities *activity.Service, logger *slog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.CORS())
	e.Use(requestLogger(logger))

	s := &Server{
		echo:       e,
		projects:   projects,
		invoices:   invoices,
		members:    members,
		notifier:   notifier,
		activities: activities,
		logger:     logger,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.echo.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	api := s.echo.Group("/api/v1")

	api.POST("/tents/:tent_id/join", s.handleJoinTent)

	api.POST("/tents/:tent_id/projects", s.handleCreateProject)
	api.GET("/tents/:tent_id/projects", s.handleListProjects)
	api.GET("/projects/:id", s.handleGetProject)
	api.PUT("/projects/:id", s.handleEditProject)
	api.GET("/projects/:id/items", s.handleListItems)
	api.GET("/projects/:id/tasks", s.handleListTasks)

	api.POST("/projects/:id/submit", s.transitionHandler(s.projects.Submit))
	api.POST("/projects/:id/approve", s.transitionHandler(s.projects.Approve))
	api.POST("/projects/:id/request-invoice", s.transitionHandler(s.projects.RequestInvoice))
	api.POST("/projects/:id/upload-invoice", s.handleUploadInvoice)
	api.POST("/projects/:id/accept", s.transitionHandler(s.projects.Accept))

	api.POST("/projects/:id/invoices", s.handleCreateInvoice)
	api.GET("/projects/:id/invoices", s.handleListInvoices)
	api.GET("/invoices/:id", s.handleGetInvoice)
	api.POST("/invoices/:id/submit", s.invoiceActionHandler(s.invoices.Submit))
	api.POST("/invoices/:id/scan", s.handleScanInvoice)
	api.POST("/invoices/:id/approve", s.handleApproveInvoice)
	api.POST("/invoices/:id/reject", s.handleRejectInvoice)
	api.POST("/invoices/:id/resubmit", s.invoiceActionHandler(s.invoices.Resubmit))
	api.POST("/invoices/:id/sent", s.invoiceActionHandler(s.invoices.MarkSent))
	api.POST("/invoices/:id/complete", s.invoiceActionHandler(s.invoices.Complete))

	api.GET("/tents/:tent_id/activity", s.handleListActivity)
	api.GET("/tents/:tent_id/notifications", s.handleListNotifications)
	api.POST("/tents/:tent_id/notifications/:id/read", s.handleMarkNotificationRead)
}

// Start begins serving on addr and blocks until shutdown.
func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func requestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus: true,
		LogURI:    true,
		LogMethod: true,
		LogError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
			}
			if v.Error != nil {
				attrs = append(attrs, "error", v.Error)
			}
			logger.Info("request", attrs...)
			return nil
		},
	})
}

func actorID(c echo.Context) (string, error) {
	id := c.Request().Header.Get(actorHeader)
	if id == "" {
		return "", echo.NewHTTPError(http.StatusBadRequest, "missing "+actorHeader+" header")
	}
	return id, nil
}

// httpError maps domain errors onto transport status codes.
func httpError(err error) error {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he
	}

	switch {
	case errors.Is(err, project.ErrForbidden),
		errors.Is(err, invoice.ErrForbidden),
		errors.Is(err, membership.ErrNotAMember):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())

	case errors.Is(err, project.ErrProjectNotFound),
		errors.Is(err, invoice.ErrInvoiceNotFound),
		errors.Is(err, repository.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())

	case errors.Is(err, project.ErrConflict),
		errors.Is(err, invoice.ErrConflict),
		errors.Is(err, membership.ErrTentFull),
		errors.Is(err, membership.ErrRoleTaken):
		return echo.NewHTTPError(http.StatusConflict, err.Error())

	case errors.Is(err, project.ErrValidation),
		errors.Is(err, project.ErrPreconditionNotMet),
		errors.Is(err, invoice.ErrValidation),
		errors.Is(err, invoice.ErrPreconditionNotMet),
		errors.Is(err, membership.ErrInvalidInput):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
}
