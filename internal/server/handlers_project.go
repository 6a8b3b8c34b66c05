package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/tentworks/tentflow/internal/domain/project"
)

type projectPayload struct {
	Name          string `json:"name"`
	ClientName    string `json:"client_name"`
	ClientEmail   string `json:"client_email"`
	ClientPhone   string `json:"client_phone"`
	ClientAddress string `json:"client_address"`
	ClientTin     string `json:"client_tin"`

	Type     string `json:"type"`
	Priority string `json:"priority"`

	LifecycleStatus project.LifecycleStatus `json:"lifecycle_status"`

	RequiresInvoice       bool                `json:"requires_invoice"`
	PaymentType           project.PaymentType `json:"payment_type"`
	BudgetAmount          decimal.Decimal     `json:"budget_amount"`
	TaxAmount             decimal.Decimal     `json:"tax_amount"`
	WithholdingTaxPercent decimal.Decimal     `json:"withholding_tax_percent"`
	PaymentStatus         string              `json:"payment_status"`
	PaymentDueDate        *time.Time          `json:"payment_due_date"`

	Notes string   `json:"notes"`
	Tags  []string `json:"tags"`

	Items []project.Item `json:"items"`
	Tasks []project.Task `json:"tasks"`
}

func (s *Server) handleCreateProject(c echo.Context) error {
	actor, err := actorID(c)
	if err != nil {
		return err
	}

	var body projectPayload
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	res, err := s.projects.Create(c.Request().Context(), c.Param("tent_id"), actor, project.CreateRequest{
		Name:          body.Name,
		ClientName:    body.ClientName,
		ClientEmail:   body.ClientEmail,
		ClientPhone:   body.ClientPhone,
		ClientAddress: body.ClientAddress,
		ClientTin:     body.ClientTin,

		Type:     body.Type,
		Priority: body.Priority,

		RequiresInvoice:       body.RequiresInvoice,
		PaymentType:           body.PaymentType,
		BudgetAmount:          body.BudgetAmount,
		TaxAmount:             body.TaxAmount,
		WithholdingTaxPercent: body.WithholdingTaxPercent,
		PaymentDueDate:        body.PaymentDueDate,

		Notes: body.Notes,
		Tags:  body.Tags,

		Items: body.Items,
		Tasks: body.Tasks,
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, roundedResult(res))
}

func (s *Server) handleEditProject(c echo.Context) error {
	actor, err := actorID(c)
	if err != nil {
		return err
	}

	var body projectPayload
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	res, err := s.projects.Edit(c.Request().Context(), c.Param("id"), actor, project.EditRequest{
		Name:          body.Name,
		ClientName:    body.ClientName,
		ClientEmail:   body.ClientEmail,
		ClientPhone:   body.ClientPhone,
		ClientAddress: body.ClientAddress,
		ClientTin:     body.ClientTin,

		Type:     body.Type,
		Priority: body.Priority,

		LifecycleStatus: body.LifecycleStatus,

		RequiresInvoice:       body.RequiresInvoice,
		PaymentType:           body.PaymentType,
		BudgetAmount:          body.BudgetAmount,
		TaxAmount:             body.TaxAmount,
		WithholdingTaxPercent: body.WithholdingTaxPercent,
		PaymentStatus:         body.PaymentStatus,
		PaymentDueDate:        body.PaymentDueDate,

		Notes: body.Notes,
		Tags:  body.Tags,

		Items: body.Items,
		Tasks: body.Tasks,
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, roundedResult(res))
}

func (s *Server) handleGetProject(c echo.Context) error {
	actor, err := actorID(c)
	if err != nil {
		return err
	}
	p, err := s.projects.Get(c.Request().Context(), c.Param("id"), actor)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, roundedProject(p))
}

func (s *Server) handleListProjects(c echo.Context) error {
	actor, err := actorID(c)
	if err != nil {
		return err
	}

	opts := project.ListOptions{
		LifecycleStatus: project.LifecycleStatus(c.QueryParam("lifecycle_status")),
	}
	if v := c.QueryParam("workflow_step"); v != "" {
		opts.WorkflowStep, _ = strconv.Atoi(v)
	}
	if v := c.QueryParam("limit"); v != "" {
		opts.Limit, _ = strconv.Atoi(v)
	}
	if v := c.QueryParam("offset"); v != "" {
		opts.Offset, _ = strconv.Atoi(v)
	}

	summaries, err := s.projects.List(c.Request().Context(), c.Param("tent_id"), actor, opts)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, summaries)
}

func (s *Server) handleListItems(c echo.Context) error {
	actor, err := actorID(c)
	if err != nil {
		return err
	}
	items, err := s.projects.Items(c.Request().Context(), c.Param("id"), actor)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (s *Server) handleListTasks(c echo.Context) error {
	actor, err := actorID(c)
	if err != nil {
		return err
	}
	tasks, err := s.projects.Tasks(c.Request().Context(), c.Param("id"), actor)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, tasks)
}

// transitionHandler adapts the argument-less workflow transitions.
func (s *Server) transitionHandler(fn func(ctx context.Context, projectID, actorID string) (*project.Result, error)) echo.HandlerFunc {
	return func(c echo.Context) error {
		actor, err := actorID(c)
		if err != nil {
			return err
		}
		res, err := fn(c.Request().Context(), c.Param("id"), actor)
		if err != nil {
			return httpError(err)
		}
		return c.JSON(http.StatusOK, roundedResult(res))
	}
}

func (s *Server) handleUploadInvoice(c echo.Context) error {
	actor, err := actorID(c)
	if err != nil {
		return err
	}

	var body struct {
		FileURL  string `json:"file_url"`
		FileName string `json:"file_name"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	res, err := s.projects.UploadInvoice(c.Request().Context(), c.Param("id"), actor, body.FileURL, body.FileName)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, roundedResult(res))
}

// Monetary values round to two decimal places at the response boundary only;
// stored values keep full precision.
func roundedProject(p *project.Project) *project.Project {
	out := *p
	out.BudgetAmount = p.BudgetAmount.Round(2)
	out.InvoiceAmount = p.InvoiceAmount.Round(2)
	out.TaxAmount = p.TaxAmount.Round(2)
	out.WithholdingTaxAmount = p.WithholdingTaxAmount.Round(2)
	if p.TotalAmount.Valid {
		out.TotalAmount = decimal.NewNullDecimal(p.TotalAmount.Decimal.Round(2))
	}
	return &out
}

func roundedResult(res *project.Result) *project.Result {
	return &project.Result{Project: roundedProject(res.Project), Actor: res.Actor}
}
