package server

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tentworks/tentflow/internal/domain/invoice"
)

func (s *Server) handleCreateInvoice(c echo.Context) error {
	actor, err := actorID(c)
	if err != nil {
		return err
	}

	var body struct {
		PreparedByName string `json:"prepared_by_name"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	inv, err := s.invoices.Create(c.Request().Context(), c.Param("id"), actor, body.PreparedByName)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, inv)
}

func (s *Server) handleGetInvoice(c echo.Context) error {
	actor, err := actorID(c)
	if err != nil {
		return err
	}
	inv, err := s.invoices.Get(c.Request().Context(), c.Param("id"), actor)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, inv)
}

func (s *Server) handleListInvoices(c echo.Context) error {
	actor, err := actorID(c)
	if err != nil {
		return err
	}
	invoices, err := s.invoices.ListByProject(c.Request().Context(), c.Param("id"), actor)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, invoices)
}

// invoiceActionHandler adapts the argument-less invoice actions.
func (s *Server) invoiceActionHandler(fn func(ctx context.Context, invoiceID, actorID string) (*invoice.Invoice, error)) echo.HandlerFunc {
	return func(c echo.Context) error {
		actor, err := actorID(c)
		if err != nil {
			return err
		}
		inv, err := fn(c.Request().Context(), c.Param("id"), actor)
		if err != nil {
			return httpError(err)
		}
		return c.JSON(http.StatusOK, inv)
	}
}

func (s *Server) handleScanInvoice(c echo.Context) error {
	actor, err := actorID(c)
	if err != nil {
		return err
	}

	var body struct {
		ScannedInvoiceURL string `json:"scanned_invoice_url"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	inv, err := s.invoices.UploadScanned(c.Request().Context(), c.Param("id"), actor, body.ScannedInvoiceURL)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, inv)
}

func (s *Server) handleApproveInvoice(c echo.Context) error {
	actor, err := actorID(c)
	if err != nil {
		return err
	}

	var body struct {
		SignerName string `json:"signer_name"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	inv, err := s.invoices.Approve(c.Request().Context(), c.Param("id"), actor, body.SignerName)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, inv)
}

func (s *Server) handleRejectInvoice(c echo.Context) error {
	actor, err := actorID(c)
	if err != nil {
		return err
	}

	var body struct {
		Reason string `json:"reason"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	inv, err := s.invoices.Reject(c.Request().Context(), c.Param("id"), actor, body.Reason)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, inv)
}
