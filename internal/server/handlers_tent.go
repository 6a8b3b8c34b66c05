package server

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/tentworks/tentflow/internal/domain/activity"
	"github.com/tentworks/tentflow/internal/domain/membership"
	"github.com/tentworks/tentflow/internal/domain/notify"
)

func (s *Server) handleJoinTent(c echo.Context) error {
	actor, err := actorID(c)
	if err != nil {
		return err
	}

	var body struct {
		Role membership.Role `json:"role"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	m, err := s.members.Join(c.Request().Context(), actor, c.Param("tent_id"), body.Role)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, m)
}

func (s *Server) handleListActivity(c echo.Context) error {
	actor, err := actorID(c)
	if err != nil {
		return err
	}
	tentID := c.Param("tent_id")

	// Activity is tent-scoped: only members may read it.
	if _, err := s.members.Resolve(c.Request().Context(), actor, tentID); err != nil {
		return httpError(err)
	}

	opts := activity.ListOptions{
		ProjectID: c.QueryParam("project_id"),
		ActorID:   c.QueryParam("actor_id"),
	}
	if v := c.QueryParam("limit"); v != "" {
		opts.Limit, _ = strconv.Atoi(v)
	}
	if v := c.QueryParam("offset"); v != "" {
		opts.Offset, _ = strconv.Atoi(v)
	}

	entries, err := s.activities.Recent(c.Request().Context(), tentID, opts)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, entries)
}

func (s *Server) handleListNotifications(c echo.Context) error {
	actor, err := actorID(c)
	if err != nil {
		return err
	}
	tentID := c.Param("tent_id")

	if _, err := s.members.Resolve(c.Request().Context(), actor, tentID); err != nil {
		return httpError(err)
	}

	opts := notify.ListOptions{
		RecipientID: actor,
		UnreadOnly:  c.QueryParam("unread") == "true",
	}
	if v := c.QueryParam("limit"); v != "" {
		opts.Limit, _ = strconv.Atoi(v)
	}

	notifications, err := s.notifier.List(c.Request().Context(), tentID, opts)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, notifications)
}

func (s *Server) handleMarkNotificationRead(c echo.Context) error {
	actor, err := actorID(c)
	if err != nil {
		return err
	}
	tentID := c.Param("tent_id")

	if _, err := s.members.Resolve(c.Request().Context(), actor, tentID); err != nil {
		return httpError(err)
	}

	if err := s.notifier.MarkRead(c.Request().Context(), tentID, c.Param("id")); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
