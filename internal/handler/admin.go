package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/train-ticket-reservation/internal/repository"
)

// AdminHandler serves the dashboard counts and user moderation.
type AdminHandler struct {
	Stats *repository.StatsRepo
	Users *repository.UserRepo
}

func NewAdminHandler(stats *repository.StatsRepo, users *repository.UserRepo) *AdminHandler {
	if stats == nil || users == nil {
		panic("nil repository passed to NewAdminHandler")
	}
	return &AdminHandler{Stats: stats, Users: users}
}

// Counts handles GET /v1/admin/counts.  Without an entity query parameter
// it returns every count; with one it returns that entity's count alone.
func (h *AdminHandler) Counts(c echo.Context) error {
	ctx := c.Request().Context()
	entity := strings.TrimSpace(c.QueryParam("entity"))
	if entity == "" {
		counts, err := h.Stats.CountAll(ctx)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
		return c.JSON(http.StatusOK, echo.Map{"counts": counts})
	}
	n, err := h.Stats.Count(ctx, entity)
	if err != nil {
		if errors.Is(err, repository.ErrUnknownEntity) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown entity"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"entity": entity, "count": n})
}

type banReq struct {
	Banned bool `json:"banned"`
}

// SetBanned handles POST /v1/admin/users/:id/ban.  Banned users cannot
// log in or refresh; their existing orders stay intact.
func (h *AdminHandler) SetBanned(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	var req banReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := h.Users.SetBanned(c.Request().Context(), id, req.Banned); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update user failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
