package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/train-ticket-reservation/internal/repository"
)

// StationHandler exposes station administration and lookup endpoints.
// Mutations are admin-only; reads are open to any authenticated user.
type StationHandler struct {
	Stations *repository.StationRepo
}

func NewStationHandler(stations *repository.StationRepo) *StationHandler {
	if stations == nil {
		panic("nil repository passed to NewStationHandler")
	}
	return &StationHandler{Stations: stations}
}

type stationReq struct {
	Name string `json:"name"`
	City string `json:"city"`
}

// Create handles POST /v1/stations.
func (h *StationHandler) Create(c echo.Context) error {
	var req stationReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	req.City = strings.TrimSpace(req.City)
	if req.Name == "" || req.City == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and city are required"})
	}
	s := &repository.Station{Name: req.Name, City: req.City}
	if err := h.Stations.Create(c.Request().Context(), s); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create station failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"item": s})
}

// Get handles GET /v1/stations/:id.
func (h *StationHandler) Get(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid station id"})
	}
	s, err := h.Stations.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrStationNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "station not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"item": s})
}

// List handles GET /v1/stations.
func (h *StationHandler) List(c echo.Context) error {
	offset, limit := pagination(c)
	items, err := h.Stations.List(c.Request().Context(), offset, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Update handles PUT /v1/stations/:id.
func (h *StationHandler) Update(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid station id"})
	}
	var req stationReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	req.City = strings.TrimSpace(req.City)
	if req.Name == "" || req.City == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and city are required"})
	}
	s := &repository.Station{ID: id, Name: req.Name, City: req.City}
	if err := h.Stations.Update(c.Request().Context(), s); err != nil {
		if errors.Is(err, repository.ErrStationNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "station not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update station failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"item": s})
}

// Deprecate handles POST /v1/stations/:id/deprecate.
func (h *StationHandler) Deprecate(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid station id"})
	}
	if err := h.Stations.SetDeprecated(c.Request().Context(), id, true); err != nil {
		if errors.Is(err, repository.ErrStationNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "station not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "deprecate station failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// Delete handles DELETE /v1/stations/:id.  Deprecated stations and
// stations referenced by routes are not deletable.
func (h *StationHandler) Delete(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid station id"})
	}
	err := h.Stations.Delete(c.Request().Context(), id)
	switch {
	case err == nil:
		return c.NoContent(http.StatusNoContent)
	case errors.Is(err, repository.ErrStationNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "station not found"})
	case errors.Is(err, repository.ErrDeprecated):
		return c.JSON(http.StatusConflict, echo.Map{"error": "deprecated station cannot be deleted"})
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "station is referenced by routes"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete station failed"})
	}
}
