package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/train-ticket-reservation/internal/model"
	"github.com/iliyamo/train-ticket-reservation/internal/repository"
)

// RouteHandler administers route templates and their stop lists.  A
// template and its stops are written in one transaction after full
// validation, so malformed or half-applied routes are never observable.
type RouteHandler struct {
	Routes   *repository.RouteRepo
	Stations *repository.StationRepo
}

func NewRouteHandler(routes *repository.RouteRepo, stations *repository.StationRepo) *RouteHandler {
	if routes == nil || stations == nil {
		panic("nil repository passed to NewRouteHandler")
	}
	return &RouteHandler{Routes: routes, Stations: stations}
}

type stopReq struct {
	StationID  uint64 `json:"station_id"`
	Seq        uint32 `json:"seq"`
	Arrival    string `json:"arrival"`
	Departure  string `json:"departure"`
	DistanceKM uint32 `json:"distance_km"`
}

type createRouteReq struct {
	Name  string    `json:"name"`
	Stops []stopReq `json:"stops"`
}

// Create handles POST /v1/routes.  Stops must carry gapless sequence
// numbers starting at 1 and non-decreasing cumulative distances; every
// referenced station must exist and not be deprecated.
func (h *RouteHandler) Create(c echo.Context) error {
	var req createRouteReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}
	stops := make([]model.StopInput, 0, len(req.Stops))
	for _, s := range req.Stops {
		stops = append(stops, model.StopInput{
			StationID:  s.StationID,
			Seq:        s.Seq,
			Arrival:    s.Arrival,
			Departure:  s.Departure,
			DistanceKM: s.DistanceKM,
		})
	}
	if err := model.ValidateStops(stops); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	ctx := c.Request().Context()
	for _, s := range stops {
		st, err := h.Stations.GetByID(ctx, s.StationID)
		if err != nil {
			if errors.Is(err, repository.ErrStationNotFound) {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown station", "station_id": s.StationID})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
		if st.Deprecated {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "deprecated station", "station_id": s.StationID})
		}
	}

	tx, err := h.Routes.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	rt := &repository.RouteTemplate{Name: req.Name}
	if err := h.Routes.CreateTx(ctx, tx, rt); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create route failed"})
	}
	records := make([]repository.RouteStop, 0, len(stops))
	for _, s := range stops {
		records = append(records, repository.RouteStop{
			RouteID:    rt.ID,
			StationID:  s.StationID,
			Seq:        s.Seq,
			Arrival:    s.Arrival,
			Departure:  s.Departure,
			DistanceKM: s.DistanceKM,
		})
	}
	if err := h.Routes.CreateStopsBulkTx(ctx, tx, records); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create stops failed"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true
	return c.JSON(http.StatusCreated, echo.Map{
		"item":       rt,
		"total_legs": model.TotalLegs(len(stops)),
	})
}

// Get handles GET /v1/routes/:id and includes the ordered stop list.
func (h *RouteHandler) Get(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid route id"})
	}
	ctx := c.Request().Context()
	rt, err := h.Routes.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrRouteNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "route not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	stops, err := h.Routes.ListStops(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"item":       rt,
		"stops":      stops,
		"total_legs": model.TotalLegs(len(stops)),
	})
}

// List handles GET /v1/routes.
func (h *RouteHandler) List(c echo.Context) error {
	offset, limit := pagination(c)
	items, err := h.Routes.List(c.Request().Context(), offset, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

type renameReq struct {
	Name string `json:"name"`
}

// Rename handles PUT /v1/routes/:id.  Only the name is mutable; stop
// lists are immutable once runs may reference them.
func (h *RouteHandler) Rename(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid route id"})
	}
	var req renameReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}
	if err := h.Routes.Rename(c.Request().Context(), id, strings.TrimSpace(req.Name)); err != nil {
		if errors.Is(err, repository.ErrRouteNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "route not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "rename route failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// Deprecate handles POST /v1/routes/:id/deprecate.
func (h *RouteHandler) Deprecate(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid route id"})
	}
	if err := h.Routes.SetDeprecated(c.Request().Context(), id, true); err != nil {
		if errors.Is(err, repository.ErrRouteNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "route not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "deprecate route failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// Delete handles DELETE /v1/routes/:id.  Routes instantiated by runs and
// deprecated routes are not deletable.
func (h *RouteHandler) Delete(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid route id"})
	}
	err := h.Routes.Delete(c.Request().Context(), id)
	switch {
	case err == nil:
		return c.NoContent(http.StatusNoContent)
	case errors.Is(err, repository.ErrRouteNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "route not found"})
	case errors.Is(err, repository.ErrDeprecated):
		return c.JSON(http.StatusConflict, echo.Map{"error": "deprecated route cannot be deleted"})
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "route is used by runs"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete route failed"})
	}
}
