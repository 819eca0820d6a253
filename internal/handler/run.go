package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/train-ticket-reservation/internal/model"
	"github.com/iliyamo/train-ticket-reservation/internal/repository"
)

// RunHandler administers dated train runs.  Creating a run materializes
// one EMPTY ticket slot per seat of the train in the same transaction, so
// a run is never on sale without its full slot set.
type RunHandler struct {
	Runs   *repository.RunRepo
	Trains *repository.TrainRepo
	Routes *repository.RouteRepo
	Seats  *repository.SeatRepo
	Slots  *repository.SlotRepo
}

func NewRunHandler(runs *repository.RunRepo, trains *repository.TrainRepo, routes *repository.RouteRepo, seats *repository.SeatRepo, slots *repository.SlotRepo) *RunHandler {
	if runs == nil || trains == nil || routes == nil || seats == nil || slots == nil {
		panic("nil repository passed to NewRunHandler")
	}
	return &RunHandler{Runs: runs, Trains: trains, Routes: routes, Seats: seats, Slots: slots}
}

type createRunReq struct {
	TrainID     uint64 `json:"train_id"`
	RouteID     uint64 `json:"route_id"`
	RunningDate string `json:"running_date"` // YYYY-MM-DD
}

// Create handles POST /v1/runs.  The train must be valid and not
// deprecated; the route must exist, not be deprecated and carry at least
// two stops.
func (h *RunHandler) Create(c echo.Context) error {
	var req createRunReq
	if err := c.Bind(&req); err != nil || req.TrainID == 0 || req.RouteID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "train_id, route_id and running_date are required"})
	}
	if _, err := time.Parse("2006-01-02", req.RunningDate); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "running_date must be YYYY-MM-DD"})
	}
	ctx := c.Request().Context()

	train, err := h.Trains.GetByID(ctx, req.TrainID)
	if err != nil {
		if errors.Is(err, repository.ErrTrainNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "train not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if !train.Valid || train.Deprecated {
		return c.JSON(http.StatusConflict, echo.Map{"error": "train is not schedulable"})
	}
	route, err := h.Routes.GetByID(ctx, req.RouteID)
	if err != nil {
		if errors.Is(err, repository.ErrRouteNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "route not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if route.Deprecated {
		return c.JSON(http.StatusConflict, echo.Map{"error": "route is deprecated"})
	}
	stopCount, err := h.Routes.StopCount(ctx, req.RouteID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if stopCount < 2 {
		return c.JSON(http.StatusConflict, echo.Map{"error": "route has no sellable legs"})
	}

	tx, err := h.Runs.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	run := &repository.TrainRun{TrainID: req.TrainID, RouteID: req.RouteID, RunningDate: req.RunningDate}
	if err := h.Runs.CreateTx(ctx, tx, run); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create run failed"})
	}
	seats, err := h.Seats.ListByTrainTx(ctx, tx, req.TrainID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load seats failed"})
	}
	if len(seats) == 0 {
		return c.JSON(http.StatusConflict, echo.Map{"error": "train has no seats"})
	}
	slots := make([]repository.TicketSlot, 0, len(seats))
	for _, s := range seats {
		slots = append(slots, repository.TicketSlot{
			RunID:  run.ID,
			SeatID: s.ID,
			Status: model.SlotEmpty.String(),
		})
	}
	if err := h.Slots.CreateBulkTx(ctx, tx, slots); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create ticket slots failed"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true
	return c.JSON(http.StatusCreated, echo.Map{
		"item":       run,
		"slots":      len(slots),
		"total_legs": model.TotalLegs(stopCount),
	})
}

// Get handles GET /v1/runs/:id.
func (h *RunHandler) Get(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid run id"})
	}
	ctx := c.Request().Context()
	run, err := h.Runs.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrRunNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "run not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	stopCount, err := h.Routes.StopCount(ctx, run.RouteID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"item":       run,
		"total_legs": model.TotalLegs(stopCount),
	})
}

// List handles GET /v1/runs.
func (h *RunHandler) List(c echo.Context) error {
	offset, limit := pagination(c)
	items, err := h.Runs.List(c.Request().Context(), offset, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// ListSlots handles GET /v1/runs/:id/slots, the seat availability
// projection.
func (h *RunHandler) ListSlots(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid run id"})
	}
	ctx := c.Request().Context()
	if _, err := h.Runs.GetByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrRunNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "run not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	slots, err := h.Slots.ListForRun(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": slots})
}

type lockReq struct {
	Locked bool `json:"locked"`
}

// SetLocked handles POST /v1/runs/:id/lock.  A locked run rejects new
// orders while keeping existing ones alive.
func (h *RunHandler) SetLocked(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid run id"})
	}
	var req lockReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := h.Runs.SetLocked(c.Request().Context(), id, req.Locked); err != nil {
		if errors.Is(err, repository.ErrRunNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "run not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update run failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// Finish handles POST /v1/runs/:id/finish.  Finished runs are off sale
// for good; existing orders stay cancellable for refunds.
func (h *RunHandler) Finish(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid run id"})
	}
	if err := h.Runs.SetFinished(c.Request().Context(), id, true); err != nil {
		if errors.Is(err, repository.ErrRunNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "run not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update run failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// Delete handles DELETE /v1/runs/:id.  Runs carrying tickets are not
// deletable.
func (h *RunHandler) Delete(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid run id"})
	}
	err := h.Runs.Delete(c.Request().Context(), id)
	switch {
	case err == nil:
		return c.NoContent(http.StatusNoContent)
	case errors.Is(err, repository.ErrRunNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "run not found"})
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "run has sold tickets"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete run failed"})
	}
}
