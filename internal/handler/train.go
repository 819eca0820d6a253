package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/train-ticket-reservation/internal/model"
	"github.com/iliyamo/train-ticket-reservation/internal/repository"
)

// TrainHandler exposes train composition administration.  A train is
// created together with its carriages and their full seat grids in one
// transaction, so a train is never observable half built.
type TrainHandler struct {
	Trains    *repository.TrainRepo
	Carriages *repository.CarriageRepo
	Seats     *repository.SeatRepo
}

func NewTrainHandler(trains *repository.TrainRepo, carriages *repository.CarriageRepo, seats *repository.SeatRepo) *TrainHandler {
	if trains == nil || carriages == nil || seats == nil {
		panic("nil repository passed to NewTrainHandler")
	}
	return &TrainHandler{Trains: trains, Carriages: carriages, Seats: seats}
}

type carriageSpec struct {
	Class string `json:"class"`
	Rows  uint32 `json:"rows"`
}

type createTrainReq struct {
	Class     string         `json:"class"`
	Carriages []carriageSpec `json:"carriages"`
}

// Create handles POST /v1/trains.  The body names the train class and the
// ordered carriage list; seats are generated from the class layout
// tables.  Class compatibility and row counts are validated before any
// row is written.
func (h *TrainHandler) Create(c echo.Context) error {
	var req createTrainReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	tc, err := model.ParseTrainClass(req.Class)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown train class"})
	}
	if len(req.Carriages) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "at least one carriage is required"})
	}
	type plannedCarriage struct {
		class model.CarriageClass
		rows  int
	}
	planned := make([]plannedCarriage, 0, len(req.Carriages))
	for _, spec := range req.Carriages {
		cc, err := model.ParseCarriageClass(spec.Class)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown carriage class"})
		}
		if !tc.Allows(cc) {
			return c.JSON(http.StatusBadRequest, echo.Map{
				"error": "carriage class not allowed on this train class",
				"class": cc.String(),
			})
		}
		if !cc.AllowsRows(int(spec.Rows)) {
			return c.JSON(http.StatusBadRequest, echo.Map{
				"error": "row count not allowed for carriage class",
				"class": cc.String(),
				"rows":  spec.Rows,
			})
		}
		planned = append(planned, plannedCarriage{class: cc, rows: int(spec.Rows)})
	}

	ctx := c.Request().Context()
	tx, err := h.Trains.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	train := &repository.Train{Class: tc.String()}
	if err := h.Trains.CreateTx(ctx, tx, train); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create train failed"})
	}
	created := make([]repository.Carriage, 0, len(planned))
	for i, p := range planned {
		tid := train.ID
		car := &repository.Carriage{TrainID: &tid, Num: uint32(i + 1), Class: p.class.String()}
		if err := h.Carriages.CreateTx(ctx, tx, car); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create carriage failed"})
		}
		nums := model.SeatNumbers(p.class, p.rows)
		seats := make([]repository.Seat, 0, len(nums))
		for _, n := range nums {
			seats = append(seats, repository.Seat{CarriageID: car.ID, SeatNum: n})
		}
		if err := h.Seats.CreateBulkTx(ctx, tx, seats); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create seats failed"})
		}
		created = append(created, *car)
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true
	return c.JSON(http.StatusCreated, echo.Map{
		"item":      train,
		"carriages": created,
	})
}

// Get handles GET /v1/trains/:id and includes the carriage list.
func (h *TrainHandler) Get(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid train id"})
	}
	ctx := c.Request().Context()
	t, err := h.Trains.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrTrainNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "train not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	cars, err := h.Carriages.ListByTrain(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"item": t, "carriages": cars})
}

// List handles GET /v1/trains.
func (h *TrainHandler) List(c echo.Context) error {
	offset, limit := pagination(c)
	items, err := h.Trains.List(c.Request().Context(), offset, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

type validReq struct {
	Valid bool `json:"valid"`
}

// SetValid handles POST /v1/trains/:id/valid.  A train must hold at least
// one carriage before it can be marked valid for scheduling.
func (h *TrainHandler) SetValid(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid train id"})
	}
	var req validReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx := c.Request().Context()
	if req.Valid {
		cars, err := h.Carriages.ListByTrain(ctx, id)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
		if len(cars) == 0 {
			return c.JSON(http.StatusConflict, echo.Map{"error": "train has no carriages"})
		}
	}
	if err := h.Trains.SetValid(ctx, id, req.Valid); err != nil {
		if errors.Is(err, repository.ErrTrainNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "train not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update train failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// Deprecate handles POST /v1/trains/:id/deprecate.
func (h *TrainHandler) Deprecate(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid train id"})
	}
	if err := h.Trains.SetDeprecated(c.Request().Context(), id, true); err != nil {
		if errors.Is(err, repository.ErrTrainNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "train not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "deprecate train failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// Delete handles DELETE /v1/trains/:id.  Valid, deprecated or scheduled
// trains are not deletable.
func (h *TrainHandler) Delete(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid train id"})
	}
	err := h.Trains.Delete(c.Request().Context(), id)
	switch {
	case err == nil:
		return c.NoContent(http.StatusNoContent)
	case errors.Is(err, repository.ErrTrainNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "train not found"})
	case errors.Is(err, repository.ErrDeprecated):
		return c.JSON(http.StatusConflict, echo.Map{"error": "deprecated train cannot be deleted"})
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "train is valid or in use"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete train failed"})
	}
}
