package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/train-ticket-reservation/internal/model"
	"github.com/iliyamo/train-ticket-reservation/internal/repository"
)

// CarriageHandler administers carriages outside a train composition.
// Carriages may be built detached and attached to a train later, as long
// as the train has not yet been marked valid.
type CarriageHandler struct {
	Carriages *repository.CarriageRepo
	Seats     *repository.SeatRepo
	Trains    *repository.TrainRepo
}

func NewCarriageHandler(carriages *repository.CarriageRepo, seats *repository.SeatRepo, trains *repository.TrainRepo) *CarriageHandler {
	if carriages == nil || seats == nil || trains == nil {
		panic("nil repository passed to NewCarriageHandler")
	}
	return &CarriageHandler{Carriages: carriages, Seats: seats, Trains: trains}
}

// Create handles POST /v1/carriages.  The carriage and its full seat grid
// are written in one transaction.
func (h *CarriageHandler) Create(c echo.Context) error {
	var req carriageSpec
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	cc, err := model.ParseCarriageClass(req.Class)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown carriage class"})
	}
	if !cc.AllowsRows(int(req.Rows)) {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "row count not allowed for carriage class",
			"class": cc.String(),
			"rows":  req.Rows,
		})
	}

	ctx := c.Request().Context()
	tx, err := h.Carriages.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	car := &repository.Carriage{Class: cc.String()}
	if err := h.Carriages.CreateTx(ctx, tx, car); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create carriage failed"})
	}
	nums := model.SeatNumbers(cc, int(req.Rows))
	seats := make([]repository.Seat, 0, len(nums))
	for _, n := range nums {
		seats = append(seats, repository.Seat{CarriageID: car.ID, SeatNum: n})
	}
	if err := h.Seats.CreateBulkTx(ctx, tx, seats); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create seats failed"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true
	return c.JSON(http.StatusCreated, echo.Map{"item": car, "seats": len(seats)})
}

// Get handles GET /v1/carriages/:id and includes the seat list.
func (h *CarriageHandler) Get(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid carriage id"})
	}
	ctx := c.Request().Context()
	car, err := h.Carriages.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrCarriageNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "carriage not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	seats, err := h.Seats.ListByCarriage(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"item": car, "seats": seats})
}

type attachReq struct {
	TrainID uint64 `json:"train_id"`
	Num     uint32 `json:"num"`
}

// Attach handles POST /v1/carriages/:id/attach.  The target train must
// exist, must not yet be valid and must allow the carriage class.
func (h *CarriageHandler) Attach(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid carriage id"})
	}
	var req attachReq
	if err := c.Bind(&req); err != nil || req.TrainID == 0 || req.Num == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "train_id and num are required"})
	}
	ctx := c.Request().Context()

	car, err := h.Carriages.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrCarriageNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "carriage not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if car.Deprecated {
		return c.JSON(http.StatusConflict, echo.Map{"error": "deprecated carriage cannot be attached"})
	}
	train, err := h.Trains.GetByID(ctx, req.TrainID)
	if err != nil {
		if errors.Is(err, repository.ErrTrainNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "train not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if train.Valid {
		return c.JSON(http.StatusConflict, echo.Map{"error": "composition of a valid train cannot change"})
	}
	tc, err := model.ParseTrainClass(train.Class)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	cc, err := model.ParseCarriageClass(car.Class)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if !tc.Allows(cc) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "carriage class not allowed on this train class"})
	}
	if err := h.Carriages.Attach(ctx, id, req.TrainID, req.Num); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "attach carriage failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// Deprecate handles POST /v1/carriages/:id/deprecate.
func (h *CarriageHandler) Deprecate(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid carriage id"})
	}
	if err := h.Carriages.SetDeprecated(c.Request().Context(), id, true); err != nil {
		if errors.Is(err, repository.ErrCarriageNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "carriage not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "deprecate carriage failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// Delete handles DELETE /v1/carriages/:id.  Attached or deprecated
// carriages are not deletable.
func (h *CarriageHandler) Delete(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid carriage id"})
	}
	err := h.Carriages.Delete(c.Request().Context(), id)
	switch {
	case err == nil:
		return c.NoContent(http.StatusNoContent)
	case errors.Is(err, repository.ErrCarriageNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "carriage not found"})
	case errors.Is(err, repository.ErrDeprecated):
		return c.JSON(http.StatusConflict, echo.Map{"error": "deprecated carriage cannot be deleted"})
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "carriage is attached to a train"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete carriage failed"})
	}
}
