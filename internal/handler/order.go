package handler

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/iliyamo/train-ticket-reservation/internal/allocation"
	"github.com/iliyamo/train-ticket-reservation/internal/model"
	"github.com/iliyamo/train-ticket-reservation/internal/queue"
	"github.com/iliyamo/train-ticket-reservation/internal/repository"
	queue_publisher "github.com/iliyamo/train-ticket-reservation/internal/service"
)

// OrderHandler sells tickets and drives the order lifecycle.  Purchase
// runs the allocation engine over a locked snapshot of the run's slots
// and persists ticket, slot status and order in one transaction, so two
// concurrent purchases can never land overlapping segments on one seat.
type OrderHandler struct {
	Orders *repository.OrderRepo
	Slots  *repository.SlotRepo
	Runs   *repository.RunRepo
	Routes *repository.RouteRepo
	Seats  *repository.SeatRepo
}

func NewOrderHandler(orders *repository.OrderRepo, slots *repository.SlotRepo, runs *repository.RunRepo, routes *repository.RouteRepo, seats *repository.SeatRepo) *OrderHandler {
	if orders == nil || slots == nil || runs == nil || routes == nil || seats == nil {
		panic("nil repository passed to NewOrderHandler")
	}
	return &OrderHandler{Orders: orders, Slots: slots, Runs: runs, Routes: routes, Seats: seats}
}

type createOrderReq struct {
	RunID    uint64 `json:"run_id"`
	Through  bool   `json:"through"`
	StartSeq uint32 `json:"start_seq"`
	EndSeq   uint32 `json:"end_seq"`
}

// isAdmin reports whether the request carries the ADMIN role claim.
func isAdmin(c echo.Context) bool {
	role, _ := c.Get("role").(string)
	return role == "ADMIN"
}

// Create handles POST /v1/orders.  The requested segment is placed by the
// allocation engine; the resulting ticket, the slot's new status and the
// PENDING order commit together or not at all.
func (h *OrderHandler) Create(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createOrderReq
	if err := c.Bind(&req); err != nil || req.RunID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "run_id is required"})
	}
	if !req.Through && (req.StartSeq == 0 || req.EndSeq == 0) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "start_seq and end_seq are required for segment orders"})
	}
	ctx := c.Request().Context()

	tx, err := h.Slots.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	run, err := h.Runs.GetTx(ctx, tx, req.RunID)
	if err != nil {
		if errors.Is(err, repository.ErrRunNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "run not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if run.Locked || run.Finished {
		return c.JSON(http.StatusConflict, echo.Map{"error": "run is not on sale"})
	}
	stopCount, err := h.Routes.StopCountTx(ctx, tx, run.RouteID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	totalLegs := model.TotalLegs(stopCount)

	snapshot, err := h.Slots.SnapshotForRunTx(ctx, tx, req.RunID)
	if err != nil {
		if errors.Is(err, repository.ErrLockUnavailable) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "run is busy, retry shortly"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load slots failed"})
	}

	placement, err := allocation.Allocate(snapshot, allocation.Request{
		Through:   req.Through,
		Segment:   model.Segment{Start: req.StartSeq, End: req.EndSeq},
		TotalLegs: totalLegs,
	})
	switch {
	case err == nil:
	case errors.Is(err, allocation.ErrInvalidSegment):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, allocation.ErrCapacityExhausted):
		return c.JSON(http.StatusConflict, echo.Map{"error": "no seat available for the requested segment"})
	case errors.Is(err, model.ErrInvariantViolation):
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "slot bookkeeping is inconsistent"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "allocation failed"})
	}

	price, err := h.priceTx(ctx, tx, run.RouteID, placement)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "price ticket failed"})
	}

	ticket := &repository.Ticket{
		SlotID:     placement.SlotID,
		StartSeq:   placement.Segment.Start,
		EndSeq:     placement.Segment.End,
		PriceCents: price,
	}
	if err := h.Slots.InsertTicketTx(ctx, tx, ticket); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create ticket failed"})
	}
	if err := h.Slots.UpdateStatusTx(ctx, tx, placement.SlotID, placement.Status); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update slot failed"})
	}
	order := &repository.Order{UserID: userID, TicketID: ticket.ID}
	if err := h.Orders.CreateTx(ctx, tx, order); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create order failed"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true
	return c.JSON(http.StatusCreated, echo.Map{
		"order_id":    order.ID,
		"ticket_id":   ticket.ID,
		"slot_id":     placement.SlotID,
		"seat_id":     placement.SeatID,
		"start_seq":   placement.Segment.Start,
		"end_seq":     placement.Segment.End,
		"price_cents": price,
		"status":      order.Status,
	})
}

// priceTx prices the placed segment from the route's cumulative distances
// and the carriage class of the chosen seat.
func (h *OrderHandler) priceTx(ctx context.Context, tx *sql.Tx, routeID uint64, placement allocation.Placement) (uint32, error) {
	distances, err := h.Routes.StopDistancesTx(ctx, tx, routeID)
	if err != nil {
		return 0, err
	}
	seg := placement.Segment
	if seg.Start < 1 || int(seg.End) > len(distances) {
		return 0, fmt.Errorf("segment [%d,%d) outside route of %d stops", seg.Start, seg.End, len(distances))
	}
	classLabel, err := h.Seats.CarriageClassTx(ctx, tx, placement.SeatID)
	if err != nil {
		return 0, err
	}
	cc, err := model.ParseCarriageClass(classLabel)
	if err != nil {
		return 0, err
	}
	return model.FareCents(cc, distances[seg.End-1]-distances[seg.Start-1]), nil
}

// Complete handles PATCH /v1/orders/:id/complete.  Only the owner may
// complete, and only from PENDING.  The completion event is published
// best-effort after commit.
func (h *OrderHandler) Complete(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
	}
	ctx := c.Request().Context()

	tx, err := h.Orders.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	d, err := h.Orders.GetDetailTx(ctx, tx, id)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if d.UserID != userID {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
	}
	status, err := model.ParseOrderStatus(d.Status)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if err := status.CanComplete(); err != nil {
		return c.JSON(http.StatusConflict, echo.Map{"error": "order is not pending"})
	}
	if err := h.Orders.MarkCompletedTx(ctx, tx, id); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "complete order failed"})
	}
	if err := h.Slots.MarkTicketSoldTx(ctx, tx, d.TicketID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "mark ticket sold failed"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true

	run, runErr := h.Runs.GetByID(ctx, d.RunID)
	event := queue.OrderCompletedEvent{
		OrderID:     d.ID,
		UserID:      d.UserID,
		TicketID:    d.TicketID,
		RunID:       d.RunID,
		SeatNum:     d.SeatNum,
		StartSeq:    d.StartSeq,
		EndSeq:      d.EndSeq,
		PriceCents:  d.PriceCents,
		CompletedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if runErr == nil {
		event.RunningDate = run.RunningDate
	}
	// Best effort: the order is already committed, a broker outage must
	// not fail the request.
	go func() {
		pubCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := queue_publisher.PublishOrderCompleted(pubCtx, event); err != nil {
			log.Printf("order %d: publish completed event failed: %v", d.ID, err)
		}
	}()

	return c.JSON(http.StatusOK, echo.Map{"order_id": id, "status": model.OrderCompleted.String()})
}

// Cancel handles PATCH /v1/orders/:id/cancel.  Cancelling is idempotent:
// an already cancelled order returns 200 without touching the slot.
// Otherwise the order flips to CANCELLED and the slot's status is
// recomputed from its surviving tickets under the slot row lock.
func (h *OrderHandler) Cancel(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
	}
	ctx := c.Request().Context()

	tx, err := h.Orders.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	d, err := h.Orders.GetDetailTx(ctx, tx, id)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if d.UserID != userID && !isAdmin(c) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
	}
	status, err := model.ParseOrderStatus(d.Status)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if status.CancelIsNoop() {
		// Nothing to change; the deferred rollback drops the lock.
		return c.JSON(http.StatusOK, echo.Map{"order_id": id, "status": model.OrderCancelled.String()})
	}

	if err := h.recomputeSlotAfterDrop(ctx, tx, d, func() error {
		return h.Orders.MarkCancelledTx(ctx, tx, id)
	}); err != nil {
		return dropErrResponse(c, err)
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true
	return c.JSON(http.StatusOK, echo.Map{"order_id": id, "status": model.OrderCancelled.String()})
}

// Remove handles DELETE /v1/orders/:id (admin).  The order and its ticket
// are erased and the slot recomputed, as if the sale never happened.
func (h *OrderHandler) Remove(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
	}
	ctx := c.Request().Context()

	tx, err := h.Orders.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	d, err := h.Orders.GetDetailTx(ctx, tx, id)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if err := h.recomputeSlotAfterDrop(ctx, tx, d, func() error {
		if err := h.Orders.DeleteTx(ctx, tx, id); err != nil {
			return err
		}
		return h.Slots.DeleteTicketTx(ctx, tx, d.TicketID)
	}); err != nil {
		return dropErrResponse(c, err)
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true
	return c.NoContent(http.StatusNoContent)
}

// recomputeSlotAfterDrop locks the slot, applies the drop (cancel or hard
// delete), rereads the surviving segments and writes the derived status.
// Runs inside the caller's transaction.
func (h *OrderHandler) recomputeSlotAfterDrop(ctx context.Context, tx *sql.Tx, d *repository.OrderDetail, drop func() error) error {
	if _, err := h.Slots.LockTx(ctx, tx, d.SlotID); err != nil {
		return err
	}
	if err := drop(); err != nil {
		return err
	}
	segs, err := h.Slots.SegmentsForSlotTx(ctx, tx, d.SlotID)
	if err != nil {
		return err
	}
	run, err := h.Runs.GetTx(ctx, tx, d.RunID)
	if err != nil {
		return err
	}
	stopCount, err := h.Routes.StopCountTx(ctx, tx, run.RouteID)
	if err != nil {
		return err
	}
	status, err := model.DeriveSlotStatus(segs, model.TotalLegs(stopCount))
	if err != nil {
		return err
	}
	return h.Slots.UpdateStatusTx(ctx, tx, d.SlotID, status)
}

// dropErrResponse maps recomputeSlotAfterDrop failures to a response.
func dropErrResponse(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repository.ErrLockUnavailable):
		return c.JSON(http.StatusConflict, echo.Map{"error": "seat is busy, retry shortly"})
	case errors.Is(err, model.ErrInvariantViolation):
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "slot bookkeeping is inconsistent"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "release seat failed"})
	}
}

// Get handles GET /v1/orders/:id.  Customers only see their own orders;
// admins see all.
func (h *OrderHandler) Get(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
	}
	d, err := h.Orders.GetDetail(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if d.UserID != userID && !isAdmin(c) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
	}
	return c.JSON(http.StatusOK, echo.Map{"item": d})
}

// ListMine handles GET /v1/me/orders.
func (h *OrderHandler) ListMine(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	offset, limit := pagination(c)
	items, err := h.Orders.ListByUser(c.Request().Context(), userID, offset, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// ListAll handles GET /v1/orders (admin).
func (h *OrderHandler) ListAll(c echo.Context) error {
	offset, limit := pagination(c)
	items, err := h.Orders.List(c.Request().Context(), offset, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// QR handles GET /v1/orders/:id/qr.  Returns a PNG QR code encoding the
// ticket reference of a completed order, for gate scanning.
func (h *OrderHandler) QR(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
	}
	d, err := h.Orders.GetDetail(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if d.UserID != userID && !isAdmin(c) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
	}
	if d.Status != model.OrderCompleted.String() {
		return c.JSON(http.StatusConflict, echo.Map{"error": "order is not completed"})
	}
	payload := fmt.Sprintf("order:%d|ticket:%d|run:%d|seat:%s|segment:%d-%d",
		d.ID, d.TicketID, d.RunID, d.SeatNum, d.StartSeq, d.EndSeq)
	png, err := qrcode.Encode(payload, qrcode.Medium, 256)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "generate qr failed"})
	}
	return c.Blob(http.StatusOK, "image/png", png)
}
