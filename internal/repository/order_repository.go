package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/train-ticket-reservation/internal/model"
)

// Order is the purchase record owning exactly one ticket.  Status is the
// database label of a model.OrderStatus.
type Order struct {
	ID          uint64
	UserID      uint64
	TicketID    uint64
	Status      string
	CreatedAt   time.Time
	CompletedAt *time.Time
	CancelledAt *time.Time
}

// OrderDetail joins the order with its ticket and the run it rides on.
type OrderDetail struct {
	Order
	SlotID     uint64
	RunID      uint64
	SeatID     uint64
	SeatNum    string
	StartSeq   uint32
	EndSeq     uint32
	PriceCents uint32
	Sold       bool
	Used       bool
}

// ErrOrderNotFound is returned when an order lookup yields no rows.
var ErrOrderNotFound = errors.New("order not found")

// OrderRepo provides persistence for orders.
type OrderRepo struct {
	db *sql.DB
}

// NewOrderRepo constructs an OrderRepo with the given DB handle.
func NewOrderRepo(db *sql.DB) *OrderRepo {
	return &OrderRepo{db: db}
}

// DB exposes the handle so the order handler can run the full
// allocate-insert-create sequence in one transaction.
func (r *OrderRepo) DB() *sql.DB { return r.db }

// CreateTx inserts a PENDING order inside an existing transaction and
// populates its ID.
func (r *OrderRepo) CreateTx(ctx context.Context, tx *sql.Tx, o *Order) error {
	res, err := tx.ExecContext(ctx,
		"INSERT INTO orders (user_id, ticket_id, status) VALUES (?, ?, ?)",
		o.UserID, o.TicketID, model.OrderPending.String())
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	o.ID = uint64(id)
	o.Status = model.OrderPending.String()
	return nil
}

const orderDetailQ = `SELECT o.id, o.user_id, o.ticket_id, o.status, o.created_at, o.completed_at, o.cancelled_at,
       sl.id, sl.run_id, sl.seat_id, se.seat_num, t.start_seq, t.end_seq, t.price_cents, t.sold, t.used
FROM orders o
JOIN tickets t ON t.id = o.ticket_id
JOIN ticket_slots sl ON sl.id = t.slot_id
JOIN seats se ON se.id = sl.seat_id`

func scanOrderDetail(row interface{ Scan(...interface{}) error }) (*OrderDetail, error) {
	var d OrderDetail
	var completed, cancelled sql.NullTime
	err := row.Scan(&d.ID, &d.UserID, &d.TicketID, &d.Status, &d.CreatedAt, &completed, &cancelled,
		&d.SlotID, &d.RunID, &d.SeatID, &d.SeatNum, &d.StartSeq, &d.EndSeq, &d.PriceCents, &d.Sold, &d.Used)
	if err != nil {
		return nil, err
	}
	if completed.Valid {
		d.CompletedAt = &completed.Time
	}
	if cancelled.Valid {
		d.CancelledAt = &cancelled.Time
	}
	return &d, nil
}

// GetDetail retrieves an order joined with its ticket and seat, returning
// ErrOrderNotFound when absent.
func (r *OrderRepo) GetDetail(ctx context.Context, id uint64) (*OrderDetail, error) {
	d, err := scanOrderDetail(r.db.QueryRowContext(ctx, orderDetailQ+" WHERE o.id = ?", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return d, nil
}

// GetDetailTx is GetDetail inside an existing transaction, with an
// exclusive lock on the order row.  Complete, cancel and remove use it so
// two concurrent transitions of the same order serialize.
func (r *OrderRepo) GetDetailTx(ctx context.Context, tx *sql.Tx, id uint64) (*OrderDetail, error) {
	d, err := scanOrderDetail(tx.QueryRowContext(ctx, orderDetailQ+" WHERE o.id = ? FOR UPDATE", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return d, nil
}

func (r *OrderRepo) listDetail(ctx context.Context, where string, args ...interface{}) ([]OrderDetail, error) {
	rows, err := r.db.QueryContext(ctx, orderDetailQ+where, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]OrderDetail, 0)
	for rows.Next() {
		d, err := scanOrderDetail(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

// List returns all orders with their ticket details, newest first.
func (r *OrderRepo) List(ctx context.Context, offset, limit int) ([]OrderDetail, error) {
	return r.listDetail(ctx, " ORDER BY o.id DESC LIMIT ? OFFSET ?", limit, offset)
}

// ListByUser returns one user's orders with their ticket details, newest
// first.
func (r *OrderRepo) ListByUser(ctx context.Context, userID uint64, offset, limit int) ([]OrderDetail, error) {
	return r.listDetail(ctx, " WHERE o.user_id = ? ORDER BY o.id DESC LIMIT ? OFFSET ?", userID, limit, offset)
}

// MarkCompletedTx moves the order to COMPLETED and stamps the transition
// time.
func (r *OrderRepo) MarkCompletedTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE orders SET status=?, completed_at=NOW() WHERE id=?",
		model.OrderCompleted.String(), id)
	return err
}

// MarkCancelledTx moves the order to CANCELLED and stamps the transition
// time.
func (r *OrderRepo) MarkCancelledTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE orders SET status=?, cancelled_at=NOW() WHERE id=?",
		model.OrderCancelled.String(), id)
	return err
}

// DeleteTx erases the order row.  The caller deletes the ticket and
// recomputes the slot status in the same transaction.
func (r *OrderRepo) DeleteTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	_, err := tx.ExecContext(ctx, "DELETE FROM orders WHERE id=?", id)
	return err
}
