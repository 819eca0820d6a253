package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/train-ticket-reservation/internal/allocation"
	"github.com/iliyamo/train-ticket-reservation/internal/model"
)

// TicketSlot binds one seat to one scheduled run.  Status is the database
// label of a model.SlotStatus and is always kept consistent with the
// slot's ticket set inside the same transaction that changes either.
type TicketSlot struct {
	ID     uint64
	RunID  uint64
	SeatID uint64
	Status string
}

// Ticket is one sold segment [StartSeq, EndSeq) on a slot.
type Ticket struct {
	ID         uint64
	SlotID     uint64
	StartSeq   uint32
	EndSeq     uint32
	PriceCents uint32
	Sold       bool
	Used       bool
}

// ErrSlotNotFound is returned when a slot lookup yields no rows.
var ErrSlotNotFound = errors.New("ticket slot not found")

// ErrTicketNotFound is returned when a ticket lookup yields no rows.
var ErrTicketNotFound = errors.New("ticket not found")

// ErrLockUnavailable is returned when a slot row lock cannot be acquired
// promptly.  Callers fail the whole request and let the client retry the
// purchase; partial retries are never attempted.
var ErrLockUnavailable = errors.New("slot is locked by a concurrent request")

// SlotRepo provides persistence for ticket slots and their tickets.
type SlotRepo struct {
	db *sql.DB
}

// NewSlotRepo constructs a SlotRepo with the given DB handle.
func NewSlotRepo(db *sql.DB) *SlotRepo {
	return &SlotRepo{db: db}
}

// DB exposes the handle so the order handler can run the allocation
// scan-then-write as one transaction.
func (r *SlotRepo) DB() *sql.DB { return r.db }

// lockErr translates MySQL's NOWAIT (3572) and lock-wait-timeout (1205)
// failures into ErrLockUnavailable.
func lockErr(err error) error {
	var me *mysql.MySQLError
	if errors.As(err, &me) && (me.Number == 3572 || me.Number == 1205) {
		return ErrLockUnavailable
	}
	return err
}

// CreateBulkTx materializes the run's slots in one statement, one EMPTY
// slot per seat, inside the run-creation transaction.
func (r *SlotRepo) CreateBulkTx(ctx context.Context, tx *sql.Tx, slots []TicketSlot) error {
	if len(slots) == 0 {
		return nil
	}
	query := `INSERT INTO ticket_slots (run_id, seat_id, status) VALUES `
	args := make([]interface{}, 0, len(slots)*3)
	for i, s := range slots {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?)"
		args = append(args, s.RunID, s.SeatID, s.Status)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// SnapshotForRunTx loads every slot of a run with its tickets, taking
// exclusive row locks on the slots for the duration of the transaction.
// NOWAIT makes a contended run fail fast with ErrLockUnavailable instead
// of queueing purchase requests behind each other.  The result is the
// allocation engine's input; seat ordering is left to the engine.
func (r *SlotRepo) SnapshotForRunTx(ctx context.Context, tx *sql.Tx, runID uint64) ([]allocation.Slot, error) {
	const slotQ = `SELECT id, seat_id, status FROM ticket_slots WHERE run_id = ? FOR UPDATE NOWAIT`
	rows, err := tx.QueryContext(ctx, slotQ, runID)
	if err != nil {
		return nil, lockErr(err)
	}
	defer rows.Close()

	var slots []allocation.Slot
	index := make(map[uint64]int)
	for rows.Next() {
		var (
			id, seatID uint64
			statusRaw  string
		)
		if err := rows.Scan(&id, &seatID, &statusRaw); err != nil {
			return nil, err
		}
		status, err := model.ParseSlotStatus(statusRaw)
		if err != nil {
			return nil, err
		}
		index[id] = len(slots)
		slots = append(slots, allocation.Slot{ID: id, SeatID: seatID, Status: status})
	}
	if err := rows.Err(); err != nil {
		return nil, lockErr(err)
	}
	if len(slots) == 0 {
		return slots, nil
	}

	// A ticket occupies its slot only while its order is alive.  Tickets
	// of cancelled orders stay in the table as history but sell again.
	const ticketQ = `SELECT t.slot_id, t.start_seq, t.end_seq
	                 FROM tickets t
	                 JOIN ticket_slots s ON s.id = t.slot_id
	                 JOIN orders o ON o.ticket_id = t.id
	                 WHERE s.run_id = ? AND o.status <> 'CANCELLED'`
	trows, err := tx.QueryContext(ctx, ticketQ, runID)
	if err != nil {
		return nil, err
	}
	defer trows.Close()
	for trows.Next() {
		var slotID uint64
		var seg model.Segment
		if err := trows.Scan(&slotID, &seg.Start, &seg.End); err != nil {
			return nil, err
		}
		if i, ok := index[slotID]; ok {
			slots[i].Tickets = append(slots[i].Tickets, seg)
		}
	}
	return slots, trows.Err()
}

// LockTx takes an exclusive lock on a single slot row and returns it.
// Cancel and remove use it so their status recomputation cannot race a
// concurrent allocation landing on the same slot.
func (r *SlotRepo) LockTx(ctx context.Context, tx *sql.Tx, slotID uint64) (*TicketSlot, error) {
	const q = `SELECT id, run_id, seat_id, status FROM ticket_slots WHERE id = ? FOR UPDATE NOWAIT`
	var s TicketSlot
	err := tx.QueryRowContext(ctx, q, slotID).Scan(&s.ID, &s.RunID, &s.SeatID, &s.Status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSlotNotFound
		}
		return nil, lockErr(err)
	}
	return &s, nil
}

// UpdateStatusTx writes the slot's derived status.
func (r *SlotRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, slotID uint64, status model.SlotStatus) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE ticket_slots SET status=? WHERE id=?", status.String(), slotID)
	return err
}

// InsertTicketTx inserts the new ticket and populates its ID.  Committed
// only together with the slot status update and the owning order.
func (r *SlotRepo) InsertTicketTx(ctx context.Context, tx *sql.Tx, t *Ticket) error {
	res, err := tx.ExecContext(ctx,
		"INSERT INTO tickets (slot_id, start_seq, end_seq, price_cents) VALUES (?, ?, ?, ?)",
		t.SlotID, t.StartSeq, t.EndSeq, t.PriceCents)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	return nil
}

// GetTicketTx reads one ticket inside a transaction.
func (r *SlotRepo) GetTicketTx(ctx context.Context, tx *sql.Tx, id uint64) (*Ticket, error) {
	const q = `SELECT id, slot_id, start_seq, end_seq, price_cents, sold, used FROM tickets WHERE id = ?`
	var t Ticket
	err := tx.QueryRowContext(ctx, q, id).
		Scan(&t.ID, &t.SlotID, &t.StartSeq, &t.EndSeq, &t.PriceCents, &t.Sold, &t.Used)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTicketNotFound
		}
		return nil, err
	}
	return &t, nil
}

// MarkTicketSoldTx flips the sold flag when the owning order completes.
func (r *SlotRepo) MarkTicketSoldTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	_, err := tx.ExecContext(ctx, "UPDATE tickets SET sold=1 WHERE id=?", id)
	return err
}

// DeleteTicketTx removes a ticket; the caller recomputes and writes the
// slot status in the same transaction.
func (r *SlotRepo) DeleteTicketTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	_, err := tx.ExecContext(ctx, "DELETE FROM tickets WHERE id=?", id)
	return err
}

// SegmentsForSlotTx returns the segments of the live tickets that remain
// on a slot, for status recomputation after a cancellation or removal.
func (r *SlotRepo) SegmentsForSlotTx(ctx context.Context, tx *sql.Tx, slotID uint64) ([]model.Segment, error) {
	const q = `SELECT t.start_seq, t.end_seq
	           FROM tickets t
	           JOIN orders o ON o.ticket_id = t.id
	           WHERE t.slot_id = ? AND o.status <> 'CANCELLED'`
	rows, err := tx.QueryContext(ctx, q, slotID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var segs []model.Segment
	for rows.Next() {
		var s model.Segment
		if err := rows.Scan(&s.Start, &s.End); err != nil {
			return nil, err
		}
		segs = append(segs, s)
	}
	return segs, rows.Err()
}

// SlotWithTickets is the read-only projection of one slot for reporting.
type SlotWithTickets struct {
	TicketSlot
	SeatNum string   `json:"seat_num"`
	Tickets []Ticket `json:"tickets"`
}

// ListForRun returns the slots of a run with their tickets, ordered by
// seat id, for the public run projection.  Plain reads, no locks.
func (r *SlotRepo) ListForRun(ctx context.Context, runID uint64) ([]SlotWithTickets, error) {
	const q = `SELECT sl.id, sl.run_id, sl.seat_id, sl.status, se.seat_num
	           FROM ticket_slots sl
	           JOIN seats se ON se.id = sl.seat_id
	           WHERE sl.run_id = ?
	           ORDER BY sl.seat_id`
	rows, err := r.db.QueryContext(ctx, q, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]SlotWithTickets, 0)
	index := make(map[uint64]int)
	for rows.Next() {
		var s SlotWithTickets
		if err := rows.Scan(&s.ID, &s.RunID, &s.SeatID, &s.Status, &s.SeatNum); err != nil {
			return nil, err
		}
		s.Tickets = []Ticket{}
		index[s.ID] = len(out)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}

	const tq = `SELECT t.id, t.slot_id, t.start_seq, t.end_seq, t.price_cents, t.sold, t.used
	            FROM tickets t
	            JOIN ticket_slots s ON s.id = t.slot_id
	            JOIN orders o ON o.ticket_id = t.id
	            WHERE s.run_id = ? AND o.status <> 'CANCELLED'
	            ORDER BY t.slot_id, t.start_seq`
	trows, err := r.db.QueryContext(ctx, tq, runID)
	if err != nil {
		return nil, err
	}
	defer trows.Close()
	for trows.Next() {
		var t Ticket
		if err := trows.Scan(&t.ID, &t.SlotID, &t.StartSeq, &t.EndSeq, &t.PriceCents, &t.Sold, &t.Used); err != nil {
			return nil, err
		}
		if i, ok := index[t.SlotID]; ok {
			out[i].Tickets = append(out[i].Tickets, t)
		}
	}
	return out, trows.Err()
}
