package repository

import (
	"context"
	"database/sql"
	"errors"
)

// Seat is one physical seat of a carriage.  SeatNum combines row number
// and seat letter, e.g. "3A".  Seat identity is immutable once created;
// the same seat is resold run after run through ticket slots.
type Seat struct {
	ID         uint64
	CarriageID uint64
	SeatNum    string
}

// ErrSeatNotFound is returned when a seat lookup yields no rows.
var ErrSeatNotFound = errors.New("seat not found")

// SeatRepo provides persistence for seats.
type SeatRepo struct {
	db *sql.DB
}

// NewSeatRepo constructs a SeatRepo with the given DB handle.
func NewSeatRepo(db *sql.DB) *SeatRepo {
	return &SeatRepo{db: db}
}

// CreateBulkTx inserts the full seat grid of a carriage in one statement
// inside an existing transaction.
func (r *SeatRepo) CreateBulkTx(ctx context.Context, tx *sql.Tx, seats []Seat) error {
	if len(seats) == 0 {
		return nil
	}
	query := `INSERT INTO seats (carriage_id, seat_num) VALUES `
	args := make([]interface{}, 0, len(seats)*2)
	for i, s := range seats {
		if i > 0 {
			query += ","
		}
		query += "(?, ?)"
		args = append(args, s.CarriageID, s.SeatNum)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// ListByCarriage returns the seats of one carriage ordered by id.
func (r *SeatRepo) ListByCarriage(ctx context.Context, carriageID uint64) ([]Seat, error) {
	const q = `SELECT id, carriage_id, seat_num FROM seats WHERE carriage_id = ? ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q, carriageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Seat
	for rows.Next() {
		var s Seat
		if err := rows.Scan(&s.ID, &s.CarriageID, &s.SeatNum); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// CarriageClassTx returns the class label of the carriage a seat belongs
// to.  Used during allocation to price the ticket.
func (r *SeatRepo) CarriageClassTx(ctx context.Context, tx *sql.Tx, seatID uint64) (string, error) {
	const q = `SELECT c.class FROM seats s JOIN carriages c ON c.id = s.carriage_id WHERE s.id = ?`
	var class string
	err := tx.QueryRowContext(ctx, q, seatID).Scan(&class)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrSeatNotFound
		}
		return "", err
	}
	return class, nil
}

// ListByTrainTx returns every seat of a train's carriages, ordered by
// carriage position then seat id.  Used once per run, at materialization,
// to create the run's ticket slots inside the same transaction.
func (r *SeatRepo) ListByTrainTx(ctx context.Context, tx *sql.Tx, trainID uint64) ([]Seat, error) {
	const q = `SELECT s.id, s.carriage_id, s.seat_num
	           FROM seats s
	           JOIN carriages c ON c.id = s.carriage_id
	           WHERE c.train_id = ?
	           ORDER BY c.num, s.id`
	rows, err := tx.QueryContext(ctx, q, trainID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Seat
	for rows.Next() {
		var s Seat
		if err := rows.Scan(&s.ID, &s.CarriageID, &s.SeatNum); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
