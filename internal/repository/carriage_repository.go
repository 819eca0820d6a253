package repository

import (
	"context"
	"database/sql"
	"errors"
)

// Carriage represents one carriage, optionally attached to a train.  Num
// is its position in the composition; Class is the database label of a
// model.CarriageClass.
type Carriage struct {
	ID         uint64
	TrainID    *uint64
	Num        uint32
	Class      string
	Deprecated bool
}

// ErrCarriageNotFound is returned when a carriage lookup yields no rows.
var ErrCarriageNotFound = errors.New("carriage not found")

// CarriageRepo provides persistence for carriages.
type CarriageRepo struct {
	db *sql.DB
}

// NewCarriageRepo constructs a CarriageRepo with the given DB handle.
func NewCarriageRepo(db *sql.DB) *CarriageRepo {
	return &CarriageRepo{db: db}
}

// DB exposes the handle so handlers can open transactions spanning
// carriage and seat writes.
func (r *CarriageRepo) DB() *sql.DB { return r.db }

// CreateTx inserts a carriage inside an existing transaction and populates
// its ID.  Seat materialization happens in the same transaction via
// SeatRepo.CreateBulkTx so a carriage is never observable without its
// seats.
func (r *CarriageRepo) CreateTx(ctx context.Context, tx *sql.Tx, c *Carriage) error {
	res, err := tx.ExecContext(ctx,
		"INSERT INTO carriages (train_id, num, class) VALUES (?, ?, ?)",
		c.TrainID, c.Num, c.Class)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)
	return nil
}

// GetByID retrieves a carriage, returning ErrCarriageNotFound when absent.
func (r *CarriageRepo) GetByID(ctx context.Context, id uint64) (*Carriage, error) {
	const q = `SELECT id, train_id, num, class, deprecated FROM carriages WHERE id = ?`
	var c Carriage
	var trainID sql.NullInt64
	err := r.db.QueryRowContext(ctx, q, id).Scan(&c.ID, &trainID, &c.Num, &c.Class, &c.Deprecated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCarriageNotFound
		}
		return nil, err
	}
	if trainID.Valid {
		tid := uint64(trainID.Int64)
		c.TrainID = &tid
	}
	return &c, nil
}

// ListByTrain returns the carriages attached to a train ordered by their
// position number.
func (r *CarriageRepo) ListByTrain(ctx context.Context, trainID uint64) ([]Carriage, error) {
	const q = `SELECT id, train_id, num, class, deprecated FROM carriages WHERE train_id = ? ORDER BY num`
	rows, err := r.db.QueryContext(ctx, q, trainID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Carriage
	for rows.Next() {
		var c Carriage
		var tid sql.NullInt64
		if err := rows.Scan(&c.ID, &tid, &c.Num, &c.Class, &c.Deprecated); err != nil {
			return nil, err
		}
		if tid.Valid {
			v := uint64(tid.Int64)
			c.TrainID = &v
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Attach binds a carriage to a train and updates its position number.
// Class compatibility against the train is checked by the handler before
// calling.
func (r *CarriageRepo) Attach(ctx context.Context, carriageID, trainID uint64, num uint32) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE carriages SET train_id=?, num=? WHERE id=?", trainID, num, carriageID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.GetByID(ctx, carriageID); err != nil {
			return err
		}
	}
	return nil
}

// SetDeprecated toggles the deprecation flag.
func (r *CarriageRepo) SetDeprecated(ctx context.Context, id uint64, deprecated bool) error {
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, "UPDATE carriages SET deprecated=? WHERE id=?", deprecated, id)
	return err
}

// Delete removes a carriage and, via FK cascade, its seats.  Carriages
// attached to a train return ErrConflict; deprecated carriages return
// ErrDeprecated.
func (r *CarriageRepo) Delete(ctx context.Context, id uint64) error {
	c, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if c.TrainID != nil {
		return ErrConflict
	}
	if c.Deprecated {
		return ErrDeprecated
	}
	_, err = r.db.ExecContext(ctx, "DELETE FROM carriages WHERE id=?", id)
	return err
}
