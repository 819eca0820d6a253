package repository

import (
	"context"
	"database/sql"
	"errors"
)

// Train represents one physical train composition.  Class is the database
// label of a model.TrainClass.  A train must be marked valid before it can
// be scheduled; deprecation retires it from new runs.
type Train struct {
	ID         uint64
	Class      string
	Valid      bool
	Deprecated bool
}

// ErrTrainNotFound is returned when a train lookup yields no rows.
var ErrTrainNotFound = errors.New("train not found")

// TrainRepo provides persistence for trains.
type TrainRepo struct {
	db *sql.DB
}

// NewTrainRepo constructs a TrainRepo with the given DB handle.
func NewTrainRepo(db *sql.DB) *TrainRepo {
	return &TrainRepo{db: db}
}

// DB exposes the handle so handlers can open transactions spanning train
// and carriage writes.
func (r *TrainRepo) DB() *sql.DB { return r.db }

// CreateTx inserts a train inside an existing transaction and populates
// its ID.  Used by the create handler, which may attach carriages in the
// same transaction.
func (r *TrainRepo) CreateTx(ctx context.Context, tx *sql.Tx, t *Train) error {
	res, err := tx.ExecContext(ctx, "INSERT INTO trains (class) VALUES (?)", t.Class)
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

// GetByID retrieves a train, returning ErrTrainNotFound when absent.
func (r *TrainRepo) GetByID(ctx context.Context, id uint64) (*Train, error) {
	const q = `SELECT id, class, valid, deprecated FROM trains WHERE id = ?`
	var t Train
	err := r.db.QueryRowContext(ctx, q, id).Scan(&t.ID, &t.Class, &t.Valid, &t.Deprecated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTrainNotFound
		}
		return nil, err
	}
	return &t, nil
}

// List returns trains ordered by id with offset/limit pagination.
func (r *TrainRepo) List(ctx context.Context, offset, limit int) ([]Train, error) {
	const q = `SELECT id, class, valid, deprecated FROM trains ORDER BY id LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, q, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Train, 0, limit)
	for rows.Next() {
		var t Train
		if err := rows.Scan(&t.ID, &t.Class, &t.Valid, &t.Deprecated); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// SetValid toggles the valid flag.  Only valid trains may be scheduled
// into runs.
func (r *TrainRepo) SetValid(ctx context.Context, id uint64, valid bool) error {
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, "UPDATE trains SET valid=? WHERE id=?", valid, id)
	return err
}

// SetDeprecated toggles the deprecation flag.
func (r *TrainRepo) SetDeprecated(ctx context.Context, id uint64, deprecated bool) error {
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, "UPDATE trains SET deprecated=? WHERE id=?", deprecated, id)
	return err
}

// Delete removes a train and, via FK cascade, its carriages and seats.
// Trains used by runs return ErrConflict; valid or deprecated trains may
// not be deleted.
func (r *TrainRepo) Delete(ctx context.Context, id uint64) error {
	t, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if t.Valid {
		return ErrConflict
	}
	if t.Deprecated {
		return ErrDeprecated
	}
	var runs int
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM train_runs WHERE train_id=?", id).Scan(&runs); err != nil {
		return err
	}
	if runs > 0 {
		return ErrConflict
	}
	_, err = r.db.ExecContext(ctx, "DELETE FROM trains WHERE id=?", id)
	return err
}
