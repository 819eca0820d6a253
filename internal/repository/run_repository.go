package repository

import (
	"context"
	"database/sql"
	"errors"
)

// TrainRun is one dated instantiation of a train over a route template.
// Locked runs accept no new sales; finished runs accept nothing at all.
type TrainRun struct {
	ID          uint64
	TrainID     uint64
	RouteID     uint64
	RunningDate string // YYYY-MM-DD
	Locked      bool
	Finished    bool
}

// ErrRunNotFound is returned when a run lookup yields no rows.
var ErrRunNotFound = errors.New("train run not found")

// RunRepo provides persistence for train runs.
type RunRepo struct {
	db *sql.DB
}

// NewRunRepo constructs a RunRepo with the given DB handle.
func NewRunRepo(db *sql.DB) *RunRepo {
	return &RunRepo{db: db}
}

// DB exposes the handle so handlers can materialize a run and its ticket
// slots in one transaction.
func (r *RunRepo) DB() *sql.DB { return r.db }

// CreateTx inserts the run row inside an existing transaction and
// populates its ID.  Slot materialization follows in the same transaction
// so a run is never observable without its slots.
func (r *RunRepo) CreateTx(ctx context.Context, tx *sql.Tx, run *TrainRun) error {
	res, err := tx.ExecContext(ctx,
		"INSERT INTO train_runs (train_id, route_id, running_date) VALUES (?, ?, ?)",
		run.TrainID, run.RouteID, run.RunningDate)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	run.ID = uint64(id)
	return nil
}

// GetByID retrieves a run, returning ErrRunNotFound when absent.
func (r *RunRepo) GetByID(ctx context.Context, id uint64) (*TrainRun, error) {
	const q = `SELECT id, train_id, route_id, running_date, locked, finished FROM train_runs WHERE id = ?`
	var run TrainRun
	err := r.db.QueryRowContext(ctx, q, id).
		Scan(&run.ID, &run.TrainID, &run.RouteID, &run.RunningDate, &run.Locked, &run.Finished)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRunNotFound
		}
		return nil, err
	}
	return &run, nil
}

// GetTx reads a run inside an existing transaction.  Allocation uses it to
// check the locked/finished flags under the same snapshot as the slot
// scan.
func (r *RunRepo) GetTx(ctx context.Context, tx *sql.Tx, id uint64) (*TrainRun, error) {
	const q = `SELECT id, train_id, route_id, running_date, locked, finished FROM train_runs WHERE id = ?`
	var run TrainRun
	err := tx.QueryRowContext(ctx, q, id).
		Scan(&run.ID, &run.TrainID, &run.RouteID, &run.RunningDate, &run.Locked, &run.Finished)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRunNotFound
		}
		return nil, err
	}
	return &run, nil
}

// List returns runs ordered by running date then id with offset/limit
// pagination.
func (r *RunRepo) List(ctx context.Context, offset, limit int) ([]TrainRun, error) {
	const q = `SELECT id, train_id, route_id, running_date, locked, finished
	           FROM train_runs ORDER BY running_date, id LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, q, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]TrainRun, 0, limit)
	for rows.Next() {
		var run TrainRun
		if err := rows.Scan(&run.ID, &run.TrainID, &run.RouteID,
			&run.RunningDate, &run.Locked, &run.Finished); err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

// SetLocked toggles the locked flag; a locked run sells nothing new but
// keeps its existing orders alive.
func (r *RunRepo) SetLocked(ctx context.Context, id uint64, locked bool) error {
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, "UPDATE train_runs SET locked=? WHERE id=?", locked, id)
	return err
}

// SetFinished toggles the finished flag.
func (r *RunRepo) SetFinished(ctx context.Context, id uint64, finished bool) error {
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, "UPDATE train_runs SET finished=? WHERE id=?", finished, id)
	return err
}

// Delete removes a run and, via FK cascade, its ticket slots.  Runs with
// sold tickets return ErrConflict; cancel or remove the orders first.
func (r *RunRepo) Delete(ctx context.Context, id uint64) error {
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	var tickets int
	const q = `SELECT COUNT(*) FROM tickets t JOIN ticket_slots s ON s.id = t.slot_id WHERE s.run_id = ?`
	if err := r.db.QueryRowContext(ctx, q, id).Scan(&tickets); err != nil {
		return err
	}
	if tickets > 0 {
		return ErrConflict
	}
	_, err := r.db.ExecContext(ctx, "DELETE FROM train_runs WHERE id=?", id)
	return err
}
