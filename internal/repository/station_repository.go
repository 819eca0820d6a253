package repository

import (
	"context"
	"database/sql"
	"errors"
)

// Station represents one station of the rail network.  Stations are
// referenced by route stops; deprecation hides them from new routes
// without losing history.
type Station struct {
	ID         uint64
	Name       string
	City       string
	Deprecated bool
}

// ErrStationNotFound is returned when a station lookup yields no rows.
var ErrStationNotFound = errors.New("station not found")

// StationRepo provides persistence for stations.
type StationRepo struct {
	db *sql.DB
}

// NewStationRepo constructs a StationRepo with the given DB handle.
func NewStationRepo(db *sql.DB) *StationRepo {
	return &StationRepo{db: db}
}

// Create inserts a station and populates its ID.
func (r *StationRepo) Create(ctx context.Context, s *Station) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO stations (name, city) VALUES (?, ?)", s.Name, s.City)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	return nil
}

// GetByID retrieves a station, returning ErrStationNotFound when absent.
func (r *StationRepo) GetByID(ctx context.Context, id uint64) (*Station, error) {
	const q = `SELECT id, name, city, deprecated FROM stations WHERE id = ?`
	var s Station
	err := r.db.QueryRowContext(ctx, q, id).Scan(&s.ID, &s.Name, &s.City, &s.Deprecated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStationNotFound
		}
		return nil, err
	}
	return &s, nil
}

// List returns stations ordered by id with offset/limit pagination.
func (r *StationRepo) List(ctx context.Context, offset, limit int) ([]Station, error) {
	const q = `SELECT id, name, city, deprecated FROM stations ORDER BY id LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, q, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Station, 0, limit)
	for rows.Next() {
		var s Station
		if err := rows.Scan(&s.ID, &s.Name, &s.City, &s.Deprecated); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Update rewrites name and city.  Returns ErrStationNotFound when the row
// does not exist.
func (r *StationRepo) Update(ctx context.Context, s *Station) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE stations SET name=?, city=? WHERE id=?", s.Name, s.City, s.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.GetByID(ctx, s.ID); err != nil {
			return err
		}
	}
	return nil
}

// SetDeprecated toggles the deprecation flag.
func (r *StationRepo) SetDeprecated(ctx context.Context, id uint64, deprecated bool) error {
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx,
		"UPDATE stations SET deprecated=? WHERE id=?", deprecated, id)
	return err
}

// Delete removes a station.  Stations referenced by route stops return
// ErrConflict; deprecated stations return ErrDeprecated.
func (r *StationRepo) Delete(ctx context.Context, id uint64) error {
	s, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if s.Deprecated {
		return ErrDeprecated
	}
	var refs int
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM route_stops WHERE station_id=?", id).Scan(&refs); err != nil {
		return err
	}
	if refs > 0 {
		return ErrConflict
	}
	_, err = r.db.ExecContext(ctx, "DELETE FROM stations WHERE id=?", id)
	return err
}
