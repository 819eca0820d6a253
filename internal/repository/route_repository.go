package repository

import (
	"context"
	"database/sql"
	"errors"
)

// RouteTemplate is the named, reusable ordered stop list that dated runs
// instantiate.
type RouteTemplate struct {
	ID         uint64
	Name       string
	Deprecated bool
}

// RouteStop is one stop of a route template.  Seq numbers run 1..N with no
// gaps; DistanceKM is cumulative from the first stop and never decreases.
// Both properties are validated before insertion (model.ValidateStops).
type RouteStop struct {
	ID         uint64
	RouteID    uint64
	StationID  uint64
	Seq        uint32
	Arrival    string
	Departure  string
	DistanceKM uint32
}

// ErrRouteNotFound is returned when a route template lookup yields no rows.
var ErrRouteNotFound = errors.New("route template not found")

// RouteRepo provides persistence for route templates and their stops.
type RouteRepo struct {
	db *sql.DB
}

// NewRouteRepo constructs a RouteRepo with the given DB handle.
func NewRouteRepo(db *sql.DB) *RouteRepo {
	return &RouteRepo{db: db}
}

// DB exposes the handle so handlers can create a template and its stops in
// one transaction; a template must never be observable without its stops.
func (r *RouteRepo) DB() *sql.DB { return r.db }

// CreateTx inserts the template row inside an existing transaction and
// populates its ID.
func (r *RouteRepo) CreateTx(ctx context.Context, tx *sql.Tx, rt *RouteTemplate) error {
	res, err := tx.ExecContext(ctx, "INSERT INTO route_templates (name) VALUES (?)", rt.Name)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rt.ID = uint64(id)
	return nil
}

// CreateStopsBulkTx inserts all stops of a template in one statement
// inside the same transaction as CreateTx.
func (r *RouteRepo) CreateStopsBulkTx(ctx context.Context, tx *sql.Tx, stops []RouteStop) error {
	if len(stops) == 0 {
		return nil
	}
	query := `INSERT INTO route_stops (route_id, station_id, seq, arrival, departure, distance_km) VALUES `
	args := make([]interface{}, 0, len(stops)*6)
	for i, st := range stops {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?, ?, ?)"
		args = append(args, st.RouteID, st.StationID, st.Seq, st.Arrival, st.Departure, st.DistanceKM)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// GetByID retrieves a template, returning ErrRouteNotFound when absent.
func (r *RouteRepo) GetByID(ctx context.Context, id uint64) (*RouteTemplate, error) {
	const q = `SELECT id, name, deprecated FROM route_templates WHERE id = ?`
	var rt RouteTemplate
	err := r.db.QueryRowContext(ctx, q, id).Scan(&rt.ID, &rt.Name, &rt.Deprecated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRouteNotFound
		}
		return nil, err
	}
	return &rt, nil
}

// ListStops returns the stops of a template in sequence order.
func (r *RouteRepo) ListStops(ctx context.Context, routeID uint64) ([]RouteStop, error) {
	const q = `SELECT id, route_id, station_id, seq, arrival, departure, distance_km
	           FROM route_stops WHERE route_id = ? ORDER BY seq`
	rows, err := r.db.QueryContext(ctx, q, routeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RouteStop
	for rows.Next() {
		var st RouteStop
		if err := rows.Scan(&st.ID, &st.RouteID, &st.StationID, &st.Seq,
			&st.Arrival, &st.Departure, &st.DistanceKM); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// StopCount returns the number of stops a template carries.  The run's
// totalLegs is StopCount-1.
func (r *RouteRepo) StopCount(ctx context.Context, routeID uint64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM route_stops WHERE route_id=?", routeID).Scan(&n)
	return n, err
}

// StopCountTx is StopCount inside an existing transaction; used during
// allocation so the leg count and the slot scan observe the same state.
func (r *RouteRepo) StopCountTx(ctx context.Context, tx *sql.Tx, routeID uint64) (int, error) {
	var n int
	err := tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM route_stops WHERE route_id=?", routeID).Scan(&n)
	return n, err
}

// StopDistancesTx returns the cumulative distances of a route's stops in
// sequence order, inside an existing transaction.  Index i holds the
// distance of stop seq i+1; allocation prices a segment [s,e) as
// distances[e-1] - distances[s-1].
func (r *RouteRepo) StopDistancesTx(ctx context.Context, tx *sql.Tx, routeID uint64) ([]uint32, error) {
	const q = `SELECT distance_km FROM route_stops WHERE route_id = ? ORDER BY seq`
	rows, err := tx.QueryContext(ctx, q, routeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []uint32
	for rows.Next() {
		var d uint32
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// List returns templates ordered by id with offset/limit pagination.
func (r *RouteRepo) List(ctx context.Context, offset, limit int) ([]RouteTemplate, error) {
	const q = `SELECT id, name, deprecated FROM route_templates ORDER BY id LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, q, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]RouteTemplate, 0, limit)
	for rows.Next() {
		var rt RouteTemplate
		if err := rows.Scan(&rt.ID, &rt.Name, &rt.Deprecated); err != nil {
			return nil, err
		}
		out = append(out, rt)
	}
	return out, rows.Err()
}

// Rename updates the template name.
func (r *RouteRepo) Rename(ctx context.Context, id uint64, name string) error {
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, "UPDATE route_templates SET name=? WHERE id=?", name, id)
	return err
}

// SetDeprecated toggles the deprecation flag.
func (r *RouteRepo) SetDeprecated(ctx context.Context, id uint64, deprecated bool) error {
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, "UPDATE route_templates SET deprecated=? WHERE id=?", deprecated, id)
	return err
}

// Delete removes a template and, via FK cascade, its stops.  Templates
// instantiated by runs return ErrConflict.
func (r *RouteRepo) Delete(ctx context.Context, id uint64) error {
	rt, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if rt.Deprecated {
		return ErrDeprecated
	}
	var runs int
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM train_runs WHERE route_id=?", id).Scan(&runs); err != nil {
		return err
	}
	if runs > 0 {
		return ErrConflict
	}
	_, err = r.db.ExecContext(ctx, "DELETE FROM route_templates WHERE id=?", id)
	return err
}
