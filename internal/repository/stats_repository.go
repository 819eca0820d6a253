package repository

import (
	"context"
	"database/sql"
	"errors"
)

// statTables maps the entity names the admin API accepts to the tables
// they count.  An allowlist, never interpolated from user input directly.
var statTables = map[string]string{
	"users":     "users",
	"stations":  "stations",
	"trains":    "trains",
	"carriages": "carriages",
	"seats":     "seats",
	"routes":    "route_templates",
	"runs":      "train_runs",
	"tickets":   "tickets",
	"orders":    "orders",
}

// ErrUnknownEntity is returned when a count is requested for an entity
// outside the allowlist.
var ErrUnknownEntity = errors.New("unknown entity")

// StatsRepo serves the admin dashboard counts.
type StatsRepo struct {
	db *sql.DB
}

// NewStatsRepo constructs a StatsRepo with the given DB handle.
func NewStatsRepo(db *sql.DB) *StatsRepo {
	return &StatsRepo{db: db}
}

// Count returns the row count of one entity.
func (r *StatsRepo) Count(ctx context.Context, entity string) (int64, error) {
	table, ok := statTables[entity]
	if !ok {
		return 0, ErrUnknownEntity
	}
	var n int64
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n)
	return n, err
}

// CountAll returns the row counts of every entity in the allowlist.
func (r *StatsRepo) CountAll(ctx context.Context) (map[string]int64, error) {
	out := make(map[string]int64, len(statTables))
	for entity := range statTables {
		n, err := r.Count(ctx, entity)
		if err != nil {
			return nil, err
		}
		out[entity] = n
	}
	return out, nil
}
