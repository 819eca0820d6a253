// Package repository implements raw database/sql persistence for the
// reservation domain.  Each repository owns one table family and exposes
// plain methods for single-statement work plus ...Tx variants for the
// operations that must share a transaction with other writes.  Sentinel
// errors shared across repositories live here; entity-specific not-found
// sentinels live next to their repository.
package repository

import "errors"

// ErrConflict is returned when a delete cannot proceed because live
// records still reference the target: a station used by route stops, a
// train scheduled in runs, a run that already sold tickets.  Handlers
// translate this into HTTP 409.
var ErrConflict = errors.New("conflicting references exist")

// ErrDeprecated is returned when attempting to hard-delete an entity that
// has been deprecated; deprecated records are kept for reporting.
var ErrDeprecated = errors.New("deprecated records cannot be deleted")
