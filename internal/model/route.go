package model

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidSequence is returned when a route template's stop list is
// malformed: sequence numbers not strictly increasing from 1, cumulative
// distances decreasing, or unparseable stop times.  The whole definition
// is rejected; partially applied routes are never observable.
var ErrInvalidSequence = errors.New("invalid stop sequence")

// StopInput is one stop of a route-template definition as supplied by the
// caller, before validation.
type StopInput struct {
	StationID  uint64
	Seq        uint32
	Arrival    string // HH:MM wall-clock time at the stop, seconds optional
	Departure  string
	DistanceKM uint32 // cumulative distance from the first stop
}

// ValidateStops checks a route definition's stop list.  Stops must carry
// sequence numbers 1,2,3,... with no gaps, parseable arrival and departure
// times, and the cumulative distance must never decrease.  A route needs
// at least two stops to have a leg to sell.
func ValidateStops(stops []StopInput) error {
	if len(stops) < 2 {
		return fmt.Errorf("%w: a route needs at least two stops", ErrInvalidSequence)
	}
	for i, st := range stops {
		want := uint32(i + 1)
		if st.Seq != want {
			return fmt.Errorf("%w: stop %d carries seq %d, want %d", ErrInvalidSequence, i, st.Seq, want)
		}
		if st.StationID == 0 {
			return fmt.Errorf("%w: stop %d has no station", ErrInvalidSequence, i)
		}
		if !validStopTime(st.Arrival) {
			return fmt.Errorf("%w: stop %d arrival %q is not a valid time", ErrInvalidSequence, i, st.Arrival)
		}
		if !validStopTime(st.Departure) {
			return fmt.Errorf("%w: stop %d departure %q is not a valid time", ErrInvalidSequence, i, st.Departure)
		}
		if i > 0 && st.DistanceKM < stops[i-1].DistanceKM {
			return fmt.Errorf("%w: distance decreases at seq %d (%d < %d)",
				ErrInvalidSequence, st.Seq, st.DistanceKM, stops[i-1].DistanceKM)
		}
	}
	return nil
}

// validStopTime accepts HH:MM wall-clock times, with or without seconds.
func validStopTime(s string) bool {
	if _, err := time.Parse("15:04:05", s); err == nil {
		return true
	}
	_, err := time.Parse("15:04", s)
	return err == nil
}

// TotalLegs returns the leg count of a route with the given number of
// stops.  A route with stops 1..N has N-1 legs.
func TotalLegs(stopCount int) uint32 {
	if stopCount < 2 {
		return 0
	}
	return uint32(stopCount - 1)
}
