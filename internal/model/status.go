package model

import (
	"errors"
	"fmt"
)

// SlotStatus tracks how much of a ticket slot's journey remains sellable.
// A slot is EMPTY with no tickets, FULL when its tickets cover every leg of
// the run's route (or a through ticket occupies it), and REMAINING in
// between.  The status is always a function of the slot's ticket set; it is
// stored denormalized so the allocation scan can filter slots by status
// without loading every ticket.
type SlotStatus uint8

const (
	SlotEmpty SlotStatus = iota + 1
	SlotRemaining
	SlotFull
)

// ErrInvariantViolation signals that slot bookkeeping is inconsistent, e.g.
// ticket leg lengths exceeding the route's capacity.  It indicates a bug,
// not bad input, and is checked defensively before every slot write.
var ErrInvariantViolation = errors.New("slot bookkeeping invariant violated")

// String returns the database label for the slot status.
func (s SlotStatus) String() string {
	switch s {
	case SlotEmpty:
		return "EMPTY"
	case SlotRemaining:
		return "REMAINING"
	case SlotFull:
		return "FULL"
	}
	return fmt.Sprintf("SlotStatus(%d)", uint8(s))
}

// ParseSlotStatus converts a database label into a SlotStatus.
func ParseSlotStatus(s string) (SlotStatus, error) {
	switch s {
	case "EMPTY":
		return SlotEmpty, nil
	case "REMAINING":
		return SlotRemaining, nil
	case "FULL":
		return SlotFull, nil
	}
	return 0, fmt.Errorf("unknown slot status %q", s)
}

// Segment is a half-open range [Start, End) of route-stop sequence numbers
// covered by one ticket.  A route with stops 1..N has N-1 legs; a segment
// covers End-Start of them.
type Segment struct {
	Start uint32
	End   uint32
}

// Legs returns the number of legs the segment covers.
func (s Segment) Legs() uint32 {
	if s.End <= s.Start {
		return 0
	}
	return s.End - s.Start
}

// Conflicts reports whether two segments overlap.  Touching endpoints
// (s.End == t.Start or vice versa) are not a conflict: adjacent segments
// may share a seat.
func (s Segment) Conflicts(t Segment) bool {
	return (s.Start < t.End && s.Start > t.Start) ||
		(s.End < t.End && s.End > t.Start) ||
		(t.Start <= s.Start && t.End >= s.End)
}

// DeriveSlotStatus computes the status a slot must carry for the given
// ticket segments on a route with totalLegs legs.  It returns
// ErrInvariantViolation when the consumed legs exceed capacity, which a
// correct caller never produces.
func DeriveSlotStatus(segments []Segment, totalLegs uint32) (SlotStatus, error) {
	if len(segments) == 0 {
		return SlotEmpty, nil
	}
	var consumed uint32
	for _, seg := range segments {
		consumed += seg.Legs()
	}
	switch {
	case consumed > totalLegs:
		return 0, fmt.Errorf("%w: %d legs on a %d-leg route", ErrInvariantViolation, consumed, totalLegs)
	case consumed == totalLegs:
		return SlotFull, nil
	}
	return SlotRemaining, nil
}
