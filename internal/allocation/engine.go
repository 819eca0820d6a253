// Package allocation implements the ticket-slot allocation engine.  It is
// pure decision logic: callers load a snapshot of a run's slots (holding
// the row locks), ask for a placement, and persist the returned ticket and
// slot status together with the order in one transaction.  The engine
// itself never touches storage.
package allocation

import (
	"errors"
	"fmt"
	"sort"

	"github.com/iliyamo/train-ticket-reservation/internal/model"
)

// ErrCapacityExhausted is returned when no slot on the run can take the
// requested segment.
var ErrCapacityExhausted = errors.New("no slot can accommodate the requested segment")

// ErrInvalidSegment is returned for malformed segment bounds.
var ErrInvalidSegment = errors.New("invalid segment bounds")

// Slot is the engine's view of one ticket slot: identity, the seat it binds
// (the deterministic scan key), the derived status and the segments of the
// tickets already sold on it.
type Slot struct {
	ID      uint64
	SeatID  uint64
	Status  model.SlotStatus
	Tickets []model.Segment
}

// Request describes one purchase.  A through request reserves the whole
// seat for the whole journey; otherwise Segment holds the stop-sequence
// bounds [Start, End).  TotalLegs is the leg count of the run's route, so
// stop sequence numbers range over [1, TotalLegs+1].
type Request struct {
	Through   bool
	Segment   model.Segment
	TotalLegs uint32
}

// Placement is the engine's decision: which slot takes the new ticket,
// the segment the ticket covers, and the status the slot must carry after
// the write.
type Placement struct {
	SlotID  uint64
	SeatID  uint64
	Segment model.Segment
	Status  model.SlotStatus
}

// Allocate picks a slot for the request.  Slots are scanned in ascending
// seat order (first-fit).  Through requests take the first EMPTY slot and
// mark it FULL.  Partial requests first try every REMAINING slot for a
// conflict-free fit, then fall back to the first EMPTY slot, which stays
// REMAINING so further segments can land on it.
func Allocate(slots []Slot, req Request) (Placement, error) {
	if req.TotalLegs == 0 {
		return Placement{}, fmt.Errorf("%w: route has no legs", ErrInvalidSegment)
	}
	lastStop := req.TotalLegs + 1

	if req.Through {
		return allocateThrough(ordered(slots), req.TotalLegs)
	}

	seg := req.Segment
	if seg.Start < 1 || seg.Start >= seg.End || seg.End > lastStop {
		return Placement{}, fmt.Errorf("%w: [%d, %d) on stops 1..%d",
			ErrInvalidSegment, seg.Start, seg.End, lastStop)
	}
	return allocateSegment(ordered(slots), seg, req.TotalLegs)
}

// ordered returns the slots sorted by seat id ascending.  The input is not
// modified; the scan order must not depend on storage row order.
func ordered(slots []Slot) []Slot {
	out := make([]Slot, len(slots))
	copy(out, slots)
	sort.Slice(out, func(i, j int) bool { return out[i].SeatID < out[j].SeatID })
	return out
}

func allocateThrough(slots []Slot, totalLegs uint32) (Placement, error) {
	for _, s := range slots {
		if s.Status != model.SlotEmpty {
			continue
		}
		// A through ticket spans every stop and occupies the whole slot
		// regardless of leg bookkeeping.
		return Placement{
			SlotID:  s.ID,
			SeatID:  s.SeatID,
			Segment: model.Segment{Start: 1, End: totalLegs + 1},
			Status:  model.SlotFull,
		}, nil
	}
	return Placement{}, ErrCapacityExhausted
}

func allocateSegment(slots []Slot, seg model.Segment, totalLegs uint32) (Placement, error) {
	// First fit among partially sold slots.
	for _, s := range slots {
		if s.Status != model.SlotRemaining {
			continue
		}
		if conflictsAny(seg, s.Tickets) {
			continue
		}
		status, err := model.DeriveSlotStatus(append(s.Tickets[:len(s.Tickets):len(s.Tickets)], seg), totalLegs)
		if err != nil {
			// Existing tickets plus a fitting segment exceeding capacity
			// means the slot's bookkeeping was already wrong.
			return Placement{}, err
		}
		return Placement{SlotID: s.ID, SeatID: s.SeatID, Segment: seg, Status: status}, nil
	}
	// Fall back to a fresh slot.  A single partial segment never fills a
	// slot: covering the whole journey exclusively is the through path's
	// job, so the slot stays open for adjacent segments.
	for _, s := range slots {
		if s.Status != model.SlotEmpty {
			continue
		}
		return Placement{SlotID: s.ID, SeatID: s.SeatID, Segment: seg, Status: model.SlotRemaining}, nil
	}
	return Placement{}, ErrCapacityExhausted
}

func conflictsAny(seg model.Segment, tickets []model.Segment) bool {
	for _, t := range tickets {
		if seg.Conflicts(t) {
			return true
		}
	}
	return false
}
