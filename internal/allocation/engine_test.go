package allocation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/train-ticket-reservation/internal/model"
)

func seg(start, end uint32) model.Segment {
	return model.Segment{Start: start, End: end}
}

// oneSeatRun builds a run snapshot with a single slot carrying the given
// tickets, status derived from them.
func oneSeatRun(totalLegs uint32, tickets ...model.Segment) []Slot {
	status := model.SlotEmpty
	if len(tickets) > 0 {
		var err error
		status, err = model.DeriveSlotStatus(tickets, totalLegs)
		if err != nil {
			panic(err)
		}
	}
	return []Slot{{ID: 1, SeatID: 11, Status: status, Tickets: tickets}}
}

func TestSegmentConflictPredicate(t *testing.T) {
	existing := seg(4, 7)
	cases := []struct {
		name     string
		request  model.Segment
		conflict bool
	}{
		{"identical", seg(4, 7), true},
		{"contained", seg(5, 6), true},
		{"straddles start", seg(3, 5), true},
		{"straddles end", seg(6, 8), true},
		{"adjacent before", seg(1, 4), false},
		{"adjacent after", seg(7, 10), false},
		{"disjoint before", seg(1, 3), false},
		{"disjoint after", seg(8, 10), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.conflict, tc.request.Conflicts(existing))
		})
	}
}

// Mirrors the canonical multi-segment resale scenario: a ten-stop route
// (nine legs), one seat, four requests.
func TestAllocatePartialSegmentsOneSeat(t *testing.T) {
	const legs = 9 // stops 1..10

	// Request 1: [1,4) on an empty slot lands via the fresh-slot fallback
	// and leaves the slot open.
	p1, err := Allocate(oneSeatRun(legs), Request{Segment: seg(1, 4), TotalLegs: legs})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), p1.SlotID)
	assert.Equal(t, model.SlotRemaining, p1.Status)

	// Request 2: [4,7) is adjacent to [1,4), not overlapping.
	p2, err := Allocate(oneSeatRun(legs, seg(1, 4)), Request{Segment: seg(4, 7), TotalLegs: legs})
	require.NoError(t, err)
	assert.Equal(t, model.SlotRemaining, p2.Status, "6 of 9 legs consumed")

	// Request 3: [2,5) overlaps Request 1 and there is no empty slot left
	// to fall back to.
	_, err = Allocate(oneSeatRun(legs, seg(1, 4), seg(4, 7)), Request{Segment: seg(2, 5), TotalLegs: legs})
	assert.ErrorIs(t, err, ErrCapacityExhausted)

	// Request 4: [7,10) tiles the journey completely; the slot fills.
	p4, err := Allocate(oneSeatRun(legs, seg(1, 4), seg(4, 7)), Request{Segment: seg(7, 10), TotalLegs: legs})
	require.NoError(t, err)
	assert.Equal(t, model.SlotFull, p4.Status)
}

func TestAllocateOverlapDoesNotConsumeEmptyFallback(t *testing.T) {
	// Seat 11 has [1,4); seat 12 is untouched.  An overlapping request must
	// skip seat 11 and land on the empty seat 12.
	slots := []Slot{
		{ID: 1, SeatID: 11, Status: model.SlotRemaining, Tickets: []model.Segment{seg(1, 4)}},
		{ID: 2, SeatID: 12, Status: model.SlotEmpty},
	}
	p, err := Allocate(slots, Request{Segment: seg(2, 5), TotalLegs: 9})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), p.SlotID)
	assert.Equal(t, model.SlotRemaining, p.Status)
}

func TestAllocateFirstFitPrefersRemainingOverEmpty(t *testing.T) {
	// A fitting REMAINING slot wins even when an empty slot with a lower
	// seat id exists: pass one only scans partially sold slots.
	slots := []Slot{
		{ID: 1, SeatID: 11, Status: model.SlotEmpty},
		{ID: 2, SeatID: 12, Status: model.SlotRemaining, Tickets: []model.Segment{seg(1, 4)}},
	}
	p, err := Allocate(slots, Request{Segment: seg(4, 7), TotalLegs: 9})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), p.SlotID)
}

func TestAllocateScanOrderIsLowestSeatFirst(t *testing.T) {
	// Slots arrive in arbitrary row order; the engine must still pick the
	// lowest seat id.
	slots := []Slot{
		{ID: 7, SeatID: 30, Status: model.SlotEmpty},
		{ID: 3, SeatID: 10, Status: model.SlotEmpty},
		{ID: 5, SeatID: 20, Status: model.SlotEmpty},
	}
	p, err := Allocate(slots, Request{Through: true, TotalLegs: 9})
	require.NoError(t, err)
	assert.Equal(t, uint64(3), p.SlotID)
	assert.Equal(t, uint64(10), p.SeatID)
}

func TestAllocateThrough(t *testing.T) {
	t.Run("takes whole journey on an empty slot", func(t *testing.T) {
		p, err := Allocate(oneSeatRun(9), Request{Through: true, TotalLegs: 9})
		require.NoError(t, err)
		assert.Equal(t, seg(1, 10), p.Segment)
		assert.Equal(t, model.SlotFull, p.Status)
	})
	t.Run("rejected when only a remaining slot exists", func(t *testing.T) {
		_, err := Allocate(oneSeatRun(9, seg(1, 4)), Request{Through: true, TotalLegs: 9})
		assert.ErrorIs(t, err, ErrCapacityExhausted)
	})
	t.Run("rejected when only a full slot exists", func(t *testing.T) {
		slots := []Slot{{ID: 1, SeatID: 11, Status: model.SlotFull, Tickets: []model.Segment{seg(1, 10)}}}
		_, err := Allocate(slots, Request{Through: true, TotalLegs: 9})
		assert.ErrorIs(t, err, ErrCapacityExhausted)
	})
}

func TestAllocateInvalidSegments(t *testing.T) {
	cases := []struct {
		name string
		seg  model.Segment
	}{
		{"zero start", seg(0, 3)},
		{"empty range", seg(4, 4)},
		{"inverted", seg(5, 2)},
		{"past last stop", seg(8, 11)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Allocate(oneSeatRun(9), Request{Segment: tc.seg, TotalLegs: 9})
			assert.ErrorIs(t, err, ErrInvalidSegment)
		})
	}
	t.Run("zero legs", func(t *testing.T) {
		_, err := Allocate(nil, Request{Segment: seg(1, 2)})
		assert.ErrorIs(t, err, ErrInvalidSegment)
	})
}

func TestAllocateInvariantViolationOnOvercommittedSlot(t *testing.T) {
	// [1,9) passes the overlap predicate against both existing tickets but
	// would push the slot to 16 of 9 legs.  The engine must refuse rather
	// than oversell.
	slots := []Slot{{
		ID:      1,
		SeatID:  11,
		Status:  model.SlotRemaining,
		Tickets: []model.Segment{seg(1, 5), seg(5, 9)},
	}}
	_, err := Allocate(slots, Request{Segment: seg(1, 9), TotalLegs: 9})
	assert.ErrorIs(t, err, model.ErrInvariantViolation)
}

func TestAllocateCapacityExhaustedWhenRunSoldOut(t *testing.T) {
	slots := []Slot{{ID: 1, SeatID: 11, Status: model.SlotFull, Tickets: []model.Segment{seg(1, 10)}}}
	_, err := Allocate(slots, Request{Segment: seg(1, 3), TotalLegs: 9})
	assert.ErrorIs(t, err, ErrCapacityExhausted)
}
