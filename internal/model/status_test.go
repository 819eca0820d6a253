package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveSlotStatus(t *testing.T) {
	const legs = 9

	t.Run("no tickets is empty", func(t *testing.T) {
		st, err := DeriveSlotStatus(nil, legs)
		require.NoError(t, err)
		assert.Equal(t, SlotEmpty, st)
	})

	t.Run("partial coverage is remaining", func(t *testing.T) {
		st, err := DeriveSlotStatus([]Segment{{1, 4}, {4, 7}}, legs)
		require.NoError(t, err)
		assert.Equal(t, SlotRemaining, st)
	})

	t.Run("exact tiling is full", func(t *testing.T) {
		st, err := DeriveSlotStatus([]Segment{{1, 4}, {4, 7}, {7, 10}}, legs)
		require.NoError(t, err)
		assert.Equal(t, SlotFull, st)
	})

	t.Run("over capacity is an invariant violation", func(t *testing.T) {
		_, err := DeriveSlotStatus([]Segment{{1, 10}, {1, 4}}, legs)
		assert.ErrorIs(t, err, ErrInvariantViolation)
	})
}

// Cancelling the [1,4) ticket while [4,7) survives must leave the slot
// REMAINING, not EMPTY.
func TestDeriveSlotStatusAfterCancellation(t *testing.T) {
	st, err := DeriveSlotStatus([]Segment{{4, 7}}, 9)
	require.NoError(t, err)
	assert.Equal(t, SlotRemaining, st)

	st, err = DeriveSlotStatus(nil, 9)
	require.NoError(t, err)
	assert.Equal(t, SlotEmpty, st, "last ticket gone frees the slot")
}

func TestSlotStatusRoundTrip(t *testing.T) {
	for _, st := range []SlotStatus{SlotEmpty, SlotRemaining, SlotFull} {
		got, err := ParseSlotStatus(st.String())
		require.NoError(t, err)
		assert.Equal(t, st, got)
	}
	_, err := ParseSlotStatus("HELD")
	assert.Error(t, err)
}

func TestSegmentLegs(t *testing.T) {
	assert.Equal(t, uint32(3), Segment{1, 4}.Legs())
	assert.Equal(t, uint32(0), Segment{4, 4}.Legs())
	assert.Equal(t, uint32(0), Segment{5, 2}.Legs())
}
