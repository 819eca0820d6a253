package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderStatusCanComplete(t *testing.T) {
	assert.NoError(t, OrderPending.CanComplete())
	assert.ErrorIs(t, OrderCompleted.CanComplete(), ErrInvalidState)
	assert.ErrorIs(t, OrderCancelled.CanComplete(), ErrInvalidState)
}

func TestOrderStatusCancelIdempotent(t *testing.T) {
	assert.False(t, OrderPending.CancelIsNoop())
	assert.False(t, OrderCompleted.CancelIsNoop(), "completed orders may still be cancelled")
	assert.True(t, OrderCancelled.CancelIsNoop(), "second cancel is a no-op, not an error")
}

func TestOrderStatusRoundTrip(t *testing.T) {
	for _, st := range []OrderStatus{OrderPending, OrderCompleted, OrderCancelled} {
		got, err := ParseOrderStatus(st.String())
		require.NoError(t, err)
		assert.Equal(t, st, got)
	}
	_, err := ParseOrderStatus("REFUNDED")
	assert.Error(t, err)
}
