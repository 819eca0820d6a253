package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrainClassAllowsCarriageClasses(t *testing.T) {
	assert.True(t, TrainFast.Allows(CarriageBusiness))
	assert.True(t, TrainFast.Allows(CarriageSecond))
	assert.True(t, TrainSlow.Allows(CarriageFirst))
	assert.False(t, TrainSlow.Allows(CarriageBusiness), "slow trains carry no business class")
}

func TestCarriageClassRowCounts(t *testing.T) {
	assert.True(t, CarriageSecond.AllowsRows(12))
	assert.True(t, CarriageSecond.AllowsRows(16))
	assert.False(t, CarriageSecond.AllowsRows(8))
	assert.True(t, CarriageBusiness.AllowsRows(8))
	assert.False(t, CarriageBusiness.AllowsRows(12))
}

func TestSeatNumbers(t *testing.T) {
	t.Run("business carriage", func(t *testing.T) {
		nums := SeatNumbers(CarriageBusiness, 8)
		require.Len(t, nums, 24, "8 rows x 3 letters")
		assert.Equal(t, "1A", nums[0])
		assert.Equal(t, "1C", nums[1])
		assert.Equal(t, "1F", nums[2])
		assert.Equal(t, "8F", nums[23])
	})
	t.Run("second class carriage", func(t *testing.T) {
		nums := SeatNumbers(CarriageSecond, 16)
		assert.Len(t, nums, 80, "16 rows x 5 letters")
	})
	t.Run("disallowed row count yields nothing", func(t *testing.T) {
		assert.Nil(t, SeatNumbers(CarriageFirst, 9))
	})
}

func TestClassRoundTrip(t *testing.T) {
	for _, tc := range []TrainClass{TrainFast, TrainSlow} {
		got, err := ParseTrainClass(tc.String())
		require.NoError(t, err)
		assert.Equal(t, tc, got)
	}
	for _, cc := range []CarriageClass{CarriageSecond, CarriageFirst, CarriageBusiness} {
		got, err := ParseCarriageClass(cc.String())
		require.NoError(t, err)
		assert.Equal(t, cc, got)
	}
	_, err := ParseTrainClass("MAGLEV")
	assert.ErrorIs(t, err, ErrUnknownClass)
}
