package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFareCentsPerClass(t *testing.T) {
	assert.Equal(t, uint32(1000), FareCents(CarriageSecond, 100))
	assert.Equal(t, uint32(1800), FareCents(CarriageFirst, 100))
	assert.Equal(t, uint32(3000), FareCents(CarriageBusiness, 100))
}

func TestFareCentsMinimum(t *testing.T) {
	// Short hops never price below the minimum fare.
	assert.Equal(t, uint32(100), FareCents(CarriageSecond, 5))
	assert.Equal(t, uint32(100), FareCents(CarriageSecond, 0))
	assert.Equal(t, uint32(108), FareCents(CarriageFirst, 6))
}

func TestFareCentsScalesWithDistance(t *testing.T) {
	short := FareCents(CarriageBusiness, 50)
	long := FareCents(CarriageBusiness, 500)
	assert.Less(t, short, long)
	assert.Equal(t, uint32(15000), long)
}
