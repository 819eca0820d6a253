package handler

import (
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/train-ticket-reservation/internal/repository"
)

func TestNewRunHandlerWiring(t *testing.T) {
	slots := repository.NewSlotRepo(nil)
	h := NewRunHandler(
		repository.NewRunRepo(nil),
		repository.NewTrainRepo(nil),
		repository.NewRouteRepo(nil),
		repository.NewSeatRepo(nil),
		slots,
	)

	// The slot repository field and the availability handler are distinct
	// names on the type; both must stay addressable.
	assert.Same(t, slots, h.Slots)
	var fn echo.HandlerFunc = h.ListSlots
	assert.NotNil(t, fn)
}

func TestNewRunHandlerNilRepoPanics(t *testing.T) {
	assert.Panics(t, func() {
		NewRunHandler(nil, nil, nil, nil, nil)
	})
}
