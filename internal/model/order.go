package model

import (
	"errors"
	"fmt"
)

// OrderStatus is the lifecycle state of a commercial order.  Transitions
// are PENDING→COMPLETED and any non-CANCELLED→CANCELLED; hard removal is
// permitted from every state as an administrative correction.
type OrderStatus uint8

const (
	OrderPending OrderStatus = iota + 1
	OrderCompleted
	OrderCancelled
)

// ErrInvalidState is returned when a lifecycle operation is illegal for the
// entity's current state, e.g. completing a non-pending order or selling
// tickets on a locked run.
var ErrInvalidState = errors.New("operation not allowed in current state")

// String returns the database label for the order status.
func (s OrderStatus) String() string {
	switch s {
	case OrderPending:
		return "PENDING"
	case OrderCompleted:
		return "COMPLETED"
	case OrderCancelled:
		return "CANCELLED"
	}
	return fmt.Sprintf("OrderStatus(%d)", uint8(s))
}

// ParseOrderStatus converts a database label into an OrderStatus.
func ParseOrderStatus(s string) (OrderStatus, error) {
	switch s {
	case "PENDING":
		return OrderPending, nil
	case "COMPLETED":
		return OrderCompleted, nil
	case "CANCELLED":
		return OrderCancelled, nil
	}
	return 0, fmt.Errorf("unknown order status %q", s)
}

// CanComplete reports whether the order may transition to COMPLETED.
// Only pending orders complete.
func (s OrderStatus) CanComplete() error {
	if s != OrderPending {
		return fmt.Errorf("%w: complete requires PENDING, order is %s", ErrInvalidState, s)
	}
	return nil
}

// CancelIsNoop reports whether cancelling an order in status s is the
// idempotent no-op case.  Cancel never fails on status: any non-cancelled
// order may be cancelled, and cancelling twice succeeds without effect.
func (s OrderStatus) CancelIsNoop() bool {
	return s == OrderCancelled
}
