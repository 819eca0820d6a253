// Package queue defines message payloads exchanged over the message broker.
package queue

// OrderCompletedEvent is published when an order is successfully completed.
// It contains enough information for downstream consumers to log, notify, or
// trigger analytics without querying the primary database.
type OrderCompletedEvent struct {
	OrderID     uint64 `json:"order_id"`
	UserID      uint64 `json:"user_id"`
	TicketID    uint64 `json:"ticket_id"`
	RunID       uint64 `json:"run_id"`
	RunningDate string `json:"running_date"`
	SeatNum     string `json:"seat_num"`
	StartSeq    uint32 `json:"start_seq"`
	EndSeq      uint32 `json:"end_seq"`
	PriceCents  uint32 `json:"price_cents"`
	CompletedAt string `json:"completed_at"`
}
