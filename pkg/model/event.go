package model

import "time"

const (
	EventBookingCreated   = "booking.created"
	EventBookingCancelled = "booking.cancelled"
)

// BookingEvent is the payload published to Kafka after a booking is admitted
// or cancelled.
type BookingEvent struct {
	Type        string    `json:"type"`
	BookingID   string    `json:"booking_id"`
	ProductID   string    `json:"product_id"`
	ProductName string    `json:"product_name,omitempty"`
	OwnerID     string    `json:"owner_id"`
	BorrowerID  string    `json:"borrower_id"`
	From        time.Time `json:"from"`
	To          time.Time `json:"to"`
	OccurredAt  time.Time `json:"occurred_at"`
}
