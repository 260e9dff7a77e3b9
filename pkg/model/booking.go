package model

import (
	"time"
)

type Booking struct {
	ID            string    `json:"id,omitempty" bson:"_id,omitempty"`
	ProductID     string    `json:"product_id" bson:"product_id" validate:"required,mongodb"`
	UserID        string    `json:"user_id" bson:"user_id" validate:"required,mongodb"`
	From          time.Time `json:"from" bson:"from" validate:"required"`
	To            time.Time `json:"to" bson:"to" validate:"required,gtfield=From"`
	BookingQuery  string    `json:"booking_query,omitempty" bson:"booking_query,omitempty" validate:"omitempty,max=1000"`
	ContactNumber string    `json:"contact_number" bson:"contact_number" validate:"required,e164"`
	Address       string    `json:"address" bson:"address" validate:"required,min=2,max=300"`
	CreatedAt     time.Time `json:"created_at" bson:"created_at"`
}

// BookingRequest is the borrower-supplied part of a booking. The requester
// identity never comes from the body.
type BookingRequest struct {
	ProductID     string    `json:"product_id" validate:"required"`
	BookingQuery  string    `json:"booking_query,omitempty" validate:"omitempty,max=1000"`
	From          time.Time `json:"from" validate:"required"`
	To            time.Time `json:"to" validate:"required"`
	ContactNumber string    `json:"contact_number" validate:"required"`
	Address       string    `json:"address" validate:"required,min=2,max=300"`
}

type BookingDetails struct {
	*Booking
	Status  BookingStatus   `json:"status"`
	Product *ProductSummary `json:"product,omitempty"`
	User    *UserSummary    `json:"user,omitempty"`
}

// BookedInterval is the public view of a booking used for availability
// listings; it carries no borrower data.
type BookedInterval struct {
	From   time.Time     `json:"from"`
	To     time.Time     `json:"to"`
	Status BookingStatus `json:"status"`
}

type BookingStatus string

const (
	BookingUpcoming  BookingStatus = "upcoming"
	BookingActive    BookingStatus = "active"
	BookingCompleted BookingStatus = "completed"
)

// DeriveStatus is the only place a booking status is computed. Nothing is
// stored, so the status cannot drift from the timestamps.
func DeriveStatus(b *Booking, now time.Time) BookingStatus {
	switch {
	case now.Before(b.From):
		return BookingUpcoming
	case now.After(b.To):
		return BookingCompleted
	default:
		return BookingActive
	}
}

// Overlaps reports whether two closed intervals intersect. Touching endpoints
// count as overlapping: [1,5] and [5,10] overlap.
func Overlaps(existingFrom, existingTo, from, to time.Time) bool {
	return !existingFrom.After(to) && !existingTo.Before(from)
}
