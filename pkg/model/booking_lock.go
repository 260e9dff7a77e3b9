package model

import "time"

// BookingLock is an advisory lock document held while a booking for one
// product is checked and inserted. The unique _id makes a second insert fail.
type BookingLock struct {
	ID        string    `bson:"_id" json:"id"`
	Owner     string    `bson:"owner" json:"owner"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
