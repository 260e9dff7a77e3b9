package errors

import "errors"

var (
	ErrNotFound = errors.New("booking not found")

	ErrInvalidID = errors.New("invalid booking ID format")

	// ErrLockHeld is returned when another request holds the product's
	// booking lock.
	ErrLockHeld = errors.New("booking lock is held")

	// ErrLockLost is returned when a lock was reclaimed or replaced while
	// its owner still worked under it.
	ErrLockLost = errors.New("booking lock was lost")

	ErrProductNotFound = errors.New("product not found")

	ErrUserNotFound = errors.New("user not found")
)
