package clock

import "time"

// Clock is the source of "now" for every time-based business rule.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func System() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

// Fixed always returns the same instant.
type Fixed time.Time

func (f Fixed) Now() time.Time {
	return time.Time(f)
}

// Func adapts a function to Clock.
type Func func() time.Time

func (f Func) Now() time.Time {
	return f()
}
