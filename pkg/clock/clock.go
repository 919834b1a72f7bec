package clock

import "time"

// Clock supplies the current time. Services take a Clock instead of
// calling time.Now directly so time-relative queries stay deterministic
// in tests.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}

// New returns a wall clock.
func New() Clock {
	return realClock{}
}

// Fixed is a Clock pinned to a single instant.
type Fixed struct {
	Time time.Time
}

func (f Fixed) Now() time.Time {
	return f.Time
}
