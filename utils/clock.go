package utils

import "time"

// Clock abstracts timer scheduling so polling loops can be driven by a fake
// clock in tests instead of real delays.
type Clock interface {
	After(d time.Duration) <-chan time.Time
	Now() time.Time
}

// RealClock delegates to the time package.
type RealClock struct{}

func (RealClock) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}

func (RealClock) Now() time.Time {
	return time.Now()
}
