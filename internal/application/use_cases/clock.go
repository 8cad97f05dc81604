package use_cases

import "time"

type Clock interface {
	NowUTC() time.Time
}

type systemClock struct{}

func NewSystemClock() Clock {
	return systemClock{}
}

// NowUTC is truncated to microseconds, the precision timestamptz keeps, so memory and
// Postgres storage compare expiry and due times identically.
func (systemClock) NowUTC() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
