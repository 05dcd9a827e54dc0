package service

import "time"

// Clock supplies the current calendar date. Materialization keys its
// dedup check on this date, so tests substitute a fixed implementation.
type Clock interface {
	Today() time.Time
}

// LocationClock reports today as midnight in a fixed location.
type LocationClock struct {
	loc *time.Location
}

func NewLocationClock(loc *time.Location) *LocationClock {
	if loc == nil {
		loc = time.UTC
	}
	return &LocationClock{loc: loc}
}

func (c *LocationClock) Today() time.Time {
	now := time.Now().In(c.loc)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, c.loc)
}
