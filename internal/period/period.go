// Package period computes calendar month boundaries in the studio's
// time zone. Month edges shift with the zone, so every function takes
// an explicit *time.Location and none of them touch the system clock.
package period

import "time"

// MonthRange returns the inclusive start and exclusive end of the
// calendar month containing now, evaluated in loc.
func MonthRange(now time.Time, loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	start := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, loc)
	end := start.AddDate(0, 1, 0)
	return start, end
}

// RangeOf returns the inclusive start and exclusive end of the given
// calendar month in loc.
func RangeOf(mes, ano int, loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.UTC
	}
	start := time.Date(ano, time.Month(mes), 1, 0, 0, 0, 0, loc)
	end := start.AddDate(0, 1, 0)
	return start, end
}

// PreviousMonth returns the calendar month immediately preceding now's
// month in loc, rolling the year across January.
func PreviousMonth(now time.Time, loc *time.Location) (mes, ano int) {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	first := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, loc)
	prev := first.AddDate(0, -1, 0)
	return int(prev.Month()), prev.Year()
}
