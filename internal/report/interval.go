package report

import "time"

var (
	// farPast and farFuture stand in for a missing bound when the other one is set.
	farPast   = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	farFuture = time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC)
)

// Interval is an inclusive [Start, End] time range.
type Interval struct {
	Start time.Time
	End   time.Time
}

// NewInterval resolves the effective range for optional start and end dates.
//
// With both dates absent the range is the calendar day of now in loc. Otherwise
// the start date begins at 00:00:00 and the end date ends at 23:59:59, with a
// missing bound replaced by 2000-01-01 or 2100-01-01. The same rule is used for
// reports, metrics and the activity log.
func NewInterval(now time.Time, start, end *time.Time, loc *time.Location) Interval {
	if loc == nil {
		loc = time.Local
	}
	if start == nil && end == nil {
		n := now.In(loc)
		return Interval{
			Start: startOfDay(n),
			End:   endOfDay(n),
		}
	}

	iv := Interval{Start: farPast, End: farFuture}
	if start != nil {
		iv.Start = startOfDay(start.In(loc))
	}
	if end != nil {
		iv.End = endOfDay(end.In(loc))
	}
	return iv
}

// Contains reports whether t lies inside the interval, bounds included.
func (iv Interval) Contains(t time.Time) bool {
	return !t.Before(iv.Start) && !t.After(iv.End)
}

// IsInRange is NewInterval(...).Contains(t).
func IsInRange(t time.Time, start, end *time.Time, now time.Time, loc *time.Location) bool {
	return NewInterval(now, start, end, loc).Contains(t)
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, t.Location())
}
