package sched

import "time"

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// NewInterval creates an Interval from its bounds.
func NewInterval(start, end time.Time) Interval {
	return Interval{Start: start, End: end}
}

// Overlaps reports whether a and b intersect. Intervals are half-open,
// so touching endpoints (a.End == b.Start) do not overlap.
func (a Interval) Overlaps(b Interval) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

// Equal reports whether a and b cover exactly the same range.
func (a Interval) Equal(b Interval) bool {
	return a.Start.Equal(b.Start) && a.End.Equal(b.End)
}

// OverlapDuration returns the length of the intersection of a and b,
// or zero when they do not overlap.
func (a Interval) OverlapDuration(b Interval) time.Duration {
	start := a.Start
	if b.Start.After(start) {
		start = b.Start
	}
	end := a.End
	if b.End.Before(end) {
		end = b.End
	}
	if !start.Before(end) {
		return 0
	}
	return end.Sub(start)
}
