package model

import (
	"cloud.google.com/go/civil"
)

// ParseDate parses an ISO "YYYY-MM-DD" date.
func ParseDate(s string) (Date, error) {
	return civil.ParseDate(s)
}

// NewDateRange parses both bounds of a range. Errors name the failing field.
func NewDateRange(start, end string) (DateRange, error) {
	s, err := ParseDate(start)
	if err != nil {
		return DateRange{}, &InvalidDateError{Field: "start", Value: start, Err: err}
	}
	e, err := ParseDate(end)
	if err != nil {
		return DateRange{}, &InvalidDateError{Field: "end", Value: end, Err: err}
	}
	return DateRange{Start: s, End: e}, nil
}

// Clamp returns r with each bound moved into [MinDate, MaxDate]. The bounds
// are clamped independently, so a range lying entirely outside the window
// collapses onto the nearest boundary date.
func (r DateRange) Clamp() DateRange {
	return DateRange{Start: clampDate(r.Start), End: clampDate(r.End)}
}

// Validate rejects a range whose end precedes its start.
func (r DateRange) Validate() error {
	if r.End.Before(r.Start) {
		return ErrInvalidRange
	}
	return nil
}

// Days returns the number of calendar days in r, counting both ends.
// It is zero for an inverted range.
func (r DateRange) Days() int {
	if r.End.Before(r.Start) {
		return 0
	}
	return r.End.DaysSince(r.Start) + 1
}

func clampDate(d Date) Date {
	if d.Before(MinDate) {
		return MinDate
	}
	if d.After(MaxDate) {
		return MaxDate
	}
	return d
}
