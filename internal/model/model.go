package model

import (
	"cloud.google.com/go/civil"
)

// Date is a civil calendar date with no time-of-day or zone. Its text form
// is ISO "YYYY-MM-DD".
type Date = civil.Date

// Supported date window. Ranges outside it are clamped, never rejected.
var (
	MinDate = Date{Year: 1970, Month: 1, Day: 1}
	MaxDate = Date{Year: 2500, Month: 1, Day: 1}
)

// LocationRecord is one entry of the reference dataset. Records are
// identified by their position in the dataset; there is no id field.
type LocationRecord struct {
	City     string `json:"city" yaml:"city"`
	Province string `json:"province" yaml:"province"`
	ISO2     string `json:"iso2" yaml:"iso2"`
	Timezone string `json:"timezone" yaml:"timezone"`
}

// LocationQuery is the parsed form of a "City[, Province][, Country]" field.
// Empty Province or Country means the part was not supplied.
type LocationQuery struct {
	City     string
	Province string
	Country  string
}

// DateRange is an inclusive range of calendar dates.
type DateRange struct {
	Start Date `json:"start"`
	End   Date `json:"end"`
}

// ChangePoint marks the first date on which the offset between two zones
// takes a new value. A nil Offset is the terminal sentinel: the range ends
// here without an offset change.
type ChangePoint struct {
	Date   Date `json:"date"`
	Offset *int `json:"offset_hours"`
}

// IsSentinel reports whether p only marks the end of the range.
func (p ChangePoint) IsSentinel() bool {
	return p.Offset == nil
}

// DifferenceResult is the outcome of one computation. It is built once and
// not mutated afterwards.
//
// DisplayLines has one entry per non-sentinel change point, in the same
// order as ChangePoints.
type DifferenceResult struct {
	Location1    LocationRecord `json:"location1"`
	Location2    LocationRecord `json:"location2"`
	Label1       string         `json:"label1"`
	Label2       string         `json:"label2"`
	Range        DateRange      `json:"range"`
	ChangePoints []ChangePoint  `json:"change_points"`
	DisplayLines []string       `json:"display_lines"`
}

// CalendarEvent is an all-day event covering [Start, End).
type CalendarEvent struct {
	Title string `json:"title"`
	Start Date   `json:"start"`
	End   Date   `json:"end"`
}

// IntPtr returns a pointer to a copy of v.
func IntPtr(v int) *int {
	return &v
}
