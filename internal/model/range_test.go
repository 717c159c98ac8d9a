package model

import (
	"errors"
	"testing"
)

func mustDate(t *testing.T, s string) Date {
	t.Helper()
	d, err := ParseDate(s)
	if err != nil {
		t.Fatalf("ParseDate(%q) error = %v", s, err)
	}
	return d
}

func TestDateRangeClamp(t *testing.T) {
	tests := []struct {
		name       string
		start, end string
		wantStart  string
		wantEnd    string
	}{
		{"inside window", "2023-03-11", "2023-03-13", "2023-03-11", "2023-03-13"},
		{"start before window", "1960-05-01", "1971-01-01", "1970-01-01", "1971-01-01"},
		{"end after window", "2499-06-01", "2600-01-01", "2499-06-01", "2500-01-01"},
		{"entirely after window", "2600-01-01", "2700-01-01", "2500-01-01", "2500-01-01"},
		{"entirely before window", "1900-01-01", "1950-12-31", "1970-01-01", "1970-01-01"},
		{"exact bounds", "1970-01-01", "2500-01-01", "1970-01-01", "2500-01-01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := DateRange{Start: mustDate(t, tt.start), End: mustDate(t, tt.end)}.Clamp()
			if r.Start.String() != tt.wantStart || r.End.String() != tt.wantEnd {
				t.Errorf("Clamp() = %v..%v, want %v..%v", r.Start, r.End, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestDateRangeValidate(t *testing.T) {
	ok := DateRange{Start: mustDate(t, "2023-01-01"), End: mustDate(t, "2023-01-01")}
	if err := ok.Validate(); err != nil {
		t.Errorf("Validate() on single-day range = %v, want nil", err)
	}

	bad := DateRange{Start: mustDate(t, "2023-01-02"), End: mustDate(t, "2023-01-01")}
	if err := bad.Validate(); !errors.Is(err, ErrInvalidRange) {
		t.Errorf("Validate() on inverted range = %v, want ErrInvalidRange", err)
	}
}

func TestDateRangeDays(t *testing.T) {
	r := DateRange{Start: mustDate(t, "2023-03-11"), End: mustDate(t, "2023-03-13")}
	if got := r.Days(); got != 3 {
		t.Errorf("Days() = %d, want 3", got)
	}
	full := DateRange{Start: MinDate, End: MaxDate}
	if got := full.Days(); got != 193_580 {
		t.Errorf("Days() over the full window = %d, want 193580", got)
	}
}

func TestNewDateRangeInvalid(t *testing.T) {
	_, err := NewDateRange("2023-13-01", "2023-12-01")
	var de *InvalidDateError
	if !errors.As(err, &de) {
		t.Fatalf("NewDateRange() error = %v, want *InvalidDateError", err)
	}
	if de.Field != "start" {
		t.Errorf("Field = %q, want %q", de.Field, "start")
	}
	if !errors.Is(err, ErrInvalidDate) {
		t.Errorf("errors.Is(err, ErrInvalidDate) = false")
	}
}
