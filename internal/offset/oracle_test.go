package offset

import (
	"testing"
	"time"
)

func TestZoneOracleDiff(t *testing.T) {
	o := NewZoneOracle()

	tests := []struct {
		name     string
		tz1, tz2 string
		day      string
		want     int
	}{
		{"New York winter vs UTC", "America/New_York", "UTC", "2023-01-15", -5},
		{"New York summer vs UTC", "America/New_York", "UTC", "2023-07-15", -4},
		{"transition day counts as new offset", "America/New_York", "UTC", "2023-03-12", -4},
		{"fall back day", "America/New_York", "UTC", "2023-11-05", -5},
		{"Tokyo vs Sydney in January", "Asia/Tokyo", "Australia/Sydney", "2024-01-10", -2},
		{"Tokyo vs Sydney in July", "Asia/Tokyo", "Australia/Sydney", "2024-07-10", -1},
		{"Kathmandu vs UTC", "Asia/Kathmandu", "UTC", "2024-01-01", 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := o.Diff(tt.tz1, tt.tz2, date(t, tt.day))
			if err != nil {
				t.Fatalf("Diff() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Diff(%s, %s, %s) = %d, want %d", tt.tz1, tt.tz2, tt.day, got, tt.want)
			}
		})
	}
}

func TestZoneOracleCachesLocations(t *testing.T) {
	o := NewZoneOracle()
	a, err := o.Location("Europe/Berlin")
	if err != nil {
		t.Fatal(err)
	}
	b, err := o.Location("Europe/Berlin")
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Error("second Location() call did not reuse the cached *time.Location")
	}
}

func TestUTCOffsetAndFormat(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		t.Fatal(err)
	}
	off := UTCOffset(loc, date(t, "2024-01-01"))
	if off != 5*3600+1800 {
		t.Errorf("UTCOffset() = %d, want %d", off, 5*3600+1800)
	}

	tests := []struct {
		seconds int
		want    string
	}{
		{off, "UTC+05:30"},
		{-4 * 3600, "UTC-04:00"},
		{0, "UTC+00:00"},
		{-(9*3600 + 30*60), "UTC-09:30"},
	}
	for _, tt := range tests {
		if got := FormatOffset(tt.seconds); got != tt.want {
			t.Errorf("FormatOffset(%d) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}
