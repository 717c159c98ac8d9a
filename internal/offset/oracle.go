// Package offset computes where the whole-hour difference between two
// timezones' civil clocks changes over a range of calendar dates.
package offset

import (
	"errors"
	"fmt"
	"time"

	"github.com/maypok86/otter/v2"

	"tzdiff/internal/model"
)

// sampleHour is the local hour at which a zone's offset is read for a
// given date. Most zones switch between 00:00 and 03:00 local time, so by
// noon the day's transition has already happened.
const sampleHour = 12

// Oracle answers civil-time questions about IANA zones.
type Oracle interface {
	// Check reports whether tz can be resolved.
	Check(tz string) error
	// Diff returns, in whole hours truncated toward zero, how far tz1's
	// civil clock is from tz2's on day (tz1 minus tz2).
	Diff(tz1, tz2 string, day model.Date) (int, error)
}

// ZoneOracle is an Oracle backed by the Go tz database. Loaded locations
// are cached; a ZoneOracle is safe for concurrent use.
type ZoneOracle struct {
	locations *otter.Cache[string, *time.Location]
}

// NewZoneOracle returns a ZoneOracle caching up to 1024 loaded zones.
func NewZoneOracle() *ZoneOracle {
	return &ZoneOracle{
		locations: otter.Must(&otter.Options[string, *time.Location]{
			MaximumSize: 1024,
		}),
	}
}

// Location loads tz, reusing a cached *time.Location when possible.
func (o *ZoneOracle) Location(tz string) (*time.Location, error) {
	if tz == "" {
		return nil, errors.New("empty timezone id")
	}
	if loc, ok := o.locations.GetIfPresent(tz); ok {
		return loc, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, err
	}
	o.locations.Set(tz, loc)
	return loc, nil
}

func (o *ZoneOracle) Check(tz string) error {
	_, err := o.Location(tz)
	return err
}

func (o *ZoneOracle) Diff(tz1, tz2 string, day model.Date) (int, error) {
	loc1, err := o.Location(tz1)
	if err != nil {
		return 0, err
	}
	loc2, err := o.Location(tz2)
	if err != nil {
		return 0, err
	}
	return (UTCOffset(loc1, day) - UTCOffset(loc2, day)) / 3600, nil
}

// UTCOffset returns loc's offset from UTC in seconds at local noon on day.
func UTCOffset(loc *time.Location, day model.Date) int {
	t := time.Date(day.Year, day.Month, day.Day, sampleHour, 0, 0, 0, loc)
	_, off := t.Zone()
	return off
}

// FormatOffset renders a UTC offset in seconds as "UTC+05:30".
func FormatOffset(seconds int) string {
	sign := '+'
	if seconds < 0 {
		sign = '-'
		seconds = -seconds
	}
	return fmt.Sprintf("UTC%c%02d:%02d", sign, seconds/3600, (seconds%3600)/60)
}
