// Package calendar turns a difference result into all-day calendar events
// and serializes them as iCalendar.
package calendar

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"tzdiff/internal/model"
)

// Options controls the VCALENDAR envelope.
type Options struct {
	ProductID string
	Name      string
	// Now stamps DTSTAMP. Defaults to time.Now.
	Now func() time.Time
}

// ToEvents returns one all-day event per non-sentinel change point, in
// change point order. Each title is the matching display line with its
// first " is " turned into " is now ".
func ToEvents(res *model.DifferenceResult) []model.CalendarEvent {
	if res == nil {
		return nil
	}
	events := make([]model.CalendarEvent, 0, len(res.DisplayLines))
	line := 0
	for _, p := range res.ChangePoints {
		if p.IsSentinel() {
			continue
		}
		if line >= len(res.DisplayLines) {
			break
		}
		events = append(events, model.CalendarEvent{
			Title: strings.Replace(res.DisplayLines[line], " is ", " is now ", 1),
			Start: p.Date,
			End:   p.Date.AddDays(1),
		})
		line++
	}
	return events
}

// Build assembles the calendar without serializing it.
func Build(events []model.CalendarEvent, opts Options) *ical.Calendar {
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	stamp := now().UTC()

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	if opts.ProductID != "" {
		cal.SetProductId(opts.ProductID)
	}
	if opts.Name != "" {
		cal.SetXWRCalName(opts.Name)
	}

	for _, ev := range events {
		e := cal.AddEvent(EventUID(ev))
		e.SetDtStampTime(stamp)
		e.SetAllDayStartAt(ev.Start.In(time.UTC))
		e.SetAllDayEndAt(ev.End.In(time.UTC))
		e.SetSummary(ev.Title)
	}
	return cal
}

// WriteICS writes events to w as a VCALENDAR.
func WriteICS(w io.Writer, events []model.CalendarEvent, opts Options) error {
	if err := Build(events, opts).SerializeTo(w); err != nil {
		return fmt.Errorf("calendar: serialize: %w", err)
	}
	return nil
}

// EventUID derives the UID from the event's date and title. The same event
// always gets the same UID across exports.
func EventUID(ev model.CalendarEvent) string {
	sum := sha256.Sum256([]byte(ev.Start.String() + "\x00" + ev.Title))
	return hex.EncodeToString(sum[:12]) + "@tzdiff"
}
