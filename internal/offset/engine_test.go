package offset

import (
	"context"
	"errors"
	"fmt"
	"testing"
	_ "time/tzdata"

	"github.com/google/go-cmp/cmp"

	"tzdiff/internal/model"
)

func date(t *testing.T, s string) model.Date {
	t.Helper()
	d, err := model.ParseDate(s)
	if err != nil {
		t.Fatalf("ParseDate(%q) error = %v", s, err)
	}
	return d
}

func dateRange(t *testing.T, start, end string) model.DateRange {
	t.Helper()
	return model.DateRange{Start: date(t, start), End: date(t, end)}
}

// point is a compact form of a change point for comparisons: a nil offset
// is written as "end".
func point(d string, off any) string {
	if off == nil {
		return d + " end"
	}
	return fmt.Sprintf("%s %+d", d, off)
}

func render(points []model.ChangePoint) []string {
	out := make([]string, 0, len(points))
	for _, p := range points {
		if p.Offset == nil {
			out = append(out, point(p.Date.String(), nil))
		} else {
			out = append(out, point(p.Date.String(), *p.Offset))
		}
	}
	return out
}

func TestChangePointsRealZones(t *testing.T) {
	engine := NewEngine(NewZoneOracle())

	tests := []struct {
		name       string
		tz1, tz2   string
		start, end string
		want       []string
	}{
		{
			name: "same zone",
			tz1:  "Europe/London", tz2: "Europe/London",
			start: "2023-01-01", end: "2023-12-31",
			want: []string{point("2023-01-01", 0), point("2023-12-31", nil)},
		},
		{
			name: "US spring forward against UTC",
			tz1:  "America/New_York", tz2: "UTC",
			start: "2023-03-11", end: "2023-03-13",
			want: []string{point("2023-03-11", -5), point("2023-03-12", -4), point("2023-03-13", nil)},
		},
		{
			name: "London and New York over 2023",
			tz1:  "Europe/London", tz2: "America/New_York",
			start: "2023-01-01", end: "2023-12-31",
			want: []string{
				point("2023-01-01", 5),
				point("2023-03-12", 4),
				point("2023-03-26", 5),
				point("2023-10-29", 4),
				point("2023-11-05", 5),
				point("2023-12-31", nil),
			},
		},
		{
			name: "change on the last day needs no sentinel",
			tz1:  "America/New_York", tz2: "UTC",
			start: "2023-03-10", end: "2023-03-12",
			want: []string{point("2023-03-10", -5), point("2023-03-12", -4)},
		},
		{
			name: "single day",
			tz1:  "Asia/Tokyo", tz2: "UTC",
			start: "2024-06-01", end: "2024-06-01",
			want: []string{point("2024-06-01", 9)},
		},
		{
			name: "half hour zone truncates toward zero",
			tz1:  "Asia/Kolkata", tz2: "UTC",
			start: "2024-01-01", end: "2024-01-02",
			want: []string{point("2024-01-01", 5), point("2024-01-02", nil)},
		},
		{
			name: "half hour zone on the other side",
			tz1:  "UTC", tz2: "Asia/Kolkata",
			start: "2024-01-01", end: "2024-01-02",
			want: []string{point("2024-01-01", -5), point("2024-01-02", nil)},
		},
		{
			name: "range after window collapses to max date",
			tz1:  "Europe/Paris", tz2: "UTC",
			start: "2600-01-01", end: "2700-06-01",
			want: []string{point("2500-01-01", 1)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := engine.ChangePoints(context.Background(), tt.tz1, tt.tz2, dateRange(t, tt.start, tt.end))
			if err != nil {
				t.Fatalf("ChangePoints() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, render(got)); diff != "" {
				t.Errorf("ChangePoints() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestChangePointsUnresolvedTimezone(t *testing.T) {
	engine := NewEngine(NewZoneOracle())
	r := dateRange(t, "2023-01-01", "2023-01-31")

	tests := []struct {
		name     string
		tz1, tz2 string
		wantSide model.Side
		wantZone string
	}{
		{"first zone", "Mars/Olympus_Mons", "UTC", model.Side1, "Mars/Olympus_Mons"},
		{"second zone", "UTC", "Not/AZone", model.Side2, "Not/AZone"},
		{"empty zone", "", "UTC", model.Side1, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			points, err := engine.ChangePoints(context.Background(), tt.tz1, tt.tz2, r)
			if points != nil {
				t.Errorf("ChangePoints() returned %d points alongside an error", len(points))
			}
			var ue *model.UnresolvedTimezoneError
			if !errors.As(err, &ue) {
				t.Fatalf("ChangePoints() error = %v, want *UnresolvedTimezoneError", err)
			}
			if ue.Side != tt.wantSide || ue.Zone != tt.wantZone {
				t.Errorf("error side/zone = %v/%q, want %v/%q", ue.Side, ue.Zone, tt.wantSide, tt.wantZone)
			}
			if !errors.Is(err, model.ErrUnresolvedTimezone) {
				t.Error("errors.Is(err, ErrUnresolvedTimezone) = false")
			}
		})
	}
}

func TestChangePointsInvalidRange(t *testing.T) {
	engine := NewEngine(NewZoneOracle())
	_, err := engine.ChangePoints(context.Background(), "UTC", "UTC", dateRange(t, "2023-02-01", "2023-01-01"))
	if !errors.Is(err, model.ErrInvalidRange) {
		t.Errorf("ChangePoints() error = %v, want ErrInvalidRange", err)
	}
}

// scriptedOracle returns offsets from a per-date table, defaulting to base.
type scriptedOracle struct {
	base    int
	offsets map[string]int
	failOn  string
	calls   int
}

func (o *scriptedOracle) Check(tz string) error { return nil }

func (o *scriptedOracle) Diff(_, _ string, day model.Date) (int, error) {
	o.calls++
	if day.String() == o.failOn {
		return 0, errors.New("rule table missing")
	}
	if v, ok := o.offsets[day.String()]; ok {
		return v, nil
	}
	return o.base, nil
}

func TestChangePointsCollapsesRepeats(t *testing.T) {
	oracle := &scriptedOracle{
		base: 2,
		offsets: map[string]int{
			"2024-01-03": 3,
			"2024-01-04": 3,
			"2024-01-05": 2,
			"2024-01-07": 1,
		},
	}
	got, err := NewEngine(oracle).ChangePoints(context.Background(), "a", "b", dateRange(t, "2024-01-01", "2024-01-08"))
	if err != nil {
		t.Fatalf("ChangePoints() error = %v", err)
	}

	want := []string{
		point("2024-01-01", 2),
		point("2024-01-03", 3),
		point("2024-01-05", 2),
		point("2024-01-07", 1),
		point("2024-01-08", nil),
	}
	if diff := cmp.Diff(want, render(got)); diff != "" {
		t.Errorf("ChangePoints() mismatch (-want +got):\n%s", diff)
	}
	if oracle.calls != 8 {
		t.Errorf("oracle asked %d times, want once per day (8)", oracle.calls)
	}
}

func TestChangePointsInvariants(t *testing.T) {
	oracle := &scriptedOracle{base: 0, offsets: map[string]int{}}
	// A new offset every third day.
	d := date(t, "2020-01-01")
	for i := 0; i < 60; i++ {
		oracle.offsets[d.AddDays(i).String()] = i / 3
	}
	r := dateRange(t, "2020-01-01", "2020-03-15")

	points, err := NewEngine(oracle).ChangePoints(context.Background(), "a", "b", r)
	if err != nil {
		t.Fatalf("ChangePoints() error = %v", err)
	}

	if points[0].Date != r.Start {
		t.Errorf("first date = %v, want %v", points[0].Date, r.Start)
	}
	if last := points[len(points)-1]; last.Date != r.End {
		t.Errorf("last date = %v, want %v", last.Date, r.End)
	}
	if len(points) < 1 || len(points) > r.Days()+1 {
		t.Errorf("len = %d, want within [1, %d]", len(points), r.Days()+1)
	}
	for i := 1; i < len(points); i++ {
		if !points[i-1].Date.Before(points[i].Date) {
			t.Errorf("dates not strictly increasing at %d: %v, %v", i, points[i-1].Date, points[i].Date)
		}
		if points[i].Offset != nil && *points[i].Offset == *points[i-1].Offset {
			t.Errorf("repeated offset %d at %v", *points[i].Offset, points[i].Date)
		}
	}
}

func TestChangePointsOracleFailure(t *testing.T) {
	oracle := &scriptedOracle{failOn: "2024-01-02"}
	points, err := NewEngine(oracle).ChangePoints(context.Background(), "a", "b", dateRange(t, "2024-01-01", "2024-01-05"))
	if err == nil || points != nil {
		t.Fatalf("ChangePoints() = %v, %v; want no points and an error", points, err)
	}
}

func TestChangePointsCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	points, err := NewEngine(&scriptedOracle{}).ChangePoints(ctx, "a", "b", dateRange(t, "2024-01-01", "2024-12-31"))
	if !errors.Is(err, context.Canceled) || points != nil {
		t.Errorf("ChangePoints() = %v, %v; want context.Canceled and no points", points, err)
	}
}

func TestChangePointsIdempotent(t *testing.T) {
	engine := NewEngine(NewZoneOracle())
	r := dateRange(t, "2022-01-01", "2024-12-31")

	a, err := engine.ChangePoints(context.Background(), "Australia/Sydney", "America/Los_Angeles", r)
	if err != nil {
		t.Fatal(err)
	}
	b, err := engine.ChangePoints(context.Background(), "Australia/Sydney", "America/Los_Angeles", r)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(render(a), render(b)); diff != "" {
		t.Errorf("second run differs (-first +second):\n%s", diff)
	}
}
