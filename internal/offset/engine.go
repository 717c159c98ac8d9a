package offset

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/teambition/rrule-go"

	"tzdiff/internal/model"
)

// ctxCheckEvery is how many days are walked between cancellation checks.
const ctxCheckEvery = 512

// Engine turns per-day offset differences into change points.
type Engine struct {
	oracle Oracle
}

// NewEngine returns an Engine asking o for offsets.
func NewEngine(o Oracle) *Engine {
	return &Engine{oracle: o}
}

// ChangePoints walks r one calendar day at a time and records every day on
// which the tz1/tz2 difference takes a new value.
//
//   - r is clamped to [model.MinDate, model.MaxDate] first; an inverted
//     range is rejected with model.ErrInvalidRange.
//   - The first day of the range is always recorded.
//   - When the last recorded day is not the range end, a sentinel point
//     with a nil Offset is appended at the end date.
//
// Either zone failing Check yields a *model.UnresolvedTimezoneError. On any
// error, including ctx cancellation, no points are returned.
func (e *Engine) ChangePoints(ctx context.Context, tz1, tz2 string, r model.DateRange) ([]model.ChangePoint, error) {
	r = r.Clamp()
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if err := e.oracle.Check(tz1); err != nil {
		return nil, &model.UnresolvedTimezoneError{Side: model.Side1, Zone: tz1, Err: err}
	}
	if err := e.oracle.Check(tz2); err != nil {
		return nil, &model.UnresolvedTimezoneError{Side: model.Side2, Zone: tz2, Err: err}
	}

	days, err := rrule.NewRRule(rrule.ROption{
		Freq:    rrule.DAILY,
		Dtstart: r.Start.In(time.UTC),
		Until:   r.End.In(time.UTC),
	})
	if err != nil {
		return nil, fmt.Errorf("offset: build day walk: %w", err)
	}

	var (
		points []model.ChangePoint
		prev   int
	)
	next := days.Iterator()
	for i := 0; ; i++ {
		t, ok := next()
		if !ok {
			break
		}
		if i%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		day := civil.DateOf(t)
		diff, err := e.oracle.Diff(tz1, tz2, day)
		if err != nil {
			return nil, fmt.Errorf("offset: %s: %w", day, err)
		}
		if len(points) == 0 || diff != prev {
			points = append(points, model.ChangePoint{Date: day, Offset: model.IntPtr(diff)})
			prev = diff
		}
	}

	if len(points) == 0 {
		return nil, errors.New("offset: day walk produced no dates")
	}
	if last := points[len(points)-1]; last.Date != r.End {
		points = append(points, model.ChangePoint{Date: r.End})
	}
	return points, nil
}
