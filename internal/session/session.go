// Package session runs one difference computation end to end: it resolves
// both location fields, clamps the date range, walks the offsets and
// renders the human-readable lines.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"tzdiff/internal/cityindex"
	"tzdiff/internal/model"
	"tzdiff/internal/offset"
)

// ErrNoIndex is returned when a computation runs before any dataset has
// been installed.
var ErrNoIndex = errors.New("session: no city index loaded")

// Session holds the current city index and the offset engine. The index
// may be replaced at any time with SetIndex; a computation keeps using the
// index it started with.
type Session struct {
	index  atomic.Pointer[cityindex.Index]
	engine *offset.Engine
}

// New returns a Session over idx. A nil engine gets one backed by the Go
// tz database.
func New(idx *cityindex.Index, engine *offset.Engine) *Session {
	if engine == nil {
		engine = offset.NewEngine(offset.NewZoneOracle())
	}
	s := &Session{engine: engine}
	if idx != nil {
		s.index.Store(idx)
	}
	return s
}

// Index returns the index new computations will use.
func (s *Session) Index() *cityindex.Index {
	return s.index.Load()
}

// SetIndex installs idx for subsequent computations.
func (s *Session) SetIndex(idx *cityindex.Index) {
	s.index.Store(idx)
}

// ComputeRaw parses start and end as ISO dates and runs Compute.
func (s *Session) ComputeRaw(ctx context.Context, loc1, loc2, start, end string) (*model.DifferenceResult, error) {
	r, err := model.NewDateRange(strings.TrimSpace(start), strings.TrimSpace(end))
	if err != nil {
		return nil, err
	}
	return s.Compute(ctx, loc1, loc2, r)
}

// Compute resolves loc1 and loc2, clamps raw and returns the change points
// between the two locations together with one display line per non-sentinel
// point.
//
// Errors: *model.LocationNotFoundError (location 1 is checked first),
// model.ErrInvalidRange, *model.UnresolvedTimezoneError, or ctx.Err().
func (s *Session) Compute(ctx context.Context, loc1, loc2 string, raw model.DateRange) (*model.DifferenceResult, error) {
	idx := s.index.Load()
	if idx == nil {
		return nil, ErrNoIndex
	}

	label1 := strings.TrimSpace(loc1)
	label2 := strings.TrimSpace(loc2)

	rec1, ok := idx.Resolve(cityindex.ParseQuery(label1))
	if !ok {
		return nil, &model.LocationNotFoundError{Side: model.Side1, Query: label1}
	}
	rec2, ok := idx.Resolve(cityindex.ParseQuery(label2))
	if !ok {
		return nil, &model.LocationNotFoundError{Side: model.Side2, Query: label2}
	}

	r := raw.Clamp()
	if err := r.Validate(); err != nil {
		return nil, err
	}

	points, err := s.engine.ChangePoints(ctx, rec1.Timezone, rec2.Timezone, r)
	if err != nil {
		return nil, err
	}

	lines := make([]string, 0, len(points))
	for _, p := range points {
		if p.IsSentinel() {
			continue
		}
		lines = append(lines, DisplayLine(label1, label2, *p.Offset))
	}

	return &model.DifferenceResult{
		Location1:    rec1,
		Location2:    rec2,
		Label1:       label1,
		Label2:       label2,
		Range:        r,
		ChangePoints: points,
		DisplayLines: lines,
	}, nil
}

// DisplayLine describes where label2's clock stands relative to label1's
// given diff, label1's clock minus label2's in whole hours. Equal clocks
// read "0 hours ahead of".
func DisplayLine(label1, label2 string, diff int) string {
	if diff > 0 {
		return fmt.Sprintf("%s is %d hours behind %s", label2, diff, label1)
	}
	return fmt.Sprintf("%s is %d hours ahead of %s", label2, -diff, label1)
}
