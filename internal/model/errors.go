package model

import (
	"errors"
	"fmt"
)

// Side identifies which of the two compared locations an error refers to.
type Side int

const (
	Side1 Side = 1
	Side2 Side = 2
)

func (s Side) String() string {
	switch s {
	case Side1:
		return "location 1"
	case Side2:
		return "location 2"
	default:
		return fmt.Sprintf("location %d", int(s))
	}
}

var (
	ErrLocationNotFound   = errors.New("location not found")
	ErrUnresolvedTimezone = errors.New("unresolved timezone")
	ErrInvalidRange       = errors.New("invalid range: end precedes start")
	ErrInvalidDate        = errors.New("invalid date")
)

// LocationNotFoundError is returned when a query matches no dataset record,
// including the case where several records share the name and none fits the
// supplied province/country.
type LocationNotFoundError struct {
	Side  Side
	Query string
}

func (e *LocationNotFoundError) Error() string {
	return fmt.Sprintf("%s: %q: %v", e.Side, e.Query, ErrLocationNotFound)
}

func (e *LocationNotFoundError) Unwrap() error { return ErrLocationNotFound }

// UnresolvedTimezoneError is returned when the offset oracle cannot load a
// zone. Dataset records normally carry valid zones, so this signals a
// corrupt dataset or a missing tz database.
type UnresolvedTimezoneError struct {
	Side Side
	Zone string
	Err  error
}

func (e *UnresolvedTimezoneError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v %q: %v", e.Side, ErrUnresolvedTimezone, e.Zone, e.Err)
	}
	return fmt.Sprintf("%s: %v %q", e.Side, ErrUnresolvedTimezone, e.Zone)
}

func (e *UnresolvedTimezoneError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrUnresolvedTimezone}
	}
	return []error{ErrUnresolvedTimezone, e.Err}
}

// InvalidDateError is returned for a date field that is not "YYYY-MM-DD".
type InvalidDateError struct {
	Field string
	Value string
	Err   error
}

func (e *InvalidDateError) Error() string {
	return fmt.Sprintf("%v for %s: %q", ErrInvalidDate, e.Field, e.Value)
}

func (e *InvalidDateError) Unwrap() error { return ErrInvalidDate }
