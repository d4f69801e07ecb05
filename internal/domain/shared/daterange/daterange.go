package daterange

import (
	"errors"
	"time"
)

var (
	ErrInvalidRange = errors.New("daterange: end date must be after start date")
)

const day = 24 * time.Hour

// DateRange represents a half-open interval [Start, End) of calendar days in UTC.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// New truncates both bounds to the start of their UTC day and validates the result.
func New(start, end time.Time) (DateRange, error) {
	dr := DateRange{Start: Day(start), End: Day(end)}
	if err := dr.Validate(); err != nil {
		return DateRange{}, err
	}
	return dr, nil
}

// Day returns midnight UTC of the calendar day t falls on.
func Day(t time.Time) time.Time {
	if t.IsZero() {
		return time.Time{}
	}
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func (dr DateRange) Validate() error {
	if dr.End.IsZero() || dr.Start.IsZero() {
		return ErrInvalidRange
	}
	if !dr.End.After(dr.Start) {
		return ErrInvalidRange
	}
	return nil
}

// WholeDays counts complete 24h periods between Start and End.
func (dr DateRange) WholeDays() int64 {
	if !dr.End.After(dr.Start) {
		return 0
	}
	return int64(dr.End.Sub(dr.Start) / day)
}

func (dr DateRange) Overlaps(other DateRange) bool {
	return dr.Start.Before(other.End) && other.Start.Before(dr.End)
}

// StartsBefore reports whether the first day of the range is earlier than the day of t.
func (dr DateRange) StartsBefore(t time.Time) bool {
	return Day(dr.Start).Before(Day(t))
}

// EndedBy reports whether the range is over at t.
func (dr DateRange) EndedBy(t time.Time) bool {
	return !t.UTC().Before(dr.End)
}

func (dr DateRange) ContainsDate(t time.Time) bool {
	t = t.UTC()
	return (t.Equal(dr.Start) || t.After(dr.Start)) && t.Before(dr.End)
}

func (dr DateRange) Adjacent(other DateRange) bool {
	return dr.End.Equal(other.Start) || dr.Start.Equal(other.End)
}
