package ginserver

import (
	"time"

	"staybook/internal/domain/shared/failure"
)

var ErrBadDate = failure.New(failure.KindValidation, "dates must be YYYY-MM-DD or RFC 3339")

// parseDate accepts a calendar day or a full timestamp.
func parseDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, ErrBadDate
	}
	return t.UTC(), nil
}

func parseRange(start, end string) (time.Time, time.Time, error) {
	s, err := parseDate(start)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	e, err := parseDate(end)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return s, e, nil
}
