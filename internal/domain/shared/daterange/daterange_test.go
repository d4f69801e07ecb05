package daterange

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func mustRange(t *testing.T, start, end time.Time) DateRange {
	t.Helper()
	dr, err := New(start, end)
	require.NoError(t, err)
	return dr
}

func TestNewNormalizesToUTCDay(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	dr, err := New(time.Date(2025, 6, 1, 15, 30, 0, 0, loc), time.Date(2025, 6, 4, 1, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Equal(t, date(2025, 6, 1), dr.Start)
	assert.Equal(t, date(2025, 6, 4), dr.End)
	assert.EqualValues(t, 3, dr.WholeDays())
}

func TestNewRejectsEmptyAndInvertedRanges(t *testing.T) {
	tests := []struct {
		name       string
		start, end time.Time
	}{
		{name: "zero start", end: date(2025, 6, 1)},
		{name: "same day", start: date(2025, 6, 1), end: date(2025, 6, 1)},
		{name: "same day different hours", start: date(2025, 6, 1).Add(2 * time.Hour), end: date(2025, 6, 1).Add(20 * time.Hour)},
		{name: "inverted", start: date(2025, 6, 5), end: date(2025, 6, 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.start, tt.end)
			assert.ErrorIs(t, err, ErrInvalidRange)
		})
	}
}

func TestOverlapsIsHalfOpen(t *testing.T) {
	base := mustRange(t, date(2025, 6, 1), date(2025, 6, 5))

	tests := []struct {
		name  string
		other DateRange
		want  bool
	}{
		{name: "identical", other: base, want: true},
		{name: "inside", other: mustRange(t, date(2025, 6, 2), date(2025, 6, 3)), want: true},
		{name: "straddles end", other: mustRange(t, date(2025, 6, 4), date(2025, 6, 8)), want: true},
		{name: "checkout day equals checkin", other: mustRange(t, date(2025, 6, 5), date(2025, 6, 7)), want: false},
		{name: "ends on start", other: mustRange(t, date(2025, 5, 28), date(2025, 6, 1)), want: false},
		{name: "disjoint", other: mustRange(t, date(2025, 7, 1), date(2025, 7, 3)), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, base.Overlaps(tt.other))
			assert.Equal(t, tt.want, tt.other.Overlaps(base))
		})
	}
}

func TestStartsBeforeAndEndedBy(t *testing.T) {
	dr := mustRange(t, date(2025, 6, 1), date(2025, 6, 4))

	assert.False(t, dr.StartsBefore(date(2025, 6, 1).Add(23*time.Hour)))
	assert.True(t, dr.StartsBefore(date(2025, 6, 2)))
	assert.False(t, dr.EndedBy(date(2025, 6, 3).Add(23*time.Hour)))
	assert.True(t, dr.EndedBy(date(2025, 6, 4)))
	assert.True(t, dr.ContainsDate(date(2025, 6, 3)))
	assert.False(t, dr.ContainsDate(date(2025, 6, 4)))
	assert.True(t, dr.Adjacent(mustRange(t, date(2025, 6, 4), date(2025, 6, 6))))
}
