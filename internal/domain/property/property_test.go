package property

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staybook/internal/domain/shared/money"
)

var now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newProperty(t *testing.T) *Property {
	t.Helper()
	p, err := New(CreateParams{ID: "p1", OwnerID: "host", Title: "Loft", RentFee: money.Must(100, "ILS"), Now: now})
	require.NoError(t, err)
	return p
}

func TestNewDefaults(t *testing.T) {
	p := newProperty(t)
	assert.Equal(t, StatusAvailable, p.Status)
	assert.Equal(t, DefaultRating, p.AvgRating)
	assert.True(t, p.Bookable())

	_, err := New(CreateParams{ID: "p2", OwnerID: "host", RentFee: money.Must(0, "ILS")})
	assert.ErrorIs(t, err, ErrInvalidRentFee)
}

func TestBookableByStatus(t *testing.T) {
	for _, st := range []Status{StatusReserved, StatusInactive, StatusSuspended} {
		p := newProperty(t)
		p.Status = st
		assert.False(t, p.Bookable(), st)
	}
}

func TestRatingAverage(t *testing.T) {
	p := newProperty(t)

	require.NoError(t, p.AddRating(3, now))
	assert.InDelta(t, 3.0, p.AvgRating, 1e-9)

	require.NoError(t, p.AddRating(5, now))
	assert.InDelta(t, 4.0, p.AvgRating, 1e-9)
	assert.EqualValues(t, 2, p.NumberOfRatings)

	require.NoError(t, p.AddRating(5, now))
	assert.InDelta(t, 13.0/3.0, p.AvgRating, 1e-9)

	require.NoError(t, p.RemoveRating(5, now))
	assert.InDelta(t, 4.0, p.AvgRating, 1e-9)

	require.NoError(t, p.ReplaceRating(3, 1, now))
	assert.InDelta(t, 3.0, p.AvgRating, 1e-9)
	assert.EqualValues(t, 2, p.NumberOfRatings)
}

func TestRemoveLastRatingResetsAverage(t *testing.T) {
	p := newProperty(t)
	require.NoError(t, p.AddRating(2, now))
	require.NoError(t, p.RemoveRating(2, now))

	assert.Equal(t, DefaultRating, p.AvgRating)
	assert.Zero(t, p.NumberOfRatings)
	assert.ErrorIs(t, p.RemoveRating(2, now), ErrNoRatings)
}

func TestRatingBounds(t *testing.T) {
	p := newProperty(t)
	assert.ErrorIs(t, p.AddRating(0, now), ErrInvalidRating)
	assert.ErrorIs(t, p.AddRating(6, now), ErrInvalidRating)
}

func TestRecordReservation(t *testing.T) {
	p := newProperty(t)
	p.RecordReservation(now)
	p.RecordReservation(now)
	assert.EqualValues(t, 2, p.NumberOfReservations)
}
