package availability_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staybook/internal/app/availability"
	"staybook/internal/app/uow"
	"staybook/internal/domain/property"
	"staybook/internal/domain/reservation"
	"staybook/internal/domain/shared/daterange"
	"staybook/internal/domain/shared/money"
	"staybook/internal/infra/storage/memory"
)

var now = time.Date(2025, 5, 20, 9, 0, 0, 0, time.UTC)

func day(d int) time.Time { return time.Date(2025, 6, d, 0, 0, 0, 0, time.UTC) }

func span(t *testing.T, from, to int) daterange.DateRange {
	t.Helper()
	dr, err := daterange.New(day(from), day(to))
	require.NoError(t, err)
	return dr
}

func seed(t *testing.T, store *memory.Store, id string, dr daterange.DateRange, confirm bool) {
	t.Helper()
	r, err := reservation.NewPending(reservation.CreateParams{
		ID:         reservation.ID(id),
		CustomerID: "guest-" + id,
		PropertyID: "prop-1",
		Range:      dr,
		RentFee:    money.Must(100, "ILS"),
		Now:        now,
	})
	require.NoError(t, err)
	if confirm {
		require.NoError(t, r.Confirm(now))
	}
	store.SeedReservation(r)
}

func ask(t *testing.T, store *memory.Store, req availability.Request) bool {
	t.Helper()
	unit, err := memory.Factory{Store: store}.Begin(context.Background(), uow.TxOptions{ReadOnly: true})
	require.NoError(t, err)
	defer func() { _ = unit.Rollback(context.Background()) }()
	free, err := availability.Oracle{Now: func() time.Time { return now }}.IsAvailable(context.Background(), unit.Reservations(), req)
	require.NoError(t, err)
	return free
}

func TestOnlyConfirmedStaysBlock(t *testing.T) {
	store := memory.NewStore()
	seed(t, store, "a", span(t, 1, 4), true)
	seed(t, store, "b", span(t, 10, 12), false)

	assert.False(t, ask(t, store, availability.Request{PropertyID: "prop-1", Range: span(t, 3, 5)}))
	assert.True(t, ask(t, store, availability.Request{PropertyID: "prop-1", Range: span(t, 10, 12)}), "pending stays never block")
	assert.True(t, ask(t, store, availability.Request{PropertyID: "prop-2", Range: span(t, 1, 4)}))
}

func TestBackToBackStaysDoNotConflict(t *testing.T) {
	store := memory.NewStore()
	seed(t, store, "a", span(t, 4, 7), true)

	assert.True(t, ask(t, store, availability.Request{PropertyID: "prop-1", Range: span(t, 7, 9)}), "check-in on checkout day")
	assert.True(t, ask(t, store, availability.Request{PropertyID: "prop-1", Range: span(t, 1, 4)}), "checkout on check-in day")
	assert.False(t, ask(t, store, availability.Request{PropertyID: "prop-1", Range: span(t, 6, 8)}))
}

func TestExcludedReservationDoesNotConflictWithItself(t *testing.T) {
	store := memory.NewStore()
	seed(t, store, "a", span(t, 1, 4), true)

	assert.True(t, ask(t, store, availability.Request{PropertyID: "prop-1", Range: span(t, 1, 4), Exclude: "a"}))
	assert.False(t, ask(t, store, availability.Request{PropertyID: "prop-1", Range: span(t, 1, 4), Exclude: "other"}))
}

func TestPastStartIsUnavailable(t *testing.T) {
	store := memory.NewStore()
	past, err := daterange.New(now.AddDate(0, 0, -2), now.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.False(t, ask(t, store, availability.Request{PropertyID: "prop-1", Range: past}))
}

// onlyPending returns a pending overlapping row as if a repository had
// filtered loosely.
type onlyPending struct {
	reservation.Repository
	rows []*reservation.Reservation
}

func (o onlyPending) ConfirmedOverlapping(context.Context, property.ID, daterange.DateRange, reservation.ID) ([]*reservation.Reservation, error) {
	return o.rows, nil
}

func TestOracleIgnoresNonConfirmedRows(t *testing.T) {
	r, err := reservation.NewPending(reservation.CreateParams{
		ID: "p", CustomerID: "guest", PropertyID: "prop-1", Range: span(t, 1, 4), RentFee: money.Must(100, "ILS"), Now: now,
	})
	require.NoError(t, err)

	free, err := availability.Oracle{Now: func() time.Time { return now }}.IsAvailable(context.Background(), onlyPending{rows: []*reservation.Reservation{r}}, availability.Request{PropertyID: "prop-1", Range: span(t, 2, 3)})
	require.NoError(t, err)
	assert.True(t, free)
}
