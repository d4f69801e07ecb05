package counters_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staybook/internal/app/counters"
	"staybook/internal/app/uow"
	"staybook/internal/domain/property"
	"staybook/internal/domain/shared/money"
	"staybook/internal/infra/storage/memory"
)

func seeded(t *testing.T) memory.Factory {
	t.Helper()
	store := memory.NewStore()
	p, err := property.New(property.CreateParams{ID: "prop-1", OwnerID: "host-1", RentFee: money.Money{Amount: 100, Currency: "ILS"}, Now: time.Now()})
	require.NoError(t, err)
	store.SeedProperty(p)
	return memory.Factory{Store: store}
}

func read(t *testing.T, f memory.Factory) *property.Property {
	t.Helper()
	unit, err := f.Begin(context.Background(), uow.TxOptions{ReadOnly: true})
	require.NoError(t, err)
	defer unit.Rollback(context.Background())
	p, err := unit.Properties().ByID(context.Background(), "prop-1")
	require.NoError(t, err)
	return p
}

func apply(t *testing.T, f memory.Factory, fn func(ctx context.Context, unit uow.UnitOfWork) error) {
	t.Helper()
	require.NoError(t, uow.Run(context.Background(), f, 1, fn))
}

func TestRatingAggregate(t *testing.T) {
	f := seeded(t)
	u := counters.Updater{}

	for _, r := range []int{5, 4, 4} {
		r := r
		apply(t, f, func(ctx context.Context, unit uow.UnitOfWork) error {
			return u.RatingAdded(ctx, unit, "prop-1", r)
		})
	}
	p := read(t, f)
	assert.InDelta(t, 4.333, p.AvgRating, 0.001)
	assert.Equal(t, int64(3), p.NumberOfRatings)

	apply(t, f, func(ctx context.Context, unit uow.UnitOfWork) error {
		return u.RatingReplaced(ctx, unit, "prop-1", 4, 1)
	})
	assert.InDelta(t, 3.333, read(t, f).AvgRating, 0.001)

	for _, r := range []int{5, 4, 1} {
		r := r
		apply(t, f, func(ctx context.Context, unit uow.UnitOfWork) error {
			return u.RatingRemoved(ctx, unit, "prop-1", r)
		})
	}
	p = read(t, f)
	assert.Equal(t, property.DefaultRating, p.AvgRating)
	assert.Zero(t, p.NumberOfRatings)
}

func TestRollbackLeavesAggregateUntouched(t *testing.T) {
	f := seeded(t)
	u := counters.Updater{}

	err := uow.Run(context.Background(), f, 1, func(ctx context.Context, unit uow.UnitOfWork) error {
		require.NoError(t, u.ReservationConfirmed(ctx, unit, "prop-1"))
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)
	assert.Zero(t, read(t, f).NumberOfReservations)
}

func TestConcurrentConfirmationsConflict(t *testing.T) {
	f := seeded(t)
	u := counters.Updater{}
	ctx := context.Background()

	a, ctxA, err := uow.Begin(ctx, f, uow.TxOptions{})
	require.NoError(t, err)
	b, ctxB, err := uow.Begin(ctx, f, uow.TxOptions{})
	require.NoError(t, err)

	require.NoError(t, u.ReservationConfirmed(ctxA, a, "prop-1"))
	require.NoError(t, u.ReservationConfirmed(ctxB, b, "prop-1"))
	require.NoError(t, a.Commit(ctxA))
	assert.ErrorIs(t, b.Commit(ctxB), uow.ErrConflict)

	assert.Equal(t, int64(1), read(t, f).NumberOfReservations)
}

func TestMissingUnit(t *testing.T) {
	err := counters.Updater{}.RatingAdded(context.Background(), nil, "prop-1", 5)
	assert.ErrorIs(t, err, uow.ErrUnitOfWorkMissing)
}
