package reconcile_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staybook/internal/app/reconcile"
	"staybook/internal/app/uow"
	"staybook/internal/domain/reservation"
	brokermemory "staybook/internal/infra/broker/memory"
)

// flakyFactory fails the first n Begin calls.
type flakyFactory struct {
	inner uow.UoWFactory
	n     atomic.Int32
}

func (f *flakyFactory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.n.Add(-1) >= 0 {
		return nil, errors.New("store unavailable")
	}
	return f.inner.Begin(ctx, opts)
}

func TestWorkerRetriesUntilReconciled(t *testing.T) {
	f := newFixture(t)
	_, outcome := f.pending(t, "res-1", "guest-1", "prop-1", 10, 3)
	flaky := &flakyFactory{inner: f.factory}
	flaky.n.Store(2)
	f.reconciler.UoWFactory = flaky

	w := &reconcile.Worker{Reconciler: f.reconciler, Backoff: time.Millisecond, MaxRetries: 3}
	require.NoError(t, w.Handle(context.Background(), outcome))
	assert.Equal(t, reservation.StatusConfirmed, f.reservation(t, "res-1").Status)
}

func TestWorkerGivesUpAfterMaxRetries(t *testing.T) {
	f := newFixture(t)
	_, outcome := f.pending(t, "res-1", "guest-1", "prop-1", 10, 3)
	flaky := &flakyFactory{inner: f.factory}
	flaky.n.Store(100)
	f.reconciler.UoWFactory = flaky

	w := &reconcile.Worker{Reconciler: f.reconciler, Backoff: time.Millisecond, MaxRetries: 2}
	assert.Error(t, w.Handle(context.Background(), outcome))
	assert.Equal(t, reservation.StatusPending, f.reservation(t, "res-1").Status)
}

func TestWorkerConsumesQueue(t *testing.T) {
	f := newFixture(t)
	_, outcome := f.pending(t, "res-1", "guest-1", "prop-1", 10, 3)
	queue := brokermemory.NewQueue(2, 8)
	w := &reconcile.Worker{Queue: queue, Reconciler: f.reconciler}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.NoError(t, queue.Publish(ctx, outcome))
	require.NoError(t, queue.Publish(ctx, outcome))
	assert.Eventually(t, func() bool {
		return f.reservation(t, "res-1").Status == reservation.StatusConfirmed
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
	assert.Equal(t, int64(1), f.property(t).NumberOfReservations)
}

func TestWorkerRequiresDependencies(t *testing.T) {
	w := &reconcile.Worker{}
	assert.ErrorIs(t, w.Run(context.Background()), reconcile.ErrWorkerNotConfigured)
}
