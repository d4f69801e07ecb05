package reconcile

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"

	"staybook/internal/domain/payment"
)

var ErrWorkerNotConfigured = errors.New("reconcile: worker missing dependencies")

// Queue delivers outcomes at least once. A delivery whose handler returns an
// error is not acknowledged and comes back later.
type Queue interface {
	Consume(ctx context.Context, handle func(ctx context.Context, o payment.Outcome) error) error
}

// Worker pulls outcomes from a queue and reconciles each one, retrying with
// backoff before giving the delivery back to the queue. Outcomes sharing a
// payment token are never reconciled concurrently inside one process.
type Worker struct {
	Queue      Queue
	Reconciler *Reconciler
	Logger     *slog.Logger
	// Backoff is the first retry delay; it doubles up to MaxDelay.
	Backoff    time.Duration
	MaxDelay   time.Duration
	MaxRetries uint64

	locks keyedMutex
}

func (w *Worker) Run(ctx context.Context) error {
	if w.Queue == nil || w.Reconciler == nil {
		return ErrWorkerNotConfigured
	}
	return w.Queue.Consume(ctx, w.Handle)
}

// Handle reconciles one delivery.
func (w *Worker) Handle(ctx context.Context, o payment.Outcome) error {
	unlock := w.locks.lock(o.Token)
	defer unlock()

	attempt := 0
	err := retry.Do(ctx, w.backoff(), func(ctx context.Context) error {
		attempt++
		if _, err := w.Reconciler.Reconcile(ctx, o); err != nil {
			w.logger().Warn("reconcile attempt failed", "outcome_id", o.ID, "payment_token", o.Token, "attempt", attempt, "err", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		w.logger().Error("payment outcome left for redelivery", "outcome_id", o.ID, "payment_token", o.Token, "attempts", attempt, "err", err)
	}
	return err
}

func (w *Worker) backoff() retry.Backoff {
	base := w.Backoff
	if base <= 0 {
		base = 200 * time.Millisecond
	}
	maxDelay := w.MaxDelay
	if maxDelay <= 0 {
		maxDelay = 10 * time.Second
	}
	retries := w.MaxRetries
	if retries == 0 {
		retries = 5
	}
	b := retry.NewExponential(base)
	b = retry.WithCappedDuration(maxDelay, b)
	return retry.WithMaxRetries(retries, b)
}

func (w *Worker) logger() *slog.Logger {
	if w.Logger != nil {
		return w.Logger
	}
	return slog.Default()
}

// keyedMutex serializes work per key and forgets keys nobody holds.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedEntry
}

type keyedEntry struct {
	mu   sync.Mutex
	refs int
}

func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*keyedEntry)
	}
	e, ok := k.locks[key]
	if !ok {
		e = &keyedEntry{}
		k.locks[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		k.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
