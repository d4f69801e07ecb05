// Package memory is an in-process outcome queue used when no Kafka brokers
// are configured.
package memory

import (
	"context"
	"errors"
	"hash/fnv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"staybook/internal/domain/payment"
)

var ErrQueueClosed = errors.New("memory: outcome queue closed")

// Queue shards outcomes by payment token over buffered channels. Each shard
// is drained by one goroutine, so outcomes of one token are handled in
// publish order and never concurrently. A failed delivery is published
// again after Redelivery.
type Queue struct {
	shards     []chan payment.Outcome
	Redelivery time.Duration

	mu     sync.RWMutex
	closed bool
}

func NewQueue(shards, buffer int) *Queue {
	if shards < 1 {
		shards = 1
	}
	if buffer < 1 {
		buffer = 64
	}
	q := &Queue{shards: make([]chan payment.Outcome, shards), Redelivery: 5 * time.Second}
	for i := range q.shards {
		q.shards[i] = make(chan payment.Outcome, buffer)
	}
	return q
}

func (q *Queue) Publish(ctx context.Context, o payment.Outcome) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}
	select {
	case q.shard(o.Token) <- o:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Consume drains every shard until ctx is done.
func (q *Queue) Consume(ctx context.Context, handle func(ctx context.Context, o payment.Outcome) error) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, ch := range q.shards {
		ch := ch
		g.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case o := <-ch:
					if err := handle(ctx, o); err != nil {
						q.redeliver(ctx, o)
					}
				}
			}
		})
	}
	return g.Wait()
}

// Close stops accepting outcomes.
func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
}

func (q *Queue) redeliver(ctx context.Context, o payment.Outcome) {
	time.AfterFunc(q.Redelivery, func() {
		if ctx.Err() != nil {
			return
		}
		_ = q.Publish(ctx, o)
	})
}

func (q *Queue) shard(token string) chan payment.Outcome {
	h := fnv.New32a()
	_, _ = h.Write([]byte(token))
	return q.shards[int(h.Sum32()%uint32(len(q.shards)))]
}
