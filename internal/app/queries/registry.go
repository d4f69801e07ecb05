package queries

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

type route func(ctx context.Context, q Query) (any, error)

type InMemoryBus struct {
	mu     sync.RWMutex
	routes map[string]route
}

func NewInMemoryBus() *InMemoryBus {
	return &InMemoryBus{routes: make(map[string]route)}
}

func RegisterHandler[Q Query, R any](bus *InMemoryBus, key string, h Handler[Q, R]) {
	if bus == nil {
		panic(ErrBusRequired)
	}
	bus.add(key, func(ctx context.Context, q Query) (any, error) {
		typed, ok := q.(Q)
		if !ok {
			return nil, fmt.Errorf("%w: %s got %T", ErrWrongType, key, q)
		}
		return h.Handle(ctx, typed)
	})
}

func (b *InMemoryBus) add(key string, r route) {
	if key == "" {
		panic("queries: handler registered without a key")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, taken := b.routes[key]; taken {
		panic(fmt.Sprintf("queries: %s registered twice", key))
	}
	b.routes[key] = r
}

func (b *InMemoryBus) Ask(ctx context.Context, q Query) (any, error) {
	if q == nil {
		return nil, ErrWrongType
	}
	b.mu.RLock()
	r, ok := b.routes[q.Key()]
	b.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoHandler, q.Key())
	}
	return r(ctx, q)
}

func (b *InMemoryBus) Keys() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	keys := make([]string, 0, len(b.routes))
	for k := range b.routes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
