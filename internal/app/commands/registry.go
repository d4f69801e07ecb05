package commands

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

type route func(ctx context.Context, cmd Command) (any, error)

// InMemoryBus maps command keys to handlers. Registering a key twice is a
// wiring bug and panics.
type InMemoryBus struct {
	mu     sync.RWMutex
	routes map[string]route
}

func NewInMemoryBus() *InMemoryBus {
	return &InMemoryBus{routes: make(map[string]route)}
}

// RegisterHandler binds h to key on bus.
func RegisterHandler[C Command, R any](bus *InMemoryBus, key string, h Handler[C, R]) {
	if bus == nil {
		panic(ErrBusRequired)
	}
	bus.add(key, func(ctx context.Context, cmd Command) (any, error) {
		typed, ok := cmd.(C)
		if !ok {
			return nil, fmt.Errorf("%w: %s got %T", ErrWrongType, key, cmd)
		}
		return h.Handle(ctx, typed)
	})
}

func (b *InMemoryBus) add(key string, r route) {
	if key == "" {
		panic("commands: handler registered without a key")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, taken := b.routes[key]; taken {
		panic(fmt.Sprintf("commands: %s registered twice", key))
	}
	b.routes[key] = r
}

func (b *InMemoryBus) Dispatch(ctx context.Context, cmd Command) (any, error) {
	if cmd == nil {
		return nil, ErrWrongType
	}
	b.mu.RLock()
	r, ok := b.routes[cmd.Key()]
	b.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoHandler, cmd.Key())
	}
	return r(ctx, cmd)
}

// Keys lists the registered command keys in order.
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
