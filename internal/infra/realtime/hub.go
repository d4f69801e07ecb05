// Package realtime fans live notifications out to connected users.
package realtime

import (
	"context"
	"sync"
	"time"

	"staybook/internal/app/policies"
)

type Event struct {
	Title   string    `json:"title"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Hub keeps the open subscriptions of every user. A subscriber that does
// not keep up loses events rather than blocking the publisher.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]map[*subscriber]struct{}
	buffer int
	now    func() time.Time
}

type subscriber struct {
	ch chan Event
}

func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = 16
	}
	return &Hub{subs: make(map[string]map[*subscriber]struct{}), buffer: buffer, now: time.Now}
}

// Subscribe registers a stream for userID. The returned cancel closes the
// channel and must be called once the consumer leaves.
func (h *Hub) Subscribe(userID string) (<-chan Event, func()) {
	s := &subscriber{ch: make(chan Event, h.buffer)}
	h.mu.Lock()
	set, ok := h.subs[userID]
	if !ok {
		set = make(map[*subscriber]struct{})
		h.subs[userID] = set
	}
	set[s] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return s.ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs[userID], s)
			if len(h.subs[userID]) == 0 {
				delete(h.subs, userID)
			}
			h.mu.Unlock()
			close(s.ch)
		})
	}
}

// Notify delivers to every open stream of userID. Offline users are not an
// error.
func (h *Hub) Notify(_ context.Context, userID, title, message string) error {
	ev := Event{Title: title, Message: message, At: h.now().UTC()}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for s := range h.subs[userID] {
		select {
		case s.ch <- ev:
		default:
		}
	}
	return nil
}

// Online reports how many streams userID has open.
func (h *Hub) Online(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[userID])
}

var _ policies.Notifier = (*Hub)(nil)
