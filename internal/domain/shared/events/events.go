// Package events defines what aggregates raise when their state changes.
// Handlers drain them into the outbox inside the same unit of work.
package events

import "time"

type DomainEvent interface {
	// EventName is the routing name, e.g. "reservation.confirmed".
	EventName() string
	AggregateID() string
	OccurredAt() time.Time
}

// EventRecorder buffers events on an aggregate. Copies of an aggregate share
// nothing once ClearEvents has been called on the copy.
type EventRecorder struct {
	pending []DomainEvent
}

func (r *EventRecorder) Record(ev DomainEvent) {
	if ev != nil {
		r.pending = append(r.pending, ev)
	}
}

// PendingEvents returns a copy of the buffered events.
func (r *EventRecorder) PendingEvents() []DomainEvent {
	return append([]DomainEvent(nil), r.pending...)
}

func (r *EventRecorder) ClearEvents() { r.pending = nil }

func (r *EventRecorder) Drain() []DomainEvent {
	out := r.pending
	r.pending = nil
	return out
}
