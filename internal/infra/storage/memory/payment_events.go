package memory

import (
	"context"
	"sync"

	"staybook/internal/domain/payment"
)

// PaymentEventLog records bookkeeping outcomes once per outcome ID. Only the
// newest outcomes are kept; an evicted ID is accepted again.
type PaymentEventLog struct {
	mu     sync.Mutex
	limit  int
	seen   map[string]struct{}
	events []payment.Outcome
}

func NewPaymentEventLog() *PaymentEventLog {
	return NewPaymentEventLogWithLimit(DefaultRetention)
}

func NewPaymentEventLogWithLimit(limit int) *PaymentEventLog {
	if limit < 1 {
		limit = DefaultRetention
	}
	return &PaymentEventLog{limit: limit, seen: make(map[string]struct{})}
}

func (l *PaymentEventLog) Append(_ context.Context, o payment.Outcome) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, dup := l.seen[o.ID]; dup {
		return nil
	}
	l.seen[o.ID] = struct{}{}
	l.events = append(l.events, o)
	if len(l.events) > l.limit {
		delete(l.seen, l.events[0].ID)
		n := copy(l.events, l.events[1:])
		l.events = l.events[:n]
	}
	return nil
}

func (l *PaymentEventLog) Events() []payment.Outcome {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]payment.Outcome(nil), l.events...)
}

var _ payment.EventLog = (*PaymentEventLog)(nil)
