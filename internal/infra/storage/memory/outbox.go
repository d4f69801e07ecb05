package memory

import (
	"context"
	"sync"

	appoutbox "staybook/internal/app/outbox"
	"staybook/internal/app/uow"
)

// DefaultRetention bounds the in-memory logs, which nothing drains.
const DefaultRetention = 1024

// Outbox keeps the newest event records in memory. Records added inside a
// unit of work become visible only once that unit commits.
type Outbox struct {
	mu      sync.Mutex
	limit   int
	records []appoutbox.EventRecord
}

func NewOutbox() *Outbox {
	return NewOutboxWithLimit(DefaultRetention)
}

// NewOutboxWithLimit keeps at most limit records, dropping the oldest.
func NewOutboxWithLimit(limit int) *Outbox {
	if limit < 1 {
		limit = DefaultRetention
	}
	return &Outbox{limit: limit}
}

func (o *Outbox) Add(ctx context.Context, record appoutbox.EventRecord) error {
	if unit, ok := uow.FromContext(ctx); ok {
		unit.AfterCommit(func(context.Context) { o.append(record) })
		return nil
	}
	o.append(record)
	return nil
}

func (o *Outbox) Flush(context.Context) error {
	return nil
}

// Records returns the committed records in insertion order.
func (o *Outbox) Records() []appoutbox.EventRecord {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]appoutbox.EventRecord(nil), o.records...)
}

func (o *Outbox) append(record appoutbox.EventRecord) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.records = append(o.records, record)
	if over := len(o.records) - o.limit; over > 0 {
		n := copy(o.records, o.records[over:])
		clear(o.records[n:])
		o.records = o.records[:n]
	}
}

var _ appoutbox.Outbox = (*Outbox)(nil)
