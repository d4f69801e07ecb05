// Package compensation models refunds and session cancellations that must
// eventually reach the payment processor after a reservation changed state.
package compensation

import (
	"context"
	"time"

	"staybook/internal/domain/shared/failure"
)

var (
	ErrNotFound    = failure.New(failure.KindNotFound, "compensation: task not found")
	ErrInvalidTask = failure.New(failure.KindValidation, "compensation: kind and token are required")
)

type Kind string

const (
	KindRefund Kind = "refund"
	KindCancel Kind = "cancel"
)

type State string

const (
	StatePending State = "pending"
	StateClaimed State = "claimed"
	StateFailed  State = "failed"
	StateDone    State = "done"
)

// Task is a durable intent to call the processor. ID is derived from kind and
// token so that enqueuing the same intent twice keeps a single task.
type Task struct {
	ID            string
	Kind          Kind
	Token         string
	ReservationID string
	State         State
	Attempts      int
	NextAttemptAt time.Time
	LastError     string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func TaskID(kind Kind, token string) string {
	return string(kind) + ":" + token
}

func NewTask(kind Kind, token, reservationID string, now, firstAttempt time.Time) (*Task, error) {
	if token == "" || (kind != KindRefund && kind != KindCancel) {
		return nil, ErrInvalidTask
	}
	now = now.UTC()
	return &Task{
		ID:            TaskID(kind, token),
		Kind:          kind,
		Token:         token,
		ReservationID: reservationID,
		State:         StatePending,
		NextAttemptAt: firstAttempt.UTC(),
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// Queue is the transactional side: tasks enqueued in a unit of work become
// visible only if the unit commits.
type Queue interface {
	Enqueue(ctx context.Context, task *Task) error
}

// Store is used by the background worker outside of units of work.
type Store interface {
	Queue
	Claim(ctx context.Context, workerID string, now time.Time) (*Task, error)
	MarkDone(ctx context.Context, id string, now time.Time) error
	MarkFailed(ctx context.Context, id string, next time.Time, reason string) error
	ByID(ctx context.Context, id string) (*Task, error)
}
