package memory

import (
	"context"
	"time"

	"staybook/internal/domain/compensation"
)

// CompensationStore is the worker-side view of the tasks committed by units.
type CompensationStore struct {
	Store *Store
}

func (c CompensationStore) Enqueue(_ context.Context, t *compensation.Task) error {
	s := c.Store
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.compensations.rows[t.ID]; ok {
		return nil
	}
	s.compensations.rows[t.ID] = row[*compensation.Task]{value: cloneTask(t), version: 1}
	return nil
}

// Claim hands out the due task that waited longest.
func (c CompensationStore) Claim(_ context.Context, _ string, now time.Time) (*compensation.Task, error) {
	s := c.Store
	s.mu.Lock()
	defer s.mu.Unlock()
	var (
		key  string
		next *compensation.Task
	)
	for k, r := range s.compensations.rows {
		t := r.value
		if t.State != compensation.StatePending && t.State != compensation.StateFailed {
			continue
		}
		if t.NextAttemptAt.After(now) {
			continue
		}
		if next == nil || t.NextAttemptAt.Before(next.NextAttemptAt) {
			key, next = k, t
		}
	}
	if next == nil {
		return nil, nil
	}
	claimed := cloneTask(next)
	claimed.State = compensation.StateClaimed
	claimed.UpdatedAt = now.UTC()
	c.bump(key, claimed)
	return cloneTask(claimed), nil
}

func (c CompensationStore) MarkDone(_ context.Context, id string, now time.Time) error {
	return c.update(id, func(t *compensation.Task) {
		t.State = compensation.StateDone
		t.LastError = ""
		t.UpdatedAt = now.UTC()
	})
}

func (c CompensationStore) MarkFailed(_ context.Context, id string, next time.Time, reason string) error {
	return c.update(id, func(t *compensation.Task) {
		t.State = compensation.StateFailed
		t.Attempts++
		t.NextAttemptAt = next.UTC()
		t.LastError = reason
		t.UpdatedAt = time.Now().UTC()
	})
}

func (c CompensationStore) ByID(_ context.Context, id string) (*compensation.Task, error) {
	s := c.Store
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.compensations.rows[id]
	if !ok {
		return nil, compensation.ErrNotFound
	}
	return cloneTask(r.value), nil
}

// Pending lists tasks that are not done yet.
func (c CompensationStore) Pending() []*compensation.Task {
	s := c.Store
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*compensation.Task
	for _, r := range s.compensations.rows {
		if r.value.State != compensation.StateDone {
			out = append(out, cloneTask(r.value))
		}
	}
	return out
}

func (c CompensationStore) update(id string, fn func(*compensation.Task)) error {
	s := c.Store
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.compensations.rows[id]
	if !ok {
		return compensation.ErrNotFound
	}
	t := cloneTask(r.value)
	fn(t)
	c.bump(id, t)
	return nil
}

// bump replaces a row and moves its version forward; callers hold the lock.
func (c CompensationStore) bump(key string, t *compensation.Task) {
	rows := c.Store.compensations.rows
	rows[key] = row[*compensation.Task]{value: t, version: rows[key].version + 1}
}

var _ compensation.Store = CompensationStore{}
