package compensate

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Worker retries compensation tasks whose immediate attempt failed or never
// ran, for example because the process stopped right after commit.
type Worker struct {
	Executor *Executor
	Interval time.Duration
	ID       string
	// Batch caps how many tasks are attempted per tick.
	Batch int
}

func (w *Worker) Run(ctx context.Context) error {
	if w.Executor == nil || w.Executor.Store == nil {
		return ErrNotConfigured
	}
	id := w.ID
	if id == "" {
		id = uuid.NewString()
	}
	ticker := time.NewTicker(w.interval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.ProcessOnce(ctx, id); err != nil {
				return err
			}
		}
	}
}

// ProcessOnce claims and attempts due tasks. Processor failures are recorded
// on the task; only store failures stop the worker.
func (w *Worker) ProcessOnce(ctx context.Context, workerID string) error {
	for i := 0; i < w.batch(); i++ {
		task, err := w.Executor.Store.Claim(ctx, workerID, w.Executor.now())
		if err != nil {
			return err
		}
		if task == nil {
			return nil
		}
		_ = w.Executor.Attempt(ctx, task)
	}
	return nil
}

func (w *Worker) interval() time.Duration {
	if w.Interval <= 0 {
		return 2 * time.Second
	}
	return w.Interval
}

func (w *Worker) batch() int {
	if w.Batch <= 0 {
		return 16
	}
	return w.Batch
}
