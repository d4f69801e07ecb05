package compensation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTaskIsKeyedByKindAndToken(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	task, err := NewTask(KindRefund, "pi_1", "r1", now, now.Add(time.Second))
	require.NoError(t, err)

	assert.Equal(t, "refund:pi_1", task.ID)
	assert.Equal(t, StatePending, task.State)
	assert.Equal(t, now.Add(time.Second), task.NextAttemptAt)

	_, err = NewTask(KindCancel, "", "r1", now, now)
	assert.ErrorIs(t, err, ErrInvalidTask)
	_, err = NewTask("void", "pi_1", "r1", now, now)
	assert.ErrorIs(t, err, ErrInvalidTask)
}
