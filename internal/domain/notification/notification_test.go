package notification

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAndMarkRead(t *testing.T) {
	n, err := New("n1", "guest", " Payment succeeded ", "see you soon", time.Now())
	require.NoError(t, err)
	assert.Equal(t, "Payment succeeded", n.Title)
	assert.False(t, n.Read)

	assert.ErrorIs(t, n.MarkRead("host"), ErrForbidden)
	require.NoError(t, n.MarkRead("guest"))
	assert.True(t, n.Read)

	_, err = New("n2", "", "t", "", time.Now())
	assert.ErrorIs(t, err, ErrInvalid)
}
