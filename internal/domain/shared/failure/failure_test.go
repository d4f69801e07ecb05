package failure

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	sentinel := New(KindUnavailable, "property: unavailable")

	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{name: "nil", err: nil, want: KindUnknown},
		{name: "plain error", err: errors.New("boom"), want: KindUnknown},
		{name: "sentinel", err: sentinel, want: KindUnavailable},
		{name: "wrapped sentinel", err: fmt.Errorf("%w: dates taken", sentinel), want: KindUnavailable},
		{name: "wrap", err: Wrap(KindExternalService, errors.New("timeout")), want: KindExternalService},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := Wrap(KindExternalService, cause)

	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "dial tcp: refused", err.Error())
	assert.Nil(t, Wrap(KindValidation, nil))
}

func TestIs(t *testing.T) {
	err := fmt.Errorf("create: %w", New(KindValidation, "bad input"))
	assert.True(t, Is(err, KindValidation))
	assert.False(t, Is(err, KindNotFound))
	assert.False(t, Is(nil, KindUnknown))
}
