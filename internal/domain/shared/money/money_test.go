package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staybook/internal/domain/shared/failure"
)

func TestNewNormalizesCurrency(t *testing.T) {
	m, err := New(1500, " ils")
	require.NoError(t, err)
	assert.Equal(t, Money{Amount: 1500, Currency: "ILS"}, m)

	for _, bad := range []string{"shekel", "I1S", ""} {
		_, err = New(10, bad)
		assert.ErrorIs(t, err, ErrInvalidCurrency, bad)
		assert.True(t, failure.Is(err, failure.KindValidation))
	}
}

func TestMultiply(t *testing.T) {
	fee := Must(100, "ILS")
	assert.Equal(t, Must(300, "ILS"), fee.Multiply(3))
	assert.True(t, fee.IsPositive())
	assert.False(t, fee.Multiply(0).IsPositive())
	assert.Equal(t, "300 ILS", fee.Multiply(3).String())
}
