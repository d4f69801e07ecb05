package user

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrincipal(t *testing.T) {
	tests := []struct {
		name      string
		p         Principal
		admin     bool
		suspended bool
	}{
		{name: "customer", p: Principal{UserID: "u1", Role: RoleCustomer, AccountStatus: StatusActive}},
		{name: "admin", p: Principal{UserID: "a1", Role: RoleAdmin, AccountStatus: StatusVerified}, admin: true},
		{name: "suspended", p: Principal{UserID: "u2", AccountStatus: StatusSuspended}, suspended: true},
		{name: "deleted", p: Principal{UserID: "u3", AccountStatus: StatusDeleted}, suspended: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.admin, tt.p.IsAdmin())
			assert.Equal(t, tt.suspended, tt.p.Suspended())
		})
	}
	assert.True(t, Principal{}.IsAnonymous())
}

func TestAwardPoints(t *testing.T) {
	now := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	acc, err := NewAccount("u1", "cus_1", now)
	require.NoError(t, err)

	require.NoError(t, acc.AwardPoints(40, now))
	require.NoError(t, acc.AwardPoints(0, now))
	assert.EqualValues(t, 40, acc.RewardPoints)
	assert.ErrorIs(t, acc.AwardPoints(-1, now), ErrNegativePoints)

	_, err = NewAccount("", "", now)
	assert.ErrorIs(t, err, ErrIDRequired)
}
