package payment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOutcomeValidate(t *testing.T) {
	tests := []struct {
		name    string
		outcome Outcome
		wantErr bool
	}{
		{name: "succeeded with token", outcome: Outcome{ID: "evt_1", Type: OutcomeSucceeded, Token: "pi_1"}},
		{name: "succeeded without token", outcome: Outcome{ID: "evt_1", Type: OutcomeSucceeded}, wantErr: true},
		{name: "bookkeeping without token", outcome: Outcome{ID: "evt_2", Type: OutcomeChargeRefunded}},
		{name: "missing id", outcome: Outcome{Type: OutcomeFailed, Token: "pi_1"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.outcome.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidOutcome)
				return
			}
			assert.NoError(t, err)
		})
	}
}
