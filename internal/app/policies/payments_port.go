package policies

import (
	"context"

	"staybook/internal/domain/payment"
)

// PaymentsPort talks to the payment processor. CancelSession and
// RefundSession return payment.ErrSessionTerminal when the session is
// already final; callers treat that as success.
type PaymentsPort interface {
	OpenSession(ctx context.Context, req payment.SessionRequest) (payment.Session, error)
	CancelSession(ctx context.Context, token string) error
	RefundSession(ctx context.Context, token string) error
}

// OutcomePublisher hands processor outcomes to the reconciliation pipeline.
type OutcomePublisher interface {
	Publish(ctx context.Context, outcome payment.Outcome) error
}
