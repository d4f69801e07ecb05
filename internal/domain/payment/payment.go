// Package payment describes payment sessions and the outcomes the processor
// reports for them. The session token is the processor's identifier of the
// payment intent.
package payment

import (
	"context"
	"time"

	"staybook/internal/domain/shared/failure"
	"staybook/internal/domain/shared/money"
)

var (
	// ErrSessionTerminal means the processor refused an operation because the
	// session is already canceled, refunded or otherwise final. Callers treat
	// it as the operation having taken effect.
	ErrSessionTerminal = failure.New(failure.KindExternalService, "payment: session already in a terminal state")
	ErrInvalidOutcome  = failure.New(failure.KindValidation, "payment: outcome requires id, type and token")
)

type OutcomeType string

const (
	OutcomeCreated        OutcomeType = "created"
	OutcomeSucceeded      OutcomeType = "succeeded"
	OutcomeFailed         OutcomeType = "failed"
	OutcomeCanceled       OutcomeType = "canceled"
	OutcomeMethodAttached OutcomeType = "payment_method_attached"
	OutcomeRefundCreated  OutcomeType = "refund_created"
	OutcomeChargeRefunded OutcomeType = "charge_refunded"
	OutcomeUnknown        OutcomeType = "unknown"
)

// Outcome is one asynchronous notification about a session.
type Outcome struct {
	ID         string      `json:"id"`
	Type       OutcomeType `json:"type"`
	Token      string      `json:"token"`
	Payload    []byte      `json:"payload,omitempty"`
	ReceivedAt time.Time   `json:"received_at"`
}

func (o Outcome) Validate() error {
	if o.ID == "" || o.Type == "" {
		return ErrInvalidOutcome
	}
	if o.Type == OutcomeSucceeded && o.Token == "" {
		return ErrInvalidOutcome
	}
	return nil
}

type SessionRequest struct {
	ReservationID string
	PropertyID    string
	CustomerRef   string
	Amount        money.Money
	// AttemptKey names one attempt to open the session. Processors dedupe
	// on it, so a retried attempt must pass a new one.
	AttemptKey string
}

type Session struct {
	Token        string
	ClientSecret string
}

// EventLog keeps outcomes that do not drive a state transition. Appending an
// outcome ID twice is a no-op.
type EventLog interface {
	Append(ctx context.Context, o Outcome) error
}
