package stripe

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v76/webhook"

	"staybook/internal/domain/payment"
	"staybook/internal/domain/shared/failure"
)

var ErrBadSignature = failure.New(failure.KindValidation, "stripe: webhook signature verification failed")

var outcomeTypes = map[string]payment.OutcomeType{
	"payment_intent.created":        payment.OutcomeCreated,
	"payment_intent.succeeded":      payment.OutcomeSucceeded,
	"payment_intent.payment_failed": payment.OutcomeFailed,
	"payment_intent.canceled":       payment.OutcomeCanceled,
	"payment_method.attached":       payment.OutcomeMethodAttached,
	"refund.created":                payment.OutcomeRefundCreated,
	"charge.refunded":               payment.OutcomeChargeRefunded,
}

// WebhookParser verifies Stripe's signature header and turns the event into
// an outcome keyed by payment intent id.
type WebhookParser struct {
	Secret string
	Now    func() time.Time
}

func (p WebhookParser) Parse(payload []byte, signature string) (payment.Outcome, error) {
	ev, err := webhook.ConstructEventWithOptions(payload, signature, p.Secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return payment.Outcome{}, fmt.Errorf("%w: %v", ErrBadSignature, err)
	}
	kind, ok := outcomeTypes[string(ev.Type)]
	if !ok {
		kind = payment.OutcomeUnknown
	}
	var raw []byte
	if ev.Data != nil {
		raw = ev.Data.Raw
	}
	return payment.Outcome{
		ID:         ev.ID,
		Type:       kind,
		Token:      intentID(raw),
		Payload:    raw,
		ReceivedAt: p.now(),
	}, nil
}

// intentID finds the payment intent an event object belongs to: the object
// itself or the intent a charge or refund points at.
func intentID(raw []byte) string {
	var obj struct {
		ID            string `json:"id"`
		Object        string `json:"object"`
		PaymentIntent string `json:"payment_intent"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return ""
	}
	if obj.Object == "payment_intent" {
		return obj.ID
	}
	return obj.PaymentIntent
}

func (p WebhookParser) now() time.Time {
	if p.Now != nil {
		return p.Now().UTC()
	}
	return time.Now().UTC()
}
