package memory

import (
	"encoding/json"
	"time"

	"staybook/internal/domain/payment"
	"staybook/internal/domain/shared/failure"
)

var ErrMalformedOutcome = failure.New(failure.KindValidation, "memory payments: malformed outcome payload")

// JSONParser accepts outcomes posted as plain JSON. Local runs use it in
// place of a signed processor webhook.
type JSONParser struct {
	Now func() time.Time
}

func (p JSONParser) Parse(payload []byte, _ string) (payment.Outcome, error) {
	var o payment.Outcome
	if err := json.Unmarshal(payload, &o); err != nil {
		return payment.Outcome{}, ErrMalformedOutcome
	}
	if o.ReceivedAt.IsZero() {
		if p.Now != nil {
			o.ReceivedAt = p.Now().UTC()
		} else {
			o.ReceivedAt = time.Now().UTC()
		}
	}
	return o, nil
}
