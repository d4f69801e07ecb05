package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"staybook/internal/domain/payment"
)

// PaymentEventLog stores bookkeeping outcomes keyed by outcome ID, so a
// redelivered outcome is stored once.
type PaymentEventLog struct {
	col *mongo.Collection
}

func NewPaymentEventLog(db *mongo.Database) *PaymentEventLog {
	return &PaymentEventLog{col: db.Collection(colPaymentEvents)}
}

type paymentEventDocument struct {
	ID         string    `bson:"_id"`
	Type       string    `bson:"type"`
	Token      string    `bson:"token"`
	Payload    []byte    `bson:"payload,omitempty"`
	ReceivedAt time.Time `bson:"received_at"`
	StoredAt   time.Time `bson:"stored_at"`
}

func (l *PaymentEventLog) Append(ctx context.Context, o payment.Outcome) error {
	doc := paymentEventDocument{
		ID:         o.ID,
		Type:       string(o.Type),
		Token:      o.Token,
		Payload:    o.Payload,
		ReceivedAt: o.ReceivedAt,
		StoredAt:   time.Now().UTC(),
	}
	_, err := l.col.InsertOne(ctx, doc)
	if err == nil || mongo.IsDuplicateKeyError(err) {
		return nil
	}
	return err
}

var _ payment.EventLog = (*PaymentEventLog)(nil)
