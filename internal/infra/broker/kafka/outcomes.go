package kafka

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/IBM/sarama"

	"staybook/internal/domain/payment"
)

const outcomesTopic = "payments.outcomes.v1"

// OutcomeQueue publishes payment outcomes keyed by session token, so every
// outcome of one session lands on one partition in order, and consumes them
// for the reconciliation worker.
type OutcomeQueue struct {
	Producer *Producer
	Brokers  []string
	GroupID  string
	Config   *sarama.Config
	Prefix   string
	Logger   *slog.Logger
}

func (q *OutcomeQueue) Topic() string {
	return q.Prefix + outcomesTopic
}

func (q *OutcomeQueue) Publish(ctx context.Context, o payment.Outcome) error {
	payload, err := json.Marshal(o)
	if err != nil {
		return err
	}
	headers := map[string]string{"content-type": "application/json", "outcome-type": string(o.Type)}
	return q.Producer.Publish(ctx, q.Topic(), o.Token, payload, headers)
}

// Consume blocks until ctx ends. A handler error leaves the message
// unmarked so it is delivered again.
func (q *OutcomeQueue) Consume(ctx context.Context, handle func(ctx context.Context, o payment.Outcome) error) error {
	consumer, err := NewConsumer(q.Brokers, q.GroupID, q.Config, HandlerFunc(func(ctx context.Context, msg *sarama.ConsumerMessage) error {
		o, ok := q.decode(msg)
		if !ok {
			return nil
		}
		return handle(ctx, o)
	}))
	if err != nil {
		return err
	}
	defer consumer.Close()
	return consumer.Run(ctx, []string{q.Topic()})
}

// decode drops messages that can never be processed.
func (q *OutcomeQueue) decode(msg *sarama.ConsumerMessage) (payment.Outcome, bool) {
	var o payment.Outcome
	if err := json.Unmarshal(msg.Value, &o); err != nil {
		q.logger().Error("dropping malformed payment outcome", "partition", msg.Partition, "offset", msg.Offset, "err", err)
		return payment.Outcome{}, false
	}
	return o, true
}

func (q *OutcomeQueue) logger() *slog.Logger {
	if q.Logger != nil {
		return q.Logger
	}
	return slog.Default()
}
