package memory_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appoutbox "staybook/internal/app/outbox"
	"staybook/internal/app/uow"
	"staybook/internal/domain/payment"
	"staybook/internal/infra/storage/memory"
)

func TestOutboxKeepsNewestRecords(t *testing.T) {
	box := memory.NewOutboxWithLimit(3)
	for i := 0; i < 5; i++ {
		require.NoError(t, box.Add(context.Background(), appoutbox.EventRecord{ID: fmt.Sprintf("evt-%d", i)}))
	}

	var ids []string
	for _, r := range box.Records() {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"evt-2", "evt-3", "evt-4"}, ids)
}

func TestOutboxPublishesOnCommitOnly(t *testing.T) {
	box := memory.NewOutbox()
	f := memory.Factory{Store: memory.NewStore()}

	err := uow.Run(context.Background(), f, 1, func(ctx context.Context, _ uow.UnitOfWork) error {
		require.NoError(t, box.Add(ctx, appoutbox.EventRecord{ID: "evt-lost"}))
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)
	assert.Empty(t, box.Records())

	require.NoError(t, uow.Run(context.Background(), f, 1, func(ctx context.Context, _ uow.UnitOfWork) error {
		return box.Add(ctx, appoutbox.EventRecord{ID: "evt-kept"})
	}))
	require.Len(t, box.Records(), 1)
	assert.Equal(t, "evt-kept", box.Records()[0].ID)
}

func TestPaymentEventLogForgetsOldest(t *testing.T) {
	log := memory.NewPaymentEventLogWithLimit(2)
	ctx := context.Background()
	outcome := func(id string) payment.Outcome {
		return payment.Outcome{ID: id, Type: payment.OutcomeFailed, Token: "pi_1"}
	}

	require.NoError(t, log.Append(ctx, outcome("evt-1")))
	require.NoError(t, log.Append(ctx, outcome("evt-1")))
	require.NoError(t, log.Append(ctx, outcome("evt-2")))
	require.NoError(t, log.Append(ctx, outcome("evt-3")))

	events := log.Events()
	require.Len(t, events, 2)
	assert.Equal(t, "evt-2", events[0].ID)
	assert.Equal(t, "evt-3", events[1].ID)

	require.NoError(t, log.Append(ctx, outcome("evt-1")))
	assert.Equal(t, "evt-1", log.Events()[1].ID)
}
