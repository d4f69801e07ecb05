package commands

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoCommand struct{ Text string }

func (echoCommand) Key() string { return "test.echo" }

type otherCommand struct{}

func (otherCommand) Key() string { return "test.other" }

func TestDispatchTyped(t *testing.T) {
	bus := NewInMemoryBus()
	RegisterHandler[echoCommand, string](bus, "test.echo", HandlerFunc[echoCommand, string](func(_ context.Context, cmd echoCommand) (string, error) {
		return "echo:" + cmd.Text, nil
	}))

	out, err := Dispatch[echoCommand, string](context.Background(), bus, echoCommand{Text: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "echo:hi", out)

	_, err = Dispatch[echoCommand, int](context.Background(), bus, echoCommand{})
	assert.ErrorIs(t, err, ErrResultType)

	_, err = Dispatch[otherCommand, string](context.Background(), bus, otherCommand{})
	assert.ErrorIs(t, err, ErrNoHandler)

	_, err = Dispatch[echoCommand, string](context.Background(), nil, echoCommand{})
	assert.ErrorIs(t, err, ErrBusRequired)
}

func TestDuplicateRegistrationPanics(t *testing.T) {
	bus := NewInMemoryBus()
	h := HandlerFunc[echoCommand, string](func(context.Context, echoCommand) (string, error) { return "", nil })
	RegisterHandler[echoCommand, string](bus, "test.echo", h)
	assert.Panics(t, func() { RegisterHandler[echoCommand, string](bus, "test.echo", h) })
}

func TestKeysAreSorted(t *testing.T) {
	bus := NewInMemoryBus()
	RegisterHandler[otherCommand, struct{}](bus, "test.other", HandlerFunc[otherCommand, struct{}](func(context.Context, otherCommand) (struct{}, error) { return struct{}{}, nil }))
	RegisterHandler[echoCommand, string](bus, "test.echo", HandlerFunc[echoCommand, string](func(context.Context, echoCommand) (string, error) { return "", nil }))
	assert.Equal(t, []string{"test.echo", "test.other"}, bus.Keys())
}
