package eventbus

import (
	"context"
	"errors"
	"testing"

	"fleetstore/internal/shared/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishDeliversToSubscribers(t *testing.T) {
	bus := NewEventBus(logger.NewNop())

	var got []interface{}
	bus.Subscribe("documento.creado", func(ctx context.Context, e Event) error {
		got = append(got, e.Data())
		return nil
	})

	bus.Publish(context.Background(), NewBasicEvent("documento.creado", "payload"))

	require.Len(t, got, 1)
	assert.Equal(t, "payload", got[0])
}

func TestPublishIgnoresOtherTypes(t *testing.T) {
	bus := NewEventBus(nil)

	called := false
	bus.Subscribe("documento.eliminado", func(ctx context.Context, e Event) error {
		called = true
		return nil
	})

	bus.Publish(context.Background(), NewBasicEvent("documento.creado", nil))

	assert.False(t, called)
}

func TestUnsubscribeIsIdempotent(t *testing.T) {
	bus := NewEventBus(nil)

	calls := 0
	unsub := bus.Subscribe("documento.actualizado", func(ctx context.Context, e Event) error {
		calls++
		return nil
	})

	bus.Publish(context.Background(), NewBasicEvent("documento.actualizado", nil))
	unsub()
	unsub()
	bus.Publish(context.Background(), NewBasicEvent("documento.actualizado", nil))

	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, bus.SubscriberCount("documento.actualizado"))
}

func TestUnsubscribeOnlyRemovesOwnHandler(t *testing.T) {
	bus := NewEventBus(nil)

	var first, second int
	unsubFirst := bus.Subscribe("e", func(ctx context.Context, e Event) error { first++; return nil })
	bus.Subscribe("e", func(ctx context.Context, e Event) error { second++; return nil })

	unsubFirst()
	bus.Publish(context.Background(), NewBasicEvent("e", nil))

	assert.Equal(t, 0, first)
	assert.Equal(t, 1, second)
}

func TestHandlerErrorDoesNotStopDelivery(t *testing.T) {
	bus := NewEventBus(nil)

	delivered := false
	bus.Subscribe("e", func(ctx context.Context, e Event) error { return errors.New("boom") })
	bus.Subscribe("e", func(ctx context.Context, e Event) error { delivered = true; return nil })

	bus.Publish(context.Background(), NewBasicEvent("e", nil))

	assert.True(t, delivered)
}

func TestBasicEventWithSource(t *testing.T) {
	e := NewBasicEventWithSource("e", 1, "instancia-a")

	assert.Equal(t, "e", e.Type())
	assert.Equal(t, 1, e.Data())
	assert.Equal(t, "instancia-a", e.Source())
	assert.False(t, e.Timestamp().IsZero())
}
