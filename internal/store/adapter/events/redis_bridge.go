// Package events bridges the in-process event bus to Redis pub/sub so
// realtime listeners see mutations made by other instances of the service.
package events

import (
	"context"
	"encoding/json"

	"fleetstore/internal/shared/eventbus"
	"fleetstore/internal/shared/logger"
	"fleetstore/internal/store/domain/model"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultChannel is the Redis pub/sub channel document events travel on.
const DefaultChannel = "fleetstore.documentos"

// sourceRedis marks bus events injected from Redis, so the forwarder does not
// bounce them back out and create a loop between instances.
const sourceRedis = "redis"

// envelope is the wire form of one document event.
type envelope struct {
	Origin string              `json:"origin"`
	Type   string              `json:"type"`
	Event  model.DocumentEvent `json:"event"`
}

// RedisBridge fans document events out to, and in from, a Redis channel.
// Outbound: every locally published document event is forwarded. Inbound:
// events published by other instances are re-published on the local bus, so
// listeners behave the same whether the mutation happened here or elsewhere.
//
// Delivery is at-most-once: a dropped pub/sub message is a missed refresh,
// not data loss, since listeners re-query the store on every event.
type RedisBridge struct {
	client  *redis.Client
	bus     eventbus.Bus
	log     logger.Logger
	channel string
	// origin identifies this instance inside envelopes; inbound envelopes
	// carrying it are our own and get dropped.
	origin string

	unsubs []eventbus.Unsubscribe
	sub    *redis.PubSub
}

// NewRedisBridge wires client and bus together on channel. An empty channel
// selects DefaultChannel.
func NewRedisBridge(client *redis.Client, bus eventbus.Bus, log logger.Logger, channel string) *RedisBridge {
	if log == nil {
		log = logger.NewNop()
	}
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisBridge{
		client:  client,
		bus:     bus,
		log:     log.WithComponent("redisbridge"),
		channel: channel,
		origin:  uuid.NewString(),
	}
}

// Start begins forwarding in both directions. The inbound pump stops when ctx
// is canceled or Stop is called.
func (b *RedisBridge) Start(ctx context.Context) error {
	for _, t := range []string{model.EventDocumentoCreado, model.EventDocumentoActualizado, model.EventDocumentoEliminado} {
		b.unsubs = append(b.unsubs, b.bus.Subscribe(t, b.forward))
	}

	b.sub = b.client.Subscribe(ctx, b.channel)
	// Receive forces the SUBSCRIBE round trip so a broken Redis surfaces here
	// instead of as a silently dead pump.
	if _, err := b.sub.Receive(ctx); err != nil {
		b.Stop()
		return err
	}

	go b.pump(ctx)
	b.log.Infof("puente redis activo en el canal %s", b.channel)
	return nil
}

// Stop cancels both directions. Safe to call more than once.
func (b *RedisBridge) Stop() {
	for _, u := range b.unsubs {
		u()
	}
	b.unsubs = nil
	if b.sub != nil {
		if err := b.sub.Close(); err != nil {
			b.log.Errorf("error cerrando suscripción redis: %v", err)
		}
		b.sub = nil
	}
}

// forward publishes one local document event to Redis.
func (b *RedisBridge) forward(ctx context.Context, e eventbus.Event) error {
	if e.Source() == sourceRedis {
		return nil
	}
	ev, ok := e.Data().(model.DocumentEvent)
	if !ok {
		return nil
	}

	payload, err := encodeEnvelope(envelope{Origin: b.origin, Type: e.Type(), Event: ev})
	if err != nil {
		b.log.Errorf("evento de documento no serializable: %v", err)
		return nil
	}
	if err := b.client.Publish(ctx, b.channel, payload).Err(); err != nil {
		b.log.Errorf("error publicando evento en redis: %v", err)
	}
	return nil
}

// pump re-publishes inbound Redis messages on the local bus.
func (b *RedisBridge) pump(ctx context.Context) {
	ch := b.sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			env, err := decodeEnvelope([]byte(msg.Payload))
			if err != nil {
				b.log.Errorf("mensaje redis ilegible: %v", err)
				continue
			}
			if env.Origin == b.origin {
				continue
			}
			b.bus.Publish(ctx, eventbus.NewBasicEventWithSource(env.Type, env.Event, sourceRedis))
		}
	}
}

func encodeEnvelope(env envelope) ([]byte, error) {
	return json.Marshal(env)
}

func decodeEnvelope(payload []byte) (envelope, error) {
	var env envelope
	err := json.Unmarshal(payload, &env)
	return env, err
}
