package eventbus

import (
	"context"
	"sync"
	"time"

	"fleetstore/internal/shared/logger"
)

// Event is a generic bus event.
type Event interface {
	Type() string
	Data() interface{}
	Timestamp() time.Time
	Source() string
}

// Handler consumes one event. Handler errors are logged and never replayed:
// re-delivering a document change out of order would be worse than dropping
// it for that subscriber.
type Handler func(ctx context.Context, event Event) error

// Unsubscribe cancels one subscription. Safe to call more than once.
type Unsubscribe func()

// Bus is the contract for event bus implementations.
type Bus interface {
	Subscribe(eventType string, handler Handler) Unsubscribe
	Publish(ctx context.Context, event Event)
	PublishAndForget(ctx context.Context, event Event)
	SubscriberCount(eventType string) int
}

// EventBus is an in-memory bus. Handlers run synchronously in Publish order,
// so a subscriber observes mutations in the order they committed.
type EventBus struct {
	mu       sync.RWMutex
	handlers map[string]map[int]Handler
	nextID   int
	log      logger.Logger
}

// NewEventBus creates an in-memory event bus.
func NewEventBus(log logger.Logger) *EventBus {
	if log == nil {
		log = logger.NewNop()
	}
	return &EventBus{
		handlers: make(map[string]map[int]Handler),
		log:      log,
	}
}

// Subscribe registers handler for eventType and returns its cancel func.
func (eb *EventBus) Subscribe(eventType string, handler Handler) Unsubscribe {
	eb.mu.Lock()
	if eb.handlers[eventType] == nil {
		eb.handlers[eventType] = make(map[int]Handler)
	}
	id := eb.nextID
	eb.nextID++
	eb.handlers[eventType][id] = handler
	eb.mu.Unlock()

	eb.log.Debugf("suscripción %d registrada para %s", id, eventType)

	var once sync.Once
	return func() {
		once.Do(func() {
			eb.mu.Lock()
			if hs, ok := eb.handlers[eventType]; ok {
				delete(hs, id)
				if len(hs) == 0 {
					delete(eb.handlers, eventType)
				}
			}
			eb.mu.Unlock()
			eb.log.Debugf("suscripción %d cancelada para %s", id, eventType)
		})
	}
}

// Publish delivers event to every handler registered for its type. Handler
// failures are logged and do not stop delivery to the remaining handlers.
func (eb *EventBus) Publish(ctx context.Context, event Event) {
	eb.mu.RLock()
	hs := make([]Handler, 0, len(eb.handlers[event.Type()]))
	for _, h := range eb.handlers[event.Type()] {
		hs = append(hs, h)
	}
	eb.mu.RUnlock()

	for _, h := range hs {
		if err := h(ctx, event); err != nil {
			eb.log.Errorf("handler de evento %s falló: %v", event.Type(), err)
		}
	}
}

// PublishAndForget delivers the event from a separate goroutine.
func (eb *EventBus) PublishAndForget(ctx context.Context, event Event) {
	go eb.Publish(ctx, event)
}

// SubscriberCount returns how many handlers are registered for eventType.
func (eb *EventBus) SubscriberCount(eventType string) int {
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	return len(eb.handlers[eventType])
}

// BasicEvent is the plain Event implementation used across the module.
type BasicEvent struct {
	eventType string
	data      interface{}
	timestamp time.Time
	source    string
}

// NewBasicEvent creates an event without a source attribution.
func NewBasicEvent(eventType string, data interface{}) Event {
	return NewBasicEventWithSource(eventType, data, "local")
}

// NewBasicEventWithSource creates an event attributed to source.
func NewBasicEventWithSource(eventType string, data interface{}, source string) Event {
	return &BasicEvent{
		eventType: eventType,
		data:      data,
		timestamp: time.Now(),
		source:    source,
	}
}

func (e *BasicEvent) Type() string         { return e.eventType }
func (e *BasicEvent) Data() interface{}    { return e.data }
func (e *BasicEvent) Timestamp() time.Time { return e.timestamp }
func (e *BasicEvent) Source() string       { return e.source }
