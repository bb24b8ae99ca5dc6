package eventbus

import (
	"context"
	"sync"

	"github.com/tobyh/social-feed/internal/platform/logger"
)

// Bus is an in-process publish/subscribe primitive. It supports two kinds of
// subscribers: callback handlers (SubscribeFunc) and per-subscriber event
// streams (Subscribe). Events are delivered to subscribers registered at
// publish time; there is no durable queue, so late subscribers miss earlier
// events.
type Bus struct {
	mu       sync.RWMutex // protects handlers and streams
	handlers map[Topic][]Handler
	streams  map[Topic][]*Subscription
	logger   logger.Logger
}

// NewBus creates a new event bus.
func NewBus(logger logger.Logger) *Bus {
	return &Bus{
		handlers: make(map[Topic][]Handler),
		streams:  make(map[Topic][]*Subscription),
		logger:   logger,
	}
}

// SubscribeFunc registers a callback handler for a topic.
func (b *Bus) SubscribeFunc(topic Topic, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[topic] = append(b.handlers[topic], handler)
}

// Subscribe attaches a new independent stream to a topic. Each call returns
// its own Subscription: events published from this moment on are delivered
// to it in publish order, and closing it has no effect on other subscribers.
func (b *Bus) Subscribe(topic Topic) *Subscription {
	sub := newSubscription(b, topic)
	b.mu.Lock()
	b.streams[topic] = append(b.streams[topic], sub)
	b.mu.Unlock()
	return sub
}

// Publish delivers an event to every current subscriber of its topic.
// Handlers run in their own goroutines; streams are enqueued synchronously
// so per-subscriber ordering matches publish order. Publish never blocks on
// a slow consumer.
func (b *Bus) Publish(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.handlers[event.Topic]...)
	streams := append([]*Subscription(nil), b.streams[event.Topic]...)
	b.mu.RUnlock()

	for _, handler := range handlers {
		go func(h Handler) {
			if err := h(ctx, event); err != nil {
				b.logger.Error(ctx, "event handler failed", "topic", event.Topic, "error", err)
			}
		}(handler)
	}

	for _, sub := range streams {
		sub.enqueue(event)
	}
}

// unsubscribe detaches a stream from the bus. Called by Subscription.Close.
func (b *Bus) unsubscribe(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.streams[sub.topic]
	for i, s := range subs {
		if s == sub {
			b.streams[sub.topic] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
}
