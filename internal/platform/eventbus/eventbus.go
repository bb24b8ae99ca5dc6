package eventbus

import "context"

// Topic is a named channel on the bus.
type Topic string

// Event is a message passed on the bus.
type Event struct {
	Topic   Topic
	Payload any
}

// Handler is a callback invoked for every event published on a topic it is
// registered for. Handlers run asynchronously; a returned error is logged,
// not propagated to the publisher.
type Handler func(ctx context.Context, event Event) error
