package eventbus

import "sync"

// Subscription is one subscriber's view of a topic: an unbounded FIFO stream
// of the events published after it was created. The stream never completes
// on its own; it ends only when the subscriber calls Close.
//
// Events are buffered in an internal queue and drained lazily into C by a
// pump goroutine, so a slow consumer delays only itself, never the
// publisher or other subscribers.
type Subscription struct {
	bus   *Bus
	topic Topic

	mu     sync.Mutex // protects queue and closed
	queue  []Event
	closed bool

	wake chan struct{}
	out  chan Event
	done chan struct{}

	closeOnce sync.Once
}

func newSubscription(bus *Bus, topic Topic) *Subscription {
	sub := &Subscription{
		bus:   bus,
		topic: topic,
		wake:  make(chan struct{}, 1),
		out:   make(chan Event),
		done:  make(chan struct{}),
	}
	go sub.pump()
	return sub
}

// C returns the channel events are delivered on, in publish order.
func (s *Subscription) C() <-chan Event {
	return s.out
}

// Topic returns the topic this subscription is attached to.
func (s *Subscription) Topic() Topic {
	return s.topic
}

// Close detaches the subscription from the bus and stops delivery. Events
// not yet consumed are dropped. Close is idempotent and only affects this
// subscriber.
func (s *Subscription) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.queue = nil
		s.mu.Unlock()
		close(s.done)
		s.bus.unsubscribe(s)
	})
}

// enqueue appends an event to the internal queue and wakes the pump.
func (s *Subscription) enqueue(event Event) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.queue = append(s.queue, event)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// pump drains the queue into the out channel until the subscription closes.
func (s *Subscription) pump() {
	for {
		select {
		case <-s.done:
			return
		case <-s.wake:
		}

		for {
			s.mu.Lock()
			if len(s.queue) == 0 {
				s.mu.Unlock()
				break
			}
			event := s.queue[0]
			s.queue = s.queue[1:]
			s.mu.Unlock()

			select {
			case s.out <- event:
			case <-s.done:
				return
			}
		}
	}
}
