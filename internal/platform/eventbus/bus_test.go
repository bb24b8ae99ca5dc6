package eventbus_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/tobyh/social-feed/internal/platform/eventbus"
)

// mockLogger implements the logger.Logger interface for testing
type mockLogger struct {
	mu     sync.Mutex
	errors []string
}

func (m *mockLogger) Debug(ctx context.Context, msg string, args ...any) {}
func (m *mockLogger) Info(ctx context.Context, msg string, args ...any)  {}
func (m *mockLogger) Warn(ctx context.Context, msg string, args ...any)  {}
func (m *mockLogger) Error(ctx context.Context, msg string, args ...any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, msg)
}

func (m *mockLogger) getErrors() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]string, len(m.errors))
	copy(result, m.errors)
	return result
}

func receiveOne(t *testing.T, sub *eventbus.Subscription) eventbus.Event {
	t.Helper()
	select {
	case event := <-sub.C():
		return event
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return eventbus.Event{}
	}
}

func TestSubscriptionReceivesInPublishOrder(t *testing.T) {
	bus := eventbus.NewBus(&mockLogger{})
	topic := eventbus.Topic("test.order")

	sub := bus.Subscribe(topic)
	defer sub.Close()

	for i := 0; i < 5; i++ {
		bus.Publish(context.Background(), eventbus.Event{Topic: topic, Payload: i})
	}

	for i := 0; i < 5; i++ {
		event := receiveOne(t, sub)
		if event.Payload != i {
			t.Fatalf("expected payload %d, got %v", i, event.Payload)
		}
	}
}

func TestSubscriptionsAreIndependent(t *testing.T) {
	bus := eventbus.NewBus(&mockLogger{})
	topic := eventbus.Topic("test.independent")

	sub1 := bus.Subscribe(topic)
	defer sub1.Close()
	sub2 := bus.Subscribe(topic)
	defer sub2.Close()

	bus.Publish(context.Background(), eventbus.Event{Topic: topic, Payload: "hello"})

	if got := receiveOne(t, sub1).Payload; got != "hello" {
		t.Errorf("sub1: expected 'hello', got %v", got)
	}
	if got := receiveOne(t, sub2).Payload; got != "hello" {
		t.Errorf("sub2: expected 'hello', got %v", got)
	}
}

func TestLateSubscriberMissesEarlierEvents(t *testing.T) {
	bus := eventbus.NewBus(&mockLogger{})
	topic := eventbus.Topic("test.late")

	bus.Publish(context.Background(), eventbus.Event{Topic: topic, Payload: "before"})

	sub := bus.Subscribe(topic)
	defer sub.Close()

	bus.Publish(context.Background(), eventbus.Event{Topic: topic, Payload: "after"})

	event := receiveOne(t, sub)
	if event.Payload != "after" {
		t.Errorf("expected only the event published after subscribing, got %v", event.Payload)
	}

	select {
	case extra := <-sub.C():
		t.Errorf("unexpected extra event: %v", extra.Payload)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestCloseStopsDeliveryForOneSubscriberOnly(t *testing.T) {
	bus := eventbus.NewBus(&mockLogger{})
	topic := eventbus.Topic("test.close")

	closed := bus.Subscribe(topic)
	open := bus.Subscribe(topic)
	defer open.Close()

	closed.Close()
	closed.Close() // idempotent

	bus.Publish(context.Background(), eventbus.Event{Topic: topic, Payload: "still flowing"})

	if got := receiveOne(t, open).Payload; got != "still flowing" {
		t.Errorf("expected open subscriber to receive event, got %v", got)
	}

	select {
	case event := <-closed.C():
		t.Errorf("closed subscription received event: %v", event.Payload)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSubscribeFuncHandlerIsCalled(t *testing.T) {
	bus := eventbus.NewBus(&mockLogger{})
	topic := eventbus.Topic("test.handler")

	called := make(chan eventbus.Event, 1)
	bus.SubscribeFunc(topic, func(ctx context.Context, event eventbus.Event) error {
		called <- event
		return nil
	})

	bus.Publish(context.Background(), eventbus.Event{Topic: topic, Payload: "payload"})

	select {
	case event := <-called:
		if event.Payload != "payload" {
			t.Errorf("expected 'payload', got %v", event.Payload)
		}
	case <-time.After(time.Second):
		t.Fatal("handler was not called")
	}
}

func TestHandlerErrorIsLogged(t *testing.T) {
	logger := &mockLogger{}
	bus := eventbus.NewBus(logger)
	topic := eventbus.Topic("test.handler.error")

	bus.SubscribeFunc(topic, func(ctx context.Context, event eventbus.Event) error {
		return errors.New("handler failed")
	})

	bus.Publish(context.Background(), eventbus.Event{Topic: topic, Payload: "x"})

	time.Sleep(50 * time.Millisecond)

	logged := logger.getErrors()
	if len(logged) != 1 {
		t.Fatalf("expected 1 error log, got %d", len(logged))
	}
	if logged[0] != "event handler failed" {
		t.Errorf("expected 'event handler failed', got %v", logged[0])
	}
}

func TestPublishWithNoSubscribers(t *testing.T) {
	logger := &mockLogger{}
	bus := eventbus.NewBus(logger)

	// Must not panic or log
	bus.Publish(context.Background(), eventbus.Event{
		Topic:   eventbus.Topic("no.subscribers"),
		Payload: "test",
	})

	if logged := logger.getErrors(); len(logged) != 0 {
		t.Errorf("expected no errors, got %d", len(logged))
	}
}

func TestTopicsAreIsolated(t *testing.T) {
	bus := eventbus.NewBus(&mockLogger{})

	sub := bus.Subscribe(eventbus.Topic("topic.a"))
	defer sub.Close()

	bus.Publish(context.Background(), eventbus.Event{Topic: eventbus.Topic("topic.b"), Payload: "b"})

	select {
	case event := <-sub.C():
		t.Errorf("subscriber of topic.a received event from another topic: %v", event.Payload)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestConcurrentPublishDeliversEverything(t *testing.T) {
	bus := eventbus.NewBus(&mockLogger{})
	topic := eventbus.Topic("test.concurrent")

	sub := bus.Subscribe(topic)
	defer sub.Close()

	const publishCount = 50
	var wg sync.WaitGroup
	for i := 0; i < publishCount; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			bus.Publish(context.Background(), eventbus.Event{Topic: topic, Payload: id})
		}(i)
	}
	wg.Wait()

	seen := make(map[int]bool)
	for i := 0; i < publishCount; i++ {
		event := receiveOne(t, sub)
		id, ok := event.Payload.(int)
		if !ok {
			t.Fatalf("expected int payload, got %T", event.Payload)
		}
		if seen[id] {
			t.Fatalf("event %d delivered twice", id)
		}
		seen[id] = true
	}
}
