package application

import (
	"context"

	"github.com/tobyh/social-feed/internal/platform/eventbus"
	"github.com/tobyh/social-feed/internal/platform/events"
	"github.com/tobyh/social-feed/internal/platform/logger"
)

// PostEventLogger is a bus listener that writes a structured log line for
// every post creation event. It rides the callback side of the bus, so it
// observes exactly what subscribers are delivered.
type PostEventLogger struct {
	logger logger.Logger
}

// NewPostEventLogger creates the listener and registers it on the bus.
func NewPostEventLogger(bus *eventbus.Bus, logger logger.Logger) *PostEventLogger {
	l := &PostEventLogger{logger: logger}
	bus.SubscribeFunc(events.NewPostTopic, l.handleNewPost)
	return l
}

func (l *PostEventLogger) handleNewPost(ctx context.Context, event eventbus.Event) error {
	payload, ok := event.Payload.(events.NewPostPayload)
	if !ok || payload.NewPost == nil {
		l.logger.Warn(ctx, "unexpected payload on new post topic", "topic", event.Topic)
		return nil
	}

	l.logger.Info(ctx, "post created",
		"postID", payload.NewPost.ID,
		"username", payload.NewPost.Username,
		"createdAt", payload.NewPost.CreatedAt,
	)
	return nil
}
