package events

import (
	"github.com/tobyh/social-feed/internal/platform/eventbus"
	"github.com/tobyh/social-feed/internal/posts/domain"
)

// NewPostTopic carries one event per successfully persisted post.
const NewPostTopic eventbus.Topic = "NEW_POST"

// NewPostPayload is published on NewPostTopic. It carries the full saved
// post under the newPost field, which is exactly the shape subscription
// clients receive.
type NewPostPayload struct {
	NewPost *domain.Post `json:"newPost"`
}
