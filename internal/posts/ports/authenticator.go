package ports

import (
	"context"

	"github.com/tobyh/social-feed/internal/posts/domain"
)

// Authenticator derives the authenticated principal from a request context.
// This is a driven port - the posts module depends on this capability but
// doesn't know how it's implemented. Mutations must not proceed when it
// fails.
type Authenticator interface {
	CheckAuth(ctx context.Context) (domain.Principal, error)
}
