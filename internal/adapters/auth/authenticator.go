package auth

import (
	"context"
	"net/http"

	"github.com/tobyh/social-feed/internal/platform/apperror"
	"github.com/tobyh/social-feed/internal/posts/domain"
)

// ErrNoPrincipal is returned when no authenticated principal can be derived
// from the context.
var ErrNoPrincipal = apperror.New(
	apperror.CodeUnauthenticated,
	apperror.BusinessCodeAuthRequired,
	"no authenticated principal in context",
	http.StatusUnauthorized,
)

// ContextAuthenticator implements ports.Authenticator by recovering the
// principal the JWT middleware stored in the request context.
type ContextAuthenticator struct{}

// NewContextAuthenticator creates a context-backed authenticator.
func NewContextAuthenticator() *ContextAuthenticator {
	return &ContextAuthenticator{}
}

// CheckAuth returns the authenticated principal or fails.
func (a *ContextAuthenticator) CheckAuth(ctx context.Context) (domain.Principal, error) {
	principal, ok := PrincipalFromContext(ctx)
	if !ok {
		return domain.Principal{}, ErrNoPrincipal
	}
	return principal, nil
}
