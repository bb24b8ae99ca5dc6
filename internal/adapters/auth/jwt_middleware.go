package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jwt"
	"github.com/tobyh/social-feed/internal/posts/domain"
)

var (
	ErrMissingToken    = errors.New("missing authentication token")
	ErrInvalidToken    = errors.New("invalid authentication token")
	ErrTokenExpired    = errors.New("token has expired")
	ErrMissingSubject  = errors.New("missing subject in token")
	ErrMissingUsername = errors.New("missing username in token")
)

type principalContextKey struct{}

// JWTMiddleware validates bearer tokens against a JWKS endpoint and places
// the authenticated principal into the request context. Tokens must carry
// the user id in `sub` and the display name in a `username` claim.
type JWTMiddleware struct {
	jwksEndpoint string
	issuer       string
	cache        *jwk.Cache
}

// NewJWTMiddleware creates the middleware with a self-refreshing JWKS cache.
func NewJWTMiddleware(ctx context.Context, jwksEndpoint string, issuer string) (*JWTMiddleware, error) {
	cache, err := jwk.NewCache(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache: %w", err)
	}

	if err := cache.Register(ctx, jwksEndpoint); err != nil {
		return nil, fmt.Errorf("failed to register JWKS URL: %w", err)
	}

	// Initial fetch validates the endpoint before the server starts.
	if _, err := cache.Lookup(ctx, jwksEndpoint); err != nil {
		return nil, fmt.Errorf("failed to fetch initial JWKS: %w", err)
	}

	return &JWTMiddleware{
		jwksEndpoint: jwksEndpoint,
		issuer:       issuer,
		cache:        cache,
	}, nil
}

// Middleware authenticates the request and stores the principal in context.
func (m *JWTMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeJSONError(w, "unauthorized", ErrMissingToken.Error(), http.StatusUnauthorized)
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			writeJSONError(w, "unauthorized", "Invalid authorization header format", http.StatusUnauthorized)
			return
		}

		keySet, err := m.cache.Lookup(r.Context(), m.jwksEndpoint)
		if err != nil {
			writeJSONError(w, "internal_server_error", fmt.Sprintf("Failed to get JWKS: %v", err), http.StatusInternalServerError)
			return
		}

		token, err := jwt.ParseString(
			tokenString,
			jwt.WithKeySet(keySet),
			jwt.WithValidate(true),
			jwt.WithIssuer(m.issuer),
		)
		if err != nil {
			if strings.Contains(err.Error(), "exp not satisfied") || strings.Contains(err.Error(), "expired") {
				writeJSONError(w, "token_expired", ErrTokenExpired.Error(), http.StatusUnauthorized)
				return
			}
			writeJSONError(w, "invalid_token", ErrInvalidToken.Error(), http.StatusUnauthorized)
			return
		}

		var subject string
		if err := token.Get("sub", &subject); err != nil || subject == "" {
			writeJSONError(w, "invalid_token", ErrMissingSubject.Error(), http.StatusUnauthorized)
			return
		}

		userID, err := uuid.Parse(subject)
		if err != nil {
			writeJSONError(w, "invalid_token", "Invalid subject format", http.StatusUnauthorized)
			return
		}

		var username string
		if err := token.Get("username", &username); err != nil || username == "" {
			writeJSONError(w, "invalid_token", ErrMissingUsername.Error(), http.StatusUnauthorized)
			return
		}

		principal := domain.Principal{ID: userID, Username: username}
		ctx := context.WithValue(r.Context(), principalContextKey{}, principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// PrincipalFromContext extracts the principal set by the JWT middleware.
func PrincipalFromContext(ctx context.Context) (domain.Principal, bool) {
	principal, ok := ctx.Value(principalContextKey{}).(domain.Principal)
	return principal, ok
}

// WithPrincipal returns a context carrying the given principal. Intended for
// tests and internal callers that bypass the HTTP middleware.
func WithPrincipal(ctx context.Context, principal domain.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, principal)
}

func writeJSONError(w http.ResponseWriter, code string, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error":   code,
		"message": message,
	})
}
