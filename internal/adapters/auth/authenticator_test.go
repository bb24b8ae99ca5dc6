package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tobyh/social-feed/internal/posts/domain"
)

func TestCheckAuthReturnsPrincipalFromContext(t *testing.T) {
	authenticator := NewContextAuthenticator()
	want := domain.Principal{ID: uuid.New(), Username: "alice"}

	ctx := WithPrincipal(context.Background(), want)

	got, err := authenticator.CheckAuth(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestCheckAuthFailsWithoutPrincipal(t *testing.T) {
	authenticator := NewContextAuthenticator()

	_, err := authenticator.CheckAuth(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoPrincipal))
}
