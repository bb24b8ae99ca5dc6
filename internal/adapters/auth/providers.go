package auth

import (
	"github.com/google/wire"
	"github.com/tobyh/social-feed/internal/posts/ports"
)

// ProviderSet is the wire provider set for authentication adapters.
var ProviderSet = wire.NewSet(
	NewContextAuthenticator,
	wire.Bind(new(ports.Authenticator), new(*ContextAuthenticator)),
)
