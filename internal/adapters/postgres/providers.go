package postgres

import (
	"github.com/google/wire"
	platformpg "github.com/tobyh/social-feed/internal/platform/postgres"
	"github.com/tobyh/social-feed/internal/posts/ports"
)

// ProviderSet is the wire provider set for PostgreSQL adapters.
var ProviderSet = wire.NewSet(
	platformpg.NewTransactionManager,
	NewPostRepository,
	wire.Bind(new(ports.PostStore), new(*PostRepository)),
)
