package ports

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/tobyh/social-feed/internal/posts/domain"
)

// ErrPostNotFound is the canonical error repository implementations return
// when a post id does not resolve to a row. The PostgreSQL implementation
// translates pgx.ErrNoRows to this.
var ErrPostNotFound = errors.New("post not found")

// PostRepository is the persistence contract the post service consumes.
type PostRepository interface {
	// FindAllByCreatedAtDesc retrieves every post, most recent first.
	FindAllByCreatedAtDesc(ctx context.Context) ([]*domain.Post, error)

	// FindByID retrieves a post by its id.
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Post, error)

	// FindByIDForUpdate retrieves a post and locks its row for the duration
	// of the surrounding transaction. Only meaningful inside WithinTransaction.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Post, error)

	// Insert persists a new post.
	Insert(ctx context.Context, post *domain.Post) error

	// Save replaces an existing post. In practice only the like list changes;
	// the creator identity and body are immutable.
	Save(ctx context.Context, post *domain.Post) error

	// DeleteByID hard-deletes a post; its embedded likes disappear with it.
	DeleteByID(ctx context.Context, id uuid.UUID) error
}

// PostStore is a PostRepository that can also scope operations to a single
// store transaction. The like toggle runs inside one so concurrent toggles
// on the same post serialize instead of clobbering each other.
type PostStore interface {
	PostRepository

	// WithinTransaction runs fn against a repository bound to one
	// transaction, committing on nil and rolling back on error.
	WithinTransaction(ctx context.Context, fn func(repo PostRepository) error) error
}
