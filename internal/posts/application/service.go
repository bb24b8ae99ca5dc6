package application

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/tobyh/social-feed/internal/platform/apperror"
	"github.com/tobyh/social-feed/internal/platform/eventbus"
	"github.com/tobyh/social-feed/internal/platform/events"
	"github.com/tobyh/social-feed/internal/platform/logger"
	"github.com/tobyh/social-feed/internal/posts/domain"
	"github.com/tobyh/social-feed/internal/posts/ports"
)

// DeletedConfirmation is returned by DeletePost on success.
const DeletedConfirmation = "Post deleted successfully"

// Error definitions for service operations. Each failure kind the service
// can produce is its own sentinel so callers can tell them apart.
var (
	ErrUnauthenticated = apperror.New(
		apperror.CodeUnauthenticated,
		apperror.BusinessCodeAuthRequired,
		"authentication required",
		http.StatusUnauthorized,
	)

	ErrPostNotFound = apperror.New(
		apperror.CodeNotFound,
		apperror.BusinessCodePostNotFound,
		"Post not found",
		http.StatusNotFound,
	)

	ErrEmptyPostBody = apperror.New(
		apperror.CodeValidationFailed,
		apperror.BusinessCodeEmptyPostBody,
		"Post body must not be empty",
		http.StatusBadRequest,
	)

	ErrNotPostOwner = apperror.New(
		apperror.CodeForbidden,
		apperror.BusinessCodeNotPostOwner,
		"Action not allowed",
		http.StatusForbidden,
	)

	// ErrLikeTargetNotFound is the caller-input variant of a missing post:
	// liking a nonexistent post is a bad request, not a lookup miss.
	ErrLikeTargetNotFound = apperror.New(
		apperror.CodeValidationFailed,
		apperror.BusinessCodePostNotFound,
		"Post not found",
		http.StatusBadRequest,
	)
)

// PostsService implements the post lifecycle: create, fetch, delete, like
// toggling, and fan-out of creation events to subscribers.
type PostsService struct {
	store     ports.PostStore
	auth      ports.Authenticator
	eventBus  *eventbus.Bus
	logger    logger.Logger
	sanitizer *bluemonday.Policy
}

// NewPostsService creates a new posts service.
func NewPostsService(
	store ports.PostStore,
	auth ports.Authenticator,
	eventBus *eventbus.Bus,
	logger logger.Logger,
) *PostsService {
	// Posts are plain text; strip markup rather than store it.
	return &PostsService{
		store:     store,
		auth:      auth,
		eventBus:  eventBus,
		logger:    logger,
		sanitizer: bluemonday.StrictPolicy(),
	}
}

// GetPosts returns all posts ordered by creation time descending.
func (s *PostsService) GetPosts(ctx context.Context) ([]*domain.Post, error) {
	posts, err := s.store.FindAllByCreatedAtDesc(ctx)
	if err != nil {
		s.logger.Error(ctx, "failed to list posts", "error", err)
		return nil, apperror.Wrap(err,
			apperror.CodeInternalError,
			apperror.BusinessCodeGeneral,
			"failed to retrieve posts",
			http.StatusInternalServerError,
		)
	}
	return posts, nil
}

// GetPost returns the post with the given id. A malformed id is reported the
// same way as an absent post; a store fault stays a distinct internal error.
func (s *PostsService) GetPost(ctx context.Context, postID string) (*domain.Post, error) {
	id, err := uuid.Parse(postID)
	if err != nil {
		return nil, ErrPostNotFound
	}
	return s.findPost(ctx, id)
}

// CreatePost persists a new post owned by the calling principal and, only
// after successful persistence, publishes it on the NEW_POST topic.
func (s *PostsService) CreatePost(ctx context.Context, body string) (*domain.Post, error) {
	principal, err := s.auth.CheckAuth(ctx)
	if err != nil {
		return nil, ErrUnauthenticated
	}

	post, err := domain.NewPost(s.sanitizer.Sanitize(body), principal)
	if err != nil {
		if errors.Is(err, domain.ErrEmptyBody) {
			return nil, ErrEmptyPostBody
		}
		return nil, ErrUnauthenticated
	}

	if err := s.store.Insert(ctx, post); err != nil {
		s.logger.Error(ctx, "failed to create post", "error", err, "username", principal.Username)
		return nil, apperror.Wrap(err,
			apperror.CodeInternalError,
			apperror.BusinessCodeGeneral,
			"failed to create post",
			http.StatusInternalServerError,
		)
	}

	s.eventBus.Publish(ctx, eventbus.Event{
		Topic:   events.NewPostTopic,
		Payload: events.NewPostPayload{NewPost: post},
	})

	return post, nil
}

// DeletePost hard-deletes a post. Only the owning principal may delete it;
// anyone else gets an authorization failure and the post stays untouched.
func (s *PostsService) DeletePost(ctx context.Context, postID string) (string, error) {
	principal, err := s.auth.CheckAuth(ctx)
	if err != nil {
		return "", ErrUnauthenticated
	}

	id, err := uuid.Parse(postID)
	if err != nil {
		return "", ErrPostNotFound
	}

	post, err := s.findPost(ctx, id)
	if err != nil {
		return "", err
	}

	if !post.IsOwnedBy(principal.Username) {
		return "", ErrNotPostOwner
	}

	if err := s.store.DeleteByID(ctx, id); err != nil {
		if errors.Is(err, ports.ErrPostNotFound) {
			return "", ErrPostNotFound
		}
		s.logger.Error(ctx, "failed to delete post", "error", err, "postID", id)
		return "", apperror.Wrap(err,
			apperror.CodeInternalError,
			apperror.BusinessCodeGeneral,
			"failed to delete post",
			http.StatusInternalServerError,
		)
	}

	return DeletedConfirmation, nil
}

// LikePost toggles the calling principal's like on a post and returns the
// updated post. The read-modify-write runs inside one store transaction with
// the row locked, so concurrent toggles on the same post serialize rather
// than clobber each other.
func (s *PostsService) LikePost(ctx context.Context, postID string) (*domain.Post, error) {
	principal, err := s.auth.CheckAuth(ctx)
	if err != nil {
		return nil, ErrUnauthenticated
	}

	id, err := uuid.Parse(postID)
	if err != nil {
		return nil, ErrLikeTargetNotFound
	}

	var updated *domain.Post
	err = s.store.WithinTransaction(ctx, func(repo ports.PostRepository) error {
		post, err := repo.FindByIDForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, ports.ErrPostNotFound) {
				return ErrLikeTargetNotFound
			}
			s.logger.Error(ctx, "failed to find post for like", "error", err, "postID", id)
			return apperror.Wrap(err,
				apperror.CodeInternalError,
				apperror.BusinessCodeGeneral,
				"failed to retrieve post",
				http.StatusInternalServerError,
			)
		}

		post.ToggleLike(principal.Username, time.Now().UTC())

		if err := repo.Save(ctx, post); err != nil {
			s.logger.Error(ctx, "failed to save like toggle", "error", err, "postID", id)
			return apperror.Wrap(err,
				apperror.CodeInternalError,
				apperror.BusinessCodeGeneral,
				"failed to update post",
				http.StatusInternalServerError,
			)
		}

		updated = post
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// SubscribeNewPosts attaches an independent subscriber stream to the
// NEW_POST topic. Only posts created after the call are delivered; the
// stream is torn down when ctx is cancelled or the caller closes it.
func (s *PostsService) SubscribeNewPosts(ctx context.Context) *eventbus.Subscription {
	sub := s.eventBus.Subscribe(events.NewPostTopic)
	go func() {
		<-ctx.Done()
		sub.Close()
	}()
	return sub
}

// findPost fetches a post and handles not-found errors consistently.
func (s *PostsService) findPost(ctx context.Context, id uuid.UUID) (*domain.Post, error) {
	post, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ports.ErrPostNotFound) {
			return nil, ErrPostNotFound
		}
		s.logger.Error(ctx, "failed to find post", "error", err, "postID", id)
		return nil, apperror.Wrap(err,
			apperror.CodeInternalError,
			apperror.BusinessCodeGeneral,
			"failed to retrieve post",
			http.StatusInternalServerError,
		)
	}
	return post, nil
}
