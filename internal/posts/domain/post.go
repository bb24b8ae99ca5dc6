package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Validation errors
var (
	ErrEmptyBody        = errors.New("post body must not be empty")
	ErrInvalidPrincipal = errors.New("principal must carry an id and a username")
)

// Principal is the authenticated identity performing an operation.
type Principal struct {
	ID       uuid.UUID
	Username string
}

// Like records that a user liked a post. Within a post's like list there is
// at most one entry per username.
type Like struct {
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"createdAt"`
}

// Post is a feed entry. Username and UserID denormalize the creating
// principal and never change after creation; Likes is insertion-ordered.
type Post struct {
	ID        uuid.UUID `json:"id"`
	Body      string    `json:"body"`
	Username  string    `json:"username"`
	UserID    uuid.UUID `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
	Likes     []Like    `json:"likes"`
}

// NewPost creates a post owned by the given principal. The body must contain
// at least one non-whitespace character.
func NewPost(body string, author Principal) (*Post, error) {
	if strings.TrimSpace(body) == "" {
		return nil, ErrEmptyBody
	}
	if author.ID == uuid.Nil || author.Username == "" {
		return nil, ErrInvalidPrincipal
	}

	return &Post{
		ID:        uuid.New(),
		Body:      body,
		Username:  author.Username,
		UserID:    author.ID,
		CreatedAt: time.Now().UTC(),
		Likes:     []Like{},
	}, nil
}

// IsOwnedBy reports whether the given username is the post's owner. Only the
// owner may delete the post.
func (p *Post) IsOwnedBy(username string) bool {
	return p.Username == username
}

// LikedBy reports whether the post currently carries a like from username.
func (p *Post) LikedBy(username string) bool {
	for _, like := range p.Likes {
		if like.Username == username {
			return true
		}
	}
	return false
}

// ToggleLike toggles membership of username in the like set: an existing
// entry is removed regardless of its timestamp, otherwise a new like is
// appended. Returns true when the post is liked after the call.
func (p *Post) ToggleLike(username string, now time.Time) bool {
	if p.LikedBy(username) {
		kept := p.Likes[:0]
		for _, like := range p.Likes {
			if like.Username != username {
				kept = append(kept, like)
			}
		}
		p.Likes = kept
		return false
	}

	p.Likes = append(p.Likes, Like{Username: username, CreatedAt: now})
	return true
}
