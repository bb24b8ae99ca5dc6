package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tobyh/social-feed/internal/platform/postgres"
	"github.com/tobyh/social-feed/internal/posts/domain"
	"github.com/tobyh/social-feed/internal/posts/ports"
)

var postColumns = []string{"id", "body", "username", "user_id", "created_at", "likes"}

// PostRepository implements ports.PostStore using PostgreSQL. Likes are
// stored as a jsonb column on the posts row, so a post and its likes live
// and die together: a hard delete cannot leave orphaned likes behind.
type PostRepository struct {
	postgres.BaseRepository
	txm postgres.TransactionManager
}

// NewPostRepository creates a new PostgreSQL posts repository.
func NewPostRepository(db *pgxpool.Pool, txm postgres.TransactionManager) *PostRepository {
	return &PostRepository{
		BaseRepository: postgres.NewBaseRepository(db),
		txm:            txm,
	}
}

// WithTx creates a repository instance bound to the provided transaction.
func (r *PostRepository) WithTx(tx pgx.Tx) *PostRepository {
	return &PostRepository{
		BaseRepository: r.BaseRepository.WithTx(tx),
		txm:            r.txm,
	}
}

// WithinTransaction runs fn against a repository bound to one transaction,
// committing on nil and rolling back on error.
func (r *PostRepository) WithinTransaction(ctx context.Context, fn func(repo ports.PostRepository) error) error {
	tx, err := r.txm.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("PostRepository.WithinTransaction: begin: %w", err)
	}

	if err := fn(r.WithTx(tx.Tx())); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("PostRepository.WithinTransaction: commit: %w", err)
	}
	return nil
}

// FindAllByCreatedAtDesc retrieves every post, most recent first.
func (r *PostRepository) FindAllByCreatedAtDesc(ctx context.Context) ([]*domain.Post, error) {
	query, args, err := r.SB.
		Select(postColumns...).
		From("posts").
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("PostRepository.FindAllByCreatedAtDesc: build query: %w", err)
	}

	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("PostRepository.FindAllByCreatedAtDesc: %w", err)
	}
	defer rows.Close()

	posts := make([]*domain.Post, 0)
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("PostRepository.FindAllByCreatedAtDesc: scan: %w", err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("PostRepository.FindAllByCreatedAtDesc: %w", err)
	}

	return posts, nil
}

// FindByID retrieves a post by its id.
func (r *PostRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Post, error) {
	return r.findByID(ctx, id, false)
}

// FindByIDForUpdate retrieves a post and locks its row until the surrounding
// transaction ends. Outside a transaction the lock is released immediately,
// so this is only meaningful inside WithinTransaction.
func (r *PostRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Post, error) {
	return r.findByID(ctx, id, true)
}

func (r *PostRepository) findByID(ctx context.Context, id uuid.UUID, forUpdate bool) (*domain.Post, error) {
	qb := r.SB.
		Select(postColumns...).
		From("posts").
		Where(sq.Eq{"id": pgtype.UUID{Bytes: id, Valid: true}})
	if forUpdate {
		qb = qb.Suffix("FOR UPDATE")
	}

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("PostRepository.FindByID: build query: %w", err)
	}

	post, err := scanPost(r.DB.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ports.ErrPostNotFound
		}
		return nil, fmt.Errorf("PostRepository.FindByID: %w", err)
	}

	return post, nil
}

// Insert persists a new post.
func (r *PostRepository) Insert(ctx context.Context, post *domain.Post) error {
	likes, err := marshalLikes(post.Likes)
	if err != nil {
		return fmt.Errorf("PostRepository.Insert: %w", err)
	}

	query, args, err := r.SB.
		Insert("posts").
		Columns(postColumns...).
		Values(
			pgtype.UUID{Bytes: post.ID, Valid: true},
			post.Body,
			post.Username,
			pgtype.UUID{Bytes: post.UserID, Valid: true},
			pgtype.Timestamptz{Time: post.CreatedAt, Valid: true},
			likes,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("PostRepository.Insert: build query: %w", err)
	}

	if _, err := r.DB.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("PostRepository.Insert: %w", err)
	}

	return nil
}

// Save replaces an existing post. Creator identity and creation time are
// immutable, so only body and likes are written.
func (r *PostRepository) Save(ctx context.Context, post *domain.Post) error {
	likes, err := marshalLikes(post.Likes)
	if err != nil {
		return fmt.Errorf("PostRepository.Save: %w", err)
	}

	query, args, err := r.SB.
		Update("posts").
		Set("body", post.Body).
		Set("likes", likes).
		Where(sq.Eq{"id": pgtype.UUID{Bytes: post.ID, Valid: true}}).
		ToSql()
	if err != nil {
		return fmt.Errorf("PostRepository.Save: build query: %w", err)
	}

	result, err := r.DB.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("PostRepository.Save: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ports.ErrPostNotFound
	}

	return nil
}

// DeleteByID removes a post; the embedded likes go with the row.
func (r *PostRepository) DeleteByID(ctx context.Context, id uuid.UUID) error {
	query, args, err := r.SB.
		Delete("posts").
		Where(sq.Eq{"id": pgtype.UUID{Bytes: id, Valid: true}}).
		ToSql()
	if err != nil {
		return fmt.Errorf("PostRepository.DeleteByID: build query: %w", err)
	}

	result, err := r.DB.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("PostRepository.DeleteByID: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ports.ErrPostNotFound
	}

	return nil
}

func marshalLikes(likes []domain.Like) ([]byte, error) {
	if likes == nil {
		likes = []domain.Like{}
	}
	data, err := json.Marshal(likes)
	if err != nil {
		return nil, fmt.Errorf("marshal likes: %w", err)
	}
	return data, nil
}

// scanPost reads a post from a row with the standard column order.
func scanPost(row pgx.Row) (*domain.Post, error) {
	var (
		id        pgtype.UUID
		userID    pgtype.UUID
		createdAt pgtype.Timestamptz
		likesJSON []byte
		post      domain.Post
	)

	if err := row.Scan(&id, &post.Body, &post.Username, &userID, &createdAt, &likesJSON); err != nil {
		return nil, err
	}

	post.ID = uuid.UUID(id.Bytes)
	post.UserID = uuid.UUID(userID.Bytes)
	post.CreatedAt = createdAt.Time
	post.Likes = []domain.Like{}
	if len(likesJSON) > 0 {
		if err := json.Unmarshal(likesJSON, &post.Likes); err != nil {
			return nil, fmt.Errorf("unmarshal likes: %w", err)
		}
	}

	return &post, nil
}
