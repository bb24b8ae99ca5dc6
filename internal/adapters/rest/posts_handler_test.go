package rest_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tobyh/social-feed/internal/adapters/auth"
	"github.com/tobyh/social-feed/internal/adapters/rest"
	"github.com/tobyh/social-feed/internal/platform/eventbus"
	"github.com/tobyh/social-feed/internal/posts/application"
	"github.com/tobyh/social-feed/internal/posts/domain"
	"github.com/tobyh/social-feed/internal/posts/ports"
)

// memRepo holds posts without locking; memStore adds the mutex so
// WithinTransaction can hold it across the whole callback.
type memRepo struct {
	posts map[uuid.UUID]*domain.Post
}

func (r *memRepo) FindAllByCreatedAtDesc(ctx context.Context) ([]*domain.Post, error) {
	out := make([]*domain.Post, 0, len(r.posts))
	for _, p := range r.posts {
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Post, error) {
	p, ok := r.posts[id]
	if !ok {
		return nil, ports.ErrPostNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *memRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Post, error) {
	return r.FindByID(ctx, id)
}

func (r *memRepo) Insert(ctx context.Context, post *domain.Post) error {
	cp := *post
	r.posts[post.ID] = &cp
	return nil
}

func (r *memRepo) Save(ctx context.Context, post *domain.Post) error {
	if _, ok := r.posts[post.ID]; !ok {
		return ports.ErrPostNotFound
	}
	cp := *post
	r.posts[post.ID] = &cp
	return nil
}

func (r *memRepo) DeleteByID(ctx context.Context, id uuid.UUID) error {
	if _, ok := r.posts[id]; !ok {
		return ports.ErrPostNotFound
	}
	delete(r.posts, id)
	return nil
}

type memStore struct {
	mu   sync.Mutex
	repo memRepo
}

func newMemStore() *memStore {
	return &memStore{repo: memRepo{posts: make(map[uuid.UUID]*domain.Post)}}
}

func (s *memStore) FindAllByCreatedAtDesc(ctx context.Context) ([]*domain.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repo.FindAllByCreatedAtDesc(ctx)
}

func (s *memStore) FindByID(ctx context.Context, id uuid.UUID) (*domain.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repo.FindByID(ctx, id)
}

func (s *memStore) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repo.FindByIDForUpdate(ctx, id)
}

func (s *memStore) Insert(ctx context.Context, post *domain.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repo.Insert(ctx, post)
}

func (s *memStore) Save(ctx context.Context, post *domain.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repo.Save(ctx, post)
}

func (s *memStore) DeleteByID(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repo.DeleteByID(ctx, id)
}

func (s *memStore) WithinTransaction(ctx context.Context, fn func(repo ports.PostRepository) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&s.repo)
}

// testEnv bundles everything a handler test needs. The router mirrors the
// production route layout; requestPrincipal stands in for the JWT middleware
// and injects its principal into every protected request when non-nil.
type testEnv struct {
	router  chi.Router
	store   *memStore
	service *application.PostsService

	mu        sync.Mutex
	principal *domain.Principal
}

func (e *testEnv) setPrincipal(p *domain.Principal) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.principal = p
}

func (e *testEnv) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		e.mu.Lock()
		p := e.principal
		e.mu.Unlock()
		if p != nil {
			r = r.WithContext(auth.WithPrincipal(r.Context(), *p))
		}
		next.ServeHTTP(w, r)
	})
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	log := &mockLogger{}
	store := newMemStore()
	bus := eventbus.NewBus(log)
	service := application.NewPostsService(store, auth.NewContextAuthenticator(), bus, log)

	base := rest.NewBaseHandler(log)
	posts := rest.NewPostsHandler(base, service)

	env := &testEnv{store: store, service: service}

	r := chi.NewRouter()
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/posts", posts.GetPosts)
		r.Get("/posts/feed", posts.Feed)
		r.Get("/posts/{id}", posts.GetPost)
		r.Group(func(r chi.Router) {
			r.Use(env.authMiddleware)
			r.Post("/posts", posts.CreatePost)
			r.Delete("/posts/{id}", posts.DeletePost)
			r.Post("/posts/{id}/like", posts.LikePost)
		})
	})
	env.router = r
	return env
}

func alicePrincipal() domain.Principal {
	return domain.Principal{ID: uuid.New(), Username: "alice"}
}

func (e *testEnv) do(t *testing.T, method, path string, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body == "" {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func TestCreatePostEndpoint(t *testing.T) {
	env := newTestEnv(t)
	alice := alicePrincipal()
	env.setPrincipal(&alice)

	rec := env.do(t, http.MethodPost, "/api/v1/posts", `{"body":"hello world"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created domain.Post
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "hello world", created.Body)
	assert.Equal(t, "alice", created.Username)
	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.NotNil(t, created.Likes)
	assert.Empty(t, created.Likes)
}

func TestCreatePostEndpointRejectsEmptyBody(t *testing.T) {
	env := newTestEnv(t)
	alice := alicePrincipal()
	env.setPrincipal(&alice)

	rec := env.do(t, http.MethodPost, "/api/v1/posts", `{"body":"   "}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "VALIDATION_FAILED", resp["error"])
	assert.Equal(t, "Post body must not be empty", resp["message"])
}

func TestCreatePostEndpointRejectsInvalidJSON(t *testing.T) {
	env := newTestEnv(t)
	alice := alicePrincipal()
	env.setPrincipal(&alice)

	rec := env.do(t, http.MethodPost, "/api/v1/posts", `{not json`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreatePostEndpointRequiresAuth(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/posts", `{"body":"hello"}`)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "UNAUTHENTICATED", resp["error"])
}

func TestGetPostsEndpointNewestFirst(t *testing.T) {
	env := newTestEnv(t)
	alice := alicePrincipal()
	ctx := auth.WithPrincipal(context.Background(), alice)

	first, err := env.service.CreatePost(ctx, "first")
	require.NoError(t, err)
	second, err := env.service.CreatePost(ctx, "second")
	require.NoError(t, err)
	// Force distinct timestamps regardless of clock resolution.
	env.store.mu.Lock()
	env.store.repo.posts[second.ID].CreatedAt = env.store.repo.posts[first.ID].CreatedAt.Add(time.Second)
	env.store.mu.Unlock()

	rec := env.do(t, http.MethodGet, "/api/v1/posts", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var posts []domain.Post
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &posts))
	require.Len(t, posts, 2)
	assert.Equal(t, "second", posts[0].Body)
	assert.Equal(t, "first", posts[1].Body)
}

func TestGetPostEndpoint(t *testing.T) {
	env := newTestEnv(t)
	alice := alicePrincipal()
	ctx := auth.WithPrincipal(context.Background(), alice)

	created, err := env.service.CreatePost(ctx, "hello")
	require.NoError(t, err)

	rec := env.do(t, http.MethodGet, "/api/v1/posts/"+created.ID.String(), "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got domain.Post
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, created.ID, got.ID)
}

func TestGetPostEndpointNotFound(t *testing.T) {
	env := newTestEnv(t)

	for _, id := range []string{uuid.NewString(), "not-a-uuid"} {
		rec := env.do(t, http.MethodGet, "/api/v1/posts/"+id, "")
		require.Equal(t, http.StatusNotFound, rec.Code)

		var resp map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "NOT_FOUND", resp["error"])
		assert.Equal(t, "Post not found", resp["message"])
	}
}

func TestDeletePostEndpoint(t *testing.T) {
	env := newTestEnv(t)
	alice := alicePrincipal()
	ctx := auth.WithPrincipal(context.Background(), alice)

	created, err := env.service.CreatePost(ctx, "to delete")
	require.NoError(t, err)

	env.setPrincipal(&alice)
	rec := env.do(t, http.MethodDelete, "/api/v1/posts/"+created.ID.String(), "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp rest.DeletePostResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Post deleted successfully", resp.Message)

	rec = env.do(t, http.MethodGet, "/api/v1/posts/"+created.ID.String(), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeletePostEndpointForbiddenForNonOwner(t *testing.T) {
	env := newTestEnv(t)
	alice := alicePrincipal()
	ctx := auth.WithPrincipal(context.Background(), alice)

	created, err := env.service.CreatePost(ctx, "owned by alice")
	require.NoError(t, err)

	bob := domain.Principal{ID: uuid.New(), Username: "bob"}
	env.setPrincipal(&bob)
	rec := env.do(t, http.MethodDelete, "/api/v1/posts/"+created.ID.String(), "")
	require.Equal(t, http.StatusForbidden, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "FORBIDDEN", resp["error"])
	assert.Equal(t, "Action not allowed", resp["message"])
}

func TestLikePostEndpointToggles(t *testing.T) {
	env := newTestEnv(t)
	alice := alicePrincipal()
	ctx := auth.WithPrincipal(context.Background(), alice)

	created, err := env.service.CreatePost(ctx, "likeable")
	require.NoError(t, err)

	env.setPrincipal(&alice)
	rec := env.do(t, http.MethodPost, "/api/v1/posts/"+created.ID.String()+"/like", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var liked domain.Post
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &liked))
	require.Len(t, liked.Likes, 1)
	assert.Equal(t, "alice", liked.Likes[0].Username)

	rec = env.do(t, http.MethodPost, "/api/v1/posts/"+created.ID.String()+"/like", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var unliked domain.Post
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &unliked))
	assert.Empty(t, unliked.Likes)
}

func TestLikePostEndpointMissingPost(t *testing.T) {
	env := newTestEnv(t)
	alice := alicePrincipal()
	env.setPrincipal(&alice)

	rec := env.do(t, http.MethodPost, "/api/v1/posts/"+uuid.NewString()+"/like", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "VALIDATION_FAILED", resp["error"])
	assert.Equal(t, "Post not found", resp["message"])
}

func TestFeedStreamsNewPosts(t *testing.T) {
	env := newTestEnv(t)
	srv := httptest.NewServer(env.router)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/posts/feed")
	require.NoError(t, err)
	defer resp.Body.Close()

	// Headers arrive only after the subscription is registered, so any post
	// created from here on must show up on the stream.
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	alice := alicePrincipal()
	ctx := auth.WithPrincipal(context.Background(), alice)
	created, err := env.service.CreatePost(ctx, "streamed")
	require.NoError(t, err)

	reader := bufio.NewReader(resp.Body)
	var eventLine, dataLine string
	deadline := time.After(5 * time.Second)
	lines := make(chan string, 4)
	errs := make(chan error, 1)
	go func() {
		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				errs <- err
				return
			}
			lines <- strings.TrimRight(line, "\n")
		}
	}()
	for dataLine == "" {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for feed event")
		case err := <-errs:
			t.Fatalf("feed stream closed early: %v", err)
		case line := <-lines:
			switch {
			case strings.HasPrefix(line, "event: "):
				eventLine = strings.TrimPrefix(line, "event: ")
			case strings.HasPrefix(line, "data: "):
				dataLine = strings.TrimPrefix(line, "data: ")
			}
		}
	}

	assert.Equal(t, "newPost", eventLine)

	var payload struct {
		NewPost *domain.Post `json:"newPost"`
	}
	require.NoError(t, json.Unmarshal([]byte(dataLine), &payload))
	require.NotNil(t, payload.NewPost)
	assert.Equal(t, created.ID, payload.NewPost.ID)
	assert.Equal(t, "streamed", payload.NewPost.Body)
}
