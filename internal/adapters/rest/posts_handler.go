package rest

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/tobyh/social-feed/internal/posts/application"
)

// PostsHandler handles HTTP requests for posts.
type PostsHandler struct {
	*BaseHandler
	service *application.PostsService
}

// NewPostsHandler creates a new posts handler.
func NewPostsHandler(base *BaseHandler, service *application.PostsService) *PostsHandler {
	return &PostsHandler{
		BaseHandler: base,
		service:     service,
	}
}

// CreatePostRequest is the JSON body for post creation.
type CreatePostRequest struct {
	Body string `json:"body"`
}

// DeletePostResponse carries the deletion confirmation message.
type DeletePostResponse struct {
	Message string `json:"message"`
}

// GetPosts returns all posts, most recent first.
// NOTE: Public endpoint - no authentication required.
func (h *PostsHandler) GetPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.service.GetPosts(r.Context())
	if err != nil {
		h.HandleError(w, r, err)
		return
	}

	h.WriteJSONResponse(w, r, posts, http.StatusOK)
}

// GetPost returns a single post by id.
// NOTE: Public endpoint - no authentication required.
func (h *PostsHandler) GetPost(w http.ResponseWriter, r *http.Request) {
	post, err := h.service.GetPost(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.HandleError(w, r, err)
		return
	}

	h.WriteJSONResponse(w, r, post, http.StatusOK)
}

// CreatePost creates a new post owned by the authenticated principal.
// NOTE: The JWT middleware runs before this; the service re-checks the
// principal before any write.
func (h *PostsHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	var req CreatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.WriteJSONError(w, r, "VALIDATION_FAILED", "Invalid request body", http.StatusBadRequest)
		return
	}

	post, err := h.service.CreatePost(r.Context(), req.Body)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}

	h.WriteJSONResponse(w, r, post, http.StatusCreated)
}

// DeletePost deletes a post. The service enforces ownership.
func (h *PostsHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	confirmation, err := h.service.DeletePost(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.HandleError(w, r, err)
		return
	}

	h.WriteJSONResponse(w, r, DeletePostResponse{Message: confirmation}, http.StatusOK)
}

// LikePost toggles the authenticated principal's like on a post and returns
// the updated post.
func (h *PostsHandler) LikePost(w http.ResponseWriter, r *http.Request) {
	post, err := h.service.LikePost(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.HandleError(w, r, err)
		return
	}

	h.WriteJSONResponse(w, r, post, http.StatusOK)
}

// Feed streams new posts to the client as Server-Sent Events. Each post
// created after the connection is established arrives as one `newPost`
// event; posts created earlier are never replayed. The stream runs until
// the client disconnects.
// NOTE: Public endpoint - no authentication required.
func (h *PostsHandler) Feed(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		h.WriteJSONError(w, r, "INTERNAL_SERVER_ERROR", "streaming unsupported", http.StatusInternalServerError)
		return
	}

	sub := h.service.SubscribeNewPosts(r.Context())
	defer sub.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case event := <-sub.C():
			data, err := json.Marshal(event.Payload)
			if err != nil {
				h.logger.Error(r.Context(), "failed to marshal feed event", "error", err)
				continue
			}
			fmt.Fprintf(w, "event: newPost\ndata: %s\n\n", data)
			flusher.Flush()
		}
	}
}
