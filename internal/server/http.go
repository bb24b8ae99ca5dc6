package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/tobyh/social-feed/internal/adapters/auth"
	"github.com/tobyh/social-feed/internal/adapters/rest"
	"github.com/tobyh/social-feed/internal/platform/logger"
)

// NewHTTPServer creates and configures the HTTP server with all routes.
// Reads and the event feed are public; every mutation goes through the JWT
// middleware.
func NewHTTPServer(
	config Config,
	posts *rest.PostsHandler,
	health *rest.HealthHandler,
	jwtMiddleware *auth.JWTMiddleware,
	log logger.Logger,
) *http.Server {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health/live", health.GetLiveness)
		r.Get("/health/ready", health.GetReadiness)

		r.Get("/posts", posts.GetPosts)
		r.Get("/posts/feed", posts.Feed)
		r.Get("/posts/{id}", posts.GetPost)

		r.Group(func(r chi.Router) {
			r.Use(jwtMiddleware.Middleware)
			r.Post("/posts", posts.CreatePost)
			r.Delete("/posts/{id}", posts.DeletePost)
			r.Post("/posts/{id}/like", posts.LikePost)
		})
	})

	handler := withObservability(r, log)

	return &http.Server{
		Addr:        config.ServerAddress,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: the SSE feed holds its connection open
		// indefinitely and a write deadline would sever every subscriber.
		IdleTimeout: 60 * time.Second,
	}
}

// withObservability adds request logging.
func withObservability(handler http.Handler, log logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrr := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		handler.ServeHTTP(wrr, r)

		duration := time.Since(start)

		var username string
		if principal, ok := auth.PrincipalFromContext(r.Context()); ok {
			username = principal.Username
		}

		log.Info(r.Context(), "HTTP request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrr.Status(),
			"duration_ms", duration.Milliseconds(),
			"remote_addr", r.RemoteAddr,
			"username", username,
		)
	})
}
