package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tobyh/social-feed/internal/posts/application"
)

type App struct {
	server *http.Server
	config Config

	// Held so the bus listener lives for the app's lifetime.
	audit *application.PostEventLogger
}

func NewApp(server *http.Server, config Config, audit *application.PostEventLogger) *App {
	return &App{
		server: server,
		config: config,
		audit:  audit,
	}
}

// Run starts the application and handles graceful shutdown.
func (a *App) Run() error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		log.Printf("Starting server on %s", a.server.Addr)
		serverErrors <- a.server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
	case sig := <-sigChan:
		log.Printf("Received signal: %v", sig)
		log.Println("Shutting down server...")

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := a.server.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to gracefully shutdown server: %w", err)
		}
	}

	log.Println("Server stopped")
	return nil
}
