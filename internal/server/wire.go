//go:build wireinject
// +build wireinject

package server

import (
	"context"

	"github.com/google/wire"
	"github.com/tobyh/social-feed/internal/adapters/auth"
	"github.com/tobyh/social-feed/internal/adapters/postgres"
	"github.com/tobyh/social-feed/internal/adapters/rest"
	"github.com/tobyh/social-feed/internal/platform/eventbus"
	"github.com/tobyh/social-feed/internal/platform/logger"
	"github.com/tobyh/social-feed/internal/posts/application"
)

// InitializeApp creates a fully configured App with all dependencies
func InitializeApp(ctx context.Context) (*App, func(), error) {
	wire.Build(
		// Bootstrap phase
		logger.ProviderSet,
		LoadConfig,
		provideLoggerConfig,

		// Database
		ConnectDatabase,

		// Repository providers (includes interface binding)
		postgres.ProviderSet,

		// Event bus
		eventbus.ProviderSet,

		// Application services
		application.ProviderSet,

		// REST handlers
		rest.ProviderSet,
		provideVersion, // Provide version string for HealthHandler

		// Auth middleware and authenticator
		auth.ProviderSet,
		provideJWTMiddleware,

		// HTTP Server
		NewHTTPServer,

		// App
		NewApp,
	)

	return nil, nil, nil
}

// provideJWTMiddleware creates JWT middleware from config
func provideJWTMiddleware(ctx context.Context, config Config) (*auth.JWTMiddleware, error) {
	return auth.NewJWTMiddleware(ctx, config.JWKSEndpoint, config.JWTIssuer)
}

// provideVersion provides the application version
func provideVersion() string {
	return "1.0.0"
}

// provideLoggerConfig creates logger config from server config
func provideLoggerConfig(config Config) logger.Config {
	return logger.Config{
		Environment: config.Environment,
		LogLevel:    config.LogLevel,
	}
}
