package logger

import "context"

// Logger is the logging interface the rest of the application depends on,
// keeping the underlying implementation swappable.
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)
}
