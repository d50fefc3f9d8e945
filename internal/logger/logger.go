// Package logger sets up Adjutant's process-wide JSON slog logger and
// carries the per-request id through context for the HTTP middleware.
package logger

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/adjutant-ai/adjutant/internal/config"
)

type ctxKey int

const requestIDKey ctxKey = iota

// New builds the process logger: JSON records on stdout tagged with the
// service name, so scheduler and API logs from one binary stay
// attributable when shipped to a shared sink.
func New(cfg config.Logging) *slog.Logger {
	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: Level(cfg.Level)})
	return slog.New(h).With(slog.String("service", cfg.Service))
}

// Level maps a config string to its slog.Level. Unknown values fall back
// to Info rather than failing startup.
func Level(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// WithRequestID stores the request id for handlers and loggers further
// down the chain.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestID returns the request id stored in ctx, or "" when absent.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
