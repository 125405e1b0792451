package logger

import (
	"log/slog"
	"os"
)

// New returns a slog.Logger configured for the application environment.
func New(env string) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(env),
	})
	return slog.New(handler)
}

func parseLevel(env string) slog.Level {
	switch env {
	case "production", "staging":
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}
