package logger

import (
	"log/slog"
	"os"
)

// New builds the process logger: JSON in prod or when format is "json",
// human-readable text otherwise.
func New(env, format string) *slog.Logger {
	var h slog.Handler
	if format == "json" || env == "prod" {
		h = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	} else {
		h = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	return slog.New(h)
}
