package logging

import (
	"log/slog"
	"os"
	"strings"
)

// Init configures the global slog logger.
// In production (ENVIRONMENT=production) it uses JSON output for log aggregation.
// Otherwise it uses the human-readable text handler.
func Init() {
	env := strings.ToLower(os.Getenv("ENVIRONMENT"))

	var handler slog.Handler
	if env == "production" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})
	}

	slog.SetDefault(slog.New(handler))
}

// WithComponent returns a logger with the component field attached.
// Use this for all logging within a single service or store.
func WithComponent(name string) *slog.Logger {
	return slog.With("component", name)
}

// WithBackfillRun returns a logger scoped to one backfill run.
func WithBackfillRun(logger *slog.Logger, runID string) *slog.Logger {
	return logger.With("run_id", runID)
}
