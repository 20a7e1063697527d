package logging

import (
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with the helpers used across the application
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new structured logger.
// Development mode logs human-readable text at debug level; production logs JSON at info level.
func NewLogger(isDevelopment bool) *Logger {
	var handler slog.Handler

	if isDevelopment {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}

	return &Logger{Logger: slog.New(handler)}
}

// WithFields returns a logger that attaches the given fields to every record
func (l *Logger) WithFields(fields map[string]any) *Logger {
	args := make([]any, 0, len(fields)*2)
	for key, value := range fields {
		args = append(args, key, value)
	}

	return &Logger{Logger: l.Logger.With(args...)}
}
